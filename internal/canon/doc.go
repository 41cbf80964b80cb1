// Package canon implements the canonicalizer and hash folder: it joins a
// stable feature set into one canonical string and folds that string into an
// unsigned 32-bit integer with a djb2-style rolling hash.
//
// The fold is a single reusable primitive over canonical strings. The same
// function hashes one engine's feature set and, unmodified, the multi-engine
// combiner's concatenated per-engine hashes. It is a fast checksum for
// re-identification, not a cryptographic hash.
package canon
