// Package identity derives secondary identifiers from an already-computed
// fingerprint: a collision-safe content digest for history comparison and
// app-scoped protected IDs for consumers that must not share a raw
// fingerprint.
//
// Nothing here feeds back into the fingerprint hash itself. The 32-bit fold
// stays a pure function of stable feature content; these derivations sit
// strictly downstream of it.
package identity
