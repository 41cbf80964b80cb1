// Package engine assembles probe outcomes into fixed-shape fingerprint
// records, classifies which fields are session-stable, and folds the stable
// subset into a deterministic hash.
//
// An Engine owns one probe family: its specs, its record schema, a static
// allow-list of stable features, and an explicit rejection set of volatile
// fields. Combined runs several engines and folds their hashes into one
// composite identifier.
//
// Determinism is the contract here. Record shape, feature ordering, and the
// resulting hash depend only on declared configuration and probe content,
// never on completion order or map iteration order.
package engine
