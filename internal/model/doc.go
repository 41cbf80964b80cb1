// Package model defines the data structures shared across the fingerprint
// pipeline: canonical values, fixed-schema records, stable feature sets, and
// the result types returned by engines and the multi-engine combiner.
//
// Everything in this package is deliberately deterministic. Value serializes
// map fields in sorted key order, Record serializes fields in declared schema
// order, and FeatureSet preserves allow-list declaration order. Host map
// iteration order can never leak into a serialized representation.
package model
