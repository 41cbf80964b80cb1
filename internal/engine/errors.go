package engine

import "errors"

// Engine configuration and lifecycle errors.
//
// Design decision: We use package-level sentinel errors so callers can use
// errors.Is() for programmatic handling. Configuration problems (empty probe
// set, inconsistent allow-list) are caught at construction, not at Generate
// time: a misdeclared engine should fail fast, before any probe runs.
var (
	// ErrNoProbes is returned when an engine is declared with an empty
	// probe set. An empty set is a configuration error, not a runtime one;
	// it is the only case in which the pipeline produces no usable output.
	ErrNoProbes = errors.New("engine has no probes: probe set is static configuration and must not be empty")

	// ErrDuplicateProbe is returned when two specs declare the same name.
	// Probe names double as record schema keys and must be unique.
	ErrDuplicateProbe = errors.New("duplicate probe name in engine definition")

	// ErrUnknownStableKey is returned when an allow-list rule references a
	// key that no probe declares. A dangling rule would silently hash the
	// null sentinel forever.
	ErrUnknownStableKey = errors.New("stable rule references a key not in the probe schema")

	// ErrStableVolatileOverlap is returned when a key appears in both the
	// allow-list and the volatile rejection set. The two sets partition
	// the schema; overlap means the declaration contradicts itself.
	ErrStableVolatileOverlap = errors.New("key declared both stable and volatile")

	// ErrUnclassifiedKey is returned when a schema key appears in neither
	// the allow-list nor the volatile rejection set. Every field's
	// stability verdict must be explicit and auditable, never implicit.
	ErrUnclassifiedKey = errors.New("schema key neither allow-listed nor declared volatile")

	// ErrNotGenerated is returned by Hash, Compact, and LastResult before
	// the first successful Generate call.
	ErrNotGenerated = errors.New("no fingerprint generated yet: call Generate first")

	// ErrNoEngines is returned when a Combined is declared with no engines.
	ErrNoEngines = errors.New("combined fingerprint requires at least one engine")
)
