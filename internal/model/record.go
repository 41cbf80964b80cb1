package model

import "strings"

// Record is a fingerprint record: a field map keyed by a fixed, versioned
// schema of field names, one per probe family.
//
// Invariant: the key set is identical across all invocations regardless of
// which probes failed. A failed or unsupported probe holds the Null sentinel;
// the key itself is never absent. This is what keeps the record shape stable
// even when its content is not.
type Record struct {
	version string
	schema  []string
	fields  map[string]Value
}

// NewRecord creates a Record with the given schema version and ordered
// schema keys. Every field starts as the Null sentinel.
func NewRecord(version string, schema []string) *Record {
	fields := make(map[string]Value, len(schema))
	keys := make([]string, len(schema))
	copy(keys, schema)
	for _, k := range keys {
		fields[k] = Null()
	}
	return &Record{version: version, schema: keys, fields: fields}
}

// Version returns the schema version string.
func (r *Record) Version() string {
	return r.version
}

// Schema returns the ordered schema keys.
func (r *Record) Schema() []string {
	keys := make([]string, len(r.schema))
	copy(keys, r.schema)
	return keys
}

// Set stores a value under a schema key. Setting a key outside the schema
// is ignored; the schema is fixed at construction and never grows.
func (r *Record) Set(key string, v Value) {
	if _, ok := r.fields[key]; !ok {
		return
	}
	r.fields[key] = v
}

// Get returns the value stored under key, or the Null sentinel for keys
// outside the schema.
func (r *Record) Get(key string) Value {
	return r.fields[key]
}

// MarshalJSON emits the record as a JSON object with every schema key in
// schema declaration order. Map iteration order never influences the output.
func (r *Record) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(`{"schema_version":`)
	appendQuoted(&sb, r.version)
	sb.WriteString(`,"fields":{`)
	for i, k := range r.schema {
		if i > 0 {
			sb.WriteByte(',')
		}
		appendQuoted(&sb, k)
		sb.WriteByte(':')
		r.fields[k].appendCanonical(&sb)
	}
	sb.WriteString("}}")
	return []byte(sb.String()), nil
}
