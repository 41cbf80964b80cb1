package model

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind identifies the concrete type held by a Value.
type Kind int

// Value kinds. KindNull is the zero value so that an uninitialized Value
// is the absence sentinel, not an invalid state.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a structured probe value: a primitive, an ordered list, or a
// field map, recursively composed. It is the only type probes may return,
// which guarantees every collected signal can be serialized to a canonical
// string without loss.
//
// Design decision: We use a closed value type rather than interface{} or
// json.RawMessage because:
//  1. The type cannot express cycles or opaque host objects, so
//     canonicalization is total by construction
//  2. Map entries are sorted at construction time, so no caller can
//     accidentally depend on host map iteration order
//  3. Equality and serialization are deterministic without reflection
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	list  []Value
	keys  []string // sorted map keys, parallel lookup into fields
	field map[string]Value
}

// Null returns the absence sentinel. It is also the zero Value.
func Null() Value {
	return Value{}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int returns an integer Value.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float returns a floating-point Value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// List returns an ordered list Value. The caller's element order is
// preserved; sorting, when required for stability, is the stability
// classifier's responsibility.
func List(elems ...Value) Value {
	list := make([]Value, len(elems))
	copy(list, elems)
	return Value{kind: KindList, list: list}
}

// StringList returns a list Value built from string elements.
// This is a convenience for the common case of list-natured probes.
func StringList(elems ...string) Value {
	list := make([]Value, len(elems))
	for i, s := range elems {
		list[i] = String(s)
	}
	return Value{kind: KindList, list: list}
}

// Map returns a field-map Value. Keys are sorted at construction so the
// serialization order is fixed regardless of how the input map iterates.
func Map(fields map[string]Value) Value {
	keys := make([]string, 0, len(fields))
	field := make(map[string]Value, len(fields))
	for k, v := range fields {
		keys = append(keys, k)
		field[k] = v
	}
	sort.Strings(keys)
	return Value{kind: KindMap, keys: keys, field: field}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is the absence sentinel.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Str returns the string payload. It is the zero string unless the value
// is a KindString.
func (v Value) Str() string {
	return v.s
}

// IntVal returns the integer payload. It is zero unless the value is a KindInt.
func (v Value) IntVal() int64 {
	return v.i
}

// Elems returns a copy of the list elements, or nil for non-list values.
func (v Value) Elems() []Value {
	if v.kind != KindList {
		return nil
	}
	elems := make([]Value, len(v.list))
	copy(elems, v.list)
	return elems
}

// Field returns the value stored under key in a map Value.
// The second return reports whether the key exists.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	f, ok := v.field[key]
	return f, ok
}

// Keys returns the sorted keys of a map Value, or nil for non-map values.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, len(v.keys))
	copy(keys, v.keys)
	return keys
}

// Canonical renders the value as its canonical string: compact JSON with
// sorted map keys, shortest round-trip float formatting, and JSON string
// escaping. Two values with equal content always render identically.
func (v Value) Canonical() string {
	var sb strings.Builder
	v.appendCanonical(&sb)
	return sb.String()
}

// MarshalJSON emits exactly the canonical rendering, so JSON output and
// hash input never diverge.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(v.Canonical()), nil
}

// appendCanonical writes the canonical rendering to sb.
func (v Value) appendCanonical(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		// Shortest representation that round-trips through float64.
		sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		appendQuoted(sb, v.s)
	case KindList:
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteByte(',')
			}
			e.appendCanonical(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			appendQuoted(sb, k)
			sb.WriteByte(':')
			v.field[k].appendCanonical(sb)
		}
		sb.WriteByte('}')
	}
}

// appendQuoted writes s as a JSON string literal. We escape only what JSON
// requires (quote, backslash, control characters) so the rendering is valid
// JSON and byte-stable across Go versions, unlike strconv.Quote which uses
// Go-specific \x escapes.
func appendQuoted(sb *strings.Builder, s string) {
	const hexDigits = "0123456789abcdef"

	sb.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			sb.WriteString(`\"`)
		case r == '\\':
			sb.WriteString(`\\`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20:
			sb.WriteString(`\u00`)
			sb.WriteByte(hexDigits[byte(r)>>4])
			sb.WriteByte(hexDigits[byte(r)&0xf])
		case r == utf8.RuneError:
			// Invalid UTF-8 input bytes map to the replacement character
			// so the same bytes always render the same way.
			sb.WriteRune(utf8.RuneError)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}

// Equal reports whether two values have identical content. Because the
// canonical rendering is injective over value content, comparing renderings
// is equivalent to deep comparison.
func (v Value) Equal(other Value) bool {
	return v.Canonical() == other.Canonical()
}
