package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// UnmarshalJSON decodes a Value from its canonical JSON rendering. Numbers
// without a fraction or exponent decode as KindInt, all others as KindFloat,
// mirroring how the constructors distinguish the two kinds.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	parsed, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// valueFromAny converts a decoded JSON value into a Value.
func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			i, err := t.Int64()
			if err != nil {
				return Value{}, fmt.Errorf("parse integer %q: %w", s, err)
			}
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("parse float %q: %w", s, err)
		}
		return Float(f), nil
	case string:
		return String(t), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			v, err := valueFromAny(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return List(elems...), nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, e := range t {
			v, err := valueFromAny(e)
			if err != nil {
				return Value{}, err
			}
			fields[k] = v
		}
		return Map(fields), nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON value %T", raw)
	}
}

// UnmarshalJSON decodes a Record from its JSON rendering. The schema key
// order is taken from the object order in the document, which MarshalJSON
// guarantees is schema declaration order.
func (r *Record) UnmarshalJSON(data []byte) error {
	var envelope struct {
		SchemaVersion string          `json:"schema_version"`
		Fields        json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	// Walk the fields object token by token to preserve key order.
	// Decoding into a Go map would lose it.
	dec := json.NewDecoder(bytes.NewReader(envelope.Fields))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("record fields: expected object, got %v", tok)
	}

	var schema []string
	fields := make(map[string]Value)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record fields: expected key, got %v", keyTok)
		}

		var v Value
		if err := dec.Decode(&v); err != nil {
			return err
		}
		schema = append(schema, key)
		fields[key] = v
	}

	r.version = envelope.SchemaVersion
	r.schema = schema
	r.fields = fields
	return nil
}
