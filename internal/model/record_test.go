package model

import (
	"strings"
	"testing"
)

// TestNewRecord tests record construction invariants.
func TestNewRecord(t *testing.T) {
	t.Parallel()

	t.Run("every schema key starts as null", func(t *testing.T) {
		t.Parallel()

		r := NewRecord("v1", []string{"cpu", "dmi", "memory"})

		for _, k := range r.Schema() {
			if !r.Get(k).IsNull() {
				t.Errorf("field %q should start as null", k)
			}
		}
	})

	t.Run("schema is a defensive copy", func(t *testing.T) {
		t.Parallel()

		schema := []string{"a", "b"}
		r := NewRecord("v1", schema)
		schema[0] = "mutated"

		if r.Schema()[0] != "a" {
			t.Error("record schema should not alias caller slice")
		}
	})
}

// TestRecordSet tests field assignment semantics.
func TestRecordSet(t *testing.T) {
	t.Parallel()

	t.Run("set within schema", func(t *testing.T) {
		t.Parallel()

		r := NewRecord("v1", []string{"cpu"})
		r.Set("cpu", String("amd"))

		if got := r.Get("cpu").Str(); got != "amd" {
			t.Errorf("Get(cpu) = %q, want amd", got)
		}
	})

	t.Run("set outside schema is ignored", func(t *testing.T) {
		t.Parallel()

		r := NewRecord("v1", []string{"cpu"})
		r.Set("rogue", Int(1))

		if len(r.Schema()) != 1 {
			t.Error("schema must never grow")
		}
		if !r.Get("rogue").IsNull() {
			t.Error("non-schema key must read as null")
		}
	})
}

// TestRecordMarshalJSON tests that JSON output preserves schema order and
// includes every schema key even when fields failed.
func TestRecordMarshalJSON(t *testing.T) {
	t.Parallel()

	r := NewRecord("v1", []string{"zeta", "alpha", "mid"})
	r.Set("alpha", Int(1))
	// zeta and mid stay null, as after a probe failure.

	data, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := string(data)
	want := `{"schema_version":"v1","fields":{"zeta":null,"alpha":1,"mid":null}}`
	if got != want {
		t.Errorf("MarshalJSON = %s, want %s", got, want)
	}

	// Declaration order, not lexicographic order.
	if strings.Index(got, "zeta") > strings.Index(got, "alpha") {
		t.Error("fields must serialize in schema declaration order")
	}
}
