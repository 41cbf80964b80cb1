package sysprobe

import (
	"context"
	"testing"

	"github.com/hostprint/hostprint/internal/engine"
	"github.com/hostprint/hostprint/internal/probe"
)

// TestDefinitionsValidate tests that both production definitions pass the
// engine's declaration invariants: unique names, classified keys, disjoint
// stable/volatile sets.
func TestDefinitionsValidate(t *testing.T) {
	t.Parallel()

	for _, def := range []engine.Definition{PlatformDefinition(), HardwareDefinition()} {
		t.Run(def.Name, func(t *testing.T) {
			t.Parallel()

			if _, err := engine.New(def, engine.WithLogger(quietLogger())); err != nil {
				t.Errorf("definition %q invalid: %v", def.Name, err)
			}
		})
	}
}

// TestStableVolatileDisjoint makes the rejection sets auditable: every
// volatile key must be a schema key and never allow-listed.
func TestStableVolatileDisjoint(t *testing.T) {
	t.Parallel()

	for _, def := range []engine.Definition{PlatformDefinition(), HardwareDefinition()} {
		t.Run(def.Name, func(t *testing.T) {
			t.Parallel()

			schema := make(map[string]bool)
			for _, spec := range def.Specs {
				schema[spec.Name] = true
			}
			stable := make(map[string]bool)
			for _, rule := range def.Stable {
				stable[rule.Key] = true
			}

			for _, key := range def.Volatile {
				if !schema[key] {
					t.Errorf("volatile key %q is not a schema key", key)
				}
				if stable[key] {
					t.Errorf("key %q declared both stable and volatile", key)
				}
			}
		})
	}
}

// TestVolatileRejection pins the exact volatile families per engine so a
// future edit that silently starts hashing battery or load fails loudly.
func TestVolatileRejection(t *testing.T) {
	t.Parallel()

	wantPlatform := map[string]bool{"load": true, "uptime": true}
	for _, key := range PlatformDefinition().Volatile {
		if !wantPlatform[key] {
			t.Errorf("unexpected platform volatile key %q", key)
		}
		delete(wantPlatform, key)
	}
	for key := range wantPlatform {
		t.Errorf("platform volatile key %q missing", key)
	}

	wantHardware := map[string]bool{
		"battery": true, "memory_usage": true, "storage_usage": true, "network_activity": true,
	}
	for _, key := range HardwareDefinition().Volatile {
		if !wantHardware[key] {
			t.Errorf("unexpected hardware volatile key %q", key)
		}
		delete(wantHardware, key)
	}
	for key := range wantHardware {
		t.Errorf("hardware volatile key %q missing", key)
	}
}

// TestEnginesOrder tests the declared combiner order.
func TestEnginesOrder(t *testing.T) {
	t.Parallel()

	engines, err := Engines(engine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(engines) != 2 {
		t.Fatalf("engines len = %d, want 2", len(engines))
	}
	if engines[0].Name() != PlatformEngineName || engines[1].Name() != HardwareEngineName {
		t.Errorf("engine order = [%s %s], want [platform hardware]",
			engines[0].Name(), engines[1].Name())
	}
}

// TestGenerateAgainstFixtures runs the full platform engine against fixture
// roots and checks determinism end to end.
func TestGenerateAgainstFixtures(t *testing.T) {
	t.Parallel()

	etc := t.TempDir()
	proc := t.TempDir()
	sys := t.TempDir()
	fonts := t.TempDir()
	writeFixture(t, etc, "ID=debian\nNAME=Debian\nVERSION_ID=12\n", "os-release")
	writeFixture(t, etc, "Europe/Berlin\n", "timezone")
	writeFixture(t, proc, "Linux\n", "sys", "kernel", "ostype")
	writeFixture(t, proc, "6.1.0\n", "sys", "kernel", "osrelease")
	writeFixture(t, proc, "0.1 0.2 0.3 1/2 3\n", "loadavg")
	writeFixture(t, proc, "100.0 200.0\n", "uptime")
	writeFixture(t, fonts, "", "dejavu.ttf")

	sessionOpts := []probe.SessionOption{
		probe.WithEtcRoot(etc),
		probe.WithProcRoot(proc),
		probe.WithSysRoot(sys),
		probe.WithFontDirs([]string{fonts}),
	}

	eng, err := engine.New(PlatformDefinition(),
		engine.WithLogger(quietLogger()),
		engine.WithSessionOptions(sessionOpts...),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := eng.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := eng.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Hash != second.Hash {
		t.Errorf("fixture hash drifted: %q vs %q", first.Hash, second.Hash)
	}
	if len(first.Record.Schema()) != 10 {
		t.Errorf("schema size = %d, want 10", len(first.Record.Schema()))
	}
	if first.Record.Get("timezone").Str() != "Europe/Berlin" {
		t.Errorf("timezone = %v", first.Record.Get("timezone"))
	}
}
