package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hostprint/hostprint/internal/model"
)

// quietLogger discards log output so expected probe failures don't pollute
// test output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// okSpec returns a spec that immediately succeeds with the given value.
func okSpec(name string, v model.Value) Spec {
	return Spec{
		Name: name,
		Run: func(context.Context, *Session) (model.Value, error) {
			return v, nil
		},
	}
}

// TestExecutorExecute tests the basic outcome map contract.
func TestExecutorExecute(t *testing.T) {
	t.Parallel()

	t.Run("one outcome per declared spec", func(t *testing.T) {
		t.Parallel()

		specs := []Spec{
			okSpec("alpha", model.Int(1)),
			okSpec("beta", model.String("two")),
			okSpec("gamma", model.Null()),
		}

		e := NewExecutor(WithExecutorLogger(quietLogger()))
		session := NewSession(WithLogger(quietLogger()))
		defer session.Close()

		outcomes := e.Execute(context.Background(), session, specs)

		if len(outcomes) != len(specs) {
			t.Fatalf("got %d outcomes, want %d", len(outcomes), len(specs))
		}
		for _, spec := range specs {
			o, ok := outcomes[spec.Name]
			if !ok {
				t.Fatalf("missing outcome for %q", spec.Name)
			}
			if o.Status != model.StatusOK {
				t.Errorf("probe %q status = %v, want ok", spec.Name, o.Status)
			}
		}
		if outcomes["alpha"].Value.IntVal() != 1 {
			t.Error("alpha payload lost")
		}
	})

	t.Run("null with nil error is a legal ok", func(t *testing.T) {
		t.Parallel()

		e := NewExecutor(WithExecutorLogger(quietLogger()))
		session := NewSession(WithLogger(quietLogger()))
		defer session.Close()

		outcomes := e.Execute(context.Background(), session, []Spec{okSpec("none", model.Null())})

		o := outcomes["none"]
		if o.Status != model.StatusOK || !o.Value.IsNull() {
			t.Errorf("outcome = %+v, want ok/null", o)
		}
	})
}

// TestExecutorFailureIsolation tests that a failing or panicking probe
// leaves its siblings untouched and still produces a complete outcome map.
func TestExecutorFailureIsolation(t *testing.T) {
	t.Parallel()

	t.Run("error probe", func(t *testing.T) {
		t.Parallel()

		specs := []Spec{
			okSpec("good", model.Int(42)),
			{
				Name: "bad",
				Run: func(context.Context, *Session) (model.Value, error) {
					return model.Value{}, errors.New("boom")
				},
			},
			okSpec("also_good", model.String("ok")),
		}

		e := NewExecutor(WithExecutorLogger(quietLogger()))
		session := NewSession(WithLogger(quietLogger()))
		defer session.Close()

		outcomes := e.Execute(context.Background(), session, specs)

		if len(outcomes) != 3 {
			t.Fatalf("got %d outcomes, want 3", len(outcomes))
		}
		if outcomes["bad"].Status != model.StatusFailed {
			t.Errorf("bad status = %v, want failed", outcomes["bad"].Status)
		}
		if !outcomes["bad"].Value.IsNull() {
			t.Error("failed probe value must be the null sentinel")
		}
		if outcomes["good"].Status != model.StatusOK || outcomes["also_good"].Status != model.StatusOK {
			t.Error("sibling probes must be unaffected by a failure")
		}
	})

	t.Run("panicking probe", func(t *testing.T) {
		t.Parallel()

		specs := []Spec{
			okSpec("good", model.Bool(true)),
			{
				Name: "panics",
				Run: func(context.Context, *Session) (model.Value, error) {
					panic("unexpected host state")
				},
			},
		}

		e := NewExecutor(WithExecutorLogger(quietLogger()))
		session := NewSession(WithLogger(quietLogger()))
		defer session.Close()

		outcomes := e.Execute(context.Background(), session, specs)

		o := outcomes["panics"]
		if o.Status != model.StatusFailed {
			t.Errorf("panicking probe status = %v, want failed", o.Status)
		}
		if o.Reason == "" {
			t.Error("panic reason should be recorded")
		}
		if outcomes["good"].Status != model.StatusOK {
			t.Error("sibling probe must survive a panic")
		}
	})
}

// TestExecutorUnsupported tests classification of absent capabilities.
func TestExecutorUnsupported(t *testing.T) {
	t.Parallel()

	specs := []Spec{
		{
			Name: "missing_capability",
			Run: func(context.Context, *Session) (model.Value, error) {
				return model.Value{}, fmt.Errorf("no dmi table: %w", ErrUnsupported)
			},
		},
	}

	e := NewExecutor(WithExecutorLogger(quietLogger()))
	session := NewSession(WithLogger(quietLogger()))
	defer session.Close()

	outcomes := e.Execute(context.Background(), session, specs)

	o := outcomes["missing_capability"]
	if o.Status != model.StatusUnsupported {
		t.Errorf("status = %v, want unsupported", o.Status)
	}
	if !o.Value.IsNull() {
		t.Error("unsupported probe value must be the null sentinel")
	}
}

// TestExecutorTimeout tests timeout partiality: a probe that never settles
// yields its declared Empty payload within budget plus epsilon, never an
// exception or a missing entry.
func TestExecutorTimeout(t *testing.T) {
	t.Parallel()

	t.Run("never-settling probe yields empty payload", func(t *testing.T) {
		t.Parallel()

		specs := []Spec{
			{
				Name: "stuck_enumeration",
				Run: func(ctx context.Context, _ *Session) (model.Value, error) {
					<-ctx.Done() // simulate a callback that never fires
					return model.Value{}, ctx.Err()
				},
				Timeout: 50 * time.Millisecond,
				Empty:   model.List(),
			},
			okSpec("fast", model.Int(1)),
		}

		e := NewExecutor(WithExecutorLogger(quietLogger()))
		session := NewSession(WithLogger(quietLogger()))
		defer session.Close()

		start := time.Now()
		outcomes := e.Execute(context.Background(), session, specs)
		elapsed := time.Since(start)

		o := outcomes["stuck_enumeration"]
		if o.Status != model.StatusTimeout {
			t.Errorf("status = %v, want timeout", o.Status)
		}
		if o.Value.Kind() != model.KindList {
			t.Errorf("timeout payload = %v, want declared empty list", o.Value.Kind())
		}
		if outcomes["fast"].Status != model.StatusOK {
			t.Error("fast sibling must be unaffected")
		}

		// Budget + generous epsilon for slow CI machines.
		if elapsed > 2*time.Second {
			t.Errorf("execute took %v, want roughly the 50ms budget", elapsed)
		}
	})

	t.Run("probe that blocks without watching ctx still times out", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		defer close(block)

		specs := []Spec{
			{
				Name: "oblivious",
				Run: func(context.Context, *Session) (model.Value, error) {
					<-block
					return model.Int(1), nil
				},
				Timeout: 50 * time.Millisecond,
			},
		}

		e := NewExecutor(WithExecutorLogger(quietLogger()))
		session := NewSession(WithLogger(quietLogger()))
		defer session.Close()

		outcomes := e.Execute(context.Background(), session, specs)

		if outcomes["oblivious"].Status != model.StatusTimeout {
			t.Errorf("status = %v, want timeout", outcomes["oblivious"].Status)
		}
	})
}

// TestExecutorCompletionOrderInsensitivity tests that artificial delays
// permuting completion order do not change the outcome key set.
func TestExecutorCompletionOrderInsensitivity(t *testing.T) {
	t.Parallel()

	delayed := func(name string, d time.Duration, v model.Value) Spec {
		return Spec{
			Name: name,
			Run: func(ctx context.Context, _ *Session) (model.Value, error) {
				select {
				case <-time.After(d):
					return v, nil
				case <-ctx.Done():
					return model.Value{}, ctx.Err()
				}
			},
		}
	}

	run := func(specs []Spec) map[string]Outcome {
		e := NewExecutor(WithExecutorLogger(quietLogger()))
		session := NewSession(WithLogger(quietLogger()))
		defer session.Close()
		return e.Execute(context.Background(), session, specs)
	}

	// Same probes, opposite delay profiles.
	first := run([]Spec{
		delayed("a", 40*time.Millisecond, model.Int(1)),
		delayed("b", 5*time.Millisecond, model.Int(2)),
		delayed("c", 20*time.Millisecond, model.Int(3)),
	})
	second := run([]Spec{
		delayed("a", 5*time.Millisecond, model.Int(1)),
		delayed("b", 40*time.Millisecond, model.Int(2)),
		delayed("c", 1*time.Millisecond, model.Int(3)),
	})

	for _, name := range []string{"a", "b", "c"} {
		fo, ok1 := first[name]
		so, ok2 := second[name]
		if !ok1 || !ok2 {
			t.Fatalf("outcome %q missing from a run", name)
		}
		if !fo.Value.Equal(so.Value) || fo.Status != so.Status {
			t.Errorf("probe %q outcome differs across completion orders", name)
		}
	}
}

// TestExecutorDefaultBudget tests option handling.
func TestExecutorDefaultBudget(t *testing.T) {
	t.Parallel()

	e := NewExecutor()
	if e.timeout != DefaultProbeTimeout {
		t.Errorf("default timeout = %v, want %v", e.timeout, DefaultProbeTimeout)
	}

	e = NewExecutor(WithTimeout(2 * time.Second))
	if e.timeout != 2*time.Second {
		t.Errorf("timeout = %v, want 2s", e.timeout)
	}

	// Non-positive override is ignored.
	e = NewExecutor(WithTimeout(-1))
	if e.timeout != DefaultProbeTimeout {
		t.Errorf("negative timeout should keep default, got %v", e.timeout)
	}
}
