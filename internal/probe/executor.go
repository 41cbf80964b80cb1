package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hostprint/hostprint/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeTimeout is the per-probe budget. One second accommodates slow
// sysfs reads and short external commands while keeping a full run with a
// stuck probe bounded. Probes that depend on slower sources override it per
// Spec.
const DefaultProbeTimeout = 1000 * time.Millisecond

// Outcome is the executor's verdict for one probe: exactly one per declared
// Spec name, always.
type Outcome struct {
	// Name is the probe name.
	Name string

	// Status classifies how the probe settled.
	Status model.Status

	// Value holds the probe payload for StatusOK, the declared Empty
	// payload for StatusTimeout, and the Null sentinel otherwise.
	Value model.Value

	// Reason carries the failure or unsupported message for diagnostics.
	// Empty for StatusOK.
	Reason string
}

// Executor runs a fixed set of probes concurrently with failure isolation
// and a per-probe time budget.
//
// Design decision: failures never propagate out of Execute. A probe that
// errors, panics, or stalls degrades its own field to a sentinel and nothing
// else; sibling probes and the caller are unaffected. The caller always
// receives a complete outcome map.
type Executor struct {
	// timeout is the default per-probe budget.
	timeout time.Duration

	// logger records probe failures at the executor boundary.
	logger *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the executor logger.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithTimeout sets the default per-probe budget.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExecutor creates an Executor with the default budget.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		timeout: DefaultProbeTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Execute runs every probe concurrently and returns one Outcome per declared
// Spec name. It never returns an error: degraded probes are reported in
// their outcome status, not propagated.
//
// All probes launch at once with no concurrency limit. Probes are I/O-bound
// reads of small files and short commands; the point of launching together
// is that one slow probe never delays the others, and the overall run
// completes in roughly the slowest budget rather than the sum.
func (e *Executor) Execute(ctx context.Context, session *Session, specs []Spec) map[string]Outcome {
	// Results are written to per-index slots, so no lock is needed and
	// completion order cannot influence anything downstream.
	results := make([]Outcome, len(specs))

	var g errgroup.Group
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = e.runProbe(ctx, session, spec)
			return nil
		})
	}

	// Probes never return errors to the group, so Wait only synchronizes.
	_ = g.Wait() //nolint:errcheck // probe goroutines always return nil

	outcomes := make(map[string]Outcome, len(specs))
	for _, o := range results {
		outcomes[o.Name] = o
	}
	return outcomes
}

// probeReturn carries a probe's settled value across the timeout race.
type probeReturn struct {
	value model.Value
	err   error
}

// runProbe runs a single probe under its budget with panic recovery.
func (e *Executor) runProbe(ctx context.Context, session *Session, spec Spec) Outcome {
	budget := spec.Timeout
	if budget <= 0 {
		budget = e.timeout
	}

	// The probe context is cancelled on timeout, so in-flight commands and
	// reads are actively torn down rather than left running.
	probeCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	// Buffered so a probe that settles after the race is lost does not
	// leak its goroutine on the send.
	ch := make(chan probeReturn, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- probeReturn{err: fmt.Errorf("panic: %v", r)}
			}
		}()

		v, err := spec.Run(probeCtx, session)
		ch <- probeReturn{value: v, err: err}
	}()

	select {
	case ret := <-ch:
		return e.classify(spec, ret)
	case <-probeCtx.Done():
		// Budget elapsed (or the parent context was cancelled). Partial
		// data is preferred over failure: assemble the declared Empty
		// payload, not an error.
		e.logger.Debug("probe timed out",
			"probe", spec.Name,
			"budget", budget,
		)
		return Outcome{
			Name:   spec.Name,
			Status: model.StatusTimeout,
			Value:  spec.Empty,
			Reason: probeCtx.Err().Error(),
		}
	}
}

// classify converts a settled probe return into an Outcome.
func (e *Executor) classify(spec Spec, ret probeReturn) Outcome {
	switch {
	case ret.err == nil:
		return Outcome{
			Name:   spec.Name,
			Status: model.StatusOK,
			Value:  ret.value,
		}

	case errors.Is(ret.err, ErrUnsupported):
		e.logger.Debug("probe unsupported",
			"probe", spec.Name,
			"reason", ret.err,
		)
		return Outcome{
			Name:   spec.Name,
			Status: model.StatusUnsupported,
			Value:  model.Null(),
			Reason: ret.err.Error(),
		}

	case errors.Is(ret.err, context.DeadlineExceeded):
		// The probe observed its own deadline and returned before the
		// race resolved. Same treatment as a race timeout.
		return Outcome{
			Name:   spec.Name,
			Status: model.StatusTimeout,
			Value:  spec.Empty,
			Reason: ret.err.Error(),
		}

	default:
		perr := &Error{Probe: spec.Name, Err: ret.err}
		e.logger.Warn("probe failed",
			"probe", spec.Name,
			"error", perr,
		)
		return Outcome{
			Name:   spec.Name,
			Status: model.StatusFailed,
			Value:  model.Null(),
			Reason: perr.Error(),
		}
	}
}
