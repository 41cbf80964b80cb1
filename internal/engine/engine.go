package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hostprint/hostprint/internal/canon"
	"github.com/hostprint/hostprint/internal/model"
	"github.com/hostprint/hostprint/internal/probe"
)

// Definition declares an engine: its probe family, schema version,
// allow-list, and volatile rejection set. Definitions are static
// configuration, validated once by New.
type Definition struct {
	// Name identifies the engine (e.g., "platform", "hardware").
	Name string

	// SchemaVersion versions the record schema. Bump it whenever probes
	// are added, removed, or change their payload shape.
	SchemaVersion string

	// Specs declares the probe set. Declaration order fixes the record
	// schema order.
	Specs []probe.Spec

	// Stable is the allow-list selecting hashed features, in declaration
	// order.
	Stable []StableRule

	// Volatile is the explicit rejection set: schema keys collected for
	// visibility but excluded from hashing because they change run to run
	// (battery charge, load, live memory, network counters). Listing them
	// makes the exclusion auditable rather than implicit.
	Volatile []string
}

// Engine runs one probe family and synthesizes its fingerprint.
type Engine struct {
	name        string
	version     string
	specs       []probe.Spec
	schema      []string
	stable      []StableRule
	volatile    []string
	executor    *probe.Executor
	logger      *slog.Logger
	sessionOpts []probe.SessionOption

	// Option staging, consumed by New during validation.
	probeTimeout time.Duration
	disabled     []string

	// last holds the most recent result for Hash/Compact/LastResult.
	mu   sync.Mutex
	last *model.EngineResult
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProbeTimeout sets the default per-probe budget.
func WithProbeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.probeTimeout = d
		}
	}
}

// WithSessionOptions forwards options to the per-run probe session. Tests
// use this to point probes at fixture filesystem roots and fake runners.
func WithSessionOptions(opts ...probe.SessionOption) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// WithoutProbes removes the named probes (and their stable rules and
// volatile entries) from the definition. This backs the config file's
// per-engine disabled-probe list. Disabling a probe changes the schema and
// therefore the hash, but the schema stays fixed for the lifetime of the
// configured process, which is the invariant that matters.
func WithoutProbes(names ...string) Option {
	return func(e *Engine) {
		e.disabled = append(e.disabled, names...)
	}
}

// New validates a definition and builds an Engine.
//
// Validation enforces the declaration invariants up front:
//   - at least one probe (ErrNoProbes)
//   - unique probe names (ErrDuplicateProbe)
//   - every stable rule references a declared probe (ErrUnknownStableKey)
//   - stable and volatile sets are disjoint (ErrStableVolatileOverlap)
//   - every schema key is classified one way or the other (ErrUnclassifiedKey)
func New(def Definition, opts ...Option) (*Engine, error) {
	e := &Engine{
		name:     def.Name,
		version:  def.SchemaVersion,
		specs:    def.Specs,
		stable:   def.Stable,
		volatile: def.Volatile,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	if len(e.disabled) > 0 {
		e.applyDisabled()
	}

	if len(e.specs) == 0 {
		return nil, fmt.Errorf("engine %q: %w", def.Name, ErrNoProbes)
	}

	seen := make(map[string]bool, len(e.specs))
	e.schema = make([]string, 0, len(e.specs))
	for _, spec := range e.specs {
		if seen[spec.Name] {
			return nil, fmt.Errorf("engine %q, probe %q: %w", def.Name, spec.Name, ErrDuplicateProbe)
		}
		seen[spec.Name] = true
		e.schema = append(e.schema, spec.Name)
	}

	stableKeys := make(map[string]bool, len(e.stable))
	for _, rule := range e.stable {
		if !seen[rule.Key] {
			return nil, fmt.Errorf("engine %q, rule %q -> %q: %w", def.Name, rule.Label, rule.Key, ErrUnknownStableKey)
		}
		stableKeys[rule.Key] = true
	}

	volatileKeys := make(map[string]bool, len(e.volatile))
	for _, key := range e.volatile {
		if stableKeys[key] {
			return nil, fmt.Errorf("engine %q, key %q: %w", def.Name, key, ErrStableVolatileOverlap)
		}
		volatileKeys[key] = true
	}

	for _, key := range e.schema {
		if !stableKeys[key] && !volatileKeys[key] {
			return nil, fmt.Errorf("engine %q, key %q: %w", def.Name, key, ErrUnclassifiedKey)
		}
	}

	execOpts := []probe.ExecutorOption{probe.WithExecutorLogger(e.logger)}
	if e.probeTimeout > 0 {
		execOpts = append(execOpts, probe.WithTimeout(e.probeTimeout))
	}
	e.executor = probe.NewExecutor(execOpts...)

	return e, nil
}

// applyDisabled strips disabled probes from specs, stable rules, and the
// volatile set.
func (e *Engine) applyDisabled() {
	drop := make(map[string]bool, len(e.disabled))
	for _, name := range e.disabled {
		drop[name] = true
	}

	specs := e.specs[:0:0]
	for _, spec := range e.specs {
		if !drop[spec.Name] {
			specs = append(specs, spec)
		}
	}
	e.specs = specs

	stable := e.stable[:0:0]
	for _, rule := range e.stable {
		if !drop[rule.Key] {
			stable = append(stable, rule)
		}
	}
	e.stable = stable

	volatile := e.volatile[:0:0]
	for _, key := range e.volatile {
		if !drop[key] {
			volatile = append(volatile, key)
		}
	}
	e.volatile = volatile
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return e.name
}

// Schema returns the ordered record schema keys.
func (e *Engine) Schema() []string {
	keys := make([]string, len(e.schema))
	copy(keys, e.schema)
	return keys
}

// StableLabels returns the allow-list labels in declaration order.
func (e *Engine) StableLabels() []string {
	labels := make([]string, len(e.stable))
	for i, rule := range e.stable {
		labels[i] = rule.Label
	}
	return labels
}

// VolatileKeys returns the declared rejection set.
func (e *Engine) VolatileKeys() []string {
	keys := make([]string, len(e.volatile))
	copy(keys, e.volatile)
	return keys
}

// Generate runs the full pipeline once: execute probes, assemble the
// record, classify stability, fold the hash. It is total: degraded host
// capability lowers entropy but never raises an error. It stores the
// result for Hash, Compact, and LastResult.
func (e *Engine) Generate(ctx context.Context) (*model.EngineResult, error) {
	start := time.Now()

	session := probe.NewSession(append([]probe.SessionOption{probe.WithLogger(e.logger)}, e.sessionOpts...)...)
	defer session.Close()

	e.logger.Debug("generating fingerprint",
		"engine", e.name,
		"probes", len(e.specs),
	)

	outcomes := e.executor.Execute(ctx, session, e.specs)
	record := assemble(e.version, e.schema, outcomes)
	features := selectStable(record, e.stable)
	hash := canon.HashFeatures(features)

	result := &model.EngineResult{
		Engine:        e.name,
		SchemaVersion: e.version,
		Record:        record,
		Features:      features,
		Hash:          hash,
		Elapsed:       time.Since(start),
	}

	// Degraded-probe lists in schema order, so they are stable too.
	for _, key := range e.schema {
		switch outcomes[key].Status {
		case model.StatusFailed:
			result.Failed = append(result.Failed, key)
		case model.StatusUnsupported:
			result.Unsupported = append(result.Unsupported, key)
		case model.StatusTimeout:
			result.TimedOut = append(result.TimedOut, key)
		case model.StatusOK:
		}
	}

	e.logger.Debug("fingerprint generated",
		"engine", e.name,
		"hash", hash,
		"failed", len(result.Failed),
		"unsupported", len(result.Unsupported),
		"timed_out", len(result.TimedOut),
		"elapsed", result.Elapsed,
	)

	e.mu.Lock()
	e.last = result
	e.mu.Unlock()

	return result, nil
}

// LastResult returns the most recently generated result, or ErrNotGenerated
// before the first Generate.
func (e *Engine) LastResult() (*model.EngineResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return nil, ErrNotGenerated
	}
	return e.last, nil
}

// Hash returns the most recent fingerprint hash.
func (e *Engine) Hash() (string, error) {
	result, err := e.LastResult()
	if err != nil {
		return "", err
	}
	return result.Hash, nil
}

// Compact returns a compact summary of the most recent result.
func (e *Engine) Compact() (*model.EngineSummary, error) {
	result, err := e.LastResult()
	if err != nil {
		return nil, err
	}

	degraded := make([]string, 0, len(result.Failed)+len(result.Unsupported)+len(result.TimedOut))
	degraded = append(degraded, result.Failed...)
	degraded = append(degraded, result.Unsupported...)
	degraded = append(degraded, result.TimedOut...)
	sort.Strings(degraded)

	return &model.EngineSummary{
		Name:           result.Engine,
		Hash:           result.Hash,
		StableFeatures: len(result.Features),
		ProbeCount:     len(result.Record.Schema()),
		Degraded:       degraded,
	}, nil
}
