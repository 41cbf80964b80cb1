package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hostprint/hostprint/internal/canon"
	"github.com/hostprint/hostprint/internal/identity"
	"github.com/hostprint/hostprint/internal/model"
	"golang.org/x/sync/errgroup"
)

// Combined runs two or more independent engines over disjoint probe
// families and folds their hashes into one composite identifier.
//
// Engine order is fixed at construction. The composite hash joins the
// per-engine hash strings in that order and runs them through the identical
// fold used per engine, so it changes if and only if at least one
// constituent engine's stable feature set changes.
type Combined struct {
	engines []*Engine
	logger  *slog.Logger

	mu   sync.Mutex
	last *model.CombinedResult
}

// CombinedOption configures a Combined.
type CombinedOption func(*Combined)

// WithCombinedLogger sets the combiner logger.
func WithCombinedLogger(logger *slog.Logger) CombinedOption {
	return func(c *Combined) {
		c.logger = logger
	}
}

// NewCombined creates a Combined over the given engines. The slice order
// declares the engine order for hashing and for PerEngine results.
func NewCombined(engines []*Engine, opts ...CombinedOption) (*Combined, error) {
	if len(engines) == 0 {
		return nil, ErrNoEngines
	}

	c := &Combined{
		engines: engines,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// Engines returns the engines in declared order.
func (c *Combined) Engines() []*Engine {
	engines := make([]*Engine, len(c.engines))
	copy(engines, c.engines)
	return engines
}

// Generate runs every engine concurrently and folds their hashes. Results
// land in PerEngine in declared order regardless of completion order.
//
// Engine.Generate is total, so the only error paths here are context
// cancellation surfaced through a probe run; a degraded host still yields a
// complete result.
func (c *Combined) Generate(ctx context.Context) (*model.CombinedResult, error) {
	start := time.Now()

	perEngine := make([]model.EngineResult, len(c.engines))

	g, gctx := errgroup.WithContext(ctx)
	for i, eng := range c.engines {
		g.Go(func() error {
			result, err := eng.Generate(gctx)
			if err != nil {
				return err
			}
			perEngine[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Per-engine hashes and canonical payloads, both in declared order.
	hashes := make([]string, len(perEngine))
	payloads := make([]string, len(perEngine))
	for i, er := range perEngine {
		hashes[i] = er.Hash
		payloads[i] = canon.Join(er.Features)
	}

	result := &model.CombinedResult{
		PerEngine:    perEngine,
		CombinedHash: canon.CombineHashes(hashes),
		Digest:       identity.Digest(strings.Join(payloads, canon.Separator)),
		GeneratedAt:  time.Now(),
	}

	c.logger.Debug("combined fingerprint generated",
		"engines", len(perEngine),
		"combined_hash", result.CombinedHash,
		"elapsed", time.Since(start),
	)

	c.mu.Lock()
	c.last = result
	c.mu.Unlock()

	return result, nil
}

// LastResult returns the most recently generated combined result, or
// ErrNotGenerated before the first Generate.
func (c *Combined) LastResult() (*model.CombinedResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil, ErrNotGenerated
	}
	return c.last, nil
}

// Hash returns the most recent composite hash.
func (c *Combined) Hash() (string, error) {
	result, err := c.LastResult()
	if err != nil {
		return "", err
	}
	return result.CombinedHash, nil
}

// Compact returns a compact summary of the most recent combined result.
func (c *Combined) Compact() (*model.Summary, error) {
	result, err := c.LastResult()
	if err != nil {
		return nil, err
	}
	return model.NewSummary(result), nil
}
