package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/hostprint/hostprint/internal/database"
	"github.com/hostprint/hostprint/internal/engine"
	"github.com/hostprint/hostprint/internal/model"
)

// Monitor regenerates the combined fingerprint on a schedule and reports
// drift against the previous run.
type Monitor struct {
	combined *engine.Combined
	host     string
	schedule string
	logger   *slog.Logger
	notifier Notifier
	db       *database.HistoryDB

	cron *cron.Cron

	// mu guards lastResult across scheduler ticks and RunOnce callers.
	mu         sync.Mutex
	lastResult *model.CombinedResult
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger used for tick and drift events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithNotifier sets the notifier used to deliver drift messages.
// Without a notifier, drift is only logged and persisted.
func WithNotifier(n Notifier) Option {
	return func(m *Monitor) {
		m.notifier = n
	}
}

// WithHistory sets the history database. Each new digest is saved as a run,
// and the baseline is seeded from the newest stored run on Start.
func WithHistory(db *database.HistoryDB) Option {
	return func(m *Monitor) {
		m.db = db
	}
}

// New creates a Monitor for the given combined engine, host label, and cron
// schedule. The schedule accepts standard five-field cron expressions and
// descriptors like "@every 15m". An invalid schedule fails here rather than
// at Start.
func New(combined *engine.Combined, host, schedule string, opts ...Option) (*Monitor, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	m := &Monitor{
		combined: combined,
		host:     host,
		schedule: schedule,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Start seeds the drift baseline, runs one immediate tick, and then ticks
// on the configured schedule until Stop is called. The context bounds each
// generation run, not the scheduler's lifetime.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.seedBaseline(ctx); err != nil {
		return err
	}

	// First tick runs immediately so a drift that happened while the
	// monitor was down is reported at startup, not one interval later.
	if _, _, err := m.RunOnce(ctx); err != nil {
		m.logger.Warn("initial fingerprint run failed", "error", err)
	}

	m.cron = cron.New()
	if _, err := m.cron.AddFunc(m.schedule, func() {
		if _, _, err := m.RunOnce(ctx); err != nil {
			m.logger.Warn("scheduled fingerprint run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling runs: %w", err)
	}
	m.cron.Start()

	m.logger.Info("monitor started", "host", m.host, "schedule", m.schedule)
	return nil
}

// Stop stops the scheduler. A tick already in flight finishes.
func (m *Monitor) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
	m.logger.Info("monitor stopped", "host", m.host)
}

// seedBaseline loads the newest stored run for this host, if any.
func (m *Monitor) seedBaseline(ctx context.Context) error {
	if m.db == nil {
		return nil
	}

	run, err := m.db.LatestRun(ctx, m.host)
	if err != nil {
		return fmt.Errorf("loading baseline: %w", err)
	}
	if run != nil {
		m.mu.Lock()
		m.lastResult = run.Result
		m.mu.Unlock()
		m.logger.Debug("baseline loaded", "run_id", run.ID, "hash", run.CombinedHash)
	}
	return nil
}

// RunOnce generates the fingerprint once and compares it against the
// previous run. It returns the result and whether drift was detected.
// The first run after an empty baseline never counts as drift.
func (m *Monitor) RunOnce(ctx context.Context) (*model.CombinedResult, bool, error) {
	result, err := m.combined.Generate(ctx)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	previous := m.lastResult
	m.lastResult = result
	m.mu.Unlock()

	drifted := previous != nil && previous.Digest != result.Digest
	isNew := previous == nil || previous.Digest != result.Digest

	if drifted {
		m.reportDrift(ctx, previous, result)
	} else {
		m.logger.Debug("fingerprint unchanged", "host", m.host, "hash", result.CombinedHash)
	}

	// Identical digests are not re-saved; history rows mark content
	// changes, not scheduler ticks.
	if m.db != nil && isNew {
		if _, err := m.db.SaveRun(ctx, m.host, result); err != nil {
			m.logger.Warn("saving run failed", "error", err)
		}
	}

	return result, drifted, nil
}

// reportDrift logs the drift and delivers a notification when configured.
func (m *Monitor) reportDrift(ctx context.Context, previous, current *model.CombinedResult) {
	changed := changedEngines(previous, current)

	m.logger.Warn("fingerprint drift detected",
		"host", m.host,
		"hash", current.CombinedHash,
		"engines", strings.Join(changed, ", "),
	)

	if m.notifier == nil {
		return
	}

	title := fmt.Sprintf("hostprint: fingerprint drift on %s", m.host)
	message := fmt.Sprintf(
		"Fingerprint changed on %s.\nHash: %s -> %s\nChanged engines: %s",
		m.host,
		previous.CombinedHash, current.CombinedHash,
		strings.Join(changed, ", "),
	)
	if err := m.notifier.Notify(ctx, title, message); err != nil {
		m.logger.Warn("drift notification failed", "error", err)
	}
}

// changedEngines names the engines whose hash differs between two runs.
// Engines present in only one run count as changed.
func changedEngines(previous, current *model.CombinedResult) []string {
	prevHashes := make(map[string]string, len(previous.PerEngine))
	for _, er := range previous.PerEngine {
		prevHashes[er.Engine] = er.Hash
	}

	var changed []string
	seen := make(map[string]bool, len(current.PerEngine))
	for _, er := range current.PerEngine {
		seen[er.Engine] = true
		if prev, ok := prevHashes[er.Engine]; !ok || prev != er.Hash {
			changed = append(changed, er.Engine)
		}
	}
	for _, er := range previous.PerEngine {
		if !seen[er.Engine] {
			changed = append(changed, er.Engine)
		}
	}
	return changed
}
