package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen so that a bare "hostprint collect" on a stock
// Linux box produces a complete fingerprint without any tuning.
const (
	// DefaultProbeTimeout is the per-probe execution budget. One second is
	// generous for /proc and /sys reads while still bounding a wedged
	// external command (lsblk against a dead device node can hang for
	// minutes). A probe that exceeds this budget contributes its declared
	// empty payload instead of blocking the whole engine.
	DefaultProbeTimeout = 1000 * time.Millisecond

	// DefaultWatchInterval is the cron schedule used by the watch command
	// when the config file does not specify one. Every 15 minutes is
	// frequent enough to catch hardware swaps the same day without
	// producing noisy history rows.
	DefaultWatchInterval = "@every 15m"

	// AppName is the application name used for XDG directory paths.
	AppName = "hostprint"
)

// Config holds all configuration options for hostprint.
// This struct is designed to be populated from CLI flags and the optional
// config file, then passed through the application via dependency injection
// rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ProbeConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// ProbeTimeout is the execution budget applied to each probe.
	// Probes that exceed it are cancelled and contribute their declared
	// empty payload rather than failing the engine run.
	ProbeTimeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .hostprint in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Engines holds per-engine settings loaded from the config file.
	// This is populated by LoadConfigFile and used when constructing
	// engines for a run.
	Engines *File

	// JSONReport enables JSON report output instead of human-readable format.
	// When true, outputs the canonical record and hashes as JSON.
	// When false, outputs a human-readable simple report (default).
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable
	// format. When true, outputs GitHub Flavored Markdown with per-engine
	// tables. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite history database.
	// When set, fingerprint runs are saved for historical comparison.
	// When empty, runs are not persisted.
	// Defaults to XDG data directory (~/.local/share/hostprint on Linux).
	DBDir string

	// SaveToDB indicates whether to save fingerprint runs to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// AppID is an application-scoped identifier used to derive a
	// non-reversible protected ID from the fingerprint. When empty, no
	// protected ID is derived and the raw combined hash is reported.
	AppID string

	// WatchSchedule is the cron expression used by the watch command.
	// Accepts standard five-field cron syntax and the @every duration form.
	WatchSchedule string

	// NotifyURL is a shoutrrr service URL (e.g. "telegram://token@telegram?chats=id")
	// used by the watch command to deliver drift notifications.
	// When empty, drift is only logged.
	NotifyURL string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero (e.g., probe timeout,
// watch schedule). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		ProbeTimeout:  DefaultProbeTimeout,
		WatchSchedule: DefaultWatchInterval,
	}
}

// XDGDataDir returns the XDG data directory for hostprint.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/hostprint
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for hostprint.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/hostprint
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any probing begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// Probe timeout must be positive; zero would cancel every probe
	// before it starts
	if c.ProbeTimeout <= 0 {
		return ErrInvalidProbeTimeout
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// Notifications without a schedule make no sense; the watch command
	// always needs a schedule to run on
	if c.WatchSchedule == "" && c.NotifyURL != "" {
		return ErrNotifyWithoutSchedule
	}

	return nil
}
