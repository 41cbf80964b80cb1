package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrInvalidProbeTimeout is returned when the probe timeout is not positive.
	// A timeout of zero or negative would cancel every probe immediately,
	// reducing the fingerprint to empty payloads.
	ErrInvalidProbeTimeout = errors.New("invalid probe timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNotifyWithoutSchedule is returned when a notification URL is
	// configured but the watch schedule is empty. Notifications are only
	// delivered from scheduled watch runs.
	ErrNotifyWithoutSchedule = errors.New("notify URL configured without a watch schedule")
)
