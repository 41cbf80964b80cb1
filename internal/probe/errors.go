package probe

import (
	"errors"
	"fmt"
)

// ErrUnsupported signals that the host simply lacks the probed capability.
// Probes return it (usually wrapped with fmt.Errorf and %w) instead of a
// plain error so the executor can classify the outcome as "unsupported"
// rather than "failed". The distinction matters downstream: an unsupported
// capability is a stable property of the host, a failure is a transient bug.
var ErrUnsupported = errors.New("capability not supported on this host")

// Error wraps a probe's failure with the probe name, so a log line or an
// errors.As at the executor boundary can always say which probe broke.
type Error struct {
	// Probe is the name of the probe that failed.
	Probe string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("probe %q: %v", e.Probe, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}
