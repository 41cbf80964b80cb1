package probe

import (
	"context"
	"time"

	"github.com/hostprint/hostprint/internal/model"
)

// Spec declares a single probe: a unique name and the measurement to run.
// Specs are static engine configuration, defined once at startup and never
// mutated afterwards.
type Spec struct {
	// Name is the unique key for this probe. It doubles as the record
	// schema field name.
	Name string

	// Run performs the measurement. It must respect ctx cancellation,
	// release any resource it acquires on every return path, and return
	// ErrUnsupported (wrapped) when the host lacks the capability.
	// Returning model.Null() with a nil error is a legal "nothing to
	// report".
	Run func(ctx context.Context, s *Session) (model.Value, error)

	// Timeout overrides the executor's default per-probe budget.
	// Zero means use the default.
	Timeout time.Duration

	// Empty is the partial-success payload assembled when the budget
	// elapses. List-natured probes declare an empty list here so a timeout
	// yields partial data rather than a failure. The zero Value (Null) is
	// a valid declaration.
	Empty model.Value
}
