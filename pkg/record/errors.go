package record

import "errors"

// Error taxonomy for the recorder core. Callers classify failures with
// errors.Is; every error returned by this module wraps one of these.
var (
	// ErrInvalidArgument marks bad or missing identifiers and empty strings.
	// These are programmer errors and must not be retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPlan marks a structural invariant violation in a TaskPlan,
	// such as a dependency referencing a step that is not in the plan.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrStorage marks an I/O failure while persisting or loading. Retry is
	// the caller's responsibility.
	ErrStorage = errors.New("storage error")

	// ErrCorruptState marks a durable resource that exists but cannot be
	// deserialized. It indicates a bug or tampering and requires operator
	// attention.
	ErrCorruptState = errors.New("corrupt state")

	// ErrNotFound marks a missing resource. Export and replay treat it as
	// "nothing happened yet" rather than a failure.
	ErrNotFound = errors.New("not found")
)

// IsNotFound reports whether err marks a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
