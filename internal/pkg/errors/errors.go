package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrLockTimeout signals that a caller waited out the full bounded
	// window for another worker's result without seeing it appear.
	ErrLockTimeout = errors.New("lock wait timed out")
	// ErrUpstreamFailure signals that an external generation service
	// failed after retries were exhausted.
	ErrUpstreamFailure = errors.New("upstream generation failed")
)
