// Package errs defines the error taxonomy shared by the engine core.
//
// Call-style operations resolve to nil or to an error matching one of the
// sentinels below via errors.Is. Failures that happen after a call has
// already been accepted (an asynchronous navigation failing, a frame render
// erroring) are reported on the event stream instead, never as a delayed
// call error.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an unknown zone or tab id.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyClosed indicates the target zone or tab has been closed.
	ErrAlreadyClosed = errors.New("already closed")

	// ErrChannelClosed indicates the target actor's command channel is gone.
	ErrChannelClosed = errors.New("channel closed")

	// ErrNotRunning indicates the engine loop has not been started or has exited.
	ErrNotRunning = errors.New("engine not running")

	// ErrInvalidArgument indicates a malformed input such as an unparseable
	// URL or a zero-sized viewport.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBackend indicates a render backend failure.
	ErrBackend = errors.New("backend error")

	// ErrTimeout is never generated inside the core; it is provided so
	// callers composing their own deadlines around a call have a matching
	// sentinel to report.
	ErrTimeout = errors.New("timeout")
)

// NotFound wraps ErrNotFound with the offending id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// InvalidArgument wraps ErrInvalidArgument with a reason.
func InvalidArgument(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidArgument)
}

// Backend wraps a renderer failure so it matches ErrBackend.
func Backend(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrBackend, err)
}
