// Package fiberio error types, following the teacher package's sentinel
// + wrapped-cause-chain style (errors.Is/errors.As compatible).
package fiberio

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrRuntimeAlreadyRunning is returned when Run is called on a
	// Runtime that is already running.
	ErrRuntimeAlreadyRunning = errors.New("fiberio: runtime is already running")

	// ErrRuntimeClosed is returned when operations are attempted on a
	// Runtime that has been shut down.
	ErrRuntimeClosed = errors.New("fiberio: runtime has been closed")

	// ErrFDOutOfRange is returned when a descriptor falls outside the
	// range the reactor backend supports.
	ErrFDOutOfRange = errors.New("fiberio: fd out of range")

	// ErrFDNotRegistered is returned when removing interest for a
	// descriptor that has none registered.
	ErrFDNotRegistered = errors.New("fiberio: fd not registered")

	// ErrPollerClosed is returned from reactor operations after Close.
	ErrPollerClosed = errors.New("fiberio: poller closed")

	// ErrResolveSyscall is a fatal assertion per spec.md §7: the
	// passthrough kernel poll(2) entry point could not be resolved. The
	// runtime cannot function in that state.
	ErrResolveSyscall = errors.New("fiberio: failed to resolve underlying poll syscall")
)

// CancelledError is returned by [Poll] when the calling fiber was killed
// while suspended awaiting readiness. It carries the fiber's identity so
// callers (and logs) can correlate cancellation with the fiber involved.
type CancelledError struct {
	FiberID uint64
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("fiberio: fiber %d was killed while polling", e.FiberID)
}

// AtomicUnsupportedError wraps the sentinel failure mode of the Atomic
// Cell on a platform lacking the required primitive (spec.md §4.1 /
// §7). No Cell or CellInt64 operation produces it, since sync/atomic
// supports every platform this package builds for; it is exposed so
// callers that build their own capability gating can construct/match it
// with errors.As.
type AtomicUnsupportedError struct {
	Op string
}

// Error implements the error interface.
func (e *AtomicUnsupportedError) Error() string {
	return fmt.Sprintf("fiberio: atomic cell: %s not supported on this platform", e.Op)
}

// WrapError wraps an error with a message, preserving the cause chain
// for errors.Is / errors.As.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
