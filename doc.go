// Package fiberio implements the core of a user-space fiber I/O runtime:
// an atomic cell used for cross-fiber/thread signalling, and the
// poll-multiplexing adapter that lets a fiber issue a multi-descriptor
// readiness wait and be resumed when any descriptor becomes ready or a
// timeout elapses.
//
// # Architecture
//
// [Runtime] owns one reactor backend (epoll on Linux, kqueue on Darwin),
// a file-event registry, and the active-poll list described in DESIGN.md.
// [Runtime.Run] drives the reactor loop on one goroutine, while each
// [Fiber] spawned against it runs on a goroutine of its own and is woken
// from the loop goroutine when its Poll call completes. The registry and
// the active-poll list are shared between these goroutines and guard
// themselves with their own locks.
//
// [Fiber.Poll] is the adapter entry point. With hooks disabled, or for a
// zero-timeout probe, it delegates to the underlying kernel poll(2) via
// golang.org/x/sys/unix; otherwise it registers interest with the
// reactor, parks the calling Fiber, and resumes it when ready, timed
// out, or killed.
//
// # Platform support
//
// Reactor backends are implemented per platform:
//   - Linux: epoll (poller_linux.go)
//   - Darwin/BSD: kqueue (poller_darwin.go)
//
// # Ready-counting policy
//
// The count returned from [Poll] uses descriptor semantics: it counts
// the number of PollFd entries whose revents became non-zero, not the
// number of readiness callbacks that fired. A PollFd registered for both
// IN and OUT contributes at most one to the count even if both callbacks
// fire. See DESIGN.md for the rationale.
package fiberio
