package fiberio

import (
	"sync"

	"golang.org/x/sys/unix"
)

// passthroughPoll is the resolved kernel poll(2) entry point used when
// hooks are disabled and for zero-timeout probes (spec.md §7,
// "passthrough path"). On every
// platform this runtime builds for, golang.org/x/sys/unix provides it
// directly as a Go function value, so resolution cannot fail in
// practice — the once-guarded resolve step and its fatal assertion
// exist for parity with the original runtime's dlsym-based resolver,
// which really could fail if libc's symbol went missing.
var (
	resolveOnce     sync.Once
	passthroughPoll func(fds []unix.PollFd, timeout int) (int, error)
)

// resolvePassthrough resolves passthroughPoll exactly once. If it is
// ever left nil (unreachable on supported platforms), it logs and
// terminates the process via logger.Fatal, matching spec.md §7's
// "cannot continue" framing for a failed passthrough resolution.
func resolvePassthrough(logger Logger) {
	resolveOnce.Do(func() {
		passthroughPoll = unix.Poll
		if passthroughPoll == nil {
			if logger == nil {
				logger = getGlobalLogger()
			}
			logger.Fatal().Log(`failed to resolve underlying poll syscall`)
		}
	})
}

// passthroughCall delegates directly to the kernel poll(2), bypassing
// the reactor, active-poll list, and fiber suspension entirely. This is
// the fast path exercised when [WithHooksEnabled](false) is set (and,
// with hooks enabled, for a zero-timeout probe), and
// the vehicle for spec.md §8 property 1 (passthrough identity): with
// hooks disabled, Poll's observable behaviour must be indistinguishable
// from calling the kernel directly.
func passthroughCall(logger Logger, fds []unix.PollFd, timeoutMs int) (int, error) {
	resolvePassthrough(logger)
	return passthroughPoll(fds, timeoutMs)
}
