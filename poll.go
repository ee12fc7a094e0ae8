package fiberio

import "golang.org/x/sys/unix"

// Poll is the adapter entry point (spec.md §4.2): a multi-descriptor
// readiness wait, resumed when any descriptor becomes ready, the
// timeout elapses, or the calling fiber is killed.
//
// fds is mutated in place: each entry's Revents field is cleared on
// entry and set to the bits observed ready on return, matching
// poll(2)'s own calling convention (fds is also the type
// golang.org/x/sys/unix.Poll itself takes, so the hooked and
// passthrough paths share one caller-facing signature).
//
// timeoutMs follows poll(2): negative blocks indefinitely, 0 probes
// current readiness without blocking, positive bounds the wait. A
// zero-timeout probe is answered directly by the kernel poll(2) and
// never suspends the fiber; other timeouts are tracked by
// calculateTimeout/checkDeadlines on the runtime's loop.
//
// Poll returns the number of descriptors with a non-zero Revents
// (descriptor semantics — see DESIGN.md, "Ready-counting semantics"),
// or -1 and a [*CancelledError] if f was killed while suspended.
func (f *Fiber) Poll(fds []unix.PollFd, timeoutMs int) (int, error) {
	rt := f.rt

	if rt.State() == RuntimeClosed {
		return 0, ErrRuntimeClosed
	}

	if !rt.opts.hooksEnabled || timeoutMs == 0 {
		return passthroughCall(rt.logger, fds, timeoutMs)
	}

	pe := newPollEvent(rt, f, fds, timeoutMs)
	pe.arm(rt)
	rt.polls.prepend(pe)
	pe.state.Store(uint32(PollSuspended))
	rt.ioBlockInc()

	for {
		f.switchOut()

		ready := pe.ready.Load()
		switch {
		case f.Killed():
			pe.state.Store(uint32(PollCancelled))
			pe.clean(rt)
			logCancellation(rt.logger, f.id)
			return -1, &CancelledError{FiberID: f.id}

		case ready > 0:
			pe.state.Store(uint32(PollReady))
			pe.clean(rt)
			return int(ready), nil

		case pe.timeoutMs >= 0 && pe.elapsed() >= int64(pe.timeoutMs):
			pe.state.Store(uint32(PollTimedout))
			pe.clean(rt)
			return 0, nil

		default:
			// spurious wake: woken was latched but no terminal condition
			// holds yet; reset it so a later callback or deadline check
			// can wake this fiber again.
			pe.woken.Store(false)
		}
	}
}
