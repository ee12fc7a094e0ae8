package fiberio

import (
	"context"
)

// deadlineCapMs bounds how long a single reactor wait can block when
// fibers are suspended in Poll, so that cancellation (spec.md §4.4,
// polled rather than pushed) converges within a bounded latency even
// for a fiber parked with an infinite (-1) timeout. It plays the same
// role as the teacher loop's calculateTimeout cap, just a tighter one:
// that loop only needed to re-check a task queue; this one also needs
// to notice kill flags on suspended fibers.
const deadlineCapMs = 1000

// Runtime owns the reactor, file-event registry, and active-poll list
// that back every Fiber's Poll calls. [Runtime.Run] drives the reactor
// loop on its own goroutine, but every Fiber spawned against it runs
// arm/clean on its own goroutine too (Spawn starts a real goroutine per
// fiber) — so fileEvents and polls are concurrently reached from
// however many fibers are mid-Poll plus the loop goroutine's own
// dispatch/checkDeadlines/calculateTimeout passes, and both guard
// themselves with their own lock (see fileevent.go, activepolllist.go).
// That is a deliberate departure from spec.md §5's single-threaded
// cooperative model: fibers here are real goroutines, not
// scheduler-multiplexed stacks, so "whoever calls Poll" is never
// actually the loop goroutine itself.
type Runtime struct {
	opts   *runtimeOptions
	logger Logger

	state   *fastState
	reactor reactor

	fileEvents *fileEventRegistry
	polls      activePollList

	// ioBlocked counts fibers currently suspended in the hooked Poll
	// path; exposed for diagnostics/tests, and as a concrete exercise of
	// CellInt64 (atomic.go) beyond the atomic cell's own unit tests.
	ioBlocked CellInt64

	doneCh chan struct{}
}

// NewRuntime constructs a Runtime in the [RuntimeCreated] state. It does
// not start the reactor loop; call [Runtime.Run] to do that.
func NewRuntime(opts ...RuntimeOption) (*Runtime, error) {
	cfg, err := resolveRuntimeOptions(opts)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		opts:       cfg,
		logger:     cfg.logger,
		state:      newFastState(uint32(RuntimeCreated)),
		reactor:    newReactor(),
		fileEvents: newFileEventRegistry(),
		doneCh:     make(chan struct{}),
	}
	if err := rt.reactor.init(cfg.maxEvents); err != nil {
		return nil, WrapError("fiberio: initializing reactor", err)
	}
	return rt, nil
}

// Spawn creates a new [Fiber] bound to rt and starts fn running on its
// own goroutine immediately. fn typically calls (*Fiber).Poll one or
// more times before returning.
func (rt *Runtime) Spawn(fn func(*Fiber)) *Fiber {
	f := newFiber(rt)
	f.spawn(fn)
	return f
}

// Run drives the reactor loop until ctx is cancelled or Close is
// called. It must be called from exactly one goroutine at a time; a
// second concurrent call returns [ErrRuntimeAlreadyRunning].
func (rt *Runtime) Run(ctx context.Context) error {
	if !rt.state.TryTransition(uint32(RuntimeCreated), uint32(RuntimeRunning)) {
		switch RuntimeState(rt.state.Load()) {
		case RuntimeClosed:
			return ErrRuntimeClosed
		default:
			return ErrRuntimeAlreadyRunning
		}
	}
	defer close(rt.doneCh)

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			_ = rt.Close()
		case <-stopWatch:
		}
	}()

	for RuntimeState(rt.state.Load()) == RuntimeRunning {
		timeout := rt.calculateTimeout()
		if _, err := rt.reactor.pollIO(timeout); err != nil {
			if RuntimeState(rt.state.Load()) == RuntimeClosed {
				// Close raced with (or caused) this pollIO call returning
				// an error from an fd it tore down concurrently; that is
				// an expected shutdown, not a failure to report.
				break
			}
			rt.logger.Err().Err(err).Log(`reactor pollIO failed`)
			return WrapError("fiberio: reactor pollIO", err)
		}
		rt.checkDeadlines()
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// Close transitions the runtime to [RuntimeClosed] and releases the
// reactor. Safe to call more than once and from any goroutine; callers
// other than the loop goroutine itself should follow it with a wait on
// whatever signals they use to observe Run's return.
func (rt *Runtime) Close() error {
	for {
		current := RuntimeState(rt.state.Load())
		if current == RuntimeClosed {
			return nil
		}
		if rt.state.TryTransition(uint32(current), uint32(RuntimeClosed)) {
			return rt.reactor.close()
		}
	}
}

// Wait blocks until a call to Run on this runtime has returned.
func (rt *Runtime) Wait() {
	<-rt.doneCh
}

// State returns the runtime's current lifecycle state.
func (rt *Runtime) State() RuntimeState {
	return RuntimeState(rt.state.Load())
}

func (rt *Runtime) ioBlockInc() {
	rt.ioBlocked.AddFetch(1)
}

func (rt *Runtime) ioBlockDec() {
	rt.ioBlocked.AddFetch(-1)
}

// IOBlocked returns the number of fibers currently suspended in Poll's
// hooked path.
func (rt *Runtime) IOBlocked() int64 {
	return rt.ioBlocked.AddFetch(0)
}

// calculateTimeout picks the reactor's next pollIO wait, per spec.md
// §4.2 step 4's "lower the deadline" contract generalized across every
// suspended PollEvent: the minimum of each one's remaining timeout,
// capped at deadlineCapMs. The cap applies even with nothing currently
// suspended, so Run's own loop re-checks its state (and thus notices
// Close/context cancellation) at a bounded cadence instead of blocking
// in the reactor indefinitely while idle.
//
// Unlike the teacher loop's timer heap (container/heap, O(log n)
// inserts for a potentially large, long-lived timer set), this scans
// the active-poll list linearly: the set of concurrently in-flight Poll
// calls is expected to be small relative to a long-running timer
// workload, and the list is already walked once per tick by
// checkDeadlines, so a second linear pass here costs little extra.
func (rt *Runtime) calculateTimeout() int {
	remaining := deadlineCapMs
	rt.polls.forEach(func(pe *PollEvent) {
		if PollState(pe.state.Load()) != PollSuspended {
			return
		}
		if pe.timeoutMs < 0 {
			return
		}
		left := int(int64(pe.timeoutMs) - pe.elapsed())
		if left < 0 {
			left = 0
		}
		if left < remaining {
			remaining = left
		}
	})
	return remaining
}

// checkDeadlines scans every suspended PollEvent once per reactor
// cycle, waking any whose fiber has been killed or whose timeout has
// elapsed. This is the polling point spec.md §4.4/§4.5 describes:
// neither condition interrupts a suspended Poll call directly, both are
// only noticed here (or immediately, for timeout, via a readiness
// callback winning the race first).
func (rt *Runtime) checkDeadlines() {
	rt.polls.forEach(func(pe *PollEvent) {
		if PollState(pe.state.Load()) != PollSuspended {
			return
		}
		if pe.fiber.Killed() {
			pe.wake()
			return
		}
		if pe.timeoutMs >= 0 && pe.elapsed() >= int64(pe.timeoutMs) {
			pe.wake()
		}
	})
}
