package fiberio

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// PollEvent is the full state of one in-flight Poll call by one fiber,
// per spec.md §3/§4.6.
//
// Every fiber runs Poll on its own goroutine (Runtime.Spawn starts a
// real goroutine per fiber), while the Runtime's own loop goroutine
// concurrently walks the active-poll list (calculateTimeout,
// checkDeadlines) and fires readiness callbacks (dispatch -> deliver).
// ready and woken are therefore written from the loop goroutine
// (deliver, checkDeadlines) and read from the owning fiber's goroutine
// (Poll's post-switchOut loop), so both are atomic rather than plain
// fields — everything else here (fds, nfds, fiber, timeoutMs, begin,
// resume) is either set once before pe is published to the active-poll
// list or only ever touched by the one fiber goroutine that owns pe.
type PollEvent struct {
	fds   []PollFd
	nfds  int
	fiber *Fiber

	// ready is 0 initially, incremented by callbacks that contribute a
	// new readiness (descriptor semantics, see DESIGN.md).
	ready atomic.Int32

	// woken latches the first call to wake, so a readiness callback and
	// a later deadline check can never double-decrement ioBlocked or
	// send twice on a fiber's resume channel. A plain bool would race
	// between the callback/deadline-scan goroutine (the writer on
	// success) and Poll's own spurious-wake reset, so this CASes.
	woken atomic.Bool
	// resume is invoked (via wake) the first time this PollEvent is
	// woken. The default implementation decrements the runtime's
	// I/O-blocked counter and resumes the owning fiber's goroutine.
	resume func()

	// timeoutMs and begin support the adapter's own elapsed-time
	// re-check after every resume (spec.md §4.4 / §4.5: both
	// cancellation and timeout are polled, not pushed).
	timeoutMs int
	begin     time.Time

	state *fastState

	// intrusive active-poll-list membership; mutated only while holding
	// activePollList.mu (see activepolllist.go).
	listPrev, listNext *PollEvent
	listLinked         bool
}

// newPollEvent allocates a PollEvent and its nfds PollFds (step 2),
// resolving each OS descriptor to a file-event handle and cross-linking
// PollFd <-> FileEvent.
func newPollEvent(rt *Runtime, fiber *Fiber, fds []unix.PollFd, timeoutMs int) *PollEvent {
	pe := &PollEvent{
		fds:       make([]PollFd, len(fds)),
		nfds:      len(fds),
		fiber:     fiber,
		timeoutMs: timeoutMs,
		state:     newFastState(uint32(PollBuilding)),
	}
	for i := range fds {
		fds[i].Revents = 0
		pfd := &pe.fds[i]
		pfd.userPFD = &fds[i]
		pfd.owner = pe
		pfd.fileEvent = rt.fileEvents.open(int(fds[i].Fd))
	}
	pe.resume = func() {
		rt.ioBlockDec()
		fiber.wake()
	}
	return pe
}

// wake fires pe.resume at most once, idempotent across repeated calls
// from both readiness callbacks and the runtime's deadline scan.
func (pe *PollEvent) wake() {
	if !pe.woken.CompareAndSwap(false, true) {
		return
	}
	if pe.resume != nil {
		pe.resume()
	}
}

// arm registers read/write interest with the reactor for every PollFd
// per spec.md §4.2 step 3, and records the wait's start time so elapsed
// can be measured against timeoutMs.
func (pe *PollEvent) arm(rt *Runtime) {
	for i := range pe.fds {
		pfd := &pe.fds[i]
		events := pfd.userPFD.Events
		if events&PollIn != 0 {
			rt.reactor.addRead(pfd.fileEvent, readCallback)
		}
		if events&PollOut != 0 {
			rt.reactor.addWrite(pfd.fileEvent, writeCallback)
		}
		pfd.fileEvent.bind(pfd)
	}
	pe.begin = time.Now()
	pe.state.Store(uint32(PollArmed))
}

// clean removes any residual reactor interest, detaches pe from the
// runtime's active-poll list, and tears down surviving cross-links
// (step 7). Safe to call multiple times and on every exit path,
// including cancellation.
func (pe *PollEvent) clean(rt *Runtime) {
	for i := range pe.fds {
		pfd := &pe.fds[i]
		if pfd.fileEvent == nil {
			// already cleaned by an earlier call to clean
			continue
		}
		events := pfd.userPFD.Events
		if events&PollIn != 0 {
			rt.reactor.delRead(pfd.fileEvent)
		}
		if events&PollOut != 0 {
			rt.reactor.delWrite(pfd.fileEvent)
		}
		fe := pfd.fileEvent
		fe.unbind()
		pfd.fileEvent = nil
		rt.fileEvents.release(fe.fd)
	}
	rt.polls.detach(pe)
	pe.state.Store(uint32(PollDone))
}

// elapsed returns the milliseconds since pe.begin.
func (pe *PollEvent) elapsed() int64 {
	return time.Since(pe.begin).Milliseconds()
}
