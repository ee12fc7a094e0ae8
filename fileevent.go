package fiberio

import (
	"sync"
	"sync/atomic"
)

// FileEvent is the reactor's per-descriptor record, keyed by OS
// descriptor, per spec.md §3/§6.
//
// pollBinding and curEvents are touched from more than one goroutine:
// arm/clean (pollevent.go) run on whichever fiber's goroutine is
// currently inside Poll, and write pollBinding directly and curEvents
// through the reactor's addRead/addWrite/delRead/delWrite, while the
// reactor's dispatch loop reads pollBinding via deliver on the Runtime's
// own loop goroutine. Both fields are therefore atomic rather than
// plain, so neither side needs to share a lock with the other to touch
// them safely.
type FileEvent struct {
	fd int

	// curEvents tracks which directions are currently registered with
	// the reactor backend, so addRead/addWrite can fold into a single
	// epoll_ctl (Linux) or decide which kevent filters to add (Darwin)
	// without re-deriving state from the backend; stored by the reactor
	// just after it releases its own fdMu, and read without that lock
	// (hence atomic).
	curEvents atomic.Uint32

	// pollBinding is a single-slot back-link to the PollFd currently
	// awaiting this descriptor; nil when no poll is waiting.
	pollBinding atomic.Pointer[PollFd]
}

func (fe *FileEvent) loadEvents() IOEvents {
	return IOEvents(fe.curEvents.Load())
}

func (fe *FileEvent) storeEvents(events IOEvents) {
	fe.curEvents.Store(uint32(events))
}

func (fe *FileEvent) binding() *PollFd {
	return fe.pollBinding.Load()
}

func (fe *FileEvent) bind(pfd *PollFd) {
	fe.pollBinding.Store(pfd)
}

func (fe *FileEvent) unbind() {
	fe.pollBinding.Store(nil)
}

// fileEventRegistry is the runtime's file-event registry: an idempotent
// lookup/creation keyed by OS descriptor (spec.md §6 file_event.open).
//
// Every fiber runs Poll on its own goroutine, so two fibers can call
// open/release concurrently for different (or, across a release/reopen
// race, the same) descriptor — mu guards the map itself against that.
type fileEventRegistry struct {
	mu   sync.Mutex
	byFD map[int]*FileEvent
}

func newFileEventRegistry() *fileEventRegistry {
	return &fileEventRegistry{byFD: make(map[int]*FileEvent)}
}

// open looks up or creates the FileEvent for fd.
func (r *fileEventRegistry) open(fd int) *FileEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fe, ok := r.byFD[fd]; ok {
		return fe
	}
	fe := &FileEvent{fd: fd}
	r.byFD[fd] = fe
	return fe
}

// release drops the registry's reference to fd's FileEvent once it has
// no registered interest and no poll waiting on it. The reactor holds
// no references of its own beyond what curEvents implies, so this is
// safe to call opportunistically; a future open() simply recreates it.
func (r *fileEventRegistry) release(fd int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fe, ok := r.byFD[fd]; ok && fe.loadEvents() == 0 && fe.binding() == nil {
		delete(r.byFD, fd)
	}
}
