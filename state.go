package fiberio

import "sync/atomic"

// RuntimeState is the lifecycle state of a [Runtime].
type RuntimeState uint32

const (
	// RuntimeCreated indicates the runtime has been constructed but Run
	// has not yet been called.
	RuntimeCreated RuntimeState = iota
	// RuntimeRunning indicates the runtime's reactor loop is active.
	RuntimeRunning
	// RuntimeClosed is terminal: the runtime has been shut down.
	RuntimeClosed
)

func (s RuntimeState) String() string {
	switch s {
	case RuntimeCreated:
		return "Created"
	case RuntimeRunning:
		return "Running"
	case RuntimeClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// PollState is the lifecycle state of a single in-flight [PollEvent],
// per the state machine in spec.md §4.6.
type PollState uint32

const (
	// PollBuilding: PollFds are being allocated and linked.
	PollBuilding PollState = iota
	// PollArmed: interests are registered with the reactor, not yet on
	// the active-poll list.
	PollArmed
	// PollSuspended: on the active-poll list, fiber switched out.
	PollSuspended
	// PollReady: resumed with ready > 0.
	PollReady
	// PollTimedout: resumed with ready == 0 and elapsed >= timeout.
	PollTimedout
	// PollCancelled: resumed with the fiber's kill flag set.
	PollCancelled
	// PollDraining: residual interests being removed, cross-links torn down.
	PollDraining
	// PollDone: result returned, no further transitions.
	PollDone
)

func (s PollState) String() string {
	switch s {
	case PollBuilding:
		return "Building"
	case PollArmed:
		return "Armed"
	case PollSuspended:
		return "Suspended"
	case PollReady:
		return "Ready"
	case PollTimedout:
		return "Timedout"
	case PollCancelled:
		return "Cancelled"
	case PollDraining:
		return "Draining"
	case PollDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// fastState is a small atomic cell for tracking a uint32-encoded state
// value, shared by [Runtime] and [PollEvent]. It intentionally carries
// no transition validation. Every access is atomic, so it is read and
// written from more than one goroutine: a PollEvent's state is stored by
// its fiber's goroutine and read by the runtime's loop goroutine, and
// Runtime.Close may run on any goroutine.
type fastState struct {
	v atomic.Uint32
}

func newFastState(initial uint32) *fastState {
	s := &fastState{}
	s.v.Store(initial)
	return s
}

func (s *fastState) Load() uint32 {
	return s.v.Load()
}

func (s *fastState) Store(state uint32) {
	s.v.Store(state)
}

func (s *fastState) TryTransition(from, to uint32) bool {
	return s.v.CompareAndSwap(from, to)
}
