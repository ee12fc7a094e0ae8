package fiberio

// IOEvents represents the type of I/O readiness the reactor backend
// reports, distinct from the PollIn/PollOut request/result bits (see
// pollfd.go) because a backend may report EventError/EventHangup that
// neither addRead nor addWrite explicitly requested.
type IOEvents uint32

const (
	// EventRead indicates the file descriptor is ready for reading.
	EventRead IOEvents = 1 << iota
	// EventWrite indicates the file descriptor is ready for writing.
	EventWrite
	// EventError indicates an error condition on the file descriptor.
	EventError
	// EventHangup indicates the peer closed its end of the connection.
	EventHangup
)

// reactor is the contract the Poll adapter consumes from the event
// loop's readiness backend (spec.md §6 "Consumed from the reactor").
// poller_linux.go (epoll) and poller_darwin.go (kqueue) each provide a
// concrete implementation.
type reactor interface {
	// init prepares the backend (e.g. epoll_create1/kqueue).
	init(maxEvents int) error
	// close releases backend resources.
	close() error
	// addRead/addWrite register interest for fe's descriptor; cb is
	// invoked on readiness with fe and its own direction's bit plus any
	// EventError/EventHangup the backend reported (the other direction's
	// bit is not passed). Binding a direction that is already registered
	// replaces its callback.
	addRead(fe *FileEvent, cb func(*FileEvent, IOEvents)) error
	addWrite(fe *FileEvent, cb func(*FileEvent, IOEvents)) error
	// delRead/delWrite remove interest for fe's descriptor in that
	// direction; if that direction is not currently registered they
	// change nothing and return ErrFDNotRegistered.
	delRead(fe *FileEvent) error
	delWrite(fe *FileEvent) error
	// pollIO blocks for at most timeoutMs (negative: indefinitely) and
	// dispatches any readiness callbacks that fire, returning the count
	// of raw backend events processed (not PollEvent-ready count).
	pollIO(timeoutMs int) (int, error)
}
