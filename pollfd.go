package fiberio

import "golang.org/x/sys/unix"

// Poll event bits, matching POSIX poll(2)/unix.PollFd.Events semantics.
// Named distinctly from IOEvents (the reactor's internal readiness
// vocabulary) because these are the bits a caller sets in Events and
// reads back in Revents — the outward syscall contract spec.md §6
// requires Poll to honour bit-for-bit.
const (
	PollIn   = unix.POLLIN
	PollOut  = unix.POLLOUT
	PollErr  = unix.POLLERR
	PollHup  = unix.POLLHUP
	PollNVal = unix.POLLNVAL
)

// PollFd is the per-descriptor binding for one entry of a single
// in-flight Poll call, per spec.md §3.
//
// userPFD is never copied — revents is mutated in place so the caller
// observes results directly in the slice it passed to Poll. fileEvent is
// the runtime's file-event registry entry for userPFD.Fd, obtained by
// opening (looking up or creating) it. owner back-references the
// enclosing PollEvent.
//
// A PollFd is alive only between Poll's entry and its exit; while
// alive, fileEvent.pollBinding points back to this PollFd, and this
// PollFd's fileEvent points to that FileEvent. They are torn down
// together (see (*PollEvent).clean).
type PollFd struct {
	userPFD   *unix.PollFd
	fileEvent *FileEvent
	owner     *PollEvent
}
