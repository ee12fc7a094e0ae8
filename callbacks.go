package fiberio

// readCallback is installed via reactor.addRead for every PollFd that
// requested PollIn; writeCallback via addWrite for PollOut. Both are
// invoked only from the runtime's own loop goroutine (spec.md §5), and
// both funnel into deliver, which applies descriptor semantics to the
// owning PollEvent's ready count.
func readCallback(fe *FileEvent, events IOEvents) {
	deliver(fe, events)
}

func writeCallback(fe *FileEvent, events IOEvents) {
	deliver(fe, events)
}

// deliver translates a reactor IOEvents bitmask into poll(2) revents
// bits on the PollFd currently bound to fe, and bumps its owning
// PollEvent's ready count using descriptor semantics: a PollFd that
// requested both directions contributes at most one to ready, counted
// at the instant its revents transitions away from zero — not once per
// readiness callback that fires for it (see DESIGN.md, "Ready-counting
// semantics").
//
// Error and hangup conditions are folded in unconditionally, matching
// poll(2): POLLERR/POLLHUP are reported in revents regardless of whether
// they were requested in events. POLLNVAL is never set on this path.
func deliver(fe *FileEvent, events IOEvents) {
	pfd := fe.binding()
	if pfd == nil {
		// callback fired after clean() already tore down the binding
		// (e.g. a second direction's event arriving in the same
		// dispatch batch); nothing left to deliver to.
		return
	}

	var bits int16
	if events&EventRead != 0 {
		bits |= PollIn
	}
	if events&EventWrite != 0 {
		bits |= PollOut
	}
	if events&EventError != 0 {
		bits |= PollErr
	}
	if events&EventHangup != 0 {
		bits |= PollHup
	}

	wasZero := pfd.userPFD.Revents == 0
	pfd.userPFD.Revents |= bits
	if wasZero && pfd.userPFD.Revents != 0 {
		pfd.owner.ready.Add(1)
		pfd.owner.wake()
	}
}
