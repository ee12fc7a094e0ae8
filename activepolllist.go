package fiberio

import "sync"

// activePollList is the reactor's intrusive list of in-flight
// PollEvents, per spec.md §3/§4.6. It is grounded on the ring
// (ring_prepend/ring_detach/ring_size) the original C runtime threads
// PollEvents through; a doubly-linked intrusive list is the idiomatic
// Go rendition of the same "detach in O(1) from any position" contract.
//
// A PollEvent is a member of this list if and only if its fiber is
// currently suspended awaiting that call (spec.md §3 invariant).
// prepend/detach are called from whichever fiber's own goroutine is
// inside Poll, while the Runtime's loop goroutine walks the list
// concurrently via forEach (calculateTimeout, checkDeadlines) — so,
// unlike a true single-goroutine structure, this one needs a lock:
// mu serializes every access.
type activePollList struct {
	mu         sync.Mutex
	head, tail *PollEvent
	size       int
}

// prepend inserts pe at the head of the list (step 6a).
func (l *activePollList) prepend(pe *PollEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pe.listPrev = nil
	pe.listNext = l.head
	if l.head != nil {
		l.head.listPrev = pe
	}
	l.head = pe
	if l.tail == nil {
		l.tail = pe
	}
	pe.listLinked = true
	l.size++
}

// detach removes pe from the list; it is a no-op if pe is not linked,
// so calling (*PollEvent).clean more than once stays safe.
func (l *activePollList) detach(pe *PollEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !pe.listLinked {
		return
	}
	if pe.listPrev != nil {
		pe.listPrev.listNext = pe.listNext
	} else {
		l.head = pe.listNext
	}
	if pe.listNext != nil {
		pe.listNext.listPrev = pe.listPrev
	} else {
		l.tail = pe.listPrev
	}
	pe.listPrev = nil
	pe.listNext = nil
	pe.listLinked = false
	l.size--
}

// Size returns the number of PollEvents currently on the list. The
// reactor's timeout is computed by walking the list with forEach (see
// (*Runtime).calculateTimeout), not from Size.
func (l *activePollList) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// forEach walks the list in current order, resuming timed-out
// PollEvents (see (*Runtime).checkDeadlines). The callback must not
// mutate this list itself (no nested prepend/detach/forEach — mu is not
// reentrant); detaching pe from a different goroutine once fn returns is
// fine, since forEach has already advanced past it by then.
func (l *activePollList) forEach(fn func(pe *PollEvent)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for pe := l.head; pe != nil; {
		next := pe.listNext
		fn(pe)
		pe = next
	}
}
