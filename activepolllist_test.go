package fiberio

import (
	"sync"
	"testing"
)

func TestActivePollList_PrependAndSize(t *testing.T) {
	l := &activePollList{}
	a, b, c := &PollEvent{}, &PollEvent{}, &PollEvent{}

	l.prepend(a)
	l.prepend(b)
	l.prepend(c)

	if l.Size() != 3 {
		t.Fatalf("got size %d, want 3", l.Size())
	}
	if l.head != c || l.tail != a {
		t.Fatal("expected prepend order c, b, a head-to-tail")
	}
}

func TestActivePollList_DetachMiddle(t *testing.T) {
	l := &activePollList{}
	a, b, c := &PollEvent{}, &PollEvent{}, &PollEvent{}
	l.prepend(a)
	l.prepend(b)
	l.prepend(c)

	l.detach(b)

	if l.Size() != 2 {
		t.Fatalf("got size %d, want 2", l.Size())
	}
	var order []*PollEvent
	l.forEach(func(pe *PollEvent) { order = append(order, pe) })
	if len(order) != 2 || order[0] != c || order[1] != a {
		t.Fatalf("got order %v, want [c, a]", order)
	}
}

func TestActivePollList_DetachIsIdempotent(t *testing.T) {
	l := &activePollList{}
	a := &PollEvent{}
	l.prepend(a)

	l.detach(a)
	l.detach(a) // must be a no-op, not a double-decrement

	if l.Size() != 0 {
		t.Fatalf("got size %d, want 0", l.Size())
	}
}

func TestActivePollList_ForEachSafeDuringDetach(t *testing.T) {
	l := &activePollList{}
	a, b, c := &PollEvent{}, &PollEvent{}, &PollEvent{}
	l.prepend(a)
	l.prepend(b)
	l.prepend(c)

	var visited int
	var wg sync.WaitGroup
	l.forEach(func(pe *PollEvent) {
		visited++
		// detach from another goroutine mid-walk, as a fiber's clean does;
		// it waits for the walk to release mu and must not skip or crash it
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.detach(pe)
		}()
	})
	wg.Wait()

	if visited != 3 {
		t.Fatalf("visited %d entries, want 3", visited)
	}
	if l.Size() != 0 {
		t.Fatalf("got size %d, want 0", l.Size())
	}
}
