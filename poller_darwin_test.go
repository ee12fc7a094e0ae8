//go:build darwin

package fiberio

import (
	"os"
	"testing"
)

// TestKqueueReactor_HangupReported verifies that closing the write end
// of a pipe is reported to the reader's read callback as EventHangup,
// via kqueue's EV_EOF flag (spec.md §6: error/hangup conditions are
// folded into revents regardless of the requested direction).
func TestKqueueReactor_HangupReported(t *testing.T) {
	r := newTestReactor(t)

	rPipe, wPipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	defer rPipe.Close()

	fe := &FileEvent{fd: int(rPipe.Fd())}
	fired := make(chan IOEvents, 1)
	if err := r.addRead(fe, func(fe *FileEvent, events IOEvents) {
		fired <- events
	}); err != nil {
		t.Fatalf("addRead() failed: %v", err)
	}

	if err := wPipe.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if _, err := r.pollIO(1000); err != nil {
		t.Fatalf("pollIO() failed: %v", err)
	}

	select {
	case events := <-fired:
		if events&EventHangup == 0 {
			t.Fatalf("got events %v, want EventHangup set", events)
		}
	default:
		t.Fatal("expected read callback to fire on peer close")
	}
}

func TestKqueueReactor_GrowsBeyondInitialCapacity(t *testing.T) {
	r := newTestReactor(t).(*kqueueReactor)

	const fd = 200000
	r.growTo(fd)
	if fd >= len(r.fds) {
		t.Fatalf("growTo(%d) left fds len %d", fd, len(r.fds))
	}
}
