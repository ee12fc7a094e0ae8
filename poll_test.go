//go:build linux || darwin

package fiberio

import (
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestPoll_PassthroughIdentity(t *testing.T) {
	rt := newTestRuntime(t, WithHooksEnabled(false))

	rPipe, wPipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	defer rPipe.Close()
	defer wPipe.Close()

	if _, err := wPipe.Write([]byte("x")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	result := make(chan struct {
		n   int
		err error
		rev int16
	}, 1)
	fds := []unix.PollFd{{Fd: int32(rPipe.Fd()), Events: PollIn}}
	rt.Spawn(func(f *Fiber) {
		n, err := f.Poll(fds, 1000)
		result <- struct {
			n   int
			err error
			rev int16
		}{n, err, fds[0].Revents}
	})

	select {
	case r := <-result:
		if r.err != nil {
			t.Fatalf("Poll() failed: %v", r.err)
		}
		if r.n != 1 {
			t.Fatalf("got n=%d, want 1", r.n)
		}
		if r.rev&PollIn == 0 {
			t.Fatalf("got revents %v, want PollIn set", r.rev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not return")
	}
}

func TestPoll_NonBlockingProbe_NotReady(t *testing.T) {
	rt := newTestRuntime(t)

	rPipe, wPipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	defer rPipe.Close()
	defer wPipe.Close()

	fds := []unix.PollFd{{Fd: int32(rPipe.Fd()), Events: PollIn}}
	result := make(chan int, 1)
	start := time.Now()
	rt.Spawn(func(f *Fiber) {
		n, err := f.Poll(fds, 0)
		if err != nil {
			t.Errorf("Poll() failed: %v", err)
		}
		result <- n
	})

	select {
	case n := <-result:
		if n != 0 {
			t.Fatalf("got n=%d, want 0 (nothing written)", n)
		}
		if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
			t.Fatalf("non-blocking probe took %v, want near-immediate", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not return")
	}
}

func TestPoll_IndefiniteWait_ReadinessWakesFiber(t *testing.T) {
	rt := newTestRuntime(t)

	rPipe, wPipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	defer rPipe.Close()
	defer wPipe.Close()

	fds := []unix.PollFd{{Fd: int32(rPipe.Fd()), Events: PollIn}}
	result := make(chan int, 1)
	rt.Spawn(func(f *Fiber) {
		n, err := f.Poll(fds, -1)
		if err != nil {
			t.Errorf("Poll() failed: %v", err)
		}
		result <- n
	})

	time.Sleep(50 * time.Millisecond)
	if _, err := wPipe.Write([]byte("x")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	select {
	case n := <-result:
		if n != 1 {
			t.Fatalf("got n=%d, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not wake on readiness")
	}
}

func TestPoll_TimeoutBoundary(t *testing.T) {
	rt := newTestRuntime(t)

	rPipe, wPipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	defer rPipe.Close()
	defer wPipe.Close()

	fds := []unix.PollFd{{Fd: int32(rPipe.Fd()), Events: PollIn}}
	result := make(chan int, 1)
	start := time.Now()
	rt.Spawn(func(f *Fiber) {
		n, err := f.Poll(fds, 100)
		if err != nil {
			t.Errorf("Poll() failed: %v", err)
		}
		result <- n
	})

	select {
	case n := <-result:
		if n != 0 {
			t.Fatalf("got n=%d, want 0 (timeout)", n)
		}
		if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
			t.Fatalf("Poll returned after %v, want >= ~100ms", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not time out")
	}
}

func TestPoll_BidirectionalDescriptor_CountsOnce(t *testing.T) {
	rt := newTestRuntime(t)

	fds2, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair() failed: %v", err)
	}
	a, b := fds2[0], fds2[1]
	defer unix.Close(a)
	defer unix.Close(b)

	if _, err := unix.Write(b, []byte("x")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	fds := []unix.PollFd{{Fd: int32(a), Events: PollIn | PollOut}}
	result := make(chan int, 1)
	rt.Spawn(func(f *Fiber) {
		n, err := f.Poll(fds, 1000)
		if err != nil {
			t.Errorf("Poll() failed: %v", err)
		}
		result <- n
	})

	select {
	case n := <-result:
		// a is both readable (b wrote to it) and writable (empty send
		// buffer); descriptor semantics must still count it once.
		if n != 1 {
			t.Fatalf("got n=%d, want 1 (descriptor semantics)", n)
		}
		if fds[0].Revents&PollIn == 0 || fds[0].Revents&PollOut == 0 {
			t.Fatalf("got revents %v, want both PollIn and PollOut set", fds[0].Revents)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not return")
	}
}

func TestPoll_CancellationMidWait(t *testing.T) {
	rt := newTestRuntime(t)

	rPipe, wPipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	defer rPipe.Close()
	defer wPipe.Close()

	fds := []unix.PollFd{{Fd: int32(rPipe.Fd()), Events: PollIn}}
	result := make(chan error, 1)
	var fiber *Fiber
	started := make(chan struct{})
	fiber = rt.Spawn(func(f *Fiber) {
		close(started)
		_, err := f.Poll(fds, -1)
		result <- err
	})
	<-started
	time.Sleep(20 * time.Millisecond)
	fiber.Kill()

	select {
	case err := <-result:
		var cancelled *CancelledError
		if err == nil {
			t.Fatal("expected a CancelledError, got nil")
		}
		if ce, ok := err.(*CancelledError); !ok {
			t.Fatalf("got %T, want *CancelledError", err)
		} else {
			cancelled = ce
		}
		if cancelled.FiberID != fiber.ID() {
			t.Fatalf("got FiberID %d, want %d", cancelled.FiberID, fiber.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not observe cancellation")
	}
}

func TestPoll_CleanupInvariant(t *testing.T) {
	rt := newTestRuntime(t)

	rPipe, wPipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	defer rPipe.Close()
	defer wPipe.Close()

	fd := int(rPipe.Fd())
	fds := []unix.PollFd{{Fd: int32(fd), Events: PollIn}}
	done := make(chan struct{})
	rt.Spawn(func(f *Fiber) {
		_, _ = f.Poll(fds, 100)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not return")
	}

	// give the loop goroutine a tick to observe the post-return state
	time.Sleep(10 * time.Millisecond)
	if rt.IOBlocked() != 0 {
		t.Fatalf("got IOBlocked %d, want 0 after Poll returns", rt.IOBlocked())
	}
}
