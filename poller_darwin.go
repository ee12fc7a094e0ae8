//go:build darwin

package fiberio

import (
	"sync"

	"golang.org/x/sys/unix"
)

// fdState stores per-FD registration state for the kqueue reactor.
type fdState struct {
	onReadable func(*FileEvent, IOEvents)
	onWritable func(*FileEvent, IOEvents)
	fe         *FileEvent
	events     IOEvents // directions currently registered with kqueue
}

// kqueueReactor implements reactor using kqueue (Darwin/BSD).
//
// Unlike epoll, kqueue registers EVFILT_READ/EVFILT_WRITE as
// independent filters, so addRead/addWrite/delRead/delWrite each touch
// exactly one kevent rather than folding into a combined mask — the fds
// slice still exists to track callbacks and let delRead/delWrite return
// ErrFDNotRegistered, without a kevent call, when the direction isn't
// currently registered.
type kqueueReactor struct {
	kq       int
	eventBuf []unix.Kevent_t
	fds      []fdState
	fdMu     sync.Mutex
	closed   bool
}

func newReactor() reactor {
	return &kqueueReactor{}
}

func (p *kqueueReactor) init(maxEvents int) error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq
	if maxEvents <= 0 {
		maxEvents = 256
	}
	p.eventBuf = make([]unix.Kevent_t, maxEvents)
	p.fds = make([]fdState, maxFDs)
	return nil
}

// maxFDs is the initial capacity of the dynamic fds slice; it grows on
// demand in growTo, matching the teacher kqueue poller's approach.
const maxFDs = 65536

func (p *kqueueReactor) close() error {
	p.fdMu.Lock()
	p.closed = true
	p.fdMu.Unlock()
	return unix.Close(p.kq)
}

func (p *kqueueReactor) growTo(fd int) {
	if fd < len(p.fds) {
		return
	}
	newFds := make([]fdState, fd*2+1)
	copy(newFds, p.fds)
	p.fds = newFds
}

func (p *kqueueReactor) addRead(fe *FileEvent, cb func(*FileEvent, IOEvents)) error {
	return p.add(fe, EventRead, unix.EVFILT_READ, cb)
}

func (p *kqueueReactor) addWrite(fe *FileEvent, cb func(*FileEvent, IOEvents)) error {
	return p.add(fe, EventWrite, unix.EVFILT_WRITE, cb)
}

func (p *kqueueReactor) add(fe *FileEvent, dir IOEvents, filter int16, cb func(*FileEvent, IOEvents)) error {
	fd := fe.fd
	if fd < 0 {
		return ErrFDOutOfRange
	}

	p.fdMu.Lock()
	if p.closed {
		p.fdMu.Unlock()
		return ErrPollerClosed
	}
	p.growTo(fd)
	st := &p.fds[fd]
	st.fe = fe
	st.events |= dir
	if dir == EventRead {
		st.onReadable = cb
	} else {
		st.onWritable = cb
	}
	events := st.events
	p.fdMu.Unlock()

	fe.storeEvents(events)
	kev := unix.Kevent_t{Ident: uint64(fd), Filter: filter, Flags: unix.EV_ADD | unix.EV_ENABLE}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (p *kqueueReactor) delRead(fe *FileEvent) error {
	return p.del(fe, EventRead, unix.EVFILT_READ)
}

func (p *kqueueReactor) delWrite(fe *FileEvent) error {
	return p.del(fe, EventWrite, unix.EVFILT_WRITE)
}

func (p *kqueueReactor) del(fe *FileEvent, dir IOEvents, filter int16) error {
	fd := fe.fd
	if fd < 0 || fd >= len(p.fds) {
		return ErrFDOutOfRange
	}

	p.fdMu.Lock()
	st := &p.fds[fd]
	if st.events&dir == 0 {
		p.fdMu.Unlock()
		return ErrFDNotRegistered
	}
	st.events &^= dir
	remaining := st.events
	if remaining == 0 {
		*st = fdState{}
	}
	p.fdMu.Unlock()

	fe.storeEvents(remaining)
	kev := unix.Kevent_t{Ident: uint64(fd), Filter: filter, Flags: unix.EV_DELETE}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (p *kqueueReactor) pollIO(timeoutMs int) (int, error) {
	p.fdMu.Lock()
	closed := p.closed
	p.fdMu.Unlock()
	if closed {
		return 0, ErrPollerClosed
	}

	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64((timeoutMs % 1000) * 1000000),
		}
	}

	n, err := unix.Kevent(p.kq, nil, p.eventBuf, ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	p.dispatch(n)
	return n, nil
}

func (p *kqueueReactor) dispatch(n int) {
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Ident)
		if fd < 0 || fd >= len(p.fds) {
			continue
		}

		p.fdMu.Lock()
		st := p.fds[fd]
		p.fdMu.Unlock()

		if st.fe == nil {
			continue
		}

		kev := &p.eventBuf[i]
		var side IOEvents
		if kev.Flags&unix.EV_EOF != 0 {
			side |= EventHangup
		}
		if kev.Flags&unix.EV_ERROR != 0 {
			side |= EventError
		}
		switch kev.Filter {
		case unix.EVFILT_READ:
			if st.onReadable != nil {
				st.onReadable(st.fe, EventRead|side)
			}
		case unix.EVFILT_WRITE:
			if st.onWritable != nil {
				st.onWritable(st.fe, EventWrite|side)
			}
		}
	}
}
