//go:build linux

package fiberio

import (
	"sync"

	"golang.org/x/sys/unix"
)

// maxFDs is the maximum file descriptor supported with direct indexing,
// matching the teacher poller's approach of trading memory for an O(1)
// lookup instead of a map.
const maxFDs = 65536

// fdState stores per-FD registration state for the epoll reactor.
type fdState struct {
	onReadable func(*FileEvent, IOEvents)
	onWritable func(*FileEvent, IOEvents)
	fe         *FileEvent
	events     IOEvents // directions currently registered with epoll
}

// epollReactor implements reactor using epoll (Linux).
//
// Direct array indexing instead of a map keeps registration and
// dispatch O(1); fdMu guards the array because addRead/addWrite/
// delRead/delWrite run on fiber goroutines (via PollEvent arm/clean)
// while pollIO dispatches on the runtime's loop goroutine.
type epollReactor struct {
	epfd     int
	eventBuf []unix.EpollEvent
	fds      [maxFDs]fdState
	fdMu     sync.Mutex
	closed   bool
}

func newReactor() reactor {
	return &epollReactor{}
}

func (p *epollReactor) init(maxEvents int) error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd
	if maxEvents <= 0 {
		maxEvents = 256
	}
	p.eventBuf = make([]unix.EpollEvent, maxEvents)
	return nil
}

func (p *epollReactor) close() error {
	p.fdMu.Lock()
	p.closed = true
	p.fdMu.Unlock()
	return unix.Close(p.epfd)
}

func (p *epollReactor) addRead(fe *FileEvent, cb func(*FileEvent, IOEvents)) error {
	return p.add(fe, EventRead, cb, nil)
}

func (p *epollReactor) addWrite(fe *FileEvent, cb func(*FileEvent, IOEvents)) error {
	return p.add(fe, EventWrite, nil, cb)
}

// add registers direction(s) of interest for fe's descriptor, folding
// into a single epoll_ctl call per spec.md §6 (the registry holds one
// binding per (descriptor, direction), so this also applies the "most
// recently armed interest wins" rule from spec.md §5).
func (p *epollReactor) add(fe *FileEvent, dir IOEvents, readCB, writeCB func(*FileEvent, IOEvents)) error {
	fd := fe.fd
	if fd < 0 || fd >= maxFDs {
		return ErrFDOutOfRange
	}

	p.fdMu.Lock()
	if p.closed {
		p.fdMu.Unlock()
		return ErrPollerClosed
	}
	st := &p.fds[fd]
	op := unix.EPOLL_CTL_MOD
	if st.events == 0 {
		op = unix.EPOLL_CTL_ADD
	}
	st.fe = fe
	st.events |= dir
	if readCB != nil {
		st.onReadable = readCB
	}
	if writeCB != nil {
		st.onWritable = writeCB
	}
	events := st.events
	p.fdMu.Unlock()

	fe.storeEvents(events)
	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, op, fd, ev)
}

func (p *epollReactor) delRead(fe *FileEvent) error {
	return p.del(fe, EventRead)
}

func (p *epollReactor) delWrite(fe *FileEvent) error {
	return p.del(fe, EventWrite)
}

func (p *epollReactor) del(fe *FileEvent, dir IOEvents) error {
	fd := fe.fd
	if fd < 0 || fd >= maxFDs {
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
	if remaining == 0 {
		return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}
	ev := &unix.EpollEvent{Events: eventsToEpoll(remaining), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (p *epollReactor) pollIO(timeoutMs int) (int, error) {
	p.fdMu.Lock()
	closed := p.closed
	p.fdMu.Unlock()
	if closed {
		return 0, ErrPollerClosed
	}

	n, err := unix.EpollWait(p.epfd, p.eventBuf, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	p.dispatch(n)
	return n, nil
}

func (p *epollReactor) dispatch(n int) {
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Fd)
		if fd < 0 || fd >= maxFDs {
			continue
		}

		p.fdMu.Lock()
		st := p.fds[fd]
		p.fdMu.Unlock()

		if st.fe == nil {
			continue
		}
		events := epollToEvents(p.eventBuf[i].Events)
		side := events & (EventError | EventHangup)
		if events&(EventRead|EventError|EventHangup) != 0 && st.onReadable != nil {
			st.onReadable(st.fe, events&EventRead|side)
		}
		if events&(EventWrite|EventError|EventHangup) != 0 && st.onWritable != nil {
			st.onWritable(st.fe, events&EventWrite|side)
		}
	}
}

func eventsToEpoll(events IOEvents) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func epollToEvents(epollEvents uint32) IOEvents {
	var events IOEvents
	if epollEvents&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if epollEvents&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if epollEvents&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if epollEvents&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}
