//go:build darwin

package evloop

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// kqueuePoller implements poller using kqueue with EV_CLEAR, adapted from
// the teacher package's FastPoller. EV_CLEAR gives edge-triggered
// semantics: the kernel clears the event's state after it's returned by
// kevent, so a quiescent fd won't show up again until its readiness
// actually changes.
type kqueuePoller struct {
	kq    int
	waker *wakeFd

	mu    sync.Mutex
	masks map[int]iolayer.WaitMask

	eventBuf [256]unix.Kevent_t
}

func newPoller() (poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	w, err := newWakeFd()
	if err != nil {
		unix.Close(kq)
		return nil, err
	}
	p := &kqueuePoller{kq: kq, waker: w, masks: make(map[int]iolayer.WaitMask)}
	ev := unix.Kevent_t{Ident: uint64(w.readFD()), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ENABLE}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{ev}, nil, nil); err != nil {
		w.close()
		unix.Close(kq)
		return nil, err
	}
	return p, nil
}

func kqueueChangelist(fd int, want iolayer.WaitMask, flags uint16) []unix.Kevent_t {
	var out []unix.Kevent_t
	if want&iolayer.WaitRead != 0 {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if want&iolayer.WaitWrite != 0 {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return out
}

func (p *kqueuePoller) add(fd int, want iolayer.WaitMask) error {
	p.mu.Lock()
	p.masks[fd] = want
	p.mu.Unlock()
	changes := kqueueChangelist(fd, want, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR)
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) modify(fd int, want iolayer.WaitMask) error {
	p.mu.Lock()
	old := p.masks[fd]
	p.masks[fd] = want
	p.mu.Unlock()

	if removed := old &^ want; removed != 0 {
		if changes := kqueueChangelist(fd, removed, unix.EV_DELETE); len(changes) > 0 {
			_, _ = unix.Kevent(p.kq, changes, nil, nil)
		}
	}
	if added := want &^ old; added != 0 {
		if changes := kqueueChangelist(fd, added, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR); len(changes) > 0 {
			if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *kqueuePoller) remove(fd int) error {
	p.mu.Lock()
	want := p.masks[fd]
	delete(p.masks, fd)
	p.mu.Unlock()
	changes := kqueueChangelist(fd, want, unix.EV_DELETE)
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) wait(timeoutMs int, dst []readiness) ([]readiness, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64(timeoutMs%1000) * 1000000,
		}
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}
	// kqueue reports read and write readiness as separate events sharing
	// an Ident; merge same-fd events from this batch into one readiness.
	byFd := make(map[int]*readiness, n)
	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		kev := p.eventBuf[i]
		fd := int(kev.Ident)
		if fd == p.waker.readFD() {
			p.waker.drain()
			continue
		}
		r, ok := byFd[fd]
		if !ok {
			r = &readiness{fd: fd}
			byFd[fd] = r
			order = append(order, fd)
		}
		switch kev.Filter {
		case unix.EVFILT_READ:
			r.readable = true
		case unix.EVFILT_WRITE:
			r.writable = true
		}
		if kev.Flags&unix.EV_ERROR != 0 {
			r.errored = true
		}
		if kev.Flags&unix.EV_EOF != 0 {
			r.hup = true
		}
	}
	for _, fd := range order {
		dst = append(dst, *byFd[fd])
	}
	return dst, nil
}

func (p *kqueuePoller) wake() error {
	return p.waker.signal()
}

func (p *kqueuePoller) close() error {
	_ = p.waker.close()
	return unix.Close(p.kq)
}
