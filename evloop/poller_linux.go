//go:build linux

package evloop

import (
	"golang.org/x/sys/unix"

	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// epollPoller implements poller using epoll in edge-triggered mode
// (EPOLLET), adapted from the teacher package's FastPoller. Edge
// triggering means a single readiness notification per state transition;
// the soft-event layer is responsible for re-delivering "still ready"
// until the application actually reads/writes to exhaustion.
type epollPoller struct {
	epfd  int
	waker *wakeFd

	eventBuf [256]unix.EpollEvent
}

func newPoller() (poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	w, err := newWakeFd()
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	p := &epollPoller{epfd: fd, waker: w}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(w.readFD())}
	if err := unix.EpollCtl(fd, unix.EPOLL_CTL_ADD, w.readFD(), &ev); err != nil {
		w.close()
		unix.Close(fd)
		return nil, err
	}
	return p, nil
}

func waitMaskToEpoll(want iolayer.WaitMask) uint32 {
	var e uint32 = unix.EPOLLET
	if want&iolayer.WaitRead != 0 {
		e |= unix.EPOLLIN
	}
	if want&iolayer.WaitWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func (p *epollPoller) add(fd int, want iolayer.WaitMask) error {
	ev := unix.EpollEvent{Events: waitMaskToEpoll(want), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) modify(fd int, want iolayer.WaitMask) error {
	ev := unix.EpollEvent{Events: waitMaskToEpoll(want), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wait(timeoutMs int, dst []readiness) ([]readiness, error) {
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}
	for i := 0; i < n; i++ {
		ev := p.eventBuf[i]
		fd := int(ev.Fd)
		if fd == p.waker.readFD() {
			p.waker.drain()
			continue
		}
		dst = append(dst, readiness{
			fd:       fd,
			readable: ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0,
			writable: ev.Events&unix.EPOLLOUT != 0,
			errored:  ev.Events&unix.EPOLLERR != 0,
			hup:      ev.Events&unix.EPOLLHUP != 0,
		})
	}
	return dst, nil
}

func (p *epollPoller) wake() error {
	return p.waker.signal()
}

func (p *epollPoller) close() error {
	_ = p.waker.close()
	return unix.Close(p.epfd)
}
