//go:build windows

package evloop

import (
	"sync"
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// iocpPoller is a minimal IOCP-backed poller, adapted from the teacher
// package's FastPoller. IOCP is fundamentally completion-based rather than
// readiness-based: overlapped reads/writes are what post completions, not
// socket state transitions. Until tcpio issues real overlapped operations
// this poller only tracks registration and wakes wait() via
// PostQueuedCompletionStatus; it cannot yet report which of read/write
// became ready, so every wake reports both.
type iocpPoller struct {
	iocp windows.Handle

	mu    sync.Mutex
	masks map[int]iolayer.WaitMask
}

func newPoller() (poller, error) {
	iocp, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return &iocpPoller{iocp: iocp, masks: make(map[int]iolayer.WaitMask)}, nil
}

func (p *iocpPoller) add(fd int, want iolayer.WaitMask) error {
	p.mu.Lock()
	p.masks[fd] = want
	p.mu.Unlock()
	_, err := windows.CreateIoCompletionPort(windows.Handle(fd), p.iocp, 0, 0)
	return err
}

func (p *iocpPoller) modify(fd int, want iolayer.WaitMask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.masks[fd]; !ok {
		return ErrHandleNotRegistered
	}
	p.masks[fd] = want
	return nil
}

func (p *iocpPoller) remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.masks[fd]; !ok {
		return ErrHandleNotRegistered
	}
	delete(p.masks, fd)
	return nil
}

func (p *iocpPoller) wait(timeoutMs int, dst []readiness) ([]readiness, error) {
	var timeout *uint32
	if timeoutMs >= 0 {
		t := uint32(timeoutMs)
		timeout = &t
	}

	var bytes uint32
	var key uintptr
	var overlapped *windows.Overlapped
	err := windows.GetQueuedCompletionStatus(p.iocp, &bytes, &key, &overlapped, timeout)
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok && errno == windows.WAIT_TIMEOUT {
			return dst, nil
		}
		return dst, err
	}
	if overlapped == nil {
		// A Wake() call, not an I/O completion.
		return dst, nil
	}

	fd := int(key)
	p.mu.Lock()
	want, ok := p.masks[fd]
	p.mu.Unlock()
	if !ok {
		return dst, nil
	}
	return append(dst, readiness{
		fd:       fd,
		readable: want&iolayer.WaitRead != 0,
		writable: want&iolayer.WaitWrite != 0,
	}), nil
}

func (p *iocpPoller) close() error {
	return windows.CloseHandle(p.iocp)
}

// wake posts an empty completion packet to unblock a pending wait().
func (p *iocpPoller) wake() error {
	return windows.PostQueuedCompletionStatus(p.iocp, 0, 0, nil)
}
