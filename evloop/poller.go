// Platform-specific pollers live in poller_linux.go (epoll), poller_darwin.go
// (kqueue), and poller_windows.go (IOCP). All three register interest
// edge-triggered: a readiness notification fires once per transition, and
// it is the soft-event queue's job, not the kernel's, to keep re-delivering
// "still readable" until a layer actually drains the handle.
package evloop

import "github.com/Monetra/mstdlib-sub003/iolayer"

// readiness is what a poller reports back for one fd per wake.
type readiness struct {
	fd                 int
	readable, writable bool
	errored, hup       bool
}

// poller is the platform-native readiness primitive.
type poller interface {
	// add starts watching fd for the given wait mask, edge-triggered.
	add(fd int, want iolayer.WaitMask) error
	// modify changes the watched wait mask for an already-added fd.
	modify(fd int, want iolayer.WaitMask) error
	// remove stops watching fd. It does not close fd.
	remove(fd int) error
	// wait blocks up to timeoutMs (negative means forever, zero means
	// don't block) and appends ready fds to dst, returning the grown
	// slice. Wake-fd activity is consumed internally and never appears
	// in dst.
	wait(timeoutMs int, dst []readiness) ([]readiness, error)
	// wake unblocks a concurrent or future wait() call from another
	// goroutine.
	wake() error
	// close releases the poller's own OS resources (e.g. the epoll fd).
	close() error
}
