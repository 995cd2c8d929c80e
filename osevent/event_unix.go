//go:build unix

package osevent

import (
	"golang.org/x/sys/unix"

	"github.com/Monetra/mstdlib-sub003/ioerr"
	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// Event is a software-event layer: Signal, called from any goroutine,
// wakes the owning loop and delivers an iolayer.Other event. It never
// reports Disconnected or Error on its own; it's a pure notification
// primitive, matching M_io_osevent_pipe's M_IO_TYPE_EVENT semantics.
type Event struct {
	iolayer.BaseLayer

	readFD, writeFD int

	ctx      iolayer.LayerContext
	layerIdx int
	state    iolayer.State
}

// New creates an unattached Event layer wrapped in a Stack, backed by a
// non-blocking pipe pair (one fd drained on Read-ready, the other
// written to by Signal).
func New() (*iolayer.Stack, *Event, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, nil, ioerr.New(ioerr.FromErrno(err), err)
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, nil, ioerr.New(ioerr.FromErrno(err), err)
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, nil, ioerr.New(ioerr.FromErrno(err), err)
	}
	e := &Event{readFD: fds[0], writeFD: fds[1], state: iolayer.StateInit}
	return iolayer.NewStack(e), e, nil
}

// Init implements iolayer.Layer.
func (e *Event) Init(ctx iolayer.LayerContext, selfIdx int) error {
	e.ctx = ctx
	e.layerIdx = selfIdx
	if err := ctx.RegisterHandle(selfIdx, e.readFD, iolayer.WaitRead); err != nil {
		return err
	}
	e.state = iolayer.StateConnected
	return nil
}

// Signal wakes the loop this Event is attached to, delivering a single
// Other event to whatever layer sits above it (or to the caller's
// OnEvent if this is the only layer). Safe to call from any goroutine;
// write errors are ignored exactly as M_io_osevent_trigger ignores them
// ("the pipe is already full of events and we only deliver one anyhow").
func (e *Event) Signal() {
	_, _ = unix.Write(e.writeFD, []byte{1})
}

// ProcessEvent implements iolayer.Layer: drains every pending byte, then
// rewrites Read to Other and forwards it, matching
// M_io_osevent_process_cb exactly (a drain error with zero bytes read
// consumes the event instead of forwarding).
func (e *Event) ProcessEvent(ev *iolayer.EventType, err error) bool {
	if *ev != iolayer.Read {
		return true
	}
	var buf [32]byte
	total := 0
	for {
		n, rerr := unix.Read(e.readFD, buf[:])
		if n > 0 {
			total += n
		}
		if rerr != nil || n <= 0 {
			break
		}
	}
	if total == 0 {
		return true
	}
	*ev = iolayer.Other
	return false
}

// Unregister implements iolayer.Layer.
func (e *Event) Unregister() {
	_ = e.ctx.UnregisterHandle(e.layerIdx, e.readFD)
}

// Destroy implements iolayer.Layer.
func (e *Event) Destroy() {
	if e.readFD != -1 {
		unix.Close(e.readFD)
		e.readFD = -1
	}
	if e.writeFD != -1 {
		unix.Close(e.writeFD)
		e.writeFD = -1
	}
	e.state = iolayer.StateDisconnected
}

// State implements iolayer.Layer.
func (e *Event) State() iolayer.State { return e.state }
