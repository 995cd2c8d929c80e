//go:build unix

package pipeio

import (
	"golang.org/x/sys/unix"

	"github.com/Monetra/mstdlib-sub003/ioerr"
	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// end is one half of a pipe, either the read end or the write end;
// mirrors the source's single M_io_handle_t shared between the two
// sides, split here into one Go value per Stack since each half is
// attached to a loop independently.
type end struct {
	iolayer.BaseLayer

	fd       int
	isWriter bool

	ctx      iolayer.LayerContext
	layerIdx int

	state      iolayer.State
	lastErrSys error
}

// Create returns a connected reader Stack and writer Stack backed by a
// single anonymous, non-blocking OS pipe, matching M_io_pipe_create.
// Both halves report Connected as soon as they're attached.
func Create() (reader, writer *iolayer.Stack, err error) {
	var fds [2]int
	if e := unix.Pipe2(fds[:], unix.O_CLOEXEC); e != nil {
		return nil, nil, ioerr.New(ioerr.FromErrno(e), e)
	}
	if e := unix.SetNonblock(fds[0], true); e != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, nil, ioerr.New(ioerr.FromErrno(e), e)
	}
	if e := unix.SetNonblock(fds[1], true); e != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, nil, ioerr.New(ioerr.FromErrno(e), e)
	}

	r := &end{fd: fds[0], isWriter: false, state: iolayer.StateInit}
	w := &end{fd: fds[1], isWriter: true, state: iolayer.StateInit}
	return iolayer.NewStack(r), iolayer.NewStack(w), nil
}

// Init implements iolayer.Layer.
func (e *end) Init(ctx iolayer.LayerContext, selfIdx int) error {
	e.ctx = ctx
	e.layerIdx = selfIdx

	want := iolayer.WaitMask(0)
	if !e.isWriter {
		want = iolayer.WaitRead
	}
	if err := ctx.RegisterHandle(selfIdx, e.fd, want); err != nil {
		return err
	}
	e.state = iolayer.StateConnected
	ctx.SoftEvent(selfIdx, true, iolayer.Connected, nil)
	return nil
}

// Read implements iolayer.Layer.
func (e *end) Read(p []byte, meta *iolayer.Meta) (int, error) {
	n, err := unix.Read(e.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ioerr.New(ioerr.WouldBlock, err)
		}
		e.lastErrSys = err
		e.closeHandle()
		return 0, ioerr.New(ioerr.FromErrno(err), err)
	}
	if n == 0 {
		e.closeHandle()
		return 0, ioerr.New(ioerr.Disconnect, nil)
	}
	if n < len(p) {
		_ = e.ctx.ModifyWait(e.layerIdx, e.fd, iolayer.WaitRead)
	} else {
		_ = e.ctx.ModifyWait(e.layerIdx, e.fd, 0)
	}
	return n, nil
}

// Write implements iolayer.Layer.
func (e *end) Write(p []byte, meta *iolayer.Meta) (int, error) {
	n, err := unix.Write(e.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			_ = e.ctx.ModifyWait(e.layerIdx, e.fd, iolayer.WaitWrite)
			return 0, ioerr.New(ioerr.WouldBlock, err)
		}
		if err == unix.EPIPE {
			e.closeHandle()
			return 0, ioerr.New(ioerr.Disconnect, err)
		}
		e.lastErrSys = err
		e.closeHandle()
		return 0, ioerr.New(ioerr.FromErrno(err), err)
	}
	if n < len(p) {
		_ = e.ctx.ModifyWait(e.layerIdx, e.fd, iolayer.WaitWrite)
	}
	return n, nil
}

// ProcessEvent implements iolayer.Layer: a pipe has nothing to rewrite,
// it just passes every event through, matching M_io_pipe_process_cb's
// direct forward to M_io_posix_process_cb.
func (e *end) ProcessEvent(ev *iolayer.EventType, err error) bool {
	if *ev == iolayer.Error {
		e.state = iolayer.StateError
	}
	return false
}

// Unregister implements iolayer.Layer.
func (e *end) Unregister() {
	if e.fd != -1 {
		_ = e.ctx.UnregisterHandle(e.layerIdx, e.fd)
	}
}

// Destroy implements iolayer.Layer.
func (e *end) Destroy() {
	e.closeHandle()
}

func (e *end) closeHandle() {
	if e.fd == -1 {
		return
	}
	unix.Close(e.fd)
	e.fd = -1
	e.state = iolayer.StateDisconnected
}

// State implements iolayer.Layer.
func (e *end) State() iolayer.State { return e.state }

// ErrorMessage implements iolayer.Layer.
func (e *end) ErrorMessage() (string, bool) {
	if e.lastErrSys == nil {
		return "", false
	}
	return e.lastErrSys.Error(), true
}
