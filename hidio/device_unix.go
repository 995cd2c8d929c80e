//go:build unix

package hidio

import (
	"golang.org/x/sys/unix"

	"github.com/Monetra/mstdlib-sub003/ioerr"
	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// Device is a non-blocking HID report layer wrapping an already-open
// device fd. Enumeration, descriptor parsing, and report-size discovery
// (HIDIOCGRDESC et al. in the source) are out of scope; callers that
// need them supply the results via Open.
type Device struct {
	iolayer.BaseLayer

	fd                    int
	usesReportDescriptors bool
	maxInputReportSize    int
	maxOutputReportSize   int

	ctx      iolayer.LayerContext
	layerIdx int

	state      iolayer.State
	lastErrSys error
}

// Open wraps fd (already opened and readied by the caller, e.g. against
// /dev/hidraw*) as an attachable report layer. usesReportDescriptors
// matches the teacher handle field of the same name: when false, every
// Read is prefixed with a synthesized report ID of 0 and every Write's
// leading byte is stripped before the syscall, matching
// M_io_hid_read_cb/M_io_hid_write_cb's offset handling exactly.
func Open(fd int, usesReportDescriptors bool, maxInputReportSize, maxOutputReportSize int) (*iolayer.Stack, *Device, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, nil, ioerr.New(ioerr.FromErrno(err), err)
	}
	d := &Device{
		fd:                    fd,
		usesReportDescriptors: usesReportDescriptors,
		maxInputReportSize:    maxInputReportSize,
		maxOutputReportSize:   maxOutputReportSize,
		state:                 iolayer.StateInit,
	}
	return iolayer.NewStack(d), d, nil
}

// Init implements iolayer.Layer.
func (d *Device) Init(ctx iolayer.LayerContext, selfIdx int) error {
	d.ctx = ctx
	d.layerIdx = selfIdx
	if err := ctx.RegisterHandle(selfIdx, d.fd, iolayer.WaitRead); err != nil {
		return err
	}
	d.state = iolayer.StateConnected
	ctx.SoftEvent(selfIdx, true, iolayer.Connected, nil)
	return nil
}

// Read implements iolayer.Layer. When the device uses numbered reports
// the leading byte the kernel returns is already the report ID; when it
// doesn't, a synthesized leading 0 is prepended so callers always see a
// uniform "report ID + payload" framing.
func (d *Device) Read(p []byte, meta *iolayer.Meta) (int, error) {
	offset := 0
	if !d.usesReportDescriptors {
		offset = 1
	}
	if len(p) <= offset {
		return 0, ioerr.New(ioerr.Invalid, nil)
	}

	n, err := unix.Read(d.fd, p[offset:])
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ioerr.New(ioerr.WouldBlock, err)
		}
		d.lastErrSys = err
		d.closeHandle()
		return 0, ioerr.New(ioerr.FromErrno(err), err)
	}
	if n == 0 {
		d.closeHandle()
		return 0, ioerr.New(ioerr.Disconnect, nil)
	}
	if offset != 0 {
		p[0] = 0
		n++
	}
	return n, nil
}

// Write implements iolayer.Layer, symmetric to Read: when the device
// doesn't use numbered reports, p[0] is the caller's placeholder report
// ID and is stripped before the syscall.
func (d *Device) Write(p []byte, meta *iolayer.Meta) (int, error) {
	offset := 0
	if !d.usesReportDescriptors {
		offset = 1
	}
	if len(p) <= offset {
		return 0, ioerr.New(ioerr.Invalid, nil)
	}

	n, err := unix.Write(d.fd, p[offset:])
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			_ = d.ctx.ModifyWait(d.layerIdx, d.fd, iolayer.WaitRead|iolayer.WaitWrite)
			return 0, ioerr.New(ioerr.WouldBlock, err)
		}
		d.lastErrSys = err
		d.closeHandle()
		return 0, ioerr.New(ioerr.FromErrno(err), err)
	}
	if offset != 0 {
		n++
	}
	return n, nil
}

// ProcessEvent implements iolayer.Layer: pass every event through
// unchanged, matching M_io_hid_process_cb's direct forward.
func (d *Device) ProcessEvent(ev *iolayer.EventType, err error) bool {
	if *ev == iolayer.Error {
		d.state = iolayer.StateError
	}
	return false
}

// Unregister implements iolayer.Layer.
func (d *Device) Unregister() {
	if d.fd != -1 {
		_ = d.ctx.UnregisterHandle(d.layerIdx, d.fd)
	}
}

// Destroy implements iolayer.Layer.
func (d *Device) Destroy() {
	d.closeHandle()
}

func (d *Device) closeHandle() {
	if d.fd == -1 {
		return
	}
	unix.Close(d.fd)
	d.fd = -1
	d.state = iolayer.StateDisconnected
}

// State implements iolayer.Layer.
func (d *Device) State() iolayer.State { return d.state }

// ErrorMessage implements iolayer.Layer.
func (d *Device) ErrorMessage() (string, bool) {
	if d.lastErrSys == nil {
		return "", false
	}
	return d.lastErrSys.Error(), true
}

// MaxInputReportSize reports the caller-supplied max input report size
// (including the report-ID byte), or 0 if unknown.
func (d *Device) MaxInputReportSize() int { return d.maxInputReportSize }

// MaxOutputReportSize reports the caller-supplied max output report
// size (including the report-ID byte), or 0 if unknown.
func (d *Device) MaxOutputReportSize() int { return d.maxOutputReportSize }
