//go:build unix

package tcpio

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/Monetra/mstdlib-sub003/ioerr"
	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// Conn is a non-blocking TCP stream layer implementing iolayer.Layer. It
// is used both for an outbound connection (constructed via NewConn,
// socket()+connect() deferred until Init) and for a connection handed
// back by Listener.Accept (already connected on construction).
type Conn struct {
	iolayer.BaseLayer

	fd       int
	family   int
	peerAddr netip.AddrPort
	settings *Settings
	outbound bool
	ipv4     bool // true if this peer was rewritten from an IPv4-mapped IPv6 address

	ctx      iolayer.LayerContext
	layerIdx int

	state      iolayer.State
	lastErrSys error
	lastErr    ioerr.IOErr

	connectTimer    iolayer.Timer
	disconnectTimer iolayer.Timer
}

// NewConn builds an unattached outbound connection to peer. The actual
// socket and non-blocking connect happen in Init, once the Stack wrapping
// this Conn is attached to a loop.
func NewConn(peer netip.AddrPort, settings *Settings) *Conn {
	if settings == nil {
		settings = NewSettings()
	}
	return &Conn{fd: -1, peerAddr: peer, settings: settings, outbound: true, state: iolayer.StateInit}
}

// Dial returns a Stack wrapping a single outbound Conn layer, ready to
// Add to a Loop.
func Dial(peer netip.AddrPort, settings *Settings) *iolayer.Stack {
	return iolayer.NewStack(NewConn(peer, settings))
}

func newAcceptedConn(fd int, peer netip.AddrPort, ipv4 bool, settings *Settings) *Conn {
	return &Conn{fd: fd, peerAddr: peer, settings: settings, outbound: false, ipv4: ipv4, state: iolayer.StateConnected}
}

func familyOfAddr(a netip.Addr) int {
	if a.Is4() || a.Is4In6() {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

func toSockaddr(ap netip.AddrPort) unix.Sockaddr {
	addr := ap.Addr()
	if addr.Is4() || addr.Is4In6() {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}
	}
	return &unix.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}
}

// Init implements iolayer.Layer.
func (c *Conn) Init(ctx iolayer.LayerContext, selfIdx int) error {
	c.ctx = ctx
	c.layerIdx = selfIdx

	if !c.outbound {
		if err := ctx.RegisterHandle(selfIdx, c.fd, iolayer.WaitRead); err != nil {
			return err
		}
		c.applySockopts()
		return nil
	}

	family := familyOfAddr(c.peerAddr.Addr())
	fd, err := socketNonblocking(family)
	if err != nil {
		c.state = iolayer.StateError
		c.lastErr = ioerr.FromErrno(err)
		return ioerr.New(c.lastErr, err)
	}
	c.fd = fd
	c.family = family

	cerr := unix.Connect(fd, toSockaddr(c.peerAddr))
	if cerr == nil {
		c.state = iolayer.StateConnected
		if err := ctx.RegisterHandle(selfIdx, fd, 0); err != nil {
			return err
		}
		c.applySockopts()
		ctx.SoftEvent(selfIdx, false, iolayer.Connected, nil)
		return nil
	}
	if cerr != unix.EINPROGRESS && cerr != unix.EWOULDBLOCK {
		unix.Close(fd)
		c.state = iolayer.StateError
		c.lastErr = ioerr.FromErrno(cerr)
		return ioerr.New(c.lastErr, cerr)
	}

	c.state = iolayer.StateConnecting
	if err := ctx.RegisterHandle(selfIdx, fd, iolayer.WaitWrite); err != nil {
		unix.Close(fd)
		return err
	}
	c.connectTimer = ctx.ScheduleTimer(c.settings.ConnectTimeout, c.onConnectTimeout)
	return nil
}

func (c *Conn) onConnectTimeout() {
	if c.state != iolayer.StateConnecting {
		return
	}
	c.lastErr = ioerr.TimedOut
	c.ctx.SoftEvent(c.layerIdx, false, iolayer.Error, ioerr.New(ioerr.TimedOut, nil))
}

func (c *Conn) applySockopts() {
	_ = setKeepalive(c.fd, c.settings)
	_ = setNagle(c.fd, c.settings.NagleEnable)
}

// ProcessEvent implements iolayer.Layer, mirroring the source's
// M_io_net_process_cb dispatch.
func (c *Conn) ProcessEvent(ev *iolayer.EventType, err error) bool {
	if c.state == iolayer.StateDisconnected || c.state == iolayer.StateError {
		_ = c.ctx.UnregisterHandle(c.layerIdx, c.fd)
		return *ev != iolayer.Disconnected && *ev != iolayer.Error
	}

	if c.state == iolayer.StateDisconnecting && *ev == iolayer.Write {
		return true
	}
	if c.state == iolayer.StateDisconnecting && *ev == iolayer.Error {
		*ev = iolayer.Disconnected
	}

	if c.state == iolayer.StateConnecting {
		switch *ev {
		case iolayer.Write, iolayer.Read, iolayer.Disconnected, iolayer.Error:
			sysErr, gerr := getSockError(c.fd)
			if gerr == nil && sysErr == 0 && (*ev == iolayer.Write || *ev == iolayer.Read) {
				_ = c.ctx.ModifyWait(c.layerIdx, c.fd, iolayer.WaitRead)
				if *ev == iolayer.Read {
					c.ctx.SoftEvent(c.layerIdx, false, iolayer.Read, nil)
				}
				*ev = iolayer.Connected
				c.state = iolayer.StateConnected
				if c.connectTimer != nil {
					c.connectTimer.Stop()
				}
			} else {
				if sysErr == 0 {
					sysErr = int(unix.ECONNABORTED)
				}
				c.lastErrSys = unix.Errno(sysErr)
				c.lastErr = ioerr.FromErrno(c.lastErrSys)
				*ev = iolayer.Error
				c.state = iolayer.StateError
				unix.Close(c.fd)
				return false
			}
		default:
			return true
		}
	}

	if c.state == iolayer.StateDisconnecting && *ev == iolayer.Read {
		var buf [1024]byte
		for {
			n, rerr := c.Read(buf[:], nil)
			if rerr != nil {
				if ioerr.Code(rerr) == ioerr.Disconnect {
					*ev = iolayer.Disconnected
				} else if ioerr.Code(rerr) != ioerr.WouldBlock {
					*ev = iolayer.Error
					c.lastErrSys = rerr
				} else {
					return true
				}
				break
			}
			if n < len(buf) {
				return true
			}
		}
	}

	switch *ev {
	case iolayer.Error:
		if c.state == iolayer.StateConnected && c.lastErrSys == nil {
			c.lastErrSys = unix.ECONNRESET
		}
		c.state = iolayer.StateError
		c.lastErr = ioerr.FromErrno(c.lastErrSys)
	case iolayer.Disconnected:
		c.state = iolayer.StateDisconnected
	case iolayer.Read:
		if c.state == iolayer.StateConnected {
			_ = c.ctx.ModifyWait(c.layerIdx, c.fd, 0)
		}
	case iolayer.Write:
		if c.state == iolayer.StateConnected {
			_ = c.ctx.ModifyWait(c.layerIdx, c.fd, 0)
		}
	}

	return false
}

// Read implements iolayer.Layer: a non-blocking read, re-arming the Read
// wait mask on a short read and clearing it on a full-buffer read.
func (c *Conn) Read(p []byte, meta *iolayer.Meta) (int, error) {
	n, err := unix.Read(c.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ioerr.New(ioerr.WouldBlock, err)
		}
		return 0, ioerr.New(ioerr.FromErrno(err), err)
	}
	if n == 0 {
		return 0, ioerr.New(ioerr.Disconnect, nil)
	}
	if n < len(p) {
		_ = c.ctx.ModifyWait(c.layerIdx, c.fd, iolayer.WaitRead)
	} else {
		_ = c.ctx.ModifyWait(c.layerIdx, c.fd, 0)
	}
	return n, nil
}

// Write implements iolayer.Layer, symmetric to Read.
func (c *Conn) Write(p []byte, meta *iolayer.Meta) (int, error) {
	n, err := unix.Write(c.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			_ = c.ctx.ModifyWait(c.layerIdx, c.fd, iolayer.WaitWrite)
			return 0, ioerr.New(ioerr.WouldBlock, err)
		}
		if err == unix.EPIPE {
			return 0, ioerr.New(ioerr.Disconnect, err)
		}
		return 0, ioerr.New(ioerr.FromErrno(err), err)
	}
	if n < len(p) {
		_ = c.ctx.ModifyWait(c.layerIdx, c.fd, iolayer.WaitWrite)
	}
	return n, nil
}

// Disconnect implements iolayer.Layer: shutdown(WR), re-arm Read, start
// the disconnect-timeout timer.
func (c *Conn) Disconnect() bool {
	if c.state != iolayer.StateConnected {
		return c.state != iolayer.StateDisconnecting
	}
	c.state = iolayer.StateDisconnecting
	if err := unix.Shutdown(c.fd, unix.SHUT_WR); err != nil {
		c.state = iolayer.StateDisconnected
		return true
	}
	_ = c.ctx.ModifyWait(c.layerIdx, c.fd, iolayer.WaitRead)
	c.disconnectTimer = c.ctx.ScheduleTimer(c.settings.DisconnectTimeout, c.onDisconnectTimeout)
	return false
}

func (c *Conn) onDisconnectTimeout() {
	if c.state != iolayer.StateDisconnecting {
		return
	}
	c.ctx.SoftEvent(c.layerIdx, false, iolayer.Disconnected, nil)
}

// Unregister implements iolayer.Layer.
func (c *Conn) Unregister() {
	if c.connectTimer != nil {
		c.connectTimer.Stop()
	}
	if c.disconnectTimer != nil {
		c.disconnectTimer.Stop()
	}
	if c.fd >= 0 {
		_ = c.ctx.UnregisterHandle(c.layerIdx, c.fd)
	}
}

// Destroy implements iolayer.Layer.
func (c *Conn) Destroy() {
	if c.fd >= 0 {
		unix.Close(c.fd)
		c.fd = -1
	}
}

// State implements iolayer.Layer.
func (c *Conn) State() iolayer.State { return c.state }

// ErrorMessage implements iolayer.Layer.
func (c *Conn) ErrorMessage() (string, bool) {
	if c.lastErrSys == nil {
		return "", false
	}
	return c.lastErrSys.Error(), true
}

// LocalPort reads back the ephemeral port assigned by the kernel.
func (c *Conn) LocalPort() (uint16, error) {
	return getsockname4(c.fd)
}

var _ iolayer.Layer = (*Conn)(nil)
