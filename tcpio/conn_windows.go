//go:build windows

package tcpio

import (
	"net/netip"

	"golang.org/x/sys/windows"

	"github.com/Monetra/mstdlib-sub003/ioerr"
	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// Conn is the Windows counterpart of the unix Conn. The loop's IOCP
// poller (evloop/poller_windows.go) does not yet issue overlapped
// ConnectEx/ReadFile/WriteFile operations, so it cannot distinguish
// read-ready from write-ready the way epoll/kqueue can: every wake
// reports both. Connect here is therefore a direct (blocking) call made
// during Init rather than a non-blocking connect resolved later via
// SO_ERROR, and ProcessEvent has no Connecting state to resolve.
type Conn struct {
	iolayer.BaseLayer

	fd       int
	family   int
	peerAddr netip.AddrPort
	settings *Settings
	outbound bool
	ipv4     bool

	ctx      iolayer.LayerContext
	layerIdx int

	state      iolayer.State
	lastErrSys error
	lastErr    ioerr.IOErr

	disconnectTimer iolayer.Timer
}

// NewConn builds an unattached outbound connection to peer.
func NewConn(peer netip.AddrPort, settings *Settings) *Conn {
	if settings == nil {
		settings = NewSettings()
	}
	return &Conn{fd: -1, peerAddr: peer, settings: settings, outbound: true, state: iolayer.StateInit}
}

// Dial returns a Stack wrapping a single outbound Conn layer.
func Dial(peer netip.AddrPort, settings *Settings) *iolayer.Stack {
	return iolayer.NewStack(NewConn(peer, settings))
}

func newAcceptedConn(fd int, peer netip.AddrPort, ipv4 bool, settings *Settings) *Conn {
	return &Conn{fd: fd, peerAddr: peer, settings: settings, outbound: false, ipv4: ipv4, state: iolayer.StateConnected}
}

func familyOfAddr(a netip.Addr) int {
	if a.Is4() || a.Is4In6() {
		return windows.AF_INET
	}
	return windows.AF_INET6
}

func toSockaddr(ap netip.AddrPort) windows.Sockaddr {
	addr := ap.Addr()
	if addr.Is4() || addr.Is4In6() {
		return &windows.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}
	}
	return &windows.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}
}

// Init implements iolayer.Layer. Connect runs synchronously: the
// acknowledged tradeoff of not issuing overlapped I/O on this platform.
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

	if err := windows.Connect(windows.Handle(fd), toSockaddr(c.peerAddr)); err != nil {
		windows.Closesocket(windows.Handle(fd))
		c.state = iolayer.StateError
		c.lastErr = ioerr.FromErrno(err)
		return ioerr.New(c.lastErr, err)
	}

	c.state = iolayer.StateConnected
	if err := ctx.RegisterHandle(selfIdx, fd, iolayer.WaitRead); err != nil {
		return err
	}
	c.applySockopts()
	ctx.SoftEvent(selfIdx, false, iolayer.Connected, nil)
	return nil
}

func (c *Conn) applySockopts() {
	_ = setKeepalive(c.fd, c.settings)
	_ = setNagle(c.fd, c.settings.NagleEnable)
}

// ProcessEvent implements iolayer.Layer. With no Connecting state to
// resolve, this is the terminal-state and disconnect-draining logic only.
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
			c.lastErrSys = windows.WSAECONNRESET
		}
		c.state = iolayer.StateError
		c.lastErr = ioerr.FromErrno(c.lastErrSys)
	case iolayer.Disconnected:
		c.state = iolayer.StateDisconnected
	}

	return false
}

// Read implements iolayer.Layer.
func (c *Conn) Read(p []byte, meta *iolayer.Meta) (int, error) {
	n, _, err := windows.Recvfrom(windows.Handle(c.fd), p, 0)
	if err != nil {
		if err == windows.WSAEWOULDBLOCK {
			return 0, ioerr.New(ioerr.WouldBlock, err)
		}
		return 0, ioerr.New(ioerr.FromErrno(err), err)
	}
	if n == 0 {
		return 0, ioerr.New(ioerr.Disconnect, nil)
	}
	return n, nil
}

// Write implements iolayer.Layer.
func (c *Conn) Write(p []byte, meta *iolayer.Meta) (int, error) {
	if err := windows.Sendto(windows.Handle(c.fd), p, 0, toSockaddr(c.peerAddr)); err != nil {
		if err == windows.WSAEWOULDBLOCK {
			return 0, ioerr.New(ioerr.WouldBlock, err)
		}
		return 0, ioerr.New(ioerr.FromErrno(err), err)
	}
	return len(p), nil
}

// Disconnect implements iolayer.Layer.
func (c *Conn) Disconnect() bool {
	if c.state != iolayer.StateConnected {
		return c.state != iolayer.StateDisconnecting
	}
	c.state = iolayer.StateDisconnecting
	if err := windows.Shutdown(windows.Handle(c.fd), windows.SHUT_WR); err != nil {
		c.state = iolayer.StateDisconnected
		return true
	}
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
		windows.Closesocket(windows.Handle(c.fd))
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
