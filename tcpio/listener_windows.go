//go:build windows

package tcpio

import (
	"net/netip"

	"golang.org/x/sys/windows"

	"github.com/Monetra/mstdlib-sub003/ioerr"
	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// Listener is the Windows counterpart of the unix Listener. Accept here
// uses the plain (blocking, per-call) windows.Accept rather than
// overlapped AcceptEx, matching Conn's acknowledged lack of overlapped
// I/O on this platform.
type Listener struct {
	iolayer.BaseLayer

	fd       int
	family   int
	port     uint16
	settings *Settings

	ctx      iolayer.LayerContext
	layerIdx int

	state      iolayer.State
	lastErrSys error

	pending map[int]acceptedPeer
}

// Listen creates a listening layer for the given bindIP/port; an empty
// bindIP listens on the family-aware wildcard address.
func Listen(bindIP string, port uint16, settings *Settings) *Listener {
	if settings == nil {
		settings = NewSettings()
	}
	if settings.BindIP == "" {
		settings.BindIP = bindIP
	}
	return &Listener{fd: -1, port: port, settings: settings, state: iolayer.StateInit}
}

// ListenStack returns a Stack wrapping a single Listener layer.
func ListenStack(bindIP string, port uint16, settings *Settings) *iolayer.Stack {
	return iolayer.NewStack(Listen(bindIP, port, settings))
}

// Port returns the bound port.
func (l *Listener) Port() uint16 { return l.port }

// Init implements iolayer.Layer.
func (l *Listener) Init(ctx iolayer.LayerContext, selfIdx int) error {
	l.ctx = ctx
	l.layerIdx = selfIdx

	family := windows.AF_INET
	if familyOf(l.settings.BindIP) == familyIPv6 {
		family = windows.AF_INET6
	}
	l.family = family

	fd, err := socketNonblocking(family)
	if err != nil {
		l.state = iolayer.StateError
		return ioerr.New(ioerr.FromErrno(err), err)
	}
	l.fd = fd

	if err := setReuseAddr(fd); err != nil {
		windows.Closesocket(windows.Handle(fd))
		return ioerr.New(ioerr.FromErrno(err), err)
	}
	if family == windows.AF_INET6 {
		if err := setV6Only(fd, l.settings.BindIP != ""); err != nil {
			windows.Closesocket(windows.Handle(fd))
			return ioerr.New(ioerr.FromErrno(err), err)
		}
	}

	wild, werr := wildcardFor(familyOf(l.settings.BindIP), l.settings.BindIP)
	if werr != nil {
		windows.Closesocket(windows.Handle(fd))
		return ErrInvalidAddr
	}

	if err := windows.Bind(windows.Handle(fd), toSockaddr(netip.AddrPortFrom(wild, l.port))); err != nil {
		windows.Closesocket(windows.Handle(fd))
		l.state = iolayer.StateError
		return ioerr.New(ioerr.FromErrno(err), err)
	}

	if l.port == 0 {
		if port, err := getsockname4(fd); err == nil {
			l.port = port
		}
	}

	if err := windows.Listen(windows.Handle(fd), listenBacklog); err != nil {
		windows.Closesocket(windows.Handle(fd))
		l.state = iolayer.StateError
		return ioerr.New(ioerr.FromErrno(err), err)
	}

	l.state = iolayer.StateListening
	return ctx.RegisterHandle(selfIdx, fd, iolayer.WaitRead)
}

// Accept implements iolayer.Layer.
func (l *Listener) Accept(newHandle int) (*iolayer.Stack, bool) {
	peer, ok := l.pendingPeer(newHandle)
	if !ok {
		return nil, false
	}
	conn := newAcceptedConn(newHandle, peer.addr, peer.ipv4, l.settings)
	return iolayer.NewStack(conn), true
}

func (l *Listener) pendingPeer(fd int) (acceptedPeer, bool) {
	p, ok := l.pending[fd]
	if ok {
		delete(l.pending, fd)
	}
	return p, ok
}

// AcceptConn performs the accept syscall. ProcessEvent does not call it:
// it passes an Accept event up, and the owner of the listener's Stack
// calls AcceptConn from its OnEvent callback.
func (l *Listener) AcceptConn() (*iolayer.Stack, error) {
	fd, sa, err := acceptNonblocking(l.fd)
	if err != nil {
		if err == windows.WSAEWOULDBLOCK {
			return nil, ioerr.New(ioerr.WouldBlock, err)
		}
		return nil, ioerr.New(ioerr.FromErrno(err), err)
	}

	peer, ipv4Tagged := peerFromSockaddr(sa)
	if l.pending == nil {
		l.pending = make(map[int]acceptedPeer)
	}
	l.pending[fd] = acceptedPeer{addr: peer, ipv4: ipv4Tagged}
	stack, ok := l.Accept(fd)
	if !ok {
		windows.Closesocket(windows.Handle(fd))
		return nil, ioerr.New(ioerr.Error, nil)
	}
	return stack, nil
}

func peerFromSockaddr(sa windows.Sockaddr) (netip.AddrPort, bool) {
	switch a := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port)), false
	case *windows.SockaddrInet6:
		addr := netip.AddrFrom16(a.Addr)
		if addr.Is4In6() {
			return netip.AddrPortFrom(rewriteMappedIPv4(addr), uint16(a.Port)), true
		}
		return netip.AddrPortFrom(addr, uint16(a.Port)), false
	default:
		return netip.AddrPort{}, false
	}
}

// ProcessEvent implements iolayer.Layer.
func (l *Listener) ProcessEvent(ev *iolayer.EventType, err error) bool {
	if *ev == iolayer.Read || *ev == iolayer.Accept {
		*ev = iolayer.Accept
		return false
	}
	return true
}

// Disconnect implements iolayer.Layer.
func (l *Listener) Disconnect() bool {
	l.state = iolayer.StateDisconnected
	return true
}

// Unregister implements iolayer.Layer.
func (l *Listener) Unregister() {
	if l.fd >= 0 {
		_ = l.ctx.UnregisterHandle(l.layerIdx, l.fd)
	}
}

// Destroy implements iolayer.Layer.
func (l *Listener) Destroy() {
	if l.fd >= 0 {
		windows.Closesocket(windows.Handle(l.fd))
		l.fd = -1
	}
}

// State implements iolayer.Layer.
func (l *Listener) State() iolayer.State { return l.state }

// ErrorMessage implements iolayer.Layer.
func (l *Listener) ErrorMessage() (string, bool) {
	if l.lastErrSys == nil {
		return "", false
	}
	return l.lastErrSys.Error(), true
}

var _ iolayer.Layer = (*Listener)(nil)
