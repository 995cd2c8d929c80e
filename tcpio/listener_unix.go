//go:build unix

package tcpio

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/Monetra/mstdlib-sub003/ioerr"
	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// Listener is a non-blocking TCP listening layer. Accept is driven by
// read-readiness on the listening socket, as delivered by the owning
// loop's poller.
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

	// pending holds peer addresses for fds accepted by AcceptConn but not
	// yet claimed by Accept, keyed by fd.
	pending map[int]acceptedPeer
}

// Listen creates (but does not yet bind) a listening layer for the given
// bindIP/port; an empty bindIP listens on the family-aware wildcard
// address. The actual bind/listen syscalls happen in Init.
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

// Port returns the bound port, which differs from the port passed to
// Listen when that was 0 (ephemeral).
func (l *Listener) Port() uint16 { return l.port }

// Init implements iolayer.Layer: bind, set family/reuse options, listen.
func (l *Listener) Init(ctx iolayer.LayerContext, selfIdx int) error {
	l.ctx = ctx
	l.layerIdx = selfIdx

	wantV6 := familyOf(l.settings.BindIP) == familyIPv6
	family := unix.AF_INET
	if wantV6 {
		family = unix.AF_INET6
	}
	l.family = family

	fd, err := socketNonblocking(family)
	if err != nil {
		l.state = iolayer.StateError
		return ioerr.New(ioerr.FromErrno(err), err)
	}
	l.fd = fd

	if err := setReuseAddr(fd); err != nil {
		unix.Close(fd)
		return ioerr.New(ioerr.FromErrno(err), err)
	}
	if family == unix.AF_INET6 {
		if err := setV6Only(fd, l.settings.BindIP != ""); err != nil {
			unix.Close(fd)
			return ioerr.New(ioerr.FromErrno(err), err)
		}
	}

	wild, werr := wildcardFor(familyOf(l.settings.BindIP), l.settings.BindIP)
	if werr != nil {
		unix.Close(fd)
		return ErrInvalidAddr
	}

	if err := unix.Bind(fd, toSockaddr(netip.AddrPortFrom(wild, l.port))); err != nil {
		unix.Close(fd)
		l.state = iolayer.StateError
		return ioerr.New(ioerr.FromErrno(err), err)
	}

	if l.port == 0 {
		if port, err := getsockname4(fd); err == nil {
			l.port = port
		}
	}

	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		l.state = iolayer.StateError
		return ioerr.New(ioerr.FromErrno(err), err)
	}

	l.state = iolayer.StateListening
	return ctx.RegisterHandle(selfIdx, fd, iolayer.WaitRead)
}

// Accept implements iolayer.Layer: wraps an already-accepted fd (and its
// peer address, captured by AcceptConn) into a fresh Stack with a single
// Conn layer.
func (l *Listener) Accept(newHandle int) (*iolayer.Stack, bool) {
	peer, ok := l.pendingPeer(newHandle)
	if !ok {
		return nil, false
	}
	conn := newAcceptedConn(newHandle, peer.addr, peer.ipv4, l.settings)
	return iolayer.NewStack(conn), true
}

type acceptedPeer struct {
	addr netip.AddrPort
	ipv4 bool
}

func (l *Listener) pendingPeer(fd int) (acceptedPeer, bool) {
	p, ok := l.pending[fd]
	if ok {
		delete(l.pending, fd)
	}
	return p, ok
}

// AcceptConn performs the actual accept syscall (accept4 on Linux).
// ProcessEvent does not call it: it passes an Accept event up, and the
// caller (normally the owner of the loop, from its OnEvent callback for
// this listener's Stack) calls AcceptConn and then adds the returned
// Stack to a Loop.
func (l *Listener) AcceptConn() (*iolayer.Stack, error) {
	fd, sa, err := acceptNonblocking(l.fd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
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
		unix.Close(fd)
		return nil, ioerr.New(ioerr.Error, nil)
	}
	return stack, nil
}

func peerFromSockaddr(sa unix.Sockaddr) (netip.AddrPort, bool) {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port)), false
	case *unix.SockaddrInet6:
		addr := netip.AddrFrom16(a.Addr)
		if addr.Is4In6() {
			return netip.AddrPortFrom(rewriteMappedIPv4(addr), uint16(a.Port)), true
		}
		return netip.AddrPortFrom(addr, uint16(a.Port)), false
	default:
		return netip.AddrPort{}, false
	}
}

// ProcessEvent implements iolayer.Layer: a Read (or Accept) event on the
// listening socket is rewritten to Accept and passed up for the owner to
// call AcceptConn and Add the resulting Stack.
func (l *Listener) ProcessEvent(ev *iolayer.EventType, err error) bool {
	if *ev == iolayer.Read || *ev == iolayer.Accept {
		*ev = iolayer.Accept
		return false
	}
	return true
}

// Disconnect implements iolayer.Layer: a listener has nothing to drain.
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
		unix.Close(l.fd)
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
