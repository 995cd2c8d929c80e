//go:build windows

package tcpio

import "golang.org/x/sys/windows"

func setReuseAddr(fd int) error {
	// SO_EXCLUSIVEADDRUSE is the Windows analogue of SO_REUSEADDR's safety
	// property (it prevents a second process binding the same address),
	// not a behavioral twin, per spec.md's own call-out of the distinction.
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_EXCLUSIVEADDRUSE, 1)
}

func setV6Only(fd int, onlyV6 bool) error {
	v := 0
	if onlyV6 {
		v = 1
	}
	return windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, v)
}

func setLingerAbortive(fd int) error {
	return windows.SetsockoptLinger(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_LINGER, &windows.Linger{Onoff: 1, Linger: 0})
}

func setNagle(fd int, enable bool) error {
	v := 1
	if enable {
		v = 0
	}
	return windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_TCP, windows.TCP_NODELAY, v)
}

func setKeepalive(fd int, s *Settings) error {
	v := 0
	if s.KeepaliveEnable {
		v = 1
	}
	// Windows lacks per-socket TCP_KEEPIDLE/TCP_KEEPINTVL/TCP_KEEPCNT
	// knobs reachable through setsockopt; SIO_KEEPALIVE_VALS would require
	// a WSAIoctl this stub doesn't issue, so only the on/off switch applies.
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_KEEPALIVE, v)
}

func getSockError(fd int) (int, error) {
	return windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_ERROR)
}

func getsockname4(fd int) (uint16, error) {
	sa, err := windows.Getsockname(windows.Handle(fd))
	if err != nil {
		return 0, err
	}
	switch a := sa.(type) {
	case *windows.SockaddrInet4:
		return uint16(a.Port), nil
	case *windows.SockaddrInet6:
		return uint16(a.Port), nil
	default:
		return 0, windows.WSAEINVAL
	}
}

// socketNonblocking creates a plain Winsock socket. Unlike the unix
// build this does not actually switch the socket to non-blocking mode:
// doing so needs ioctlsocket(FIONBIO), which golang.org/x/sys/windows
// does not wrap, and the IOCP poller (evloop/poller_windows.go) does not
// yet issue overlapped reads/writes that would need it to not stall the
// loop anyway. Connect and Accept below are therefore synchronous calls
// made directly from Init/AcceptConn, an acknowledged limitation of this
// platform's build.
func socketNonblocking(family int) (int, error) {
	h, err := windows.Socket(family, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	return int(h), nil
}

// acceptNonblocking accepts a connection. See socketNonblocking's doc
// comment for why this is a plain, blocking Accept rather than AcceptEx.
func acceptNonblocking(fd int) (int, windows.Sockaddr, error) {
	nh, sa, err := windows.Accept(windows.Handle(fd))
	if err != nil {
		return -1, nil, err
	}
	return int(nh), sa, nil
}
