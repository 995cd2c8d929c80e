//go:build unix

package tcpio

import (
	"golang.org/x/sys/unix"
)

func setReuseAddr(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

// setV6Only explicitly sets IPV6_V6ONLY to reflect the requested family
// rather than trusting the OS default, per spec.md §4.6 ("some OSes may
// set IPV6_V6ONLY on by default").
func setV6Only(fd int, onlyV6 bool) error {
	v := 0
	if onlyV6 {
		v = 1
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, v)
}

func setLingerAbortive(fd int) error {
	return unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0})
}

func setNagle(fd int, enable bool) error {
	v := 1
	if enable {
		v = 0
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
}

func setKeepalive(fd int, s *Settings) error {
	if !s.KeepaliveEnable {
		return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 0)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		return err
	}
	idle := int(s.KeepaliveIdleTime.Seconds())
	intvl := int(s.KeepaliveRetryTime.Seconds())
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, tcpKeepIdleOpt(), idle)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, intvl)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, s.KeepaliveRetryCnt)
	return nil
}

func getSockError(fd int) (int, error) {
	return unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
}

func getsockname4(fd int) (port uint16, err error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, err
	}
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return uint16(a.Port), nil
	case *unix.SockaddrInet6:
		return uint16(a.Port), nil
	default:
		return 0, unix.EINVAL
	}
}
