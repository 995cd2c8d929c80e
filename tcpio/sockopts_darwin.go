//go:build darwin

package tcpio

import "golang.org/x/sys/unix"

// On Darwin the idle-time knob is TCP_KEEPALIVE, not TCP_KEEPIDLE
// (m_io_net.c's own #ifdef chain draws this same distinction).
func tcpKeepIdleOpt() int { return unix.TCP_KEEPALIVE }

// socketNonblocking creates a TCP socket then applies O_NONBLOCK and
// FD_CLOEXEC via fcntl, since Darwin's socket(2) has no combined
// SOCK_NONBLOCK|SOCK_CLOEXEC type flag (the source's
// "!defined(SOCK_CLOEXEC) && !defined(_WIN32)" fallback branch).
func socketNonblocking(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// acceptNonblocking accepts then applies O_NONBLOCK/FD_CLOEXEC to the new
// fd, for the same reason socketNonblocking does.
func acceptNonblocking(fd int) (int, unix.Sockaddr, error) {
	nfd, sa, err := unix.Accept(fd)
	if err != nil {
		return -1, nil, err
	}
	if err := unix.SetNonblock(nfd, true); err != nil {
		unix.Close(nfd)
		return -1, nil, err
	}
	if _, err := unix.FcntlInt(uintptr(nfd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		unix.Close(nfd)
		return -1, nil, err
	}
	return nfd, sa, nil
}
