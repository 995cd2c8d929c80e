//go:build linux

package tcpio

import "golang.org/x/sys/unix"

func tcpKeepIdleOpt() int { return unix.TCP_KEEPIDLE }

// socketNonblocking creates a non-blocking, close-on-exec TCP socket in
// one syscall, matching the source's #ifdef SOCK_CLOEXEC fast path.
func socketNonblocking(family int) (int, error) {
	return unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
}

// acceptNonblocking accept4()s a non-blocking, close-on-exec connection.
func acceptNonblocking(fd int) (int, unix.Sockaddr, error) {
	return unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
}
