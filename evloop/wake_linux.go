//go:build linux

package evloop

import "golang.org/x/sys/unix"

// wakeFd is a self-wakeup primitive for the loop's poller, adapted from
// the teacher package's createWakeFd. Linux uses a single eventfd as both
// read and write end.
type wakeFd struct {
	fd int
}

func newWakeFd() (*wakeFd, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &wakeFd{fd: fd}, nil
}

func (w *wakeFd) readFD() int { return w.fd }

func (w *wakeFd) signal() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(w.fd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (w *wakeFd) drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(w.fd, buf[:]); err != nil {
			return
		}
	}
}

func (w *wakeFd) close() error {
	return unix.Close(w.fd)
}
