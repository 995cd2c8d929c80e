//go:build darwin

package evloop

import "golang.org/x/sys/unix"

// wakeFd is a self-pipe wakeup primitive, adapted from the teacher
// package's createWakeFd. kqueue has no eventfd equivalent, so Darwin
// uses a non-blocking pipe instead.
type wakeFd struct {
	r, w int
}

func newWakeFd() (*wakeFd, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, err
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	if err := unix.SetNonblock(fds[0], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, err
	}
	return &wakeFd{r: fds[0], w: fds[1]}, nil
}

func (w *wakeFd) readFD() int { return w.r }

func (w *wakeFd) signal() error {
	_, err := unix.Write(w.w, []byte{1})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (w *wakeFd) drain() {
	var buf [64]byte
	for {
		if _, err := unix.Read(w.r, buf[:]); err != nil {
			return
		}
	}
}

func (w *wakeFd) close() error {
	_ = unix.Close(w.w)
	return unix.Close(w.r)
}
