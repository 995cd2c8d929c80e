//go:build unix

//
// Adapted from the errno-to-label tables examined in the retrieval pack's
// bassosimone-nop/errclass/unix.go.
//

package ioerr

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// FromErrno classifies a raw syscall error (or a net.OpError wrapping one)
// into the spec §7 taxonomy. Returns Error if err doesn't match a known
// case, Success if err is nil.
func FromErrno(err error) IOErr {
	if err == nil {
		return Success
	}
	if errors.Is(err, io.EOF) {
		return Disconnect
	}

	var errno unix.Errno
	if !errors.As(err, &errno) {
		return Error
	}

	switch errno {
	case unix.EAGAIN, unix.EWOULDBLOCK:
		return WouldBlock
	case unix.EINTR:
		return Interrupted
	case unix.ETIMEDOUT:
		return TimedOut
	case unix.ECONNRESET:
		return ConnReset
	case unix.ECONNABORTED:
		return ConnAborted
	case unix.ECONNREFUSED:
		return ConnRefused
	case unix.ENETUNREACH, unix.EHOSTUNREACH, unix.ENETDOWN:
		return NetUnreachable
	case unix.EADDRINUSE:
		return AddrInUse
	case unix.EACCES, unix.EPERM:
		return NotPerm
	case unix.EPROTONOSUPPORT, unix.EAFNOSUPPORT:
		return ProtoNotSupported
	case unix.ENOBUFS, unix.ENOMEM, unix.EMFILE, unix.ENFILE:
		return NoSysResources
	case unix.ENOTCONN:
		return NotConnected
	case unix.EINVAL:
		return Invalid
	case unix.EPIPE:
		return Disconnect
	default:
		return Error
	}
}
