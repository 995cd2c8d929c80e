//go:build windows

package ioerr

import (
	"errors"
	"io"

	"golang.org/x/sys/windows"
)

// FromErrno classifies a raw syscall error into the spec §7 taxonomy on
// Windows, where the error space is WSA* constants rather than POSIX
// errno values.
func FromErrno(err error) IOErr {
	if err == nil {
		return Success
	}
	if errors.Is(err, io.EOF) {
		return Disconnect
	}

	var errno windows.Errno
	if !errors.As(err, &errno) {
		return Error
	}

	switch errno {
	case windows.WSAEWOULDBLOCK:
		return WouldBlock
	case windows.WSAEINTR:
		return Interrupted
	case windows.WSAETIMEDOUT:
		return TimedOut
	case windows.WSAECONNRESET:
		return ConnReset
	case windows.WSAECONNABORTED:
		return ConnAborted
	case windows.WSAECONNREFUSED:
		return ConnRefused
	case windows.WSAENETUNREACH, windows.WSAEHOSTUNREACH, windows.WSAENETDOWN:
		return NetUnreachable
	case windows.WSAEADDRINUSE:
		return AddrInUse
	case windows.WSAEACCES:
		return NotPerm
	case windows.WSAEPROTONOSUPPORT, windows.WSAEAFNOSUPPORT:
		return ProtoNotSupported
	case windows.WSAENOBUFS:
		return NoSysResources
	case windows.WSAENOTCONN:
		return NotConnected
	case windows.WSAEINVAL:
		return Invalid
	default:
		return Error
	}
}
