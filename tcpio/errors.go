package tcpio

import "errors"

// Construction-time sentinel errors, matching evloop/errors.go's plain
// errors.New convention. Runtime I/O failures (connect refused, reset,
// etc.) are reported through the shared ioerr.IOErr taxonomy instead.
var (
	// ErrInvalidAddr is returned when addr2peer is given something that
	// isn't an IPv4/IPv6 literal (hostnames go through dnsresolver).
	ErrInvalidAddr = errors.New("tcpio: host must be an IP literal, not a hostname")

	// ErrAlreadyConnecting reports a connect already in progress. No
	// function in this package returns it.
	ErrAlreadyConnecting = errors.New("tcpio: connect already in progress")

	// ErrNotListening reports an accept attempted on a socket that is not
	// listening. No function in this package returns it.
	ErrNotListening = errors.New("tcpio: not a listening socket")
)
