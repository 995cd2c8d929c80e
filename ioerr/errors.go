package ioerr

import "fmt"

// IOErr is the io_err taxonomy from spec §7. Values are ordered the same
// way the specification groups them (transient, peer-induced, local,
// semantic, catch-all) so a numeric comparison roughly tracks severity,
// though callers should match by value or via errors.Is, never by range.
type IOErr int

const (
	// Success indicates the operation completed without error.
	Success IOErr = iota

	// Transient errors: retrying the same operation later may succeed.
	WouldBlock
	Interrupted
	TimedOut

	// Peer-induced errors: the remote end caused the failure.
	Disconnect
	ConnReset
	ConnAborted
	ConnRefused
	NetUnreachable

	// Local errors: caused by local resource or permission constraints.
	AddrInUse
	NotPerm
	ProtoNotSupported
	NoSysResources

	// Semantic errors: caller misuse or missing state.
	NotConnected
	NotFound
	Invalid

	// Error is the catch-all for anything not otherwise classified.
	Error
)

var names = map[IOErr]string{
	Success:            "Success",
	WouldBlock:         "WouldBlock",
	Interrupted:        "Interrupted",
	TimedOut:           "TimedOut",
	Disconnect:         "Disconnect",
	ConnReset:          "ConnReset",
	ConnAborted:        "ConnAborted",
	ConnRefused:        "ConnRefused",
	NetUnreachable:     "NetUnreachable",
	AddrInUse:          "AddrInUse",
	NotPerm:            "NotPerm",
	ProtoNotSupported:  "ProtoNotSupported",
	NoSysResources:     "NoSysResources",
	NotConnected:       "NotConnected",
	NotFound:           "NotFound",
	Invalid:            "Invalid",
	Error:              "Error",
}

// String implements fmt.Stringer.
func (e IOErr) String() string {
	if s, ok := names[e]; ok {
		return s
	}
	return fmt.Sprintf("IOErr(%d)", int(e))
}

// wrapped is the concrete error type returned by New, so that IOErr values
// compare with errors.Is against both the sentinel and the wrapped cause.
type wrapped struct {
	code  IOErr
	cause error
}

// New wraps code with an optional underlying cause (e.g. a syscall errno
// or a net.OpError). cause may be nil.
func New(code IOErr, cause error) error {
	return &wrapped{code: code, cause: cause}
}

func (w *wrapped) Error() string {
	if w.cause == nil {
		return w.code.String()
	}
	return fmt.Sprintf("%s: %v", w.code, w.cause)
}

func (w *wrapped) Unwrap() error { return w.cause }

// Is implements error matching against IOErr sentinels: errors.Is(err,
// ioerr.ConnReset) succeeds whenever err was constructed with that code,
// regardless of the wrapped cause.
func (w *wrapped) Is(target error) bool {
	if code, ok := target.(IOErr); ok {
		return w.code == code
	}
	return false
}

// Code extracts the IOErr from err, walking the Unwrap chain. Returns
// Error if err is non-nil but carries no IOErr, and Success if err is nil.
func Code(err error) IOErr {
	if err == nil {
		return Success
	}
	for e := err; e != nil; {
		if w, ok := e.(*wrapped); ok {
			return w.code
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return Error
}

// Error allows an IOErr value itself to be used as a sentinel with
// errors.Is/errors.As, e.g. `errors.Is(err, ioerr.ConnReset)`.
func (e IOErr) Error() string { return e.String() }

// MonotoneSet overwrites *dst with next only if dst currently holds a less
// specific code, implementing spec §7's "last_error is monotonically
// non-decreasing in specificity" propagation rule: once set to anything
// other than Success/Error, more specific codes never get clobbered by
// less specific ones.
func MonotoneSet(dst *IOErr, next IOErr) {
	if next == Success {
		return
	}
	if *dst == Success || *dst == Error {
		*dst = next
		return
	}
	if next == Error {
		return
	}
	*dst = next
}
