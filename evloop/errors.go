package evloop

import "errors"

// Standard errors, matching the naming convention of the teacher package's
// errors.go (sentinel errors usable with errors.Is).
var (
	// ErrLoopAlreadyRunning is returned when Run is called on a loop that
	// already has a dispatcher.
	ErrLoopAlreadyRunning = errors.New("evloop: loop is already running")

	// ErrLoopTerminated is returned when operations are attempted on a
	// loop that has fully shut down.
	ErrLoopTerminated = errors.New("evloop: loop has been terminated")

	// ErrReentrantRun is returned when Run is called from within the
	// loop's own dispatcher goroutine.
	ErrReentrantRun = errors.New("evloop: cannot call Run from within the loop")

	// ErrAlreadyAttached is returned by Add when the IO is already
	// attached to this loop.
	ErrAlreadyAttached = errors.New("evloop: io is already attached to a loop")

	// ErrNotAttached is returned by Remove when the IO isn't currently
	// attached to this loop.
	ErrNotAttached = errors.New("evloop: io is not attached to this loop")

	// ErrHandleOutOfRange reports a handle beyond a direct-indexing
	// bound. The map-backed handle table has no such bound and never
	// returns it.
	ErrHandleOutOfRange = errors.New("evloop: handle out of range")

	// ErrHandleAlreadyRegistered is returned by RegisterHandle when the
	// handle is already present in the loop's handle table.
	ErrHandleAlreadyRegistered = errors.New("evloop: handle already registered")

	// ErrHandleNotRegistered is returned by ModifyWait/UnregisterHandle
	// for a handle absent from the loop's handle table.
	ErrHandleNotRegistered = errors.New("evloop: handle not registered")
)

// RunResult is the result of a call to Loop.Run.
type RunResult int

const (
	// RunTimeout means the caller-supplied timeout elapsed.
	RunTimeout RunResult = iota
	// RunDone means the loop reached ExitOnEmpty with no IO left, or
	// Done() was called.
	RunDone
	// RunReturn means Return() was called (a one-shot exit request,
	// distinct from the fatal Done()).
	RunReturn
	// RunMisuse means Run was called incorrectly (reentrant call, or
	// called on an already-running loop).
	RunMisuse
)

func (r RunResult) String() string {
	switch r {
	case RunTimeout:
		return "Timeout"
	case RunDone:
		return "Done"
	case RunReturn:
		return "Return"
	case RunMisuse:
		return "Misuse"
	default:
		return "Unknown"
	}
}
