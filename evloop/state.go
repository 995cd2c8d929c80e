package evloop

import "sync/atomic"

// loopState is the internal operational state machine backing a loop's
// public running/paused/done lifecycle. It carries more granularity than
// that three-value view, adapted from the teacher package's FastState:
// Sleeping marks a loop whose Run has returned and may be called again,
// and Terminating is declared but never entered by this package.
type loopState uint32

const (
	// stateCreated: the loop exists but Run has never been called.
	stateCreated loopState = iota
	// stateRunning: a dispatcher goroutine is actively ticking.
	stateRunning
	// stateSleeping: Run has returned; Run may be called again.
	stateSleeping
	// stateTerminating: shutdown requested, draining in-flight work.
	stateTerminating
	// stateTerminated: Close has been called; Run and QueueTask refuse.
	stateTerminated
)

func (s loopState) String() string {
	switch s {
	case stateCreated:
		return "Created"
	case stateRunning:
		return "Running"
	case stateSleeping:
		return "Sleeping"
	case stateTerminating:
		return "Terminating"
	case stateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free atomic state machine, adapted from the teacher
// package's FastState.
type fastState struct {
	v atomic.Uint32
}

func newFastState() *fastState {
	s := &fastState{}
	s.v.Store(uint32(stateCreated))
	return s
}

func (s *fastState) Load() loopState { return loopState(s.v.Load()) }

func (s *fastState) Store(v loopState) { s.v.Store(uint32(v)) }

func (s *fastState) TryTransition(from, to loopState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
