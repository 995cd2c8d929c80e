package iolayer

import "time"

// EventType enumerates the event kinds a layer can raise or observe. At
// most one event per (layer, type) is pending simultaneously, which is
// why EventType is a small int enum rather than a bitset: the
// bitset-of-EventType lives one level up, in the soft-event queue.
type EventType int

const (
	// Connected indicates a connection attempt (or accept) completed.
	Connected EventType = iota
	// Accept indicates a listener has a new peer ready to be accepted.
	Accept
	// Read indicates data (or EOF) is available to read.
	Read
	// Write indicates the layer is ready to accept more written bytes.
	Write
	// Disconnected indicates the peer (or local shutdown) closed the IO.
	Disconnected
	// Error indicates an unrecoverable error occurred on the IO.
	Error
	// Other is a layer-defined event outside the standard set.
	Other
)

func (e EventType) String() string {
	switch e {
	case Connected:
		return "Connected"
	case Accept:
		return "Accept"
	case Read:
		return "Read"
	case Write:
		return "Write"
	case Disconnected:
		return "Disconnected"
	case Error:
		return "Error"
	case Other:
		return "Other"
	default:
		return "Unknown"
	}
}

// numEventTypes bounds arrays/bitsets indexed by EventType.
const numEventTypes = int(Other) + 1

// State is the IO object's lifecycle state.
type State int

const (
	StateInit State = iota
	StateListening
	StateConnecting
	StateConnected
	StateDisconnecting
	StateDisconnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateListening:
		return "Listening"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnecting:
		return "Disconnecting"
	case StateDisconnected:
		return "Disconnected"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Meta carries out-of-band information attached to a Read/Write call, e.g.
// a datagram peer address. Layers that don't need metadata leave it nil.
type Meta struct {
	// PeerAddr is set by layers that are message-oriented (e.g. a future
	// UDP layer) to report the sender/recipient of the message.
	PeerAddr string
}

// WaitMask describes the OS readiness conditions an IO wants to be woken
// for: a subset of {Read, Write}.
type WaitMask uint8

const (
	WaitRead WaitMask = 1 << iota
	WaitWrite
)

// Timer is a handle returned by LayerContext.ScheduleTimer; Stop cancels
// it if it hasn't fired yet.
type Timer interface {
	Stop()
}

// LayerContext is the capability surface a Layer is given once its owning
// Stack is attached to an event loop. It is the seam between iolayer
// (OS-agnostic layering) and evloop (the concrete poller/timer/soft-event
// implementation), so that iolayer never imports evloop.
type LayerContext interface {
	// RegisterHandle binds an OS handle (fd) owned by the layer at
	// layerIdx to the owning IO, with an initial desired wait mask.
	RegisterHandle(layerIdx int, handle int, want WaitMask) error
	// ModifyWait updates the desired wait mask for an already-registered
	// handle.
	ModifyWait(layerIdx int, handle int, want WaitMask) error
	// UnregisterHandle removes the handle from the event loop's handle
	// table. It does not close the underlying OS handle.
	UnregisterHandle(layerIdx int, handle int) error

	// SoftEvent enqueues a soft event for delivery: siblingOnly=false
	// targets the layer at layerIdx itself; siblingOnly=true targets the
	// next layer up.
	SoftEvent(layerIdx int, siblingOnly bool, ev EventType, err error)

	// ScheduleTimer arms a one-shot timer that fires fn on the loop
	// goroutine after d.
	ScheduleTimer(d time.Duration, fn func()) Timer

	// Now returns the loop's monotonic notion of "now".
	Now() time.Time
}
