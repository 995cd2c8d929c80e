package evloop

import (
	"sync"

	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// handleReg is what the loop knows about one OS handle: which layer of
// which IO owns it, and what readiness it currently wants.
type handleReg struct {
	layerIdx int
	want     iolayer.WaitMask
}

// ioEntry is everything the loop tracks about one attached IO object.
type ioEntry struct {
	stack *iolayer.Stack

	// spanID tags every log line this IO produces for its whole
	// attached lifetime, so a concurrent attach/detach/error sequence
	// for one IO can be correlated in logs the way nop's *Start/*Done
	// span convention does for a single DNS exchange or connect attempt.
	spanID string

	// handles maps every OS fd registered for this IO to the layer that
	// owns it and its current desired wait mask, mirroring what was last
	// told to the poller.
	handles map[int]handleReg

	// pending holds soft events queued for delivery but not yet drained
	// by the current tick. Re-armed edge-triggered readiness collapses
	// into this list rather than firing the poller repeatedly.
	pending []pendingEvent

	disconnecting  bool
	disconnectFrom int
}

type pendingEvent struct {
	layerIdx int
	ev       iolayer.EventType
	err      error
}

// handleTable maps OS handles to the owning IO, the structure a poller
// readiness notification is resolved through before any layer ever sees
// an event. Every Loop owns exactly one, mutated from the loop's own
// dispatcher goroutine; every method takes the mutex so that readers on
// other goroutines, such as Pool.Next calling count, see a consistent
// table.
type handleTable struct {
	mu sync.Mutex

	byHandle map[int]*ioEntry
	ios      map[*iolayer.Stack]*ioEntry
}

func newHandleTable() *handleTable {
	return &handleTable{
		byHandle: make(map[int]*ioEntry),
		ios:      make(map[*iolayer.Stack]*ioEntry),
	}
}

func (t *handleTable) addIO(stack *iolayer.Stack) (*ioEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.ios[stack]; exists {
		return nil, false
	}
	e := &ioEntry{stack: stack, spanID: NewSpanID(), handles: make(map[int]handleReg)}
	t.ios[stack] = e
	return e, true
}

func (t *handleTable) removeIO(stack *iolayer.Stack) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ios[stack]
	if !ok {
		return
	}
	for h := range e.handles {
		delete(t.byHandle, h)
	}
	delete(t.ios, stack)
}

func (t *handleTable) lookupIO(stack *iolayer.Stack) (*ioEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ios[stack]
	return e, ok
}

func (t *handleTable) registerHandle(e *ioEntry, layerIdx, handle int, want iolayer.WaitMask) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := e.handles[handle]; exists {
		return ErrHandleAlreadyRegistered
	}
	e.handles[handle] = handleReg{layerIdx: layerIdx, want: want}
	t.byHandle[handle] = e
	return nil
}

func (t *handleTable) modifyWait(e *ioEntry, handle int, want iolayer.WaitMask) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, exists := e.handles[handle]
	if !exists {
		return ErrHandleNotRegistered
	}
	r.want = want
	e.handles[handle] = r
	return nil
}

func (t *handleTable) unregisterHandle(e *ioEntry, handle int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := e.handles[handle]; !exists {
		return ErrHandleNotRegistered
	}
	delete(e.handles, handle)
	delete(t.byHandle, handle)
	return nil
}

func (t *handleTable) findByHandle(handle int) (*ioEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byHandle[handle]
	return e, ok
}

func (t *handleTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ios)
}

func (t *handleTable) snapshotIOs() []*ioEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*ioEntry, 0, len(t.ios))
	for _, e := range t.ios {
		out = append(out, e)
	}
	return out
}
