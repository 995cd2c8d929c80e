package iolayer

import (
	"sync"

	"github.com/Monetra/mstdlib-sub003/ioerr"
)

// Stack is an IO object: an ordered list of layers (index 0 is the bottom,
// the OS primitive; the highest index is the user layer), a per-IO
// recursive mutex, and a monotonically-non-decreasing last error. Stack
// is created unattached; Attach binds it to a LayerContext (normally an
// evloop.Loop), and Destroy walks layers top-down releasing resources.
type Stack struct {
	mu        sync.Mutex
	holder    int // goroutine-ish recursion counter; guarded by mu itself
	recursion int

	layers []Layer
	ctx    LayerContext

	lastErr  ioerr.IOErr
	attached bool

	// OnEvent is invoked by the owning loop for every delivered event,
	// after layer dispatch; it is the "user callback" of spec §3.
	OnEvent func(ev EventType, err error)
}

// NewStack builds an IO object from its layers, bottom to top.
func NewStack(layers ...Layer) *Stack {
	return &Stack{layers: layers}
}

// Acquire takes the stack's recursive lock and returns a LayerHandle bound
// to layerIdx. Because Go's sync.Mutex isn't natively recursive, Stack
// implements reentrancy itself: nested Acquire calls from the same
// dispatch are tolerated by tracking a recursion depth, which is safe
// here because all callers are serialized onto the owning loop's single
// dispatcher goroutine.
func (s *Stack) Acquire(layerIdx int) *LayerHandle {
	if s.recursion == 0 {
		s.mu.Lock()
	}
	s.recursion++
	return &LayerHandle{stack: s, layerIdx: layerIdx}
}

// Release undoes one Acquire; the lock is dropped when the outermost
// Acquire is released.
func (s *Stack) Release(h *LayerHandle) {
	s.recursion--
	if s.recursion == 0 {
		s.mu.Unlock()
	}
}

// LayerHandle is the opaque handle returned by Stack.Acquire.
type LayerHandle struct {
	stack    *Stack
	layerIdx int
}

// Layers returns the stack's layer slice. Safe to call without a lock;
// the slice itself is fixed for the lifetime of the Stack (Accept builds
// a new Stack rather than mutating an existing one's layer list).
func (s *Stack) Layers() []Layer { return s.layers }

// Len returns the number of layers.
func (s *Stack) Len() int { return len(s.layers) }

// Attach binds the stack to a LayerContext and calls Init on every layer,
// bottom to top. If any layer's Init fails, already-initialized layers
// are torn down and the error is returned.
func (s *Stack) Attach(ctx LayerContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return ioerr.New(ioerr.Invalid, nil)
	}
	s.ctx = ctx
	for i, l := range s.layers {
		if err := l.Init(ctx, i); err != nil {
			for j := i - 1; j >= 0; j-- {
				s.layers[j].Unregister()
			}
			s.ctx = nil
			return err
		}
	}
	s.attached = true
	return nil
}

// Detach calls Unregister on every layer, top to bottom (the reverse of
// attach order, matching teardown conventions for layered resources).
func (s *Stack) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return
	}
	for i := len(s.layers) - 1; i >= 0; i-- {
		s.layers[i].Unregister()
	}
	s.attached = false
	s.ctx = nil
}

// Destroy walks layers top-down calling Destroy. Idempotent: calling it
// twice is safe.
func (s *Stack) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.layers) - 1; i >= 0; i-- {
		s.layers[i].Destroy()
	}
}

// Disconnect asks every layer, bottom to top, to begin a graceful
// disconnect. It stops at the first layer that reports done == false
// ("still draining") and returns that layer's index. The walk is not
// resumed automatically; the event loop never calls Disconnect.
func (s *Stack) Disconnect(fromLayer int) (completedThrough int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := fromLayer; i < len(s.layers); i++ {
		if !s.layers[i].Disconnect() {
			return i
		}
	}
	return len(s.layers)
}

// State reports the IO's overall state: the bottom-most non-Init layer's
// State.
func (s *Stack) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.layers {
		if st := l.State(); st != StateInit {
			return st
		}
	}
	return StateInit
}

// LastError returns the monotone last-error code.
func (s *Stack) LastError() ioerr.IOErr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetError applies the monotone propagation rule: once set to anything
// other than Success/Error, more specific codes are never overwritten by
// less specific ones.
func (s *Stack) SetError(code ioerr.IOErr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ioerr.MonotoneSet(&s.lastErr, code)
}

// ErrorMessage walks layers top-down, letting each layer's ErrorMessage
// populate the result; the first layer returning true wins.
func (s *Stack) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.layers) - 1; i >= 0; i-- {
		if msg, ok := s.layers[i].ErrorMessage(); ok {
			return msg
		}
	}
	return ""
}

// Dispatch walks layers upward from fromLayer calling ProcessEvent on
// each until one consumes it or the user (topmost) layer is reached. It
// returns the (possibly rewritten) event type and whether any layer
// consumed it before reaching the user callback.
func (s *Stack) Dispatch(fromLayer int, ev EventType, err error) (final EventType, consumedBeforeUser bool) {
	final = ev
	for i := fromLayer; i < len(s.layers); i++ {
		if s.layers[i].ProcessEvent(&final, err) {
			return final, true
		}
	}
	if s.OnEvent != nil {
		s.OnEvent(final, err)
	}
	return final, false
}

// Read invokes Read on the topmost (highest index) layer. Higher layers that
// wrap a lower transport (e.g. a future TLS layer) are expected to call
// through to the layer below themselves rather than go through Stack.Read
// again, matching the source's "layer calls into the layer below it"
// convention.
func (s *Stack) Read(p []byte, meta *Meta) (int, error) {
	if len(s.layers) == 0 {
		return 0, ioerr.New(ioerr.Invalid, nil)
	}
	return s.layers[len(s.layers)-1].Read(p, meta)
}

// Write is symmetric to Read.
func (s *Stack) Write(p []byte, meta *Meta) (int, error) {
	if len(s.layers) == 0 {
		return 0, ioerr.New(ioerr.Invalid, nil)
	}
	return s.layers[len(s.layers)-1].Write(p, meta)
}
