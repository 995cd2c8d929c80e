package iolayer

import "github.com/Monetra/mstdlib-sub003/ioerr"

// Layer is one entry in an IO object's layer stack: a callback vtable
// expressed as an interface instead of nullable function pointers. Every
// method has a BaseLayer default implementing transparent pass-through;
// concrete layers embed BaseLayer and override only what they need.
type Layer interface {
	// Init is called once when the owning Stack is attached to a loop via
	// LayerContext. Returning an error causes the IO to be removed.
	Init(ctx LayerContext, selfIdx int) error

	// Accept is called on a listening layer when a new OS handle has been
	// accepted; it must wrap it into a fresh Stack duplicating every layer
	// above the listener. Non-listening layers return (nil, false) to
	// refuse.
	Accept(newHandle int) (*Stack, bool)

	// Read is non-blocking. p is returned unmodified; n is the number of
	// bytes read. err is an *ioerr-classified* error, nil on success.
	Read(p []byte, meta *Meta) (n int, err error)

	// Write is symmetric to Read; a partial write returns n < len(p) with
	// a nil error only when the layer is certain to complete the
	// remainder later (the common case is a short n with err == nil
	// meaning "try again after Write-ready").
	Write(p []byte, meta *Meta) (n int, err error)

	// ProcessEvent is the bottom-up dispatch callback: it may rewrite *ev
	// before forwarding. Returning true consumes the event (no layer above
	// sees it); false forwards it upward unchanged aside from any rewrite
	// already applied.
	ProcessEvent(ev *EventType, err error) (consumed bool)

	// Unregister is called when the owning Stack is detached from a loop.
	Unregister()

	// Disconnect requests a graceful shutdown. Returning true means
	// "done, proceed to the next layer's Disconnect"; false means "still
	// draining, a Disconnected soft event will follow later."
	Disconnect() (done bool)

	// Destroy releases layer-owned resources. Must tolerate being called
	// after a partial/failed Init.
	Destroy()

	// State reports this layer's view of the connection state; the IO's
	// overall state is the bottom-most non-Init layer's State.
	State() State

	// ErrorMessage fills a human-readable description of the layer's
	// last error. Returning false means "I have nothing to say, ask the
	// layer below".
	ErrorMessage() (string, bool)
}

// BaseLayer implements Layer with transparent pass-through behavior for
// every method. Concrete layers embed it so they only implement the
// methods relevant to their concern.
type BaseLayer struct{}

func (BaseLayer) Init(ctx LayerContext, selfIdx int) error { return nil }

func (BaseLayer) Accept(newHandle int) (*Stack, bool) { return nil, false }

func (BaseLayer) Read(p []byte, meta *Meta) (int, error) {
	return 0, ioerr.New(ioerr.Invalid, nil)
}

func (BaseLayer) Write(p []byte, meta *Meta) (int, error) {
	return 0, ioerr.New(ioerr.Invalid, nil)
}

// ProcessEvent's default is pass-through: never consumes, never rewrites.
func (BaseLayer) ProcessEvent(ev *EventType, err error) bool { return false }

func (BaseLayer) Unregister() {}

// Disconnect's default is "instantaneous": nothing to drain.
func (BaseLayer) Disconnect() bool { return true }

func (BaseLayer) Destroy() {}

func (BaseLayer) State() State { return StateInit }

func (BaseLayer) ErrorMessage() (string, bool) { return "", false }

var _ Layer = BaseLayer{}
