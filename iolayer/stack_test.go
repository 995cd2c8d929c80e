package iolayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Monetra/mstdlib-sub003/ioerr"
)

// recordingCtx is a minimal LayerContext that just counts calls, enough
// to exercise Stack.Attach/Detach without a real evloop.Loop.
type recordingCtx struct {
	registered   []int
	unregistered []int
}

func (c *recordingCtx) RegisterHandle(layerIdx, handle int, want WaitMask) error {
	c.registered = append(c.registered, handle)
	return nil
}
func (c *recordingCtx) ModifyWait(layerIdx, handle int, want WaitMask) error { return nil }
func (c *recordingCtx) UnregisterHandle(layerIdx, handle int) error {
	c.unregistered = append(c.unregistered, handle)
	return nil
}
func (c *recordingCtx) SoftEvent(layerIdx int, siblingOnly bool, ev EventType, err error) {}
func (c *recordingCtx) ScheduleTimer(d time.Duration, fn func()) Timer                     { return noopTimer{} }
func (c *recordingCtx) Now() time.Time                                                     { return time.Now() }

type noopTimer struct{}

func (noopTimer) Stop() {}

// fakeLayer is a Layer stub letting tests control Init failure,
// ProcessEvent consumption/rewriting, and Disconnect draining.
type fakeLayer struct {
	BaseLayer
	name         string
	initErr      error
	handle       int
	consumeEvent bool
	rewriteTo    EventType
	doRewrite    bool
	disconnectOK bool
	destroyed    bool
	unregistered bool
}

func (l *fakeLayer) Init(ctx LayerContext, selfIdx int) error {
	if l.initErr != nil {
		return l.initErr
	}
	return ctx.RegisterHandle(selfIdx, l.handle, WaitRead)
}

func (l *fakeLayer) ProcessEvent(ev *EventType, err error) bool {
	if l.doRewrite {
		*ev = l.rewriteTo
	}
	return l.consumeEvent
}

func (l *fakeLayer) Disconnect() bool { return l.disconnectOK }

func (l *fakeLayer) Destroy() { l.destroyed = true }

func (l *fakeLayer) Unregister() { l.unregistered = true }

func (l *fakeLayer) State() State { return StateConnected }

func TestStackAttachInitsLayersBottomUp(t *testing.T) {
	bottom := &fakeLayer{name: "bottom", handle: 1}
	top := &fakeLayer{name: "top", handle: 2}
	s := NewStack(bottom, top)
	ctx := &recordingCtx{}

	require.NoError(t, s.Attach(ctx))
	require.Equal(t, []int{1, 2}, ctx.registered)
}

func TestStackAttachTwiceFails(t *testing.T) {
	s := NewStack(&fakeLayer{handle: 1})
	ctx := &recordingCtx{}
	require.NoError(t, s.Attach(ctx))
	require.Error(t, s.Attach(ctx))
}

func TestStackAttachRollsBackOnFailure(t *testing.T) {
	bottom := &fakeLayer{handle: 1}
	top := &fakeLayer{handle: 2, initErr: ioerr.New(ioerr.Invalid, nil)}
	s := NewStack(bottom, top)
	ctx := &recordingCtx{}

	err := s.Attach(ctx)
	require.Error(t, err)
	require.True(t, bottom.unregistered, "bottom layer must be torn down when a higher layer's Init fails")
	require.False(t, top.unregistered, "the failing layer itself never registered, so nothing to unregister")
}

func TestStackDetachUnregistersTopDown(t *testing.T) {
	bottom := &fakeLayer{handle: 1}
	top := &fakeLayer{handle: 2}
	s := NewStack(bottom, top)
	ctx := &recordingCtx{}
	require.NoError(t, s.Attach(ctx))

	s.Detach()
	require.True(t, bottom.unregistered)
	require.True(t, top.unregistered)
}

func TestStackDispatchStopsAtConsumingLayer(t *testing.T) {
	consumer := &fakeLayer{consumeEvent: true}
	never := &fakeLayer{}
	s := NewStack(consumer, never)

	var delivered bool
	s.OnEvent = func(ev EventType, err error) { delivered = true }

	final, consumedBeforeUser := s.Dispatch(0, Read, nil)
	require.Equal(t, Read, final)
	require.True(t, consumedBeforeUser)
	require.False(t, delivered, "OnEvent must not fire once a lower layer consumes the event")
}

func TestStackDispatchRewritesEventBeforeDelivery(t *testing.T) {
	rewriter := &fakeLayer{doRewrite: true, rewriteTo: Other}
	s := NewStack(rewriter)

	var gotEvent EventType
	s.OnEvent = func(ev EventType, err error) { gotEvent = ev }

	final, consumed := s.Dispatch(0, Read, nil)
	require.False(t, consumed)
	require.Equal(t, Other, final)
	require.Equal(t, Other, gotEvent)
}

func TestStackDisconnectStopsAtFirstDraining(t *testing.T) {
	done := &fakeLayer{disconnectOK: true}
	draining := &fakeLayer{disconnectOK: false}
	s := NewStack(done, draining)

	completedThrough := s.Disconnect(0)
	require.Equal(t, 1, completedThrough, "must stop at index of the still-draining layer")
}

func TestStackDisconnectCompletesWhenEveryLayerIsDone(t *testing.T) {
	a := &fakeLayer{disconnectOK: true}
	b := &fakeLayer{disconnectOK: true}
	s := NewStack(a, b)

	require.Equal(t, 2, s.Disconnect(0))
}

func TestStackDestroyWalksTopDownAndIsIdempotent(t *testing.T) {
	a := &fakeLayer{}
	b := &fakeLayer{}
	s := NewStack(a, b)
	s.Destroy()
	require.True(t, a.destroyed)
	require.True(t, b.destroyed)

	// calling twice must not panic
	s.Destroy()
}

func TestStackSetErrorIsMonotone(t *testing.T) {
	s := NewStack(&fakeLayer{})
	s.SetError(ioerr.ConnReset)
	s.SetError(ioerr.Error)
	require.Equal(t, ioerr.ConnReset, s.LastError())
}

func TestStackReadWriteDelegateToTopLayer(t *testing.T) {
	s := NewStack(&fakeLayer{})
	_, err := s.Read(make([]byte, 4), nil)
	require.Error(t, err, "BaseLayer.Read always errors, confirming Stack.Read reached the top layer")

	_, err = s.Write(make([]byte, 4), nil)
	require.Error(t, err)
}

func TestStackReadWriteOnEmptyStackIsInvalid(t *testing.T) {
	s := NewStack()
	_, err := s.Read(nil, nil)
	require.Equal(t, ioerr.Invalid, ioerr.Code(err))
}

func TestStackAcquireReleaseIsReentrant(t *testing.T) {
	s := NewStack(&fakeLayer{})
	h1 := s.Acquire(0)
	h2 := s.Acquire(0)
	s.Release(h2)
	s.Release(h1)
}
