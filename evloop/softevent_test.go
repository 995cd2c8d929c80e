package evloop

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Monetra/mstdlib-sub003/iolayer"
)

func TestSoftEventQueuePushEnqueuesEntryOnce(t *testing.T) {
	q := newSoftEventQueue()
	e := &ioEntry{}

	q.push(e, 0, iolayer.Read, nil)
	q.push(e, 0, iolayer.Write, nil)

	require.False(t, q.empty())

	var gotPending []pendingEvent
	var callCount int
	q.drain(func(entry *ioEntry, pending []pendingEvent) {
		callCount++
		gotPending = pending
	})

	require.Equal(t, 1, callCount, "one entry pushed twice drains as a single batch")
	require.Len(t, gotPending, 2)
	require.Equal(t, iolayer.Read, gotPending[0].ev)
	require.Equal(t, iolayer.Write, gotPending[1].ev)
	require.True(t, q.empty())
}

func TestSoftEventQueueDrainDoesNotRecurseIntoEventsRaisedDuringDrain(t *testing.T) {
	q := newSoftEventQueue()
	a := &ioEntry{}
	b := &ioEntry{}
	q.push(a, 0, iolayer.Read, nil)

	var secondBatchSeen bool
	q.drain(func(entry *ioEntry, pending []pendingEvent) {
		// A layer reacting to this event raises a fresh event for a
		// different IO; it must not be visible in this same drain pass.
		q.push(b, 0, iolayer.Accept, nil)
	})
	require.False(t, q.empty(), "the event pushed mid-drain must survive for the next drain call")

	q.drain(func(entry *ioEntry, pending []pendingEvent) {
		secondBatchSeen = true
		require.Same(t, b, entry)
	})
	require.True(t, secondBatchSeen)
}

func TestSoftEventQueueFIFOOrder(t *testing.T) {
	q := newSoftEventQueue()
	first := &ioEntry{}
	second := &ioEntry{}
	q.push(first, 0, iolayer.Read, nil)
	q.push(second, 0, iolayer.Read, nil)

	var order []*ioEntry
	q.drain(func(entry *ioEntry, pending []pendingEvent) {
		order = append(order, entry)
	})
	require.Equal(t, []*ioEntry{first, second}, order)
}
