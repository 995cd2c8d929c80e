package evloop

import "github.com/Monetra/mstdlib-sub003/iolayer"

// softEventQueue is the level-triggering adapter: it turns edge-triggered
// kernel readiness (and layer-synthesized events like Connected or
// Disconnected) into a FIFO of pending deliveries that survive across
// tick boundaries until a layer actually drains them.
//
// An ioEntry enters the queue at most once at a time; its own pending
// slice accumulates further events until the entry is dequeued and
// drained. This keeps queue growth bounded by the number of distinct IOs
// with outstanding work, not the number of individual events.
type softEventQueue struct {
	queue   []*ioEntry
	queued  map[*ioEntry]bool
}

func newSoftEventQueue() *softEventQueue {
	return &softEventQueue{queued: make(map[*ioEntry]bool)}
}

// push appends an event to e's pending list and enqueues e if it isn't
// already queued for draining. An event already pending for the same
// layer and type is not added a second time.
func (q *softEventQueue) push(e *ioEntry, layerIdx int, ev iolayer.EventType, err error) {
	for _, pe := range e.pending {
		if pe.layerIdx == layerIdx && pe.ev == ev {
			return
		}
	}
	e.pending = append(e.pending, pendingEvent{layerIdx: layerIdx, ev: ev, err: err})
	if !q.queued[e] {
		q.queued[e] = true
		q.queue = append(q.queue, e)
	}
}

// drain pops every currently queued entry and hands its accumulated
// pending events to fn, in FIFO order. Events pushed by fn itself (e.g. a
// layer reacting to one event by raising another) land in a fresh
// generation that a subsequent drain call will pick up — drain never
// recurses into events it enqueues mid-pass, which is what bounds a
// single tick's work and lets the caller interleave a timer pass between
// two drain calls.
func (q *softEventQueue) drain(fn func(e *ioEntry, pending []pendingEvent)) {
	batch := q.queue
	q.queue = nil
	pendings := make([][]pendingEvent, len(batch))
	for i, e := range batch {
		delete(q.queued, e)
		pendings[i] = e.pending
		e.pending = nil
	}
	for i, e := range batch {
		fn(e, pendings[i])
	}
}

func (q *softEventQueue) empty() bool { return len(q.queue) == 0 }
