package tz

import "sort"

type transition struct {
	start  int64
	offset int64
	isDST  bool
	abbr   string
}

// transitionList is sorted strictly descending by start (newest first),
// matching the invariant on Olson transition lists.
type transitionList struct {
	list []transition
}

func newTransitionList(ts []transition) *transitionList {
	sort.Slice(ts, func(i, j int) bool { return ts[i].start > ts[j].start })
	return &transitionList{list: ts}
}

// at returns the latest transition whose start <= t, or — if t precedes
// every transition in the list — the earliest non-DST transition, falling
// back to the chronologically earliest transition if every one is DST.
func (d *transitionList) at(t int64) *transition {
	if len(d.list) == 0 {
		return nil
	}

	// insertIdx is where a transition starting at t would land to keep
	// the list sorted descending: every entry before it has start > t.
	insertIdx := sort.Search(len(d.list), func(i int) bool { return d.list[i].start <= t })
	if insertIdx < len(d.list) {
		return &d.list[insertIdx]
	}

	// t precedes every transition. Prefer the earliest non-DST one.
	for i := len(d.list) - 1; i >= 0; i-- {
		if !d.list[i].isDST {
			return &d.list[i]
		}
	}
	return &d.list[len(d.list)-1]
}
