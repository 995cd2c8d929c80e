package evloop

import (
	"runtime"
	"sync/atomic"
)

// Pool distributes IO objects across a fixed set of loops, normally one
// per CPU core, each expected to run on its own goroutine (pinned or not
// is the caller's concern — Pool only hands out the *Loop to attach to,
// it doesn't manage goroutines itself).
type Pool struct {
	loops []*Loop
	next  atomic.Uint64
}

// NewPool creates size loops (runtime.NumCPU() if size <= 0), none of
// which are started; the caller is expected to call loop.Run on each in
// its own goroutine.
func NewPool(size int, opts ...Option) (*Pool, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	loops := make([]*Loop, 0, size)
	for i := 0; i < size; i++ {
		l, err := New(opts...)
		if err != nil {
			for _, prior := range loops {
				_ = prior.Close()
			}
			return nil, err
		}
		loops = append(loops, l)
	}
	return &Pool{loops: loops}, nil
}

// Loops returns the pool's member loops, in creation order.
func (p *Pool) Loops() []*Loop { return p.loops }

// Next returns the loop a new IO should be attached to: among loops not
// marked WithNonScalable, the one tracking the fewest attached IOs, with
// the lowest loop index breaking ties — cheap enough to recompute per
// call since distribution only happens at connection/accept time, not
// per I/O operation. Round-robin is used only when every loop is
// non-scalable.
func (p *Pool) Next() *Loop {
	var best *Loop
	bestCount := -1
	for _, l := range p.loops {
		if l.opts.nonScalable {
			continue
		}
		c := l.table.count()
		if bestCount == -1 || c < bestCount {
			best, bestCount = l, c
		}
	}
	if best != nil {
		return best
	}
	// every loop is non-scalable: fall back to plain round-robin so
	// Next never returns nil as long as the pool is non-empty.
	if len(p.loops) == 0 {
		return nil
	}
	idx := p.next.Add(1) - 1
	return p.loops[idx%uint64(len(p.loops))]
}

// Close closes every loop's poller.
func (p *Pool) Close() error {
	var first error
	for _, l := range p.loops {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
