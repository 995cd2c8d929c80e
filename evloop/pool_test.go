package evloop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPoolDefaultsToNumCPU(t *testing.T) {
	p, err := NewPool(0)
	require.NoError(t, err)
	defer p.Close()
	require.NotEmpty(t, p.Loops())
}

func TestPoolNextPicksLeastLoadedLoop(t *testing.T) {
	p, err := NewPool(2)
	require.NoError(t, err)
	defer p.Close()

	// Simulate loop 0 already carrying more attached IOs than loop 1 by
	// attaching a stack directly to its handle table.
	loop0 := p.Loops()[0]
	loop0.table.addIO(nil)

	picked := p.Next()
	require.Same(t, p.Loops()[1], picked, "Next must steer new work to the less-loaded loop")
}

func TestPoolNextSkipsNonScalableLoops(t *testing.T) {
	scalable, err := New()
	require.NoError(t, err)
	defer scalable.Close()
	nonScalable, err := New(WithNonScalable())
	require.NoError(t, err)
	defer nonScalable.Close()

	p := &Pool{loops: []*Loop{nonScalable, scalable}}
	require.Same(t, scalable, p.Next())
}

func TestPoolNextRoundRobinsWhenEveryLoopIsNonScalable(t *testing.T) {
	a, err := New(WithNonScalable())
	require.NoError(t, err)
	defer a.Close()
	b, err := New(WithNonScalable())
	require.NoError(t, err)
	defer b.Close()

	p := &Pool{loops: []*Loop{a, b}}
	first := p.Next()
	second := p.Next()
	require.NotSame(t, first, second, "round-robin fallback must alternate between loops")
}

func TestPoolCloseClosesEveryLoop(t *testing.T) {
	p, err := NewPool(3)
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
