package evloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerWheelFiresInDeadlineOrder(t *testing.T) {
	w := newTimerWheel()
	now := time.Now()

	var fired []int
	w.schedule(now, 30*time.Millisecond, func() { fired = append(fired, 3) })
	w.schedule(now, 10*time.Millisecond, func() { fired = append(fired, 1) })
	w.schedule(now, 20*time.Millisecond, func() { fired = append(fired, 2) })

	n := w.fireDue(now.Add(25 * time.Millisecond))
	require.Equal(t, 2, n)
	require.Equal(t, []int{1, 2}, fired)

	n = w.fireDue(now.Add(40 * time.Millisecond))
	require.Equal(t, 1, n)
	require.Equal(t, []int{1, 2, 3}, fired)
}

func TestTimerWheelStopCancelsBeforeFiring(t *testing.T) {
	w := newTimerWheel()
	now := time.Now()

	fired := false
	h := w.schedule(now, 10*time.Millisecond, func() { fired = true })
	h.Stop()

	n := w.fireDue(now.Add(time.Second))
	require.Equal(t, 0, n)
	require.False(t, fired)
}

func TestTimerWheelNextDeadlineSkipsCanceled(t *testing.T) {
	w := newTimerWheel()
	now := time.Now()

	h1 := w.schedule(now, 10*time.Millisecond, func() {})
	w.schedule(now, 20*time.Millisecond, func() {})
	h1.Stop()

	when, ok := w.nextDeadline()
	require.True(t, ok)
	require.Equal(t, now.Add(20*time.Millisecond), when)
}

func TestTimerWheelEmpty(t *testing.T) {
	w := newTimerWheel()
	require.True(t, w.empty())

	now := time.Now()
	h := w.schedule(now, time.Millisecond, func() {})
	require.False(t, w.empty())

	h.Stop()
	require.True(t, w.empty(), "a wheel containing only canceled entries reports empty")
}

func TestTimerWheelFireDueSkipsCanceledMidScan(t *testing.T) {
	w := newTimerWheel()
	now := time.Now()

	var fired []int
	w.schedule(now, 5*time.Millisecond, func() { fired = append(fired, 1) })
	h2 := w.schedule(now, 10*time.Millisecond, func() { fired = append(fired, 2) })
	w.schedule(now, 15*time.Millisecond, func() { fired = append(fired, 3) })
	h2.Stop()

	n := w.fireDue(now.Add(time.Second))
	require.Equal(t, 2, n)
	require.Equal(t, []int{1, 3}, fired)
}
