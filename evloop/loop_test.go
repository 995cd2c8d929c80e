package evloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunTimeoutReturnsWhenNothingPending(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	result, err := l.Run(0)
	require.NoError(t, err)
	require.Equal(t, RunTimeout, result)
}

func TestRunIsNotReentrant(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	var inner RunResult
	var innerErr error
	require.NoError(t, l.QueueTask(func() {
		inner, innerErr = l.Run(0)
	}))

	_, err = l.Run(10)
	require.NoError(t, err)
	require.Equal(t, RunMisuse, inner)
	require.ErrorIs(t, innerErr, ErrReentrantRun)
}

func TestQueueTaskRunsOnNextTick(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	var ran bool
	require.NoError(t, l.QueueTask(func() { ran = true }))
	_, err = l.Run(0)
	require.NoError(t, err)
	require.True(t, ran)
}

func TestQueueTaskOnTerminatedLoopErrors(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	require.NoError(t, l.Close())

	require.ErrorIs(t, l.QueueTask(func() {}), ErrLoopTerminated)
}

func TestDoneExitsRunWithRunDone(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.QueueTask(l.Done))
	result, err := l.Run(-1)
	require.NoError(t, err)
	require.Equal(t, RunDone, result)
}

func TestReturnExitsRunWithRunReturn(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.QueueTask(l.Return))
	result, err := l.Run(-1)
	require.NoError(t, err)
	require.Equal(t, RunReturn, result)
}

func TestWithExitOnEmptyReturnsRunDoneWithNoIOsOrTimers(t *testing.T) {
	l, err := New(WithExitOnEmpty())
	require.NoError(t, err)
	defer l.Close()

	result, err := l.Run(-1)
	require.NoError(t, err)
	require.Equal(t, RunDone, result)
}

func TestWithExitOnEmptyWaitsForPendingTimer(t *testing.T) {
	l, err := New(WithExitOnEmpty())
	require.NoError(t, err)
	defer l.Close()

	var fired bool
	l.ScheduleTimer(10*time.Millisecond, func() { fired = true })

	result, err := l.Run(1000)
	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, RunDone, result, "once the timer fires and drains, the loop should exit empty")
}

func TestScheduleTimerFiresOnDispatcherGoroutine(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	var fired bool
	l.ScheduleTimer(5*time.Millisecond, func() { fired = true })

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fired {
			break
		}
		_, err := l.Run(20)
		require.NoError(t, err)
	}
	require.True(t, fired)
}

func TestLoopIDIsStableAndLoggerDefaultsToNoop(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	id1 := l.ID()
	id2 := l.ID()
	require.Equal(t, id1, id2)
	require.False(t, l.Logger().IsEnabled(LevelDebug), "a Loop built without WithLogger must default to a disabled noop logger")
}
