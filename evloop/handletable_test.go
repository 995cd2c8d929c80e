package evloop

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Monetra/mstdlib-sub003/iolayer"
)

func TestHandleTableAddIORejectsDuplicate(t *testing.T) {
	tbl := newHandleTable()
	s := iolayer.NewStack()

	e, ok := tbl.addIO(s)
	require.True(t, ok)
	require.NotEmpty(t, e.spanID, "addIO must tag every new entry with a span id")

	_, ok = tbl.addIO(s)
	require.False(t, ok, "attaching the same stack twice must be rejected")
}

func TestHandleTableRegisterModifyUnregister(t *testing.T) {
	tbl := newHandleTable()
	s := iolayer.NewStack()
	e, _ := tbl.addIO(s)

	require.NoError(t, tbl.registerHandle(e, 0, 42, iolayer.WaitRead))
	require.ErrorIs(t, tbl.registerHandle(e, 0, 42, iolayer.WaitRead), ErrHandleAlreadyRegistered)

	found, ok := tbl.findByHandle(42)
	require.True(t, ok)
	require.Same(t, e, found)

	require.NoError(t, tbl.modifyWait(e, 42, iolayer.WaitRead|iolayer.WaitWrite))
	require.ErrorIs(t, tbl.modifyWait(e, 99, iolayer.WaitRead), ErrHandleNotRegistered)

	require.NoError(t, tbl.unregisterHandle(e, 42))
	require.ErrorIs(t, tbl.unregisterHandle(e, 42), ErrHandleNotRegistered)

	_, ok = tbl.findByHandle(42)
	require.False(t, ok)
}

func TestHandleTableRemoveIOClearsItsHandles(t *testing.T) {
	tbl := newHandleTable()
	s := iolayer.NewStack()
	e, _ := tbl.addIO(s)
	require.NoError(t, tbl.registerHandle(e, 0, 7, iolayer.WaitRead))

	tbl.removeIO(s)

	_, ok := tbl.findByHandle(7)
	require.False(t, ok)
	_, ok = tbl.lookupIO(s)
	require.False(t, ok)
	require.Equal(t, 0, tbl.count())
}

func TestHandleTableSnapshotIOs(t *testing.T) {
	tbl := newHandleTable()
	s1 := iolayer.NewStack()
	s2 := iolayer.NewStack()
	tbl.addIO(s1)
	tbl.addIO(s2)

	snap := tbl.snapshotIOs()
	require.Len(t, snap, 2)
	require.Equal(t, 2, tbl.count())
}
