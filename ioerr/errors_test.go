package ioerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAndCodeRoundTrip(t *testing.T) {
	cause := errors.New("boom")
	err := New(ConnReset, cause)
	require.Equal(t, ConnReset, Code(err))
	require.ErrorIs(t, err, ConnReset)
	require.NotErrorIs(t, err, ConnAborted)
}

func TestCodeOfNilIsSuccess(t *testing.T) {
	require.Equal(t, Success, Code(nil))
}

func TestCodeOfUnclassifiedErrorIsError(t *testing.T) {
	require.Equal(t, Error, Code(errors.New("plain")))
}

func TestCodeWalksWrapChain(t *testing.T) {
	inner := New(TimedOut, nil)
	outer := fmt.Errorf("dial: %w", inner)
	require.Equal(t, TimedOut, Code(outer))
	require.ErrorIs(t, outer, TimedOut)
}

func TestWrappedErrorMessageIncludesCause(t *testing.T) {
	err := New(ConnRefused, errors.New("econnrefused"))
	require.Contains(t, err.Error(), "ConnRefused")
	require.Contains(t, err.Error(), "econnrefused")
}

func TestWrappedErrorMessageWithoutCause(t *testing.T) {
	err := New(NotFound, nil)
	require.Equal(t, "NotFound", err.Error())
}

func TestMonotoneSetNeverDowngradesFromSpecific(t *testing.T) {
	var code IOErr
	MonotoneSet(&code, ConnReset)
	require.Equal(t, ConnReset, code)

	// A subsequent Success report must not clobber a specific code.
	MonotoneSet(&code, Success)
	require.Equal(t, ConnReset, code)

	// A catch-all Error also must not clobber something more specific.
	MonotoneSet(&code, Error)
	require.Equal(t, ConnReset, code)

	// A second specific code does overwrite the first.
	MonotoneSet(&code, TimedOut)
	require.Equal(t, TimedOut, code)
}

func TestMonotoneSetFromZeroValue(t *testing.T) {
	var code IOErr // Success
	MonotoneSet(&code, Error)
	require.Equal(t, Error, code)

	var code2 IOErr
	MonotoneSet(&code2, NotConnected)
	require.Equal(t, NotConnected, code2)
}

func TestIOErrStringUnknownValue(t *testing.T) {
	require.Contains(t, IOErr(999).String(), "IOErr(999)")
}
