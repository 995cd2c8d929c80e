//go:build unix

package tcpio

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Monetra/mstdlib-sub003/evloop"
	"github.com/Monetra/mstdlib-sub003/iolayer"
)

// runUntil pumps the loop in short bursts until cond reports true or the
// overall deadline passes, since Loop.Run returns on every timeout tick
// rather than blocking for the test's entire lifetime.
func runUntil(t *testing.T, loop *evloop.Loop, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		if _, err := loop.Run(20); err != nil {
			require.NoError(t, err)
		}
	}
	t.Fatal("condition not reached before deadline")
}

func TestListenerDialAcceptEchoDisconnect(t *testing.T) {
	loop, err := evloop.New()
	require.NoError(t, err)
	defer loop.Close()

	lst := Listen("127.0.0.1", 0, nil)
	lstStack := iolayer.NewStack(lst)

	var acceptedStack *iolayer.Stack
	var serverGotPing bool
	require.NoError(t, loop.Add(lstStack, func(ev iolayer.EventType, err error) {
		if ev != iolayer.Accept {
			return
		}
		s, aerr := lst.AcceptConn()
		require.NoError(t, aerr)
		acceptedStack = s
		require.NoError(t, loop.Add(s, func(ev iolayer.EventType, err error) {
			if ev != iolayer.Read {
				return
			}
			var buf [64]byte
			n, rerr := s.Read(buf[:], nil)
			if rerr == nil && string(buf[:n]) == "ping" {
				serverGotPing = true
				_, _ = s.Write([]byte("pong"), nil)
			}
		}))
	}))

	runUntil(t, loop, 2*time.Second, func() bool { return lst.Port() != 0 })

	peer := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), lst.Port())
	clientStack := Dial(peer, nil)

	var clientConnected bool
	var clientDisconnected bool
	var clientReadBuf []byte
	require.NoError(t, loop.Add(clientStack, func(ev iolayer.EventType, err error) {
		switch ev {
		case iolayer.Connected:
			clientConnected = true
		case iolayer.Read:
			var buf [64]byte
			n, rerr := clientStack.Read(buf[:], nil)
			if rerr == nil {
				clientReadBuf = append(clientReadBuf, buf[:n]...)
			}
		case iolayer.Disconnected:
			clientDisconnected = true
		}
	}))

	runUntil(t, loop, 2*time.Second, func() bool { return clientConnected && acceptedStack != nil })

	_, werr := clientStack.Write([]byte("ping"), nil)
	require.NoError(t, werr)

	runUntil(t, loop, 2*time.Second, func() bool { return serverGotPing })
	runUntil(t, loop, 2*time.Second, func() bool { return string(clientReadBuf) == "pong" })

	require.Equal(t, iolayer.StateConnected, clientStack.State())

	clientStack.Disconnect(0)
	runUntil(t, loop, 2*time.Second, func() bool { return clientDisconnected })
}

func TestDialRefusedConnectionReportsError(t *testing.T) {
	loop, err := evloop.New()
	require.NoError(t, err)
	defer loop.Close()

	// A listener bound then immediately closed frees the port but leaves
	// nothing listening, so connect() should fail fast with ECONNREFUSED.
	lst := Listen("127.0.0.1", 0, nil)
	probe := iolayer.NewStack(lst)
	require.NoError(t, loop.Add(probe, func(iolayer.EventType, error) {}))
	runUntil(t, loop, 2*time.Second, func() bool { return lst.Port() != 0 })
	port := lst.Port()
	require.NoError(t, loop.Remove(probe))
	probe.Destroy()

	peer := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), port)
	settings := NewSettings()
	settings.ConnectTimeout = 2 * time.Second
	clientStack := Dial(peer, settings)

	var gotError bool
	addErr := loop.Add(clientStack, func(ev iolayer.EventType, err error) {
		if ev == iolayer.Error {
			gotError = true
		}
	})
	// A loopback refusal is sometimes detected synchronously during
	// connect(), which surfaces as an Init/Attach failure from Add rather
	// than an async Error event; either outcome proves refusal was
	// reported, matching connect()'s two legal completion paths.
	if addErr != nil {
		return
	}

	runUntil(t, loop, 3*time.Second, func() bool { return gotError })
	require.Equal(t, iolayer.StateError, clientStack.State())
}
