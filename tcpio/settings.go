package tcpio

import "time"

// listenBacklog is the backlog passed to listen(2)/Winsock listen(),
// matching the source's fixed 512-entry queue.
const listenBacklog = 512

// Settings carries the per-connection timeouts and socket options,
// constructed via NewSettings the way nop.Config is built via NewConfig:
// sensible defaults that callers override selectively before Dial/Listen.
type Settings struct {
	// ConnectTimeout bounds how long a non-blocking connect may take
	// before the connection is abandoned and reported as TimedOut.
	ConnectTimeout time.Duration

	// DisconnectTimeout bounds how long a graceful shutdown(WR) may wait
	// for the peer to close before the IO is forced to Disconnected.
	DisconnectTimeout time.Duration

	// KeepaliveEnable turns on SO_KEEPALIVE plus the TCP_KEEPIDLE/
	// TCP_KEEPINTVL/TCP_KEEPCNT tuning below.
	KeepaliveEnable    bool
	KeepaliveIdleTime  time.Duration
	KeepaliveRetryTime time.Duration
	KeepaliveRetryCnt  int

	// NagleEnable controls TCP_NODELAY: false (the default) sets
	// TCP_NODELAY, matching the source's "Nagle off by default" stance
	// for interactive/latency-sensitive protocols.
	NagleEnable bool

	// BindIP, if non-empty, is used instead of the family-aware wildcard
	// address when listening.
	BindIP string
}

// NewSettings returns Settings with the defaults: 10s connect timeout,
// 10s disconnect timeout, no keepalive, no Nagle.
func NewSettings() *Settings {
	return &Settings{
		ConnectTimeout:     10 * time.Second,
		DisconnectTimeout:  10 * time.Second,
		KeepaliveIdleTime:  60 * time.Second,
		KeepaliveRetryTime: 10 * time.Second,
		KeepaliveRetryCnt:  3,
	}
}
