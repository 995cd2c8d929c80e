package dnsresolver

import "time"

// Config carries the resolver's server list and cache tuning, constructed
// via NewConfig the way tcpio.Settings is built via NewSettings and
// nop.Config is built via NewConfig.
type Config struct {
	// Servers is the ordered list of "host:port" DNS servers to query.
	// Servers are tried in order until one answers.
	Servers []string

	// QueryTimeout is the timeout of each single exchange with one
	// server (the UDP query, and the TCP retry after truncation, each get
	// the full value). It is not divided across servers or attempts, so
	// one lookup can take several times QueryTimeout.
	QueryTimeout time.Duration

	// MinTTL and MaxTTL clamp the cache lifetime derived from a response's
	// record TTLs.
	MinTTL time.Duration
	MaxTTL time.Duration

	// ServerCacheTimeout is how long a resolver channel (the configured
	// server snapshot) is reused before a reload creates a fresh one,
	// per §4.7's "Server-config reload".
	ServerCacheTimeout time.Duration

	// OutcomeCacheExpiry bounds how long a Happy-Eyeballs outcome is kept
	// before it ages out, per spec §3's "Happy-Eyeballs cache" (default
	// 600s, matching the 600-second bound spec.md calls out explicitly).
	OutcomeCacheExpiry time.Duration
}

// NewConfig returns Config defaults: public resolvers, 5s query timeout,
// 1h TTL ceiling, 5-minute server-cache reload interval, 600s outcome
// cache expiry.
func NewConfig() *Config {
	return &Config{
		Servers:            []string{"8.8.8.8:53", "1.1.1.1:53"},
		QueryTimeout:       5 * time.Second,
		MinTTL:             0,
		MaxTTL:             time.Hour,
		ServerCacheTimeout: 5 * time.Minute,
		OutcomeCacheExpiry: 600 * time.Second,
	}
}
