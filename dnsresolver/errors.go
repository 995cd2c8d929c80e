package dnsresolver

import "errors"

// Construction/lookup sentinel errors, matching tcpio/errors.go's plain
// errors.New convention. Wire-level failures are reported through the
// shared ioerr.IOErr taxonomy instead (see resolver.go's classify*).
var (
	// ErrNoServers is returned when a resolver channel has no configured
	// servers to query.
	ErrNoServers = errors.New("dnsresolver: no servers configured")

	// ErrNoResults is returned when a query succeeded but returned no
	// usable address records.
	ErrNoResults = errors.New("dnsresolver: no addresses found")

	// ErrBadName is returned when a hostname fails IDNA encoding.
	ErrBadName = errors.New("dnsresolver: invalid hostname")
)
