package dnsresolver

import (
	"net/netip"
	"sync"
	"time"
)

// cacheKey identifies one query-cache entry: a fully-encoded (IDNA'd)
// hostname plus the record type queried (dns.TypeA / dns.TypeAAAA).
type cacheKey struct {
	host  string
	qtype uint16
}

type queryCacheEntry struct {
	addrs      []netip.Addr
	insertedAt time.Time
	ttl        time.Duration
}

// queryCache is the per-resolver TTL-aged answer cache, per spec §4.7
// step 4: "if an entry exists and now < entry.inserted_at + entry.ttl,
// answer from cache".
type queryCache struct {
	mu      sync.Mutex
	entries map[cacheKey]queryCacheEntry
}

func newQueryCache() *queryCache {
	return &queryCache{entries: make(map[cacheKey]queryCacheEntry)}
}

func (c *queryCache) get(host string, qtype uint16, now time.Time) ([]netip.Addr, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey{host, qtype}]
	if !ok || !now.Before(e.insertedAt.Add(e.ttl)) {
		return nil, false
	}
	return e.addrs, true
}

func (c *queryCache) put(host string, qtype uint16, addrs []netip.Addr, ttl time.Duration, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{host, qtype}] = queryCacheEntry{addrs: addrs, insertedAt: now, ttl: ttl}
}

// invalidate drops a cache entry, matching §4.7 step 6: "mark failed
// lookups as invalidating any stale cache entry."
func (c *queryCache) invalidate(host string, qtype uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{host, qtype})
}

// Outcome is a Happy-Eyeballs per-address outcome. The ordering of the
// constants is significant: sortResults in resolver.go sorts addresses
// ascending by Outcome value, matching spec §4.7's "Good < Unknown < Slow
// < Bad" callback ordering directly.
type Outcome int

const (
	Good Outcome = iota
	Unknown
	Slow
	Bad
)

func (o Outcome) String() string {
	switch o {
	case Good:
		return "Good"
	case Unknown:
		return "Unknown"
	case Slow:
		return "Slow"
	case Bad:
		return "Bad"
	default:
		return "Unknown"
	}
}

type outcomeEntry struct {
	ip         netip.Addr
	outcome    Outcome
	observedAt time.Time
}

// OutcomeCache is the Happy-Eyeballs cache (spec §3, "C9′"): ip_string →
// {outcome, observed_at}, aged by an insertion-order list so the oldest
// entries evict first once past the expiry bound. A re-marked address
// moves to the back of the list, keeping it ordered by most-recent
// observation rather than original insertion, since an address that is
// probed again is exactly the one we don't want to evict next.
type OutcomeCache struct {
	mu     sync.Mutex
	byIP   map[netip.Addr]*outcomeEntry
	order  []*outcomeEntry
	expiry time.Duration
}

func newOutcomeCache(expiry time.Duration) *OutcomeCache {
	return &OutcomeCache{byIP: make(map[netip.Addr]*outcomeEntry), expiry: expiry}
}

// Mark records outcome for ip, observed now.
func (c *OutcomeCache) Mark(ip netip.Addr, outcome Outcome) {
	c.mark(ip, outcome, time.Now())
}

func (c *OutcomeCache) mark(ip netip.Addr, outcome Outcome, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, exists := c.byIP[ip]; exists {
		e.outcome = outcome
		e.observedAt = now
		c.moveToBackLocked(e)
	} else {
		e := &outcomeEntry{ip: ip, outcome: outcome, observedAt: now}
		c.byIP[ip] = e
		c.order = append(c.order, e)
	}
	c.evictLocked(now)
}

// Get reports ip's current outcome, Unknown if it has never been marked
// or its entry has aged out.
func (c *OutcomeCache) Get(ip netip.Addr) Outcome {
	return c.get(ip, time.Now())
}

func (c *OutcomeCache) get(ip netip.Addr, now time.Time) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(now)
	if e, ok := c.byIP[ip]; ok {
		return e.outcome
	}
	return Unknown
}

// evictLocked drops entries older than the expiry bound. Good outcomes
// are not proactively demoted (DESIGN.md Open Question decision #3):
// they are only ever dropped by this age-bound sweep, same as any other
// outcome.
func (c *OutcomeCache) evictLocked(now time.Time) {
	i := 0
	for i < len(c.order) && now.Sub(c.order[i].observedAt) > c.expiry {
		delete(c.byIP, c.order[i].ip)
		i++
	}
	if i > 0 {
		c.order = c.order[i:]
	}
}

func (c *OutcomeCache) moveToBackLocked(e *outcomeEntry) {
	for i, o := range c.order {
		if o == e {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, e)
}
