package dnsresolver

import (
	"net"
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/Monetra/mstdlib-sub003/evloop"
	"github.com/Monetra/mstdlib-sub003/ioerr"
)

// Family selects which record types a lookup requests, mirroring the
// "family" parameter of spec §6's io_create_tcp_client.
type Family int

const (
	// FamilyUnspec queries both A and AAAA records.
	FamilyUnspec Family = iota
	FamilyIPv4
	FamilyIPv6
)

// Result is the outcome of one Resolve call.
type Result struct {
	Addrs []netip.Addr
	Err   error
}

// Resolver is an async DNS resolver: one per event loop (or shared
// across loops sharing a Config), holding a query cache, the
// Happy-Eyeballs outcome cache, and a generation of resolverChannel
// that gets torn down and rebuilt when the server config is reloaded.
type Resolver struct {
	mu       sync.Mutex
	cfg      *Config
	queries  *queryCache
	outcomes *OutcomeCache
	channel  *resolverChannel
}

// resolverChannel is one generation of configured DNS servers, matching
// spec §4.7's "server-config reload" notion of a channel that is
// destroyed-pending once superseded rather than torn down mid-query.
type resolverChannel struct {
	servers  []string
	client   *dns.Client
	tcp      *dns.Client
	created  time.Time
	refs     sync.WaitGroup
	replaced bool
}

// NewResolver builds a Resolver from cfg. A nil cfg uses NewConfig's
// defaults.
func NewResolver(cfg *Config) *Resolver {
	if cfg == nil {
		cfg = NewConfig()
	}
	r := &Resolver{
		cfg:      cfg,
		queries:  newQueryCache(),
		outcomes: newOutcomeCache(cfg.OutcomeCacheExpiry),
	}
	r.channel = r.newChannelLocked()
	return r
}

// Outcomes returns the resolver's Happy-Eyeballs outcome cache, shared
// by every connector dialing through this resolver.
func (r *Resolver) Outcomes() *OutcomeCache { return r.outcomes }

func (r *Resolver) newChannelLocked() *resolverChannel {
	return &resolverChannel{
		servers: append([]string(nil), r.cfg.Servers...),
		client:  &dns.Client{Net: "udp", Timeout: r.cfg.QueryTimeout},
		tcp:     &dns.Client{Net: "tcp", Timeout: r.cfg.QueryTimeout},
		created: time.Now(),
	}
}

// Reload replaces the resolver's server list, marking the prior channel
// as replaced so in-flight queries on it finish undisturbed (spec §4.7:
// "existing in-flight queries drain against the old channel; the reload
// only affects new queries").
func (r *Resolver) Reload(servers []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Servers = append([]string(nil), servers...)
	r.channel.replaced = true
	r.channel = r.newChannelLocked()
}

func (r *Resolver) currentChannel() *resolverChannel {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := r.channel
	if time.Since(ch.created) > r.cfg.ServerCacheTimeout {
		ch.replaced = true
		r.channel = r.newChannelLocked()
		ch = r.channel
	}
	ch.refs.Add(1)
	return ch
}

func (ch *resolverChannel) release() { ch.refs.Done() }

// Resolve looks up host asynchronously, delivering cb on loop's
// dispatcher goroutine via loop.QueueTask. host may be an IP literal, in
// which case it is returned immediately without a network query (spec
// §4.7 step 2's "IP-literal shortcut").
func (r *Resolver) Resolve(loop *evloop.Loop, host string, family Family, cb func(Result)) {
	spanID := evloop.NewSpanID()

	if addr, err := netip.ParseAddr(host); err == nil {
		deliver(loop, cb, Result{Addrs: []netip.Addr{addr}})
		return
	}

	encoded, err := encodeHostname(host)
	if err != nil {
		deliver(loop, cb, Result{Err: ioerr.New(ioerr.Invalid, ErrBadName)})
		return
	}

	go r.resolveAsync(loop, spanID, encoded, family, cb)
}

func (r *Resolver) resolveAsync(loop *evloop.Loop, spanID, host string, family Family, cb func(Result)) {
	logSpan(loop, spanID, "dns resolve start", host)

	var addrs []netip.Addr
	var err error
	switch family {
	case FamilyIPv4:
		addrs, err = r.cachedLookup(host, dns.TypeA)
	case FamilyIPv6:
		addrs, err = r.cachedLookup(host, dns.TypeAAAA)
	default:
		var a4, a6 []netip.Addr
		var e4, e6 error
		a4, e4 = r.cachedLookup(host, dns.TypeA)
		a6, e6 = r.cachedLookup(host, dns.TypeAAAA)
		addrs = interleave(a6, a4)
		if len(addrs) == 0 {
			if e6 != nil {
				err = e6
			} else {
				err = e4
			}
		}
	}

	if err == nil && len(addrs) == 0 {
		err = ioerr.New(ioerr.NotFound, ErrNoResults)
	}

	res := Result{Addrs: r.sortResults(addrs), Err: err}
	logSpan(loop, spanID, "dns resolve done", host)
	deliver(loop, cb, res)
}

// cachedLookup answers from the query cache when an unexpired entry
// exists, otherwise performs a live exchange and populates the cache.
func (r *Resolver) cachedLookup(host string, qtype uint16) ([]netip.Addr, error) {
	now := time.Now()
	if addrs, ok := r.queries.get(host, qtype, now); ok {
		return addrs, nil
	}

	ch := r.currentChannel()
	defer ch.release()

	addrs, ttl, err := r.exchange(ch, host, qtype)
	if err != nil {
		r.queries.invalidate(host, qtype)
		return nil, err
	}

	r.queries.put(host, qtype, addrs, clampTTL(ttl, r.cfg.MinTTL, r.cfg.MaxTTL), now)
	return addrs, nil
}

// exchange queries every configured server in order until one answers,
// matching spec §4.7's "resolver-query" step. A truncated UDP response
// is retried over TCP per the same server.
func (r *Resolver) exchange(ch *resolverChannel, host string, qtype uint16) ([]netip.Addr, time.Duration, error) {
	if len(ch.servers) == 0 {
		return nil, 0, ErrNoServers
	}

	var lastErr error
	for _, server := range ch.servers {
		addrs, ttl, err := r.query(ch, server, host, qtype)
		if err == nil {
			return addrs, ttl, nil
		}
		lastErr = err
	}
	return nil, 0, classifyDNSError(lastErr)
}

func (r *Resolver) query(ch *resolverChannel, server, host string, qtype uint16) ([]netip.Addr, time.Duration, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	resp, _, err := ch.client.Exchange(msg, server)
	if err != nil {
		return nil, 0, err
	}
	if resp.Truncated {
		resp, _, err = ch.tcp.Exchange(msg, server)
		if err != nil {
			return nil, 0, err
		}
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, 0, classifyRcode(resp.Rcode)
	}

	return extractAddrs(resp)
}

func extractAddrs(resp *dns.Msg) ([]netip.Addr, time.Duration, error) {
	var addrs []netip.Addr
	var minTTL time.Duration = -1
	for _, rr := range resp.Answer {
		var ip net.IP
		switch rec := rr.(type) {
		case *dns.A:
			ip = rec.A
		case *dns.AAAA:
			ip = rec.AAAA
		default:
			continue
		}
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			continue
		}
		addrs = append(addrs, addr.Unmap())
		ttl := time.Duration(rr.Header().Ttl) * time.Second
		if minTTL < 0 || ttl < minTTL {
			minTTL = ttl
		}
	}
	if minTTL < 0 {
		minTTL = 0
	}
	if len(addrs) == 0 {
		return nil, 0, ErrNoResults
	}
	return addrs, minTTL, nil
}

func clampTTL(ttl, min, max time.Duration) time.Duration {
	if ttl < min {
		return min
	}
	if max > 0 && ttl > max {
		return max
	}
	return ttl
}

// classifyRcode maps a DNS response code to the shared IOErr taxonomy
// per spec §7's resolver-result-code table.
func classifyRcode(rcode int) error {
	switch rcode {
	case dns.RcodeNameError:
		return ioerr.New(ioerr.NotFound, ErrNoResults)
	case dns.RcodeRefused:
		return ioerr.New(ioerr.Error, ErrNoResults)
	case dns.RcodeServerFailure:
		return ioerr.New(ioerr.Error, ErrNoResults)
	case dns.RcodeFormatError:
		return ioerr.New(ioerr.Invalid, ErrBadName)
	default:
		return ioerr.New(ioerr.Error, ErrNoResults)
	}
}

// classifyDNSError maps a transport-level failure (timeout, connection
// refused talking to the resolver itself) to the shared IOErr taxonomy.
// An error that already carries a specific IOErr (from classifyRcode) is
// returned unchanged.
func classifyDNSError(err error) error {
	if err == nil {
		return nil
	}
	if ioerr.Code(err) != ioerr.Error {
		return err
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return ioerr.New(ioerr.TimedOut, err)
	}
	return ioerr.New(ioerr.Error, err)
}

// interleave merges two address lists alternating from each, matching
// spec §4.7's "interleaved IPv6/IPv4 list" step, preserving each list's
// own relative order.
func interleave(a, b []netip.Addr) []netip.Addr {
	out := make([]netip.Addr, 0, len(a)+len(b))
	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			out = append(out, a[i])
		}
		if i < len(b) {
			out = append(out, b[i])
		}
	}
	return out
}

// sortResults stable-sorts addrs ascending by Happy-Eyeballs outcome,
// preserving the interleaved order as the tiebreak, per spec §4.7's
// "Sort for callback" paragraph.
func (r *Resolver) sortResults(addrs []netip.Addr) []netip.Addr {
	sorted := append([]netip.Addr(nil), addrs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return r.outcomes.Get(sorted[i]) < r.outcomes.Get(sorted[j])
	})
	return sorted
}

func deliver(loop *evloop.Loop, cb func(Result), res Result) {
	_ = loop.QueueTask(func() { cb(res) })
}

func logSpan(loop *evloop.Loop, spanID, message, host string) {
	logger := loop.Logger()
	if !logger.IsEnabled(evloop.LevelDebug) {
		return
	}
	logger.Log(evloop.LogEntry{
		Level:    evloop.LevelDebug,
		Category: "dns",
		LoopID:   loop.ID(),
		SpanID:   spanID,
		Message:  message,
		Fields:   map[string]any{"host": host},
	})
}
