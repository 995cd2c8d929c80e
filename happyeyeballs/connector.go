package happyeyeballs

import (
	"net/netip"
	"sync"

	"github.com/Monetra/mstdlib-sub003/dnsresolver"
	"github.com/Monetra/mstdlib-sub003/evloop"
	"github.com/Monetra/mstdlib-sub003/ioerr"
	"github.com/Monetra/mstdlib-sub003/iolayer"
	"github.com/Monetra/mstdlib-sub003/tcpio"
)

// State is the connector's own lifecycle, distinct from iolayer.State:
// Resolving has no iolayer.State equivalent, since no layer is attached
// yet while a Connector is waiting on a DNS answer.
type State int

const (
	Init State = iota
	Resolving
	Connecting
	Connected
	Disconnecting
	Disconnected
	Error
)

func (s State) String() string {
	switch s {
	case Init:
		return "Init"
	case Resolving:
		return "Resolving"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Disconnecting:
		return "Disconnecting"
	case Disconnected:
		return "Disconnected"
	case Error:
		return "Error"
	default:
		return "Error"
	}
}

// attempt tracks one in-flight candidate connection.
type attempt struct {
	addr  netip.Addr
	stack *iolayer.Stack
	done  bool
}

// Connector races tcpio.Dial attempts against a resolved candidate list,
// promoting the first to reach Connected and destroying the rest, per
// spec §4.8.
type Connector struct {
	mu       sync.Mutex
	loop     *evloop.Loop
	resolver *dnsresolver.Resolver
	settings *Settings
	port     uint16
	onEvent  func(ev iolayer.EventType, err error)

	state     State
	candidate []netip.Addr
	next      int
	attempts  []*attempt
	winner    *attempt
	timer     iolayer.Timer
	lastErr   error
}

// Dial implements the spec's io_create_tcp_client(dns, host, port,
// family) entry point: it resolves host through resolver (an IP literal
// short-circuits resolution inside Resolve itself) and races connection
// attempts against the results, reporting the winner (or the final
// failure) via onEvent. The returned Connector is already attached to
// loop in the Resolving state; onEvent receives a single Connected event
// on success, with no further events forwarded except through the
// winning Stack's own lifecycle once promoted.
func Dial(loop *evloop.Loop, resolver *dnsresolver.Resolver, host string, port uint16, family dnsresolver.Family, settings *Settings, onEvent func(ev iolayer.EventType, err error)) *Connector {
	if settings == nil {
		settings = NewSettings()
	}
	c := &Connector{
		loop:     loop,
		resolver: resolver,
		settings: settings,
		port:     port,
		onEvent:  onEvent,
		state:    Resolving,
	}
	resolver.Resolve(loop, host, family, c.onResolved)
	return c
}

func (c *Connector) onResolved(res dnsresolver.Result) {
	c.mu.Lock()
	if res.Err != nil {
		c.state = Error
		c.lastErr = res.Err
		c.mu.Unlock()
		c.onEvent(iolayer.Error, res.Err)
		return
	}
	c.candidate = res.Addrs
	c.state = Connecting
	c.mu.Unlock()

	c.startNext()
}

// startNext begins the next candidate attempt and arms the
// failover timer, matching spec §4.8's "start first attempt, arm
// failover timer" / "on timer fire, start next attempt, rearm" steps.
// Callers must not hold c.mu.
func (c *Connector) startNext() {
	c.mu.Lock()
	if c.next >= len(c.candidate) {
		if c.countLiveLocked() == 0 {
			c.state = Error
			err := c.lastErr
			if err == nil {
				err = ioerr.New(ioerr.NetUnreachable, nil)
			}
			c.mu.Unlock()
			c.onEvent(iolayer.Error, err)
			return
		}
		c.mu.Unlock()
		return
	}

	addr := c.candidate[c.next]
	c.next++

	a := &attempt{addr: addr}
	c.attempts = append(c.attempts, a)
	stack := tcpio.Dial(netip.AddrPortFrom(addr, c.port), c.settings.Conn)
	a.stack = stack

	if c.next < len(c.candidate) {
		c.timer = c.loop.ScheduleTimer(c.settings.FailoverInterval, c.startNext)
	}
	c.mu.Unlock()

	if err := c.loop.Add(stack, func(ev iolayer.EventType, err error) { c.onAttemptEvent(a, ev, err) }); err != nil {
		c.onAttemptEvent(a, iolayer.Error, err)
	}
}

func (c *Connector) countLiveLocked() int {
	n := 0
	for _, a := range c.attempts {
		if !a.done {
			n++
		}
	}
	return n
}

func (c *Connector) onAttemptEvent(a *attempt, ev iolayer.EventType, err error) {
	switch ev {
	case iolayer.Connected:
		c.onAttemptConnected(a)
	case iolayer.Error, iolayer.Disconnected:
		c.onAttemptFailed(a, err)
	}
}

// onAttemptConnected promotes the winning attempt: cancels the failover
// timer, marks this address Good and every other still-racing attempt's
// address Slow (it may well have connected eventually, just not first),
// destroys the losers, and reassigns the winning Stack's OnEvent so the
// caller's callback becomes the Stack's permanent event sink, per
// spec §4.8's "promote winner" step.
func (c *Connector) onAttemptConnected(a *attempt) {
	c.mu.Lock()
	if a.done || c.winner != nil {
		c.mu.Unlock()
		return
	}
	a.done = true
	c.winner = a
	c.state = Connected
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.resolver.Outcomes().Mark(a.addr, dnsresolver.Good)

	losers := make([]*attempt, 0, len(c.attempts)-1)
	for _, other := range c.attempts {
		if other == a || other.done {
			continue
		}
		other.done = true
		c.resolver.Outcomes().Mark(other.addr, dnsresolver.Slow)
		losers = append(losers, other)
	}
	winnerStack := a.stack
	c.mu.Unlock()

	for _, other := range losers {
		_ = c.loop.Remove(other.stack)
		other.stack.Destroy()
	}

	winnerStack.OnEvent = c.onEvent
	c.onEvent(iolayer.Connected, nil)
}

// onAttemptFailed marks the address Bad, destroys the attempt, and
// starts the next candidate immediately if none remain in flight, per
// spec §4.8's "on per-attempt error" step. If no candidates remain and
// nothing else is live, the connector surfaces the failure.
func (c *Connector) onAttemptFailed(a *attempt, err error) {
	c.mu.Lock()
	if a.done {
		c.mu.Unlock()
		return
	}
	a.done = true
	c.lastErr = err
	c.resolver.Outcomes().Mark(a.addr, dnsresolver.Bad)
	exhausted := c.next >= len(c.candidate)
	live := c.countLiveLocked()
	c.mu.Unlock()

	_ = c.loop.Remove(a.stack)
	a.stack.Destroy()

	if live == 0 {
		if exhausted {
			c.mu.Lock()
			c.state = Error
			c.mu.Unlock()
			c.onEvent(iolayer.Error, err)
			return
		}
		c.mu.Lock()
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.mu.Unlock()
		c.startNext()
	}
}

// State reports the connector's current lifecycle state.
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Disconnect tears down the winning connection, if any.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	w := c.winner
	c.state = Disconnecting
	c.mu.Unlock()
	if w == nil {
		return
	}
	if w.stack.Disconnect(0) == w.stack.Len() {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
	}
}
