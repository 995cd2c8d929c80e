package evloop

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Monetra/mstdlib-sub003/iolayer"
)

var loopIDCounter atomic.Uint64

// Loop is a single-goroutine event dispatcher: one poller, one timer
// wheel, one soft-event queue, all driven by a single call to Run on the
// caller's own goroutine (there is no hidden background goroutine, unlike
// the teacher package's context-driven Loop.run). Every other exported
// method is safe to call from any goroutine; Add/Remove/QueueTask simply
// wake a blocked Run if necessary.
type Loop struct {
	id uint64

	opts *loopOptions

	st *fastState
	p  poller

	table *handleTable
	soft  *softEventQueue
	timer *timerWheel

	tickAnchor time.Time

	// extMu guards the cross-goroutine submission queues below; the
	// dispatcher goroutine drains them at the top of every tick.
	extMu    sync.Mutex
	toAdd    []*iolayer.Stack
	toRemove []*iolayer.Stack
	tasks    []func()

	// inDispatch is true only while the dispatcher goroutine is inside
	// Run's own call stack (including inside a user callback), which lets
	// Run distinguish "reentrant call from a callback" from "already
	// running on another goroutine" without needing a goroutine-id hack.
	inDispatch bool

	// pendingExit, when non-zero, is applied at the next safe point in
	// the tick; set by Done/Return, possibly called from a callback.
	pendingExit   RunResult
	exitRequested bool

	// active is the ioEntry whose layers are currently executing
	// LayerContext calls; set around every Stack method invocation that
	// may re-enter into a layer (Attach, Dispatch, Disconnect).
	active *ioEntry

	logger Logger
}

// New constructs a Loop with its own platform poller. The returned Loop
// is in the Created state; call Run to start dispatching.
func New(opts ...Option) (*Loop, error) {
	cfg := resolveOptions(opts)

	p, err := newPoller()
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Loop{
		id:     loopIDCounter.Add(1),
		opts:   cfg,
		st:     newFastState(),
		p:      p,
		table:  newHandleTable(),
		soft:   newSoftEventQueue(),
		timer:  newTimerWheel(),
		logger: logger,
	}, nil
}

func (l *Loop) ID() uint64 { return l.id }

// Logger returns the loop's configured Logger, so packages outside
// evloop (dnsresolver, happyeyeballs) can emit LogEntry lines tagged
// with this loop's ID and their own span IDs through the same sink.
func (l *Loop) Logger() Logger { return l.logger }

// Now returns time.Now() on every call: unlike the teacher's microtask
// scheduler, the loop keeps no virtual clock of its own to hold
// consistent across a tick.
func (l *Loop) Now() time.Time { return time.Now() }

// Add attaches stack to the loop: it becomes attached (layers' Init run)
// either immediately, if called from the dispatcher goroutine, or at the
// start of the next tick otherwise.
func (l *Loop) Add(stack *iolayer.Stack, onEvent func(ev iolayer.EventType, err error)) error {
	stack.OnEvent = onEvent
	if l.inDispatch {
		return l.attachNow(stack)
	}
	l.extMu.Lock()
	l.toAdd = append(l.toAdd, stack)
	l.extMu.Unlock()
	return l.p.wake()
}

// attachNow may be called reentrantly, e.g. from a listener's OnEvent
// callback adding a newly-accepted connection while the listener's own
// entry is still l.active for an outer deliverPending loop; it therefore
// saves and restores l.active rather than blindly clearing it, the same
// pattern ScheduleTimer's wrapped callback uses.
func (l *Loop) attachNow(stack *iolayer.Stack) error {
	if _, exists := l.table.lookupIO(stack); exists {
		return ErrAlreadyAttached
	}
	entry, _ := l.table.addIO(stack)
	prev := l.active
	l.active = entry
	err := stack.Attach(l)
	l.active = prev
	if err != nil {
		l.table.removeIO(stack)
		return err
	}
	l.logger.Log(LogEntry{Level: LevelDebug, Category: "attach", LoopID: l.id, SpanID: entry.spanID, Message: "io attached"})
	return nil
}

// Remove detaches stack from the loop, tearing down its poller
// registrations. It does not call Stack.Destroy; callers that want the
// layers' resources released should call that themselves afterward.
func (l *Loop) Remove(stack *iolayer.Stack) error {
	if l.inDispatch {
		return l.detachNow(stack)
	}
	l.extMu.Lock()
	l.toRemove = append(l.toRemove, stack)
	l.extMu.Unlock()
	return l.p.wake()
}

func (l *Loop) detachNow(stack *iolayer.Stack) error {
	entry, exists := l.table.lookupIO(stack)
	if !exists {
		return ErrNotAttached
	}
	for h := range entry.handles {
		_ = l.p.remove(h)
	}
	prev := l.active
	l.active = entry
	stack.Detach()
	l.active = prev
	l.table.removeIO(stack)
	l.logger.Log(LogEntry{Level: LevelDebug, Category: "attach", LoopID: l.id, SpanID: entry.spanID, Message: "io detached"})
	return nil
}

// QueueTask schedules fn to run on the dispatcher goroutine, waking Run
// if it's currently blocked in the poller.
func (l *Loop) QueueTask(fn func()) error {
	if l.st.Load() == stateTerminated {
		return ErrLoopTerminated
	}
	if l.inDispatch {
		fn()
		return nil
	}
	l.extMu.Lock()
	l.tasks = append(l.tasks, fn)
	l.extMu.Unlock()
	return l.p.wake()
}

// Done requests that Run return RunDone once the current tick finishes.
// Typically called from within a callback.
func (l *Loop) Done() {
	l.exitRequested = true
	l.pendingExit = RunDone
}

// Return requests that Run return RunReturn once the current tick
// finishes: a gentler exit than Done, intended for "yield control back
// to the caller for one iteration" use cases.
func (l *Loop) Return() {
	l.exitRequested = true
	l.pendingExit = RunReturn
}

// Close shuts down the poller and releases its OS resources. The Loop
// must not be running.
func (l *Loop) Close() error {
	l.st.Store(stateTerminated)
	return l.p.close()
}

// Run dispatches events and timers until timeoutMs elapses (negative
// blocks forever, zero polls once without blocking), an exit is
// requested via Done/Return, or (with WithExitOnEmpty) the loop runs out
// of attached IOs and pending timers.
//
// Each iteration: drain cross-goroutine submissions, drain pending soft
// events (delivering to layers and then the user callback), poll the OS
// for readiness and fold it into new soft events, drain soft events a
// second time so events raised while handling the first batch are
// delivered without waiting for another poll, then fire due timers.
func (l *Loop) Run(timeoutMs int) (RunResult, error) {
	if l.inDispatch {
		return RunMisuse, ErrReentrantRun
	}
	if !l.st.TryTransition(stateCreated, stateRunning) && !l.st.TryTransition(stateSleeping, stateRunning) {
		if l.st.Load() == stateTerminated {
			return RunMisuse, ErrLoopTerminated
		}
		return RunMisuse, ErrLoopAlreadyRunning
	}
	if l.tickAnchor.IsZero() {
		l.tickAnchor = time.Now()
	}

	l.inDispatch = true
	defer func() { l.inDispatch = false }()

	deadline := time.Time{}
	if timeoutMs >= 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	for {
		l.drainSubmissions()

		l.soft.drain(l.deliverPending)
		if result, done := l.checkExit(); done {
			l.st.Store(stateSleeping)
			return result, nil
		}

		pollTimeout := l.computePollTimeout(deadline)
		readinesses, err := l.p.wait(pollTimeout, nil)
		if err != nil {
			l.st.Store(stateSleeping)
			return RunMisuse, err
		}
		for _, r := range readinesses {
			l.foldReadiness(r)
		}

		l.soft.drain(l.deliverPending)
		if result, done := l.checkExit(); done {
			l.st.Store(stateSleeping)
			return result, nil
		}

		l.timer.fireDue(time.Now())

		if result, done := l.checkExit(); done {
			l.st.Store(stateSleeping)
			return result, nil
		}

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			l.st.Store(stateSleeping)
			return RunTimeout, nil
		}
		if timeoutMs == 0 {
			l.st.Store(stateSleeping)
			return RunTimeout, nil
		}
	}
}

func (l *Loop) checkExit() (RunResult, bool) {
	if l.exitRequested {
		result := l.pendingExit
		l.exitRequested = false
		return result, true
	}
	if l.opts.exitOnEmptyNoTimers && l.table.count() == 0 {
		return RunDone, true
	}
	if l.opts.exitOnEmpty && l.table.count() == 0 && l.timer.empty() {
		return RunDone, true
	}
	return RunTimeout, false
}

func (l *Loop) computePollTimeout(deadline time.Time) int {
	if !l.soft.empty() {
		return 0
	}
	var ms int = -1
	if !deadline.IsZero() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0
		}
		ms = int(remaining / time.Millisecond)
	}
	if when, ok := l.timer.nextDeadline(); ok {
		untilTimer := int(time.Until(when) / time.Millisecond)
		if untilTimer < 0 {
			untilTimer = 0
		}
		if ms < 0 || untilTimer < ms {
			ms = untilTimer
		}
	}
	return ms
}

func (l *Loop) drainSubmissions() {
	l.extMu.Lock()
	toAdd := l.toAdd
	toRemove := l.toRemove
	tasks := l.tasks
	l.toAdd, l.toRemove, l.tasks = nil, nil, nil
	l.extMu.Unlock()

	for _, s := range toAdd {
		if err := l.attachNow(s); err != nil {
			l.logger.Log(LogEntry{Level: LevelWarn, Category: "attach", LoopID: l.id, Message: "attach failed", Err: err})
		}
	}
	for _, s := range toRemove {
		_ = l.detachNow(s)
	}
	for _, fn := range tasks {
		fn()
	}
}

// foldReadiness turns one poll-reported readiness into soft events for
// every layer that currently has a registered handle matching it.
func (l *Loop) foldReadiness(r readiness) {
	entry, ok := l.table.findByHandle(r.fd)
	if !ok {
		return
	}
	reg := entry.handles[r.fd]
	if r.errored {
		l.soft.push(entry, reg.layerIdx, iolayer.Error, nil)
		return
	}
	if r.readable {
		l.soft.push(entry, reg.layerIdx, iolayer.Read, nil)
	}
	if r.writable {
		l.soft.push(entry, reg.layerIdx, iolayer.Write, nil)
	}
	if r.hup && !r.readable {
		l.soft.push(entry, reg.layerIdx, iolayer.Disconnected, nil)
	}
}

// deliverPending dispatches every soft event accumulated for one IO,
// bottom-up starting from its originating layer, per iolayer.Stack's
// Dispatch contract.
func (l *Loop) deliverPending(e *ioEntry, pending []pendingEvent) {
	l.active = e
	for _, pe := range pending {
		e.stack.Dispatch(pe.layerIdx, pe.ev, pe.err)
	}
	l.active = nil
}

// --- iolayer.LayerContext ---

func (l *Loop) RegisterHandle(layerIdx, handle int, want iolayer.WaitMask) error {
	entry := l.currentEntry()
	if entry == nil {
		return ErrHandleNotRegistered
	}
	if err := l.table.registerHandle(entry, layerIdx, handle, want); err != nil {
		return err
	}
	return l.p.add(handle, want)
}

func (l *Loop) ModifyWait(layerIdx, handle int, want iolayer.WaitMask) error {
	entry := l.currentEntry()
	if entry == nil {
		return ErrHandleNotRegistered
	}
	if err := l.table.modifyWait(entry, handle, want); err != nil {
		return err
	}
	return l.p.modify(handle, want)
}

func (l *Loop) UnregisterHandle(layerIdx, handle int) error {
	entry := l.currentEntry()
	if entry == nil {
		return ErrHandleNotRegistered
	}
	if err := l.table.unregisterHandle(entry, handle); err != nil {
		return err
	}
	return l.p.remove(handle)
}

// currentEntry resolves which ioEntry a LayerContext call applies to.
// Layers only ever call LayerContext methods synchronously from within
// their own Init/ProcessEvent/Disconnect, all of which the dispatcher
// invokes with exactly one ioEntry "live" at a time, tracked here rather
// than threaded through every call.
func (l *Loop) currentEntry() *ioEntry {
	return l.active
}

func (l *Loop) SoftEvent(layerIdx int, siblingOnly bool, ev iolayer.EventType, err error) {
	entry := l.currentEntry()
	if entry == nil {
		return
	}
	target := layerIdx
	if siblingOnly {
		target++
	}
	l.soft.push(entry, target, ev, err)
}

// ScheduleTimer arms fn to run on the dispatcher goroutine after d. fn
// runs with the scheduling layer's ioEntry set as active, the same way
// attachNow/deliverPending do, so a layer's timer callback can call
// ctx.SoftEvent on itself (e.g. a connect-timeout firing a synthetic
// Error) without that call silently no-opping against a nil entry.
func (l *Loop) ScheduleTimer(d time.Duration, fn func()) iolayer.Timer {
	entry := l.currentEntry()
	wrapped := func() {
		prev := l.active
		l.active = entry
		fn()
		l.active = prev
	}
	return l.timer.schedule(time.Now(), d, wrapped)
}

var _ iolayer.LayerContext = (*Loop)(nil)
