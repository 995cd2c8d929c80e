package evloop

// loopOptions holds configuration applied at New() time.
type loopOptions struct {
	exitOnEmpty         bool
	exitOnEmptyNoTimers bool
	noWake              bool
	nonScalable         bool
	logger              Logger
}

// Option configures a Loop instance, adapted from the teacher package's
// functional-options pattern (LoopOption/loopOptionImpl).
type Option interface {
	apply(*loopOptions)
}

type optionFunc func(*loopOptions)

func (f optionFunc) apply(o *loopOptions) { f(o) }

// WithExitOnEmpty makes Run return RunDone once the loop has no attached
// IOs and no pending timers.
func WithExitOnEmpty() Option {
	return optionFunc(func(o *loopOptions) { o.exitOnEmpty = true })
}

// WithExitOnEmptyNoTimers is like WithExitOnEmpty but ignores pending
// timers: the loop exits as soon as no IOs remain, even if timers are
// still scheduled (they stay scheduled and fire only if Run is called
// again).
func WithExitOnEmptyNoTimers() Option {
	return optionFunc(func(o *loopOptions) { o.exitOnEmptyNoTimers = true })
}

// WithNoWake records the NoWake flag on the loop. The flag is not
// consulted anywhere: Add, Remove and QueueTask still signal the
// self-pipe/eventfd wakeup handle whether or not it is set.
func WithNoWake() Option {
	return optionFunc(func(o *loopOptions) { o.noWake = true })
}

// WithNonScalable marks the loop as excluded from Pool's distribution:
// Pool.Next returns it only when every loop in the pool is non-scalable.
func WithNonScalable() Option {
	return optionFunc(func(o *loopOptions) { o.nonScalable = true })
}

// WithLogger attaches a structured logger; nil (the default) disables
// logging entirely.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *loopOptions) { o.logger = l })
}

func resolveOptions(opts []Option) *loopOptions {
	cfg := &loopOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
