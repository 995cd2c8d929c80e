package evloop

import "github.com/joeycumines/logiface"

// LogifaceLogger adapts a logiface.Logger[E] into this package's Logger
// interface, so callers already using logiface (zerolog/logrus/slog/stumpy
// backends) can plug it straight into WithLogger, grounded on the
// logiface.New[*testEvent] construction pattern exercised by the teacher
// package's own test suite.
type LogifaceLogger[E logiface.Event] struct {
	L *logiface.Logger[E]
}

// NewLogifaceLogger wraps an already-constructed logiface.Logger.
func NewLogifaceLogger[E logiface.Event](l *logiface.Logger[E]) *LogifaceLogger[E] {
	return &LogifaceLogger[E]{L: l}
}

func toLogifaceLevel(l LogLevel) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func (a *LogifaceLogger[E]) IsEnabled(level LogLevel) bool {
	if a.L == nil {
		return false
	}
	lvl := a.L.Level()
	return lvl.Enabled() && toLogifaceLevel(level) <= lvl
}

func (a *LogifaceLogger[E]) Log(e LogEntry) {
	if a.L == nil {
		return
	}
	b := a.L.Build(toLogifaceLevel(e.Level))
	if b == nil {
		return
	}
	if e.LoopID != 0 {
		b = b.Uint64("loop_id", e.LoopID)
	}
	if e.SpanID != "" {
		b = b.Str("span_id", e.SpanID)
	}
	if e.Category != "" {
		b = b.Str("category", e.Category)
	}
	for k, v := range e.Fields {
		b = b.Any(k, v)
	}
	if e.Err != nil {
		b = b.Err(e.Err)
	}
	b.Log(e.Message)
}
