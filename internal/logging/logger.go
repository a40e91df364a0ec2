package logging

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Logger is a named logger with a severity threshold and an ordered set of
// sinks. Loggers are obtained from a Registry and remain valid for its
// lifetime; reconfiguration swaps their sinks in place.
// It is safe for concurrent use.
type Logger struct {
	name string

	mu         sync.RWMutex // guards level, sinks and handler
	level      Level
	sinks      []*Sink
	handler    slog.Handler
	configured bool
	now        func() time.Time
}

func newLogger(name string, now func() time.Time) *Logger {
	if now == nil {
		now = time.Now
	}
	return &Logger{
		name:    name,
		level:   LevelInfo,
		handler: NoopHandler{},
		now:     now,
	}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return newLogger("nop", nil)
}

// Name returns the module name the logger was requested under.
func (l *Logger) Name() string {
	return l.name
}

// Level returns the effective threshold.
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Configured reports whether the logger has been set up by a Registry.
func (l *Logger) Configured() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.configured
}

// Sinks returns the specs of the currently attached sinks, console first.
func (l *Logger) Sinks() []SinkSpec {
	l.mu.RLock()
	defer l.mu.RUnlock()
	specs := make([]SinkSpec, 0, len(l.sinks))
	for _, s := range l.sinks {
		specs = append(specs, s.Spec())
	}
	return specs
}

// Enabled reports whether a record at level would reach at least one sink.
func (l *Logger) Enabled(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level && l.handler.Enabled(context.Background(), level.Slog())
}

// Debug logs at DEBUG. args are slog-style key/value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.logDepth(context.Background(), 1, LevelDebug, msg, args...)
}

// Info logs at INFO.
func (l *Logger) Info(msg string, args ...any) {
	l.logDepth(context.Background(), 1, LevelInfo, msg, args...)
}

// Warning logs at WARNING.
func (l *Logger) Warning(msg string, args ...any) {
	l.logDepth(context.Background(), 1, LevelWarning, msg, args...)
}

// Error logs at ERROR.
func (l *Logger) Error(msg string, args ...any) {
	l.logDepth(context.Background(), 1, LevelError, msg, args...)
}

// Critical logs at CRITICAL.
func (l *Logger) Critical(msg string, args ...any) {
	l.logDepth(context.Background(), 1, LevelCritical, msg, args...)
}

// Log logs at an arbitrary level.
func (l *Logger) Log(ctx context.Context, level Level, msg string, args ...any) {
	l.logDepth(ctx, 1, level, msg, args...)
}

// logDepth emits a record attributed to the caller depth frames above it.
// Sink failures are swallowed: logging never fails the caller.
func (l *Logger) logDepth(ctx context.Context, depth int, level Level, msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level == LevelUnset || level < l.level {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(depth+2, pcs[:])

	record := slog.NewRecord(l.now(), level.Slog(), msg, pcs[0])
	record.Add(args...)
	_ = l.handler.Handle(ctx, record)
}

// Slog exposes the logger as an *slog.Logger for libraries that expect one.
// Records still pass the logger's threshold and current sinks.
func (l *Logger) Slog() *slog.Logger {
	return slog.New(&loggerHandler{logger: l})
}

// loggerHandler adapts a Logger to slog.Handler, always resolving the
// logger's current sinks.
type loggerHandler struct {
	logger *Logger
	attrs  []slog.Attr
	groups []string
}

func (h *loggerHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.Enabled(FromSlog(level))
}

func (h *loggerHandler) Handle(ctx context.Context, record slog.Record) error {
	l := h.logger
	l.mu.RLock()
	defer l.mu.RUnlock()

	if FromSlog(record.Level) < l.level {
		return nil
	}
	handler := l.handler
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	for _, g := range h.groups {
		handler = handler.WithGroup(g)
	}
	return handler.Handle(ctx, record)
}

func (h *loggerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(h.groups) > 0 {
		attrs = qualifyAttrs(h.groups, attrs)
	}
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *loggerHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

// reset closes and detaches every sink. The caller must hold l.mu.
func (l *Logger) reset() error {
	var firstErr error
	for _, s := range l.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.sinks = nil
	l.handler = NoopHandler{}
	return firstErr
}

// attach installs a threshold and sink set. The caller must hold l.mu.
func (l *Logger) attach(level Level, sinks []*Sink) {
	handlers := make([]slog.Handler, 0, len(sinks))
	for _, s := range sinks {
		handlers = append(handlers, s.handler)
	}
	l.level = level
	l.sinks = sinks
	l.handler = newFanoutHandler(handlers...)
	l.configured = true
}

// Close closes every sink attached to the logger. The logger keeps working
// as a no-op until it is reconfigured.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reset()
}
