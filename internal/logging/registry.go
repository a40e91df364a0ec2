package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lfn-audio/lfn-toolkit/internal/config"
	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
)

// FileMode says whether a logger writes to files.
type FileMode int

const (
	// FileDefault applies LFN_LOG_FILE and the module-name convention.
	FileDefault FileMode = iota
	// FileEnabled always writes <prefix>_<module>.log.
	FileEnabled
	// FileDisabled never writes files.
	FileDisabled
)

// Options are the per-call settings of Registry.GetLogger. The zero value
// means console output at the environment's level, with file output decided
// by convention.
type Options struct {
	File FileMode
	// FileName names the log file explicitly and implies file output.
	// Bare names go under the log dir; paths with a directory are used as-is.
	FileName  string
	NoConsole bool
	Level     Level
	// Dir overrides the log directory.
	Dir string
}

// Registry hands out named loggers and owns their sinks. Requesting an
// existing name reconfigures that logger in place; it never accumulates
// duplicate sinks. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	cfg     config.LoggingConfig
	loggers map[string]*Logger

	stdout   io.Writer
	startDir string
	now      func() time.Time
	colorize bool
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithStdout sets the console destination. Writes are serialized across
// all loggers of the registry.
func WithStdout(w io.Writer) RegistryOption {
	return func(r *Registry) {
		r.stdout = &lockedWriter{w: w}
	}
}

// WithStartDir sets where project-root discovery begins.
func WithStartDir(dir string) RegistryOption {
	return func(r *Registry) {
		r.startDir = dir
	}
}

// WithClock sets the time source used for records and session names.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// WithColor forces console colour on or off.
func WithColor(enabled bool) RegistryOption {
	return func(r *Registry) {
		r.colorize = enabled
	}
}

// NewRegistry creates a Registry from the logging configuration.
func NewRegistry(cfg config.LoggingConfig, opts ...RegistryOption) *Registry {
	r := &Registry{
		cfg:      cfg,
		loggers:  make(map[string]*Logger),
		stdout:   &lockedWriter{w: os.Stdout},
		now:      time.Now,
		colorize: ColorEnabled(strings.ToLower(cfg.Color), runtime.GOOS, os.Getenv("COLORTERM")),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.startDir == "" {
		r.startDir = defaultStartDir()
	}
	return r
}

// GetLogger returns the logger for name, (re)configured with opts.
//
// Any sinks attached by an earlier call are closed first. Failure to set up
// file output is never returned: the logger falls back to console output and
// a warning is written to the console sink, if there is one.
func (r *Registry) GetLogger(name string, opts Options) *Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loggers[name]
	if !ok {
		l = newLogger(name, r.now)
		r.loggers[name] = l
	}

	level := ResolveLevel(opts.Level, r.cfg.Level, bool(r.cfg.Debug))

	l.mu.Lock()
	closeErr := l.reset()

	var sinks []*Sink
	var console *Sink
	if !opts.NoConsole {
		console = BuildConsoleSink(name, r.stdout, level, r.colorize)
		sinks = append(sinks, console)
	}

	var setupErr error
	if fileName, ok := r.fileTarget(name, opts); ok {
		dir := r.LogDir(opts.Dir)
		general, errorsOnly, err := BuildFileSinks(name, level, dir, fileName, r.rotation())
		if err != nil {
			setupErr = err
		} else {
			sinks = append(sinks, general, errorsOnly)
		}
	}

	l.attach(level, sinks)
	l.mu.Unlock()

	if closeErr != nil {
		r.warn(console, "failed to close previous log sinks", closeErr)
	}
	if setupErr != nil {
		msg := "file logging disabled, using console only"
		if lfnerrors.Is(setupErr, lfnerrors.ErrLogDirUnavailable) {
			msg = "log directory unavailable, using console only"
		}
		r.warn(console, msg, setupErr)
	}

	return l
}

// warn reports a setup problem on the console sink, if there is one.
func (r *Registry) warn(console *Sink, msg string, err error) {
	if console == nil {
		return
	}
	record := slog.NewRecord(r.now(), LevelWarning.Slog(), msg, 0)
	record.AddAttrs(slog.Any("error", err))
	_ = console.emit(context.Background(), record)
}

// fileTarget decides whether name logs to a file and under which name.
func (r *Registry) fileTarget(name string, opts Options) (string, bool) {
	if opts.FileName != "" {
		return opts.FileName, true
	}
	switch opts.File {
	case FileEnabled:
		return DefaultFileName(r.cfg.Prefix, name), true
	case FileDisabled:
		return "", false
	}

	if r.cfg.File != "" {
		return r.cfg.File, true
	}
	for _, fragment := range r.cfg.AutoFileModules {
		if fragment != "" && strings.Contains(name, fragment) {
			return DefaultFileName(r.cfg.Prefix, name), true
		}
	}
	return "", false
}

func (r *Registry) rotation() RotationConfig {
	return RotationConfig{
		MaxSize:    int64(r.cfg.MaxSize),
		MaxBackups: r.cfg.MaxBackups,
	}
}

// LogDir resolves the log directory for an optional explicit override.
func (r *Registry) LogDir(explicit string) string {
	return ResolveLogDir(explicit, r.cfg.Dir, r.startDir)
}

// SessionLogPath returns the path of a timestamped session log under dir
// (or the resolved log directory). The file is not created.
func (r *Registry) SessionLogPath(label, dir string) string {
	return SessionLogPath(label, r.LogDir(dir), r.now())
}

// Lookup returns a previously requested logger.
func (r *Registry) Lookup(name string) (*Logger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loggers[name]
	return l, ok
}

// Names returns the names of all requested loggers, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes the sinks of every logger. Loggers stay usable as no-ops.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, l := range r.loggers {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// lockedWriter serializes writes from the console sinks of many loggers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
