package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
)

// SinkKind identifies where a sink writes.
type SinkKind int

const (
	// SinkConsole writes to the process's standard output.
	SinkConsole SinkKind = iota
	// SinkRotatingFile writes to a size-rotated file.
	SinkRotatingFile
)

func (k SinkKind) String() string {
	switch k {
	case SinkConsole:
		return "console"
	case SinkRotatingFile:
		return "rotating-file"
	default:
		return "unknown"
	}
}

// SinkSpec describes a configured sink.
type SinkSpec struct {
	Kind       SinkKind
	MinLevel   Level
	Format     string
	Path       string
	MaxSize    int64
	Backups    int
	ErrorsOnly bool
}

// Sink is an output destination attached to a Logger. Each sink exclusively
// owns its file handle.
type Sink struct {
	spec    SinkSpec
	handler *textHandler
	closer  io.Closer
}

// Spec returns the sink's configuration.
func (s *Sink) Spec() SinkSpec {
	return s.spec
}

// Close releases the sink's file handle. Console sinks never close stdout.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// emit writes a record regardless of the sink's minimum level.
func (s *Sink) emit(ctx context.Context, record slog.Record) error {
	return s.handler.Handle(ctx, record)
}

// BuildConsoleSink creates the console sink for the named logger.
func BuildConsoleSink(name string, w io.Writer, threshold Level, colorize bool) *Sink {
	h := newTextHandler(w, name, threshold, ConsoleFormat)
	h.colorize = colorize
	return &Sink{
		spec: SinkSpec{
			Kind:     SinkConsole,
			MinLevel: threshold,
			Format:   ConsoleFormat,
		},
		handler: h,
	}
}

// BuildFileSinks creates the general and errors-only rotating file sinks for
// the named logger. A bare baseName is placed in dir; a name that already
// carries a directory (absolute or relative) is used as-is. Both
// files share the rotation limits; the errors-only sink accepts ERROR and
// above whatever the threshold.
func BuildFileSinks(name string, threshold Level, dir, baseName string, cfg RotationConfig) (general, errorsOnly *Sink, err error) {
	path := baseName
	if filepath.Base(baseName) == baseName {
		path = filepath.Join(dir, baseName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, lfnerrors.NewSinkError(filepath.Dir(path), "create log directory", err)
	}

	general, err = newFileSink(name, path, threshold, false, cfg)
	if err != nil {
		return nil, nil, err
	}

	errorsOnly, err = newFileSink(name, ErrorFileName(path), LevelError, true, cfg)
	if err != nil {
		_ = general.Close()
		return nil, nil, err
	}

	return general, errorsOnly, nil
}

func newFileSink(name, path string, min Level, errorsOnly bool, cfg RotationConfig) (*Sink, error) {
	rw, err := NewRotatingWriter(path, cfg)
	if err != nil {
		return nil, err
	}

	h := newTextHandler(rw, name, min, FileFormat)
	h.stripANSI = true

	return &Sink{
		spec: SinkSpec{
			Kind:       SinkRotatingFile,
			MinLevel:   min,
			Format:     FileFormat,
			Path:       path,
			MaxSize:    cfg.MaxSize,
			Backups:    cfg.MaxBackups,
			ErrorsOnly: errorsOnly,
		},
		handler: h,
		closer:  rw,
	}, nil
}

// ErrorFileName derives the errors-only file from a general log file:
// lfn_batch.log becomes lfn_batch_error.log and a name without an extension
// gets an _error suffix.
func ErrorFileName(path string) string {
	ext := filepath.Ext(path)
	if ext == "" || strings.HasPrefix(filepath.Base(path), ext) {
		return path + "_error"
	}
	return strings.TrimSuffix(path, ext) + "_error" + ext
}

// DefaultFileName returns <prefix>_<module>.log, with package separators in
// the module name replaced by underscores.
func DefaultFileName(prefix, module string) string {
	safe := strings.NewReplacer(".", "_", "/", "_", "\\", "_", " ", "_").Replace(module)
	if prefix == "" {
		return safe + ".log"
	}
	return prefix + "_" + safe + ".log"
}
