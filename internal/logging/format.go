package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// Record templates. Placeholders are {time}, {level}, {name}, {func},
// {line} and {message}; structured attributes are appended as key=value.
const (
	ConsoleFormat = "[{level}] {name} - {message}"
	FileFormat    = "{time} [{level}] {name}.{func}:{line} - {message}"
)

// TimeLayout is the timestamp layout used by file sinks.
const TimeLayout = "2006-01-02 15:04:05"

// textHandler renders records for a single named logger through a format
// template. It is the slog.Handler behind every Sink.
type textHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	name      string
	min       Level
	format    string
	colorize  bool
	stripANSI bool
	attrs     []slog.Attr
	groups    []string
}

func newTextHandler(w io.Writer, name string, min Level, format string) *textHandler {
	return &textHandler{
		mu:     &sync.Mutex{},
		writer: w,
		name:   name,
		min:    min,
		format: format,
	}
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min.Slog()
}

// Handle renders and writes one line. The minimum level is enforced by
// Enabled so that callers which must bypass it can do so.
func (h *textHandler) Handle(_ context.Context, record slog.Record) error {
	var buf bytes.Buffer
	buf.Grow(128)

	h.render(&buf, record)

	line := buf.String()
	if h.stripANSI {
		line = ansi.Strip(line)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, line)
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), qualifyAttrs(h.groups, attrs)...)
	return &next
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (h *textHandler) render(buf *bytes.Buffer, record slog.Record) {
	level := FromSlog(record.Level)
	format := h.format

	for len(format) > 0 {
		open := strings.IndexByte(format, '{')
		if open < 0 {
			buf.WriteString(format)
			break
		}
		end := strings.IndexByte(format[open:], '}')
		if end < 0 {
			buf.WriteString(format)
			break
		}
		buf.WriteString(format[:open])
		token := format[open+1 : open+end]
		if !h.writeToken(buf, token, level, record) {
			buf.WriteString(format[open : open+end+1])
		}
		format = format[open+end+1:]
	}

	h.writeAttrs(buf, record)
	buf.WriteByte('\n')
}

func (h *textHandler) writeToken(buf *bytes.Buffer, token string, level Level, record slog.Record) bool {
	switch token {
	case "time":
		ts := record.Time
		if ts.IsZero() {
			ts = time.Now()
		}
		buf.WriteString(ts.Format(TimeLayout))
	case "level":
		if h.colorize {
			buf.WriteString(colorizeLevel(level))
		} else {
			buf.WriteString(level.String())
		}
	case "name":
		buf.WriteString(h.name)
	case "func":
		fn, _ := callerOf(record.PC)
		buf.WriteString(fn)
	case "line":
		_, line := callerOf(record.PC)
		buf.WriteString(strconv.Itoa(line))
	case "message":
		buf.WriteString(record.Message)
	default:
		return false
	}
	return true
}

func (h *textHandler) writeAttrs(buf *bytes.Buffer, record slog.Record) {
	write := func(attr slog.Attr) {
		if attr.Equal(slog.Attr{}) {
			return
		}
		buf.WriteByte(' ')
		buf.WriteString(attr.Key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(attr.Value))
	}

	for _, attr := range h.attrs {
		write(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		for _, flat := range flattenAttr(h.groups, attr) {
			write(flat)
		}
		return true
	})
}

// callerOf returns the short function name and line for a program counter.
func callerOf(pc uintptr) (string, int) {
	if pc == 0 {
		return "?", 0
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	fn := frame.Function
	if idx := strings.LastIndexByte(fn, '/'); idx >= 0 {
		fn = fn[idx+1:]
	}
	if idx := strings.LastIndexByte(fn, '.'); idx >= 0 {
		fn = fn[idx+1:]
	}
	if fn == "" {
		fn = "?"
	}
	return fn, frame.Line
}

func qualifyAttrs(groups []string, attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, flattenAttr(groups, attr)...)
	}
	return out
}

func flattenAttr(groups []string, attr slog.Attr) []slog.Attr {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		nested := groups
		if attr.Key != "" {
			nested = append(append([]string(nil), groups...), attr.Key)
		}
		var out []slog.Attr
		for _, child := range attr.Value.Group() {
			out = append(out, flattenAttr(nested, child)...)
		}
		return out
	}
	if len(groups) > 0 {
		attr.Key = strings.Join(groups, ".") + "." + attr.Key
	}
	return []slog.Attr{attr}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		return v.Time().Format(TimeLayout)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		return v.String()
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
