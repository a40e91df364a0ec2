package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
)

type failingHandler struct{ NoopHandler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestNewFanoutHandler(t *testing.T) {
	if _, ok := newFanoutHandler().(NoopHandler); !ok {
		t.Error("no handlers should give a NoopHandler")
	}
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Error("nil handlers should be dropped")
	}

	single := newTextHandler(&bytes.Buffer{}, "x", LevelInfo, ConsoleFormat)
	if got := newFanoutHandler(nil, single); got != slog.Handler(single) {
		t.Error("a single handler should be returned unwrapped")
	}
}

func TestFanoutHandler_Handle(t *testing.T) {
	var low, high bytes.Buffer
	h := newFanoutHandler(
		failingHandler{},
		newTextHandler(&low, "x", LevelDebug, ConsoleFormat),
		newTextHandler(&high, "x", LevelError, ConsoleFormat),
	)

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("fanout should be enabled when any handler is")
	}

	err := h.Handle(context.Background(), slog.NewRecord(testNow, slog.LevelInfo, "m", 0))
	if err == nil || err.Error() != "disk full" {
		t.Errorf("Handle() = %v, want the first handler error", err)
	}
	if low.String() != "[INFO] x - m\n" {
		t.Errorf("low = %q; a failing handler must not stop delivery", low.String())
	}
	if high.Len() != 0 {
		t.Errorf("high = %q; record below its level was delivered", high.String())
	}
}

func TestFanoutHandler_WithAttrs(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(
		newTextHandler(&a, "x", LevelInfo, ConsoleFormat),
		newTextHandler(&b, "x", LevelInfo, ConsoleFormat),
	).WithAttrs([]slog.Attr{slog.String("run", "r1")}).WithGroup("g")

	record := slog.NewRecord(testNow, slog.LevelInfo, "m", 0)
	record.AddAttrs(slog.Int("n", 1))
	_ = h.Handle(context.Background(), record)

	for _, buf := range []*bytes.Buffer{&a, &b} {
		if buf.String() != "[INFO] x - m run=r1 g.n=1\n" {
			t.Errorf("output = %q", buf.String())
		}
	}
}
