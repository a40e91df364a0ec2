package logging

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	pkgerrors "github.com/pkg/errors"
)

// DefaultExceptionMessage prefixes LogException output when no message is given.
const DefaultExceptionMessage = "Exception occurred"

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// LogException logs err with context: one ERROR line
// "<msg>: <Type>: <message>", followed at DEBUG by "Full traceback:" and
// one line per stack frame. Frames come from the first
// github.com/pkg/errors stack trace in the chain; without one, each wrapped
// cause is listed instead. A nil err logs nothing.
func LogException(l *Logger, err error, msg string) {
	if err == nil {
		return
	}
	if msg == "" {
		msg = DefaultExceptionMessage
	}

	ctx := context.Background()
	l.logDepth(ctx, 1, LevelError, fmt.Sprintf("%s: %s: %v", msg, errorKind(err), err))

	if !l.Enabled(LevelDebug) {
		return
	}

	l.logDepth(ctx, 1, LevelDebug, "Full traceback:")
	for _, line := range tracebackLines(err) {
		l.logDepth(ctx, 1, LevelDebug, line)
	}
}

func tracebackLines(err error) []string {
	var st stackTracer
	if errors.As(err, &st) {
		frames := st.StackTrace()
		lines := make([]string, 0, len(frames))
		for _, f := range frames {
			lines = append(lines, fmt.Sprintf("  at %n (%s:%d)", f, f, f))
		}
		return lines
	}

	var lines []string
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		lines = append(lines, fmt.Sprintf("  caused by %s: %v", errorKind(cause), cause))
	}
	if len(lines) == 0 {
		lines = append(lines, "  (no stack trace recorded)")
	}
	return lines
}

// errorKind names the dynamic type of err, looking through the wrappers
// added by github.com/pkg/errors, which carry context but not meaning.
func errorKind(err error) string {
	for isPkgErrorsWrapper(err) {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return fmt.Sprintf("%T", err)
}

func isPkgErrorsWrapper(err error) bool {
	t := reflect.TypeOf(err)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath() == pkgErrorsPath
}

const pkgErrorsPath = "github.com/pkg/errors"
