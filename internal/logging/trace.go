package logging

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Trace runs fn, logging "Calling name(args)" before it and
// "name returned <result>" after it at level. If fn fails the error is
// logged at ERROR and returned unchanged; if it panics the panic is logged
// and re-raised with the same value.
func Trace[T any](l *Logger, level Level, name string, fn func() (T, error), args ...any) (T, error) {
	l.logDepth(context.Background(), 1, level, "Calling "+name+"("+formatArgs(args)+")")

	defer func() {
		if v := recover(); v != nil {
			l.logDepth(context.Background(), 2, LevelError, fmt.Sprintf("%s panicked: %v", name, v))
			panic(v)
		}
	}()

	result, err := fn()
	if err != nil {
		l.logDepth(context.Background(), 1, LevelError, fmt.Sprintf("%s raised %s: %v", name, errorKind(err), err))
		return result, err
	}

	l.logDepth(context.Background(), 1, level, name+" returned "+formatArg(result))
	return result, nil
}

// TraceErr is Trace for functions that only return an error.
func TraceErr(l *Logger, level Level, name string, fn func() error, args ...any) error {
	l.logDepth(context.Background(), 1, level, "Calling "+name+"("+formatArgs(args)+")")

	defer func() {
		if v := recover(); v != nil {
			l.logDepth(context.Background(), 2, LevelError, fmt.Sprintf("%s panicked: %v", name, v))
			panic(v)
		}
	}()

	if err := fn(); err != nil {
		l.logDepth(context.Background(), 1, LevelError, fmt.Sprintf("%s raised %s: %v", name, errorKind(err), err))
		return err
	}

	l.logDepth(context.Background(), 1, level, name+" returned <nil>")
	return nil
}

// Traced wraps a one-argument function so that every call is traced.
func Traced[A, R any](l *Logger, level Level, name string, fn func(A) (R, error)) func(A) (R, error) {
	return func(arg A) (R, error) {
		return Trace(l, level, name, func() (R, error) { return fn(arg) }, arg)
	}
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatArg(arg)
	}
	return strings.Join(parts, ", ")
}

// formatArg renders a value for trace output: strings and errors are
// quoted, everything else uses its default format.
func formatArg(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return strconv.Quote(x)
	case error:
		return strconv.Quote(x.Error())
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
