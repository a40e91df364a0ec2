package diagnostics

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
)

// Runner executes external programs. It allows for dependency injection in
// tests.
type Runner interface {
	// LookPath resolves a binary on PATH.
	LookPath(name string) (string, error)
	// Run executes name with args and returns its standard output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands using os/exec, bounding each by Timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// LookPath returns a NotFoundError (matching ErrBinaryNotFound) when name is
// not on PATH.
func (r ExecRunner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", lfnerrors.NewNotFoundError("binary", name).WithCause(err)
	}
	return path, nil
}

// Run executes the command. Failures are classified: a missing binary is a
// NotFoundError, an expired deadline a TimeoutError, anything else a
// ProbeError carrying the command line and its stderr.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmdline := commandLine(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return out, lfnerrors.NewTimeoutError(cmdline, r.Timeout).WithCause(err)
	case errors.Is(err, exec.ErrNotFound):
		return out, lfnerrors.NewNotFoundError("binary", name).WithCause(err)
	default:
		return out, lfnerrors.NewProbeError(name, "command failed", err).
			WithCommand(cmdline).
			WithOutput(stderr.String())
	}
}

func commandLine(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
