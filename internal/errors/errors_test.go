package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// SinkError Tests
// -----------------------------------------------------------------------------

func TestNewSinkError(t *testing.T) {
	err := NewSinkError("logs/lfn_batch.log", "open log file", os.ErrPermission)

	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
	if err.Path != "logs/lfn_batch.log" {
		t.Errorf("Path = %q", err.Path)
	}
}

func TestSinkError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SinkError
		want string
	}{
		{
			name: "with path and cause",
			err:  NewSinkError("a.log", "open log file", ErrSinkClosed),
			want: "sink error [path=a.log]: open log file: log sink is closed",
		},
		{
			name: "without path",
			err:  NewSinkError("", "rotate", nil),
			want: "sink error: rotate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSinkError_Is(t *testing.T) {
	dirErr := NewSinkError("/root/logs", "create log directory", os.ErrPermission)
	if !Is(dirErr, ErrLogDirUnavailable) {
		t.Error("directory failure should match ErrLogDirUnavailable")
	}
	if !Is(dirErr, os.ErrPermission) {
		t.Error("should match wrapped cause")
	}
	if !Is(dirErr, &SinkError{}) {
		t.Error("should match SinkError type")
	}

	openErr := NewSinkError("a.log", "open log file", nil)
	if Is(openErr, ErrLogDirUnavailable) {
		t.Error("open failure should not match ErrLogDirUnavailable")
	}
	if Is(openErr, ErrRotationFailed) {
		t.Error("open failure should not match ErrRotationFailed")
	}

	rotateErr := NewSinkError("a.log", "rotate log file", os.ErrExist)
	if !Is(rotateErr, ErrRotationFailed) || Is(rotateErr, ErrLogDirUnavailable) {
		t.Errorf("rotation failure classified wrongly: %v", rotateErr)
	}

	var target *SinkError
	wrapped := fmt.Errorf("setup: %w", dirErr)
	if !As(wrapped, &target) || target.Path != "/root/logs" {
		t.Errorf("As() did not recover SinkError from %v", wrapped)
	}
}

// -----------------------------------------------------------------------------
// ProbeError Tests
// -----------------------------------------------------------------------------

func TestProbeError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ProbeError
		want string
	}{
		{
			name: "basic",
			err:  NewProbeError("", "failed", nil),
			want: "probe error: failed",
		},
		{
			name: "with check and command",
			err:  NewProbeError("gpu", "query failed", nil).WithCommand("nvidia-smi"),
			want: "probe error [check=gpu, cmd=nvidia-smi]: query failed",
		},
		{
			name: "with cause and output",
			err:  NewProbeError("ffmpeg", "exit", ErrTimeout).WithOutput("  boom \n"),
			want: "probe error [check=ffmpeg]: exit: operation timed out\noutput: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProbeError_Is(t *testing.T) {
	err := NewProbeError("gpu", "failed", ErrTimeout)

	if !Is(err, ErrProbeFailed) {
		t.Error("Is(ErrProbeFailed) = false, want true")
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
	if Is(err, ErrBinaryNotFound) {
		t.Error("Is(ErrBinaryNotFound) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("binary", "ffmpeg")

	if got, want := err.Error(), "binary 'ffmpeg' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrBinaryNotFound) {
		t.Error("binary NotFoundError should match ErrBinaryNotFound")
	}
	if !Is(err, os.ErrNotExist) {
		t.Error("NotFoundError should match os.ErrNotExist")
	}

	dirErr := NewNotFoundError("directory", "outputs").WithCause(os.ErrNotExist)
	if Is(dirErr, ErrBinaryNotFound) {
		t.Error("directory NotFoundError should not match ErrBinaryNotFound")
	}
	if got, want := dirErr.Error(), "directory 'outputs' not found: file does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("nvidia-smi", 5*time.Second)

	if got, want := err.Error(), "timeout error: nvidia-smi (timeout: 5s)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable() = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		severity  Severity
	}{
		{"nil", nil, false, SeverityDebug},
		{"plain error", errors.New("x"), false, SeverityError},
		{"bare timeout sentinel", ErrTimeout, true, SeverityError},
		{"sink error", NewSinkError("a", "b", nil), false, SeverityWarning},
		{"wrapped probe", fmt.Errorf("ctx: %w", NewProbeError("gpu", "x", nil)), false, SeverityError},
		{"wrapped timeout", fmt.Errorf("ctx: %w", NewTimeoutError("ffmpeg", time.Second)), true, SeverityWarning},
		{"missing binary", NewNotFoundError("binary", "sox"), false, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
			if got := GetSeverity(tt.err); got != tt.severity {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.severity)
			}
		})
	}
}
