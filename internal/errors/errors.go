// Package errors provides the error definitions shared by the LFN toolkit:
// sentinel errors, typed errors for the logging sinks and diagnostic probes,
// and classification helpers.
//
// # Error Types
//
// Domain-specific errors:
//   - SinkError: a log sink could not be created, written or rotated
//   - ProbeError: a diagnostic probe (external command, filesystem check) failed
//
// Semantic errors:
//   - NotFoundError: a resource (binary, directory, log file) is missing
//   - TimeoutError: an operation ran past its deadline
//
// # Usage
//
//	err := errors.NewSinkError("/var/log/lfn/lfn_batch.log", "open log file", cause)
//	if errors.Is(err, errors.ErrLogDirUnavailable) { ... }
//
//	var probeErr *errors.ProbeError
//	if errors.As(err, &probeErr) { ... }
//
// # Error Classification
//
// Errors carry a Severity (Debug, Info, Warning, Error, Critical) and may be
// retryable. Diagnostics map the severity of a failed probe onto the status
// they report, and suggest a retry for retryable failures.
package errors

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Logging-related sentinel errors
var (
	// ErrLogDirUnavailable indicates that the log directory could not be created.
	ErrLogDirUnavailable = New("log directory unavailable")
	// ErrSinkClosed indicates a write to a sink that has already been closed.
	ErrSinkClosed = New("log sink is closed")
	// ErrRotationFailed indicates that a log file could not be rotated.
	// Rotation failures are SinkErrors whose Op starts with "rotate".
	ErrRotationFailed = New("log rotation failed")
)

// Diagnostics-related sentinel errors
var (
	// ErrBinaryNotFound indicates that a required executable is not on PATH.
	ErrBinaryNotFound = New("binary not found")
	// ErrProbeFailed indicates that a diagnostic probe returned a failure.
	ErrProbeFailed = New("probe failed")
	// ErrNotWritable indicates that a directory exists but cannot be written.
	ErrNotWritable = New("directory not writable")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// ToolkitError is the interface implemented by every typed error in this
// package.
type ToolkitError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed on retry.
	IsRetryable() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SinkError represents a failure to set up or write a log sink.
//
// Example:
//
//	err := errors.NewSinkError("logs/lfn_batch.log", "open log file", os.ErrPermission)
//	fmt.Println(err) // "sink error [path=logs/lfn_batch.log]: open log file: permission denied"
type SinkError struct {
	baseError
	Path string
	Op   string
}

// NewSinkError creates a new SinkError. Sink errors are warnings: the
// logging subsystem degrades rather than failing its caller.
func NewSinkError(path, op string, cause error) *SinkError {
	return &SinkError{
		baseError: baseError{
			message:    op,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false,
		},
		Path: path,
		Op:   op,
	}
}

// Error returns the formatted error message.
func (e *SinkError) Error() string {
	prefix := "sink error"
	if e.Path != "" {
		prefix = fmt.Sprintf("sink error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target. Directory creation failures
// also match ErrLogDirUnavailable, rotation failures ErrRotationFailed.
func (e *SinkError) Is(target error) bool {
	if _, ok := target.(*SinkError); ok {
		return true
	}
	if target == ErrLogDirUnavailable && strings.Contains(e.Op, "directory") {
		return true
	}
	if target == ErrRotationFailed && strings.HasPrefix(e.Op, "rotate") {
		return true
	}
	return e.baseError.Is(target)
}

// ProbeError represents a failed diagnostic probe.
//
// Example:
//
//	err := errors.NewProbeError("gpu", "nvidia-smi exited with status 9", cause).
//		WithCommand("nvidia-smi --query-gpu=name --format=csv")
type ProbeError struct {
	baseError
	Check   string
	Command string
	Output  string
}

// NewProbeError creates a new ProbeError.
func NewProbeError(check, message string, cause error) *ProbeError {
	return &ProbeError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
		},
		Check: check,
	}
}

// WithCommand records the command line that was run.
func (e *ProbeError) WithCommand(cmd string) *ProbeError {
	e.Command = cmd
	return e
}

// WithOutput records the (trimmed) output of the probe.
func (e *ProbeError) WithOutput(output string) *ProbeError {
	e.Output = strings.TrimSpace(output)
	return e
}

// Error returns the formatted error message.
func (e *ProbeError) Error() string {
	var parts []string
	if e.Check != "" {
		parts = append(parts, fmt.Sprintf("check=%s", e.Check))
	}
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("cmd=%s", e.Command))
	}

	prefix := "probe error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("probe error [%s]", strings.Join(parts, ", "))
	}

	msg := fmt.Sprintf("%s: %s", prefix, e.message)
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\noutput: %s", msg, e.Output)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *ProbeError) Is(target error) bool {
	if _, ok := target.(*ProbeError); ok {
		return true
	}
	if target == ErrProbeFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("binary", "ffmpeg")
//	fmt.Println(err) // "binary 'ffmpeg' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target. Missing binaries also match
// ErrBinaryNotFound and os.ErrNotExist.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if target == os.ErrNotExist {
		return true
	}
	if target == ErrBinaryNotFound && e.ResourceType == "binary" {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that ran past its deadline.
//
// Example:
//
//	err := errors.NewTimeoutError("nvidia-smi", 5*time.Second)
//	fmt.Println(err) // "timeout error: nvidia-smi (timeout: 5s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if target == ErrTimeout {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var toolkitErr ToolkitError
	if As(err, &toolkitErr) {
		return toolkitErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement ToolkitError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityWarning:
//	    logger.Warning("probe degraded", "err", err)
//	default:
//	    logger.Error("probe failed", "err", err)
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var toolkitErr ToolkitError
	if As(err, &toolkitErr) {
		return toolkitErr.Severity()
	}

	return SeverityError
}
