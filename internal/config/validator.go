package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "logging.max_backups")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidColorModes returns the accepted values of logging.color
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

// Validate checks the Config for invalid values and returns all validation errors found.
// logging.level is deliberately not checked: an unknown level falls back to INFO.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateDiagnostics()...)

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.MaxSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size",
			Value:   int64(c.Logging.MaxSize),
			Message: "must be non-negative (0 disables rotation)",
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	if c.Logging.Color != "" && !slices.Contains(ValidColorModes(), strings.ToLower(c.Logging.Color)) {
		errors = append(errors, ValidationError{
			Field:   "logging.color",
			Value:   c.Logging.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidColorModes(), ", ")),
		})
	}

	if strings.ContainsAny(c.Logging.Prefix, `/\`) {
		errors = append(errors, ValidationError{
			Field:   "logging.prefix",
			Value:   c.Logging.Prefix,
			Message: "must not contain path separators",
		})
	}

	// Any path is accepted; relative ones resolve against the working directory.
	if c.Logging.File != "" && strings.TrimSpace(c.Logging.File) == "" {
		errors = append(errors, ValidationError{
			Field:   "logging.file",
			Value:   c.Logging.File,
			Message: "must not be blank",
		})
	}

	return errors
}

// validateDiagnostics validates the DiagnosticsConfig
func (c *Config) validateDiagnostics() []ValidationError {
	var errors []ValidationError

	if c.Diagnostics.CommandTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "diagnostics.command_timeout",
			Value:   c.Diagnostics.CommandTimeout,
			Message: "must be positive",
		})
	}

	if c.Diagnostics.RecentLogFiles < 1 {
		errors = append(errors, ValidationError{
			Field:   "diagnostics.recent_log_files",
			Value:   c.Diagnostics.RecentLogFiles,
			Message: "must be at least 1",
		})
	}

	if c.Diagnostics.DiskCritical > c.Diagnostics.DiskWarn {
		errors = append(errors, ValidationError{
			Field:   "diagnostics.disk_critical",
			Value:   c.Diagnostics.DiskCritical.String(),
			Message: fmt.Sprintf("must not exceed diagnostics.disk_warn (%s)", c.Diagnostics.DiskWarn),
		})
	}

	return errors
}
