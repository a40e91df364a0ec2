// Package diagnostics implements the lfn-debug troubleshooting checks.
//
// Each check probes one aspect of the host (runtime, external binaries, GPU,
// FFmpeg, filesystem, recent logs) and reports a Section of Results. Checks
// never fail the caller: probe errors become error-status results and are
// logged through the checker's logging.Logger.
//
// # Basic Usage
//
//	checker := diagnostics.NewChecker(cfg.Diagnostics, logger, root, logDir)
//	sections := checker.Run(ctx, diagnostics.AllChecks())
//	diagnostics.RenderText(os.Stdout, sections, diagnostics.RenderOptions{})
//
// # Testing
//
// External commands go through the Runner interface and file access through
// an afero.Fs, so checks can be exercised with fakes and an in-memory
// filesystem.
package diagnostics

import (
	"fmt"
	"strings"

	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
)

// Status is the outcome of a single result line.
type Status int

const (
	StatusInfo Status = iota
	StatusOK
	StatusWarn
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusInfo:
		return "info"
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Symbol is the one-character marker printed before a result.
func (s Status) Symbol() string {
	switch s {
	case StatusOK:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusError:
		return "✗"
	default:
		return "ℹ"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "info":
		*s = StatusInfo
	case "ok":
		*s = StatusOK
	case "warn":
		*s = StatusWarn
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Result is one line of a check's output.
type Result struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Section groups the results of one check.
type Section struct {
	Check   CheckKind `json:"check"`
	Title   string    `json:"title"`
	Results []Result  `json:"results"`
}

// Worst returns the most severe status in the section.
func (s Section) Worst() Status {
	worst := StatusInfo
	for _, r := range s.Results {
		if r.Status > worst {
			worst = r.Status
		}
	}
	return worst
}

func (s *Section) add(status Status, name, detail string) {
	s.Results = append(s.Results, Result{Name: name, Status: status, Detail: detail})
}

func (s *Section) ok(name, detail string) { s.add(StatusOK, name, detail) }

func (s *Section) warn(name, detail string) { s.add(StatusWarn, name, detail) }

func (s *Section) fail(name, detail string) { s.add(StatusError, name, detail) }

func (s *Section) info(name, detail string) { s.add(StatusInfo, name, detail) }

// Worst returns the most severe status across sections.
func Worst(sections []Section) Status {
	worst := StatusInfo
	for _, s := range sections {
		if w := s.Worst(); w > worst {
			worst = w
		}
	}
	return worst
}

// StatusForError maps the severity of a probe failure onto a status:
// warnings (timeouts, missing tools) stay warnings, anything worse fails.
func StatusForError(err error) Status {
	switch lfnerrors.GetSeverity(err) {
	case lfnerrors.SeverityDebug, lfnerrors.SeverityInfo:
		return StatusInfo
	case lfnerrors.SeverityWarning:
		return StatusWarn
	default:
		return StatusError
	}
}
