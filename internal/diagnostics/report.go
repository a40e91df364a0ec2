package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/lfn-audio/lfn-toolkit/internal/logging"
)

// ReportTimeLayout is embedded in report file names.
const ReportTimeLayout = "20060102_150405"

// Report is the JSON system report written by `lfn-debug report`.
type Report struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	System    logging.SystemInfo `json:"system"`
	Checks    []Section          `json:"checks,omitempty"`
	Logs      []LogFileReport    `json:"logs,omitempty"`
}

// BuildReport collects system information and runs the given checks.
func (c *Checker) BuildReport(ctx context.Context, kinds []CheckKind) Report {
	root := c.ProjectRoot
	if root == "" {
		root = "."
	}

	report := Report{
		ID:        uuid.NewString(),
		Timestamp: c.Now(),
		System:    logging.CollectSystemInfo(ctx, root),
		Checks:    c.Run(ctx, kinds),
	}
	if logs, _, err := AnalyzeLogs(c.FS, c.LogDir, DefaultLogPattern, c.Config.RecentLogFiles); err == nil {
		report.Logs = logs
	}
	return report
}

// ReportFileName returns system_report_<YYYYmmdd_HHMMSS>.json.
func ReportFileName(ts time.Time) string {
	return fmt.Sprintf("system_report_%s.json", ts.Format(ReportTimeLayout))
}

// WriteReport saves the report as indented JSON under dir and returns the
// file path.
func WriteReport(fs afero.Fs, dir string, report Report) (string, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	path := filepath.Join(dir, ReportFileName(report.Timestamp))
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
