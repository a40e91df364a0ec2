package diagnostics

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"

	"github.com/lfn-audio/lfn-toolkit/internal/logging"
	"github.com/lfn-audio/lfn-toolkit/internal/util"
)

// DefaultLogPattern selects the files inspected by log analysis.
const DefaultLogPattern = "*.log"

const (
	recentProblems   = 3
	problemLineWidth = 100
)

// LogFileReport summarizes one log file.
type LogFileReport struct {
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	Size           int64     `json:"size"`
	ModTime        time.Time `json:"mod_time"`
	Lines          int       `json:"lines"`
	Errors         int       `json:"errors"`
	Warnings       int       `json:"warnings"`
	RecentErrors   []string  `json:"recent_errors,omitempty"`
	RecentWarnings []string  `json:"recent_warnings,omitempty"`
	ReadError      string    `json:"read_error,omitempty"`
}

// FindLogFiles lists the files in dir whose base name matches pattern,
// newest first. A missing directory yields os.ErrNotExist.
func FindLogFiles(fs afero.Fs, dir, pattern string) ([]os.FileInfo, error) {
	if pattern == "" {
		pattern = DefaultLogPattern
	}
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid log pattern %q: %w", pattern, err)
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}

	var files []os.FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !matcher.Match(entry.Name()) {
			continue
		}
		files = append(files, entry)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime().After(files[j].ModTime())
	})
	return files, nil
}

// AnalyzeLogFile counts the error and warning lines of a log file and keeps
// the last few of each, truncated for display. Lines written by our sinks are
// classified by their level; other lines by the words ERROR and WARNING.
func AnalyzeLogFile(fs afero.Fs, path string) (LogFileReport, error) {
	report := LogFileReport{Name: filepath.Base(path), Path: path}

	info, err := fs.Stat(path)
	if err != nil {
		return report, err
	}
	report.Size = info.Size()
	report.ModTime = info.ModTime()

	f, err := fs.Open(path)
	if err != nil {
		return report, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		report.Lines++

		isError, isWarning := classifyLine(line)
		display := util.TruncateString(strings.TrimSpace(line), problemLineWidth)
		switch {
		case isError:
			report.Errors++
			report.RecentErrors = keepLast(report.RecentErrors, display, recentProblems)
		case isWarning:
			report.Warnings++
			report.RecentWarnings = keepLast(report.RecentWarnings, display, recentProblems)
		}
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("error reading log file: %w", err)
	}
	return report, nil
}

func classifyLine(line string) (isError, isWarning bool) {
	if entry, ok := logging.ParseLine(line); ok {
		return entry.Level >= logging.LevelError, entry.Level == logging.LevelWarning
	}
	return strings.Contains(line, "ERROR"), strings.Contains(line, "WARNING")
}

func keepLast(list []string, s string, n int) []string {
	list = append(list, s)
	if len(list) > n {
		list = list[len(list)-n:]
	}
	return list
}

// AnalyzeLogs reports on the newest limit log files in dir.
func AnalyzeLogs(fs afero.Fs, dir, pattern string, limit int) ([]LogFileReport, int, error) {
	files, err := FindLogFiles(fs, dir, pattern)
	if err != nil {
		return nil, 0, err
	}
	total := len(files)
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	reports := make([]LogFileReport, 0, len(files))
	for _, info := range files {
		report, err := AnalyzeLogFile(fs, filepath.Join(dir, info.Name()))
		if err != nil {
			report.ReadError = err.Error()
		}
		reports = append(reports, report)
	}
	return reports, total, nil
}

// CheckLogs analyzes the most recent log files in the log directory.
func (c *Checker) CheckLogs(_ context.Context) Section {
	s := Section{Check: CheckLogs, Title: sectionTitle(CheckLogs)}

	reports, total, err := AnalyzeLogs(c.FS, c.LogDir, DefaultLogPattern, c.Config.RecentLogFiles)
	switch {
	case os.IsNotExist(err):
		s.warn("Logs", "no logs directory found at "+c.LogDir)
		return s
	case err != nil:
		c.Logger.Warning("log analysis failed", "dir", c.LogDir, "error", err)
		s.fail("Logs", err.Error())
		return s
	case total == 0:
		s.warn("Logs", "no log files found in "+c.LogDir)
		return s
	}

	s.info("Logs", fmt.Sprintf("found %d log file(s), showing %d", total, len(reports)))
	for _, r := range reports {
		if r.ReadError != "" {
			s.fail(r.Name, "failed to read: "+r.ReadError)
			continue
		}
		status := StatusOK
		if r.Warnings > 0 {
			status = StatusWarn
		}
		if r.Errors > 0 {
			status = StatusError
		}
		s.add(status, r.Name, fmt.Sprintf("%s, %d lines, %d errors, %d warnings",
			humanize.IBytes(uint64(r.Size)), r.Lines, r.Errors, r.Warnings))
		for _, line := range r.RecentErrors {
			s.fail("  recent error", line)
		}
		for _, line := range r.RecentWarnings {
			s.warn("  recent warning", line)
		}
	}
	return s
}
