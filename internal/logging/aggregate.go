package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/afero"
)

// LogEntry is one record parsed back from a log file.
type LogEntry struct {
	Timestamp time.Time `json:"time,omitzero"`
	Level     Level     `json:"-"`
	LevelName string    `json:"level"`
	Logger    string    `json:"logger"`
	Func      string    `json:"func,omitempty"`
	Line      int       `json:"line,omitempty"`
	Message   string    `json:"msg"`
	Raw       string    `json:"-"`
}

// Format renders the entry in the file sink layout. Entries parsed from
// console lines have no timestamp or caller, so those parts are left out.
// With colorize the level label is coloured like console output.
func (e LogEntry) Format(colorize bool) string {
	var b strings.Builder
	if !e.Timestamp.IsZero() {
		b.WriteString(e.Timestamp.Format(TimeLayout))
		b.WriteByte(' ')
	}
	level := e.LevelName
	if colorize {
		level = colorizeLevel(e.Level)
	}
	b.WriteString("[" + level + "] " + e.Logger)
	if e.Func != "" {
		fmt.Fprintf(&b, ".%s:%d", e.Func, e.Line)
	}
	b.WriteString(" - " + e.Message)
	return b.String()
}

// LogFilter defines criteria for filtering log entries.
type LogFilter struct {
	// Level keeps entries at or above this level. LevelUnset keeps all.
	Level Level

	// StartTime keeps entries at or after this time. Zero means no bound.
	StartTime time.Time

	// EndTime keeps entries at or before this time. Zero means no bound.
	EndTime time.Time

	// Logger keeps entries whose logger name starts with this prefix.
	Logger string

	// MessageContains keeps entries whose message contains this substring.
	MessageContains string
}

var (
	fileLinePattern = regexp.MustCompile(
		`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) \[(DEBUG|INFO|WARNING|ERROR|CRITICAL)\] (\S+)\.([^.\s]+):(\d+) - (.*)$`)
	consoleLinePattern = regexp.MustCompile(
		`^\[(DEBUG|INFO|WARNING|ERROR|CRITICAL)\] (\S+) - (.*)$`)
)

// ParseLine parses a line written by a file or console sink. Colour codes
// are ignored. The boolean is false for lines in neither format, such as
// continuation lines of multi-line messages.
func ParseLine(line string) (LogEntry, bool) {
	line = strings.TrimRight(line, "\r\n")
	plain := ansi.Strip(line)

	if m := fileLinePattern.FindStringSubmatch(plain); m != nil {
		ts, err := time.ParseInLocation(TimeLayout, m[1], time.Local)
		if err != nil {
			return LogEntry{}, false
		}
		level, _ := ParseLevel(m[2])
		lineNo, _ := strconv.Atoi(m[5])
		return LogEntry{
			Timestamp: ts,
			Level:     level,
			LevelName: level.String(),
			Logger:    m[3],
			Func:      m[4],
			Line:      lineNo,
			Message:   m[6],
			Raw:       line,
		}, true
	}

	if m := consoleLinePattern.FindStringSubmatch(plain); m != nil {
		level, _ := ParseLevel(m[1])
		return LogEntry{
			Level:     level,
			LevelName: level.String(),
			Logger:    m[2],
			Message:   m[3],
			Raw:       line,
		}, true
	}

	return LogEntry{}, false
}

// ReadEntries parses every recognisable line of r, in order.
func ReadEntries(r io.Reader) ([]LogEntry, int, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(r)

	// Increase buffer size for potentially long log lines
	const maxScanTokenSize = 1024 * 1024 // 1MB
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxScanTokenSize)

	lines := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		if entry, ok := ParseLine(line); ok {
			entries = append(entries, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return entries, lines, fmt.Errorf("error reading log file: %w", err)
	}
	return entries, lines, nil
}

// AggregateLogs reads a log file together with its numbered backups
// (path.N ... path.1, path) and returns the entries sorted by timestamp.
// A missing backup is skipped; a missing active file is an error.
func AggregateLogs(fs afero.Fs, path string) ([]LogEntry, error) {
	if _, err := fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log file found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	var generations []string
	for n := 1; ; n++ {
		backup := BackupPath(path, n)
		if _, err := fs.Stat(backup); err != nil {
			break
		}
		generations = append(generations, backup)
	}

	var entries []LogEntry
	for i := len(generations) - 1; i >= 0; i-- {
		batch, err := readEntriesFrom(fs, generations[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, batch...)
	}
	batch, err := readEntriesFrom(fs, path)
	if err != nil {
		return nil, err
	}
	entries = append(entries, batch...)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func readEntriesFrom(fs afero.Fs, path string) ([]LogEntry, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	entries, _, err := ReadEntries(file)
	return entries, err
}

// FilterLogs filters log entries based on the provided filter criteria.
// Multiple filter criteria are combined with AND logic.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	if filter == (LogFilter{}) {
		return entries
	}

	var filtered []LogEntry
	for _, entry := range entries {
		if filter.Match(entry) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// Match reports whether entry satisfies every criterion of filter. Entries
// without a timestamp pass the time bounds.
func (filter LogFilter) Match(entry LogEntry) bool {
	if filter.Level != LevelUnset && entry.Level < filter.Level {
		return false
	}
	if !filter.StartTime.IsZero() && !entry.Timestamp.IsZero() && entry.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && !entry.Timestamp.IsZero() && entry.Timestamp.After(filter.EndTime) {
		return false
	}
	if filter.Logger != "" && !strings.HasPrefix(entry.Logger, filter.Logger) {
		return false
	}
	if filter.MessageContains != "" && !strings.Contains(entry.Message, filter.MessageContains) {
		return false
	}
	return true
}

// Summary counts the problems in a set of entries.
type Summary struct {
	Entries        int      `json:"entries"`
	Errors         int      `json:"errors"`
	Warnings       int      `json:"warnings"`
	RecentErrors   []string `json:"recent_errors,omitempty"`
	RecentWarnings []string `json:"recent_warnings,omitempty"`
}

// Summarize counts ERROR-or-worse and WARNING entries and keeps the last
// keep messages of each, oldest first.
func Summarize(entries []LogEntry, keep int) Summary {
	s := Summary{Entries: len(entries)}
	for _, e := range entries {
		switch {
		case e.Level >= LevelError:
			s.Errors++
			s.RecentErrors = appendRecent(s.RecentErrors, e.Message, keep)
		case e.Level == LevelWarning:
			s.Warnings++
			s.RecentWarnings = appendRecent(s.RecentWarnings, e.Message, keep)
		}
	}
	return s
}

func appendRecent(list []string, msg string, keep int) []string {
	if keep <= 0 {
		return list
	}
	list = append(list, msg)
	if len(list) > keep {
		list = list[len(list)-keep:]
	}
	return list
}

// ExportLogEntries writes entries to w. Supported formats: json, text, csv.
func ExportLogEntries(w io.Writer, entries []LogEntry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "text":
		for _, entry := range entries {
			line := entry.Raw
			if line == "" {
				line = fmt.Sprintf("[%s] %s - %s", entry.LevelName, entry.Logger, entry.Message)
			}
			if _, err := io.WriteString(w, ansi.Strip(line)+"\n"); err != nil {
				return fmt.Errorf("failed to write text entry: %w", err)
			}
		}
		return nil
	case "csv":
		return exportCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, text, csv)", format)
	}
}

func exportCSV(w io.Writer, entries []LogEntry) error {
	writer := csv.NewWriter(w)

	headers := []string{"timestamp", "level", "logger", "func", "line", "message"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		ts := ""
		if !entry.Timestamp.IsZero() {
			ts = entry.Timestamp.Format(time.RFC3339)
		}
		record := []string{
			ts,
			entry.LevelName,
			entry.Logger,
			entry.Func,
			strconv.Itoa(entry.Line),
			entry.Message,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
