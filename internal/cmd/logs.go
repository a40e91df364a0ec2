package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lfn-audio/lfn-toolkit/internal/diagnostics"
	"github.com/lfn-audio/lfn-toolkit/internal/logging"
	"github.com/lfn-audio/lfn-toolkit/internal/util"
)

var logsCmd = &cobra.Command{
	Use:   "logs [file]",
	Short: "View toolkit logs",
	Long: `View and filter the log files written by the toolkit's modules.

By default, shows the most recently modified log file in the log directory,
including its rotated backups. Name a file to pick another one.

Examples:
  # Show the last 50 entries of the newest log
  lfn-debug logs

  # Show every entry of the batch processor's log
  lfn-debug logs lfn_batch.log -n 0

  # Follow the realtime analyzer's log
  lfn-debug logs --pattern 'lfn_realtime*.log' -f

  # Only problems from the last hour
  lfn-debug logs --level warning --since 1h

  # Search messages
  lfn-debug logs --grep "decode|overrun"

  # Export to CSV
  lfn-debug logs -n 0 --export csv > batch.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

var (
	logsDir     string
	logsPattern string
	logsLimit   int
	logsFollow  bool
	logsLevel   string
	logsLogger  string
	logsSince   string
	logsGrep    string
	logsExport  string
	logsList    bool
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsDir, "dir", "", "Log directory (default: the resolved log directory)")
	logsCmd.Flags().StringVar(&logsPattern, "pattern", diagnostics.DefaultLogPattern, "Glob selecting log files")
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warning/error/critical)")
	logsCmd.Flags().StringVar(&logsLogger, "logger", "", "Filter by logger name prefix")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter messages matching pattern (regex)")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Export entries as json, text or csv")
	logsCmd.Flags().BoolVar(&logsList, "list", false, "List matching log files instead of showing entries")
}

// logQuery selects the entries to display.
type logQuery struct {
	filter logging.LogFilter
	grep   *regexp.Regexp
}

func (q logQuery) match(entry logging.LogEntry) bool {
	if !q.filter.Match(entry) {
		return false
	}
	return q.grep == nil || q.grep.MatchString(entry.Message)
}

// buildLogQuery parses the filter flags.
func buildLogQuery(now time.Time) (logQuery, error) {
	q := logQuery{filter: logging.LogFilter{Logger: logsLogger}}

	if logsLevel != "" {
		level, ok := logging.ParseLevel(logsLevel)
		if !ok {
			return q, fmt.Errorf("invalid level %q (valid: %s)", logsLevel, strings.Join(logging.ValidLevels(), ", "))
		}
		q.filter.Level = level
	}

	if logsSince != "" {
		duration, err := time.ParseDuration(logsSince)
		if err != nil {
			return q, fmt.Errorf("invalid duration format: %w", err)
		}
		q.filter.StartTime = now.Add(-duration)
	}

	if logsGrep != "" {
		re, err := regexp.Compile(logsGrep)
		if err != nil {
			return q, fmt.Errorf("invalid grep pattern: %w", err)
		}
		q.grep = re
	}
	return q, nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	reg := newRegistry(cmd, cfg)
	defer func() { _ = reg.Close() }()
	logger := commandLogger(reg, "logs")

	dir := logsDir
	if dir == "" {
		dir = reg.LogDir("")
	}
	fs := afero.NewOsFs()
	out := cmd.OutOrStdout()

	if logsList {
		return listLogFiles(out, fs, dir, logsPattern)
	}

	query, err := buildLogQuery(time.Now())
	if err != nil {
		return err
	}

	path, err := resolveLogFile(fs, dir, logsPattern, args)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintf(out, "No log files matching %q found.\n", logsPattern)
		fmt.Fprintln(out, "Logs are stored at:", dir)
		return nil
	}
	logger.Debug("reading log file", "path", path)

	p := entryPrinter{
		out:      out,
		colorize: logsExport == "" && colorOutput(cfg, out),
		width:    terminalWidth(out),
	}

	// Follow mode
	if logsFollow {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		fmt.Fprintf(out, "Following %s... (Ctrl+C to stop)\n\n", path)
		return followLogs(ctx, path, query, p)
	}

	return displayLogs(fs, path, logsLimit, query, p)
}

// resolveLogFile returns the file named by args, or the newest file in dir
// matching pattern. It returns "" when nothing matches.
func resolveLogFile(fs afero.Fs, dir, pattern string, args []string) (string, error) {
	if len(args) > 0 {
		name := args[0]
		if !filepath.IsAbs(name) && filepath.Base(name) == name {
			name = filepath.Join(dir, name)
		}
		return name, nil
	}

	files, err := diagnostics.FindLogFiles(fs, dir, pattern)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", nil
	}
	return filepath.Join(dir, files[0].Name()), nil
}

// displayLogs prints the last limit matching entries of a log file and its
// backups.
func displayLogs(fs afero.Fs, path string, limit int, query logQuery, p entryPrinter) error {
	entries, err := logging.AggregateLogs(fs, path)
	if err != nil {
		return err
	}

	var matched []logging.LogEntry
	for _, entry := range entries {
		if query.match(entry) {
			matched = append(matched, entry)
		}
	}

	// Apply tail limit
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	if logsExport != "" {
		return logging.ExportLogEntries(p.out, matched, logsExport)
	}

	for _, entry := range matched {
		p.print(entry.Format(p.colorize))
	}
	if len(matched) == 0 {
		fmt.Fprintln(p.out, "No matching log entries found.")
	}
	return nil
}

// entryPrinter writes display lines, clipped to the terminal width.
type entryPrinter struct {
	out      io.Writer
	colorize bool
	width    int
}

func (p entryPrinter) print(line string) {
	if p.width > 0 {
		line = util.TruncateANSI(line, p.width)
	}
	fmt.Fprintln(p.out, line)
}

// followLogs prints entries appended to path until ctx is done. The log
// directory is watched so that rotation, which renames the file and starts
// a new one, is followed onto the new file.
func followLogs(ctx context.Context, path string, query logQuery, p entryPrinter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch log directory: %w", err)
	}

	t := &tailer{path: path, query: query, printer: p}
	if err := t.open(true); err != nil {
		return err
	}
	defer t.close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				// Finish the rotated file, then start on the new one.
				if err := t.drain(); err != nil {
					return err
				}
				t.close()
				if err := t.open(false); err != nil {
					return err
				}
				if err := t.drain(); err != nil {
					return err
				}
			case event.Has(fsnotify.Write):
				if err := t.drain(); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("error watching log file: %w", err)
		}
	}
}

// tailer reads complete lines appended to a log file.
type tailer struct {
	path    string
	query   logQuery
	printer entryPrinter

	file    *os.File
	reader  *bufio.Reader
	pending string
	// showing is whether the last parsed entry was printed; continuation
	// lines (tracebacks) follow their entry.
	showing bool
}

func (t *tailer) open(atEnd bool) error {
	file, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if atEnd {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to seek to end: %w", err)
		}
	}
	t.file = file
	t.reader = bufio.NewReader(file)
	t.pending = ""
	return nil
}

func (t *tailer) close() {
	if t.file != nil {
		_ = t.file.Close()
		t.file = nil
	}
}

// drain prints every complete line available. A trailing partial line is
// kept until its newline arrives.
func (t *tailer) drain() error {
	for {
		chunk, err := t.reader.ReadString('\n')
		t.pending += chunk
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}

		line := strings.TrimRight(t.pending, "\r\n")
		t.pending = ""
		t.handle(line)
	}
}

func (t *tailer) handle(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	entry, ok := logging.ParseLine(line)
	if !ok {
		if t.showing {
			t.printer.print(line)
		}
		return
	}
	t.showing = t.query.match(entry)
	if t.showing {
		t.printer.print(entry.Format(t.printer.colorize))
	}
}

// listLogFiles prints a table of the log files in dir, newest first.
func listLogFiles(w io.Writer, fs afero.Fs, dir, pattern string) error {
	files, err := diagnostics.FindLogFiles(fs, dir, pattern)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(w, "No logs directory found at", dir)
		return nil
	}
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(w, "No log files matching %q in %s\n", pattern, dir)
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(dir)
	tw.AppendHeader(table.Row{"File", "Size", "Modified"})
	for _, f := range files {
		tw.AppendRow(table.Row{f.Name(), humanize.IBytes(uint64(f.Size())), humanize.Time(f.ModTime())})
	}
	tw.Render()
	return nil
}
