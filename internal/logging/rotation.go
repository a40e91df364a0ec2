package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"

	lfnerrors "github.com/lfn-audio/lfn-toolkit/internal/errors"
)

// Default rotation limits for file sinks.
const (
	DefaultMaxSize    int64 = 10 * humanize.MiByte
	DefaultMaxBackups       = 5
)

// RotationConfig holds configuration for log rotation.
type RotationConfig struct {
	// MaxSize is the size in bytes at which the active file is rotated.
	// A value of 0 disables rotation.
	MaxSize int64
	// MaxBackups is the number of rotated files to keep. 0 keeps none.
	MaxBackups int
}

// DefaultRotationConfig returns the 10 MiB / 5 backup configuration.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    DefaultMaxSize,
		MaxBackups: DefaultMaxBackups,
	}
}

// RotatingWriter is an io.WriteCloser that rotates its file once it would
// grow past the configured size. Backups are numbered: .1 is the newest and
// .N the oldest. It is safe for concurrent use.
type RotatingWriter struct {
	mu sync.Mutex

	filePath   string
	maxSize    int64
	maxBackups int
	warnOut    io.Writer

	file        *os.File
	currentSize int64
	warned      bool
}

// NewRotatingWriter opens (or creates) filePath for appending. Missing parent
// directories are created.
func NewRotatingWriter(filePath string, config RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		filePath:   filePath,
		maxSize:    config.MaxSize,
		maxBackups: config.MaxBackups,
		warnOut:    os.Stderr,
	}

	if err := rw.openFile(); err != nil {
		return nil, err
	}

	return rw, nil
}

// openFile opens the log file for writing and records its size.
// The caller must hold the mutex.
func (rw *RotatingWriter) openFile() error {
	dir := filepath.Dir(rw.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return lfnerrors.NewSinkError(rw.filePath, "create log directory", err)
	}

	file, err := os.OpenFile(rw.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return lfnerrors.NewSinkError(rw.filePath, "open log file", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return lfnerrors.NewSinkError(rw.filePath, "stat log file", err)
	}

	rw.file = file
	rw.currentSize = info.Size()
	return nil
}

// Write implements io.Writer. The file is rotated before a write that would
// take it past the maximum size, so a record is never split across files.
func (rw *RotatingWriter) Write(p []byte) (n int, err error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, lfnerrors.ErrSinkClosed
	}

	if rw.maxSize > 0 && rw.currentSize > 0 && rw.currentSize+int64(len(p)) > rw.maxSize {
		if err := rw.rotate(); err != nil {
			// Keep writing to whatever file is open rather than drop records.
			if !rw.warned {
				fmt.Fprintf(rw.warnOut, "Warning: log rotation failed: %v\n", err)
				rw.warned = true
			}
			if rw.file == nil {
				return 0, err
			}
		}
	}

	n, err = rw.file.Write(p)
	rw.currentSize += int64(n)
	return n, err
}

// rotate performs the log rotation. Failures match ErrRotationFailed. The
// caller must hold the mutex.
func (rw *RotatingWriter) rotate() error {
	if err := rw.shift(); err != nil {
		return lfnerrors.NewSinkError(rw.filePath, "rotate log file", err)
	}
	return nil
}

// shift moves the active file into the backups and opens a fresh one.
func (rw *RotatingWriter) shift() error {
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rw.file = nil

	rw.rotateBackups()

	if rw.maxBackups <= 0 {
		if err := os.Remove(rw.filePath); err != nil && !os.IsNotExist(err) {
			if openErr := rw.openFile(); openErr != nil {
				return fmt.Errorf("failed to truncate log file and reopen: %w", openErr)
			}
			return fmt.Errorf("failed to truncate log file: %w", err)
		}
		return rw.openFile()
	}

	if err := os.Rename(rw.filePath, rw.backupPath(1)); err != nil {
		if openErr := rw.openFile(); openErr != nil {
			return fmt.Errorf("failed to rename log file and reopen: %w", openErr)
		}
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	return rw.openFile()
}

// rotateBackups drops the oldest generation and shifts the rest up by one.
func (rw *RotatingWriter) rotateBackups() {
	if rw.maxBackups <= 0 {
		return
	}

	_ = os.Remove(rw.backupPath(rw.maxBackups))

	for i := rw.maxBackups - 1; i >= 1; i-- {
		oldPath := rw.backupPath(i)
		if _, err := os.Stat(oldPath); err == nil {
			_ = os.Rename(oldPath, rw.backupPath(i+1))
		}
	}
}

// backupPath returns the path for a backup file with the given number.
func (rw *RotatingWriter) backupPath(n int) string {
	return BackupPath(rw.filePath, n)
}

// BackupPath returns the path of the n-th rotated generation of path.
func BackupPath(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

// Sync flushes any buffered data to the underlying file.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}

	return rw.file.Sync()
}

// Close syncs and closes the underlying file. Closing twice is a no-op.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}

	syncErr := rw.file.Sync()
	closeErr := rw.file.Close()
	rw.file = nil

	if closeErr != nil {
		return fmt.Errorf("failed to close log file: %w", closeErr)
	}
	if syncErr != nil {
		return fmt.Errorf("failed to sync log file: %w", syncErr)
	}
	return nil
}

// CurrentSize returns the current size of the active file in bytes.
func (rw *RotatingWriter) CurrentSize() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.currentSize
}

// FilePath returns the path to the active log file.
func (rw *RotatingWriter) FilePath() string {
	return rw.filePath
}
