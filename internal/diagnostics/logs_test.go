package diagnostics

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func writeLog(t *testing.T, fs afero.Fs, path, content string, mtime time.Time) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fs.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestAnalyzeLogFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	long := strings.Repeat("x", 150)
	content := strings.Join([]string{
		"2024-03-05 14:07:09 [INFO] lfn.batch.run:10 - started, no ERROR here",
		"2024-03-05 14:07:10 [ERROR] lfn.batch.run:11 - first",
		"2024-03-05 14:07:11 [WARNING] lfn.batch.run:12 - careful",
		"[ERROR] lfn.batch - second",
		"Traceback: ERROR from an older tool",
		"2024-03-05 14:07:12 [CRITICAL] lfn.batch.run:13 - " + long,
		"plain WARNING line",
		"",
	}, "\n")
	writeLog(t, fs, "/logs/lfn_batch.log", content, testNow)

	r, err := AnalyzeLogFile(fs, "/logs/lfn_batch.log")
	if err != nil {
		t.Fatalf("AnalyzeLogFile() error = %v", err)
	}
	if r.Lines != 7 || r.Errors != 4 || r.Warnings != 2 {
		t.Errorf("counts = lines %d, errors %d, warnings %d; want 7, 4, 2", r.Lines, r.Errors, r.Warnings)
	}
	if len(r.RecentErrors) != 3 {
		t.Fatalf("RecentErrors = %v, want last 3", r.RecentErrors)
	}
	if !strings.HasSuffix(r.RecentErrors[0], "second") {
		t.Errorf("RecentErrors[0] = %q, want the second error", r.RecentErrors[0])
	}
	last := r.RecentErrors[2]
	if len([]rune(last)) != problemLineWidth || !strings.HasSuffix(last, "...") {
		t.Errorf("long line not truncated to %d: %q", problemLineWidth, last)
	}
	if r.Size != int64(len(content)) || !r.ModTime.Equal(testNow) {
		t.Errorf("Size/ModTime = %d/%v", r.Size, r.ModTime)
	}
}

func TestFindLogFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeLog(t, fs, "/logs/old.log", "", testNow.Add(-2*time.Hour))
	writeLog(t, fs, "/logs/new.log", "", testNow)
	writeLog(t, fs, "/logs/mid.log", "", testNow.Add(-time.Hour))
	writeLog(t, fs, "/logs/lfn_x.log.1", "", testNow)
	writeLog(t, fs, "/logs/notes.txt", "", testNow)
	if err := fs.MkdirAll("/logs/dir.log", 0755); err != nil {
		t.Fatal(err)
	}

	files, err := FindLogFiles(fs, "/logs", "")
	if err != nil {
		t.Fatalf("FindLogFiles() error = %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	if strings.Join(names, ",") != "new.log,mid.log,old.log" {
		t.Errorf("files = %v, want newest first", names)
	}

	files, err = FindLogFiles(fs, "/logs", "lfn_*.log*")
	if err != nil || len(files) != 1 || files[0].Name() != "lfn_x.log.1" {
		t.Errorf("pattern match = %v, %v", files, err)
	}

	if _, err := FindLogFiles(fs, "/logs", "[unterminated"); err == nil {
		t.Error("invalid pattern should fail")
	}
}

func TestCheckLogs(t *testing.T) {
	t.Run("limits to the most recent files", func(t *testing.T) {
		c := newTestChecker(t, &fakeRunner{})
		for i := 0; i < 6; i++ {
			writeLog(t, c.FS, fmt.Sprintf("/proj/logs/f%d.log", i), "ok\n", testNow.Add(time.Duration(i)*time.Minute))
		}
		writeLog(t, c.FS, "/proj/logs/f5.log", "2024-03-05 14:07:09 [ERROR] a.b:1 - bad\n", testNow.Add(10*time.Minute))

		s := c.CheckLogs(context.Background())
		if r := findResult(t, s, "Logs"); r.Detail != "found 6 log file(s), showing 5" {
			t.Errorf("Logs = %+v", r)
		}
		if r := findResult(t, s, "f5.log"); r.Status != StatusError {
			t.Errorf("f5.log = %+v, want error", r)
		}
		if r := findResult(t, s, "  recent error"); !strings.Contains(r.Detail, "bad") {
			t.Errorf("recent error = %+v", r)
		}
		for _, r := range s.Results {
			if r.Name == "f0.log" {
				t.Error("oldest file should be skipped")
			}
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		c := newTestChecker(t, &fakeRunner{})
		s := c.CheckLogs(context.Background())
		if r := findResult(t, s, "Logs"); r.Status != StatusWarn || !strings.Contains(r.Detail, "no logs directory") {
			t.Errorf("Logs = %+v", r)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		c := newTestChecker(t, &fakeRunner{})
		if err := c.FS.MkdirAll(c.LogDir, 0755); err != nil {
			t.Fatal(err)
		}
		s := c.CheckLogs(context.Background())
		if r := findResult(t, s, "Logs"); r.Status != StatusWarn || !strings.Contains(r.Detail, "no log files") {
			t.Errorf("Logs = %+v", r)
		}
	})
}
