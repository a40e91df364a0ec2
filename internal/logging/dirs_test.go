package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mkdirs(t *testing.T, parts ...string) string {
	t.Helper()
	dir := filepath.Join(parts...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "requirements.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("marker in start dir", func(t *testing.T) {
		got, ok := FindProjectRoot(root)
		if !ok || got != root {
			t.Errorf("FindProjectRoot() = (%q, %v), want (%q, true)", got, ok, root)
		}
	})

	t.Run("marker three levels up", func(t *testing.T) {
		start := mkdirs(t, root, "a", "b", "c")
		got, ok := FindProjectRoot(start)
		if !ok || got != root {
			t.Errorf("FindProjectRoot() = (%q, %v), want (%q, true)", got, ok, root)
		}
	})

	t.Run("marker beyond search depth", func(t *testing.T) {
		start := mkdirs(t, root, "a", "b", "c", "d")
		if got, ok := FindProjectRoot(start); ok {
			t.Errorf("FindProjectRoot() = %q, want not found", got)
		}
	})

	t.Run("empty start", func(t *testing.T) {
		if _, ok := FindProjectRoot(""); ok {
			t.Error("FindProjectRoot(\"\") should not find a root")
		}
	})
}

func TestResolveLogDir(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	bin := mkdirs(t, root, "bin")
	orphan := mkdirs(t, t.TempDir(), "a", "b", "c", "d")

	tests := []struct {
		name               string
		explicit, env, dir string
		want               string
	}{
		{"explicit wins", "/explicit", "/env", bin, "/explicit"},
		{"env next", "", "/env", bin, "/env"},
		{"project root", "", "", bin, filepath.Join(root, "logs")},
		{"relative fallback", "", "", orphan, "logs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLogDir(tt.explicit, tt.env, tt.dir); got != tt.want {
				t.Errorf("ResolveLogDir() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(root, "logs")); !os.IsNotExist(err) {
		t.Error("ResolveLogDir must not create the directory")
	}
}

func TestSessionLogPath(t *testing.T) {
	now := time.Date(2025, 12, 31, 23, 59, 58, 0, time.UTC)
	got := SessionLogPath("batch", "/data/logs", now)
	if want := filepath.Join("/data/logs", "batch_20251231_235958.log"); got != want {
		t.Errorf("SessionLogPath() = %q, want %q", got, want)
	}
}
