package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDirName is used when no project root can be found.
const DefaultLogDirName = "logs"

// projectSearchDepth is how many parent directories are inspected above the
// starting directory.
const projectSearchDepth = 3

// ProjectMarkers are the files whose presence identifies the project root.
var ProjectMarkers = []string{
	"go.mod",
	"preflight_check.py",
	"setup.py",
	"requirements.txt",
	"README.md",
}

// FindProjectRoot walks upward from start (inclusive) looking for a
// directory that contains one of ProjectMarkers.
func FindProjectRoot(start string) (string, bool) {
	if start == "" {
		return "", false
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}

	for i := 0; i <= projectSearchDepth; i++ {
		for _, marker := range ProjectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// ResolveLogDir picks the log directory: an explicit directory, then the
// LFN_LOG_DIR value, then <project root>/logs, then the relative "logs".
// The directory is not created here.
func ResolveLogDir(explicit, envDir, startDir string) string {
	if explicit != "" {
		return explicit
	}
	if envDir != "" {
		return envDir
	}
	if root, ok := FindProjectRoot(startDir); ok {
		return filepath.Join(root, DefaultLogDirName)
	}
	return DefaultLogDirName
}

// defaultStartDir is the directory of the running executable, falling back
// to the working directory.
func defaultStartDir() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
