package logging

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestCollectSystemInfo(t *testing.T) {
	info := CollectSystemInfo(context.Background(), t.TempDir())

	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s", info.OS, info.Arch)
	}
	if info.LogicalCPUs < 1 {
		t.Errorf("LogicalCPUs = %d", info.LogicalCPUs)
	}
	for _, metric := range info.Unavailable {
		if metric == "" {
			t.Error("empty name in Unavailable")
		}
	}
}

func TestLogSystemInfo(t *testing.T) {
	t.Run("debug", func(t *testing.T) {
		l, buf := newConsoleLogger(t, LevelDebug)
		LogSystemInfo(l)

		output := buf.String()
		sep := strings.Repeat("=", 60)
		if strings.Count(output, sep) != 3 {
			t.Errorf("want 3 separators: %q", output)
		}
		for _, want := range []string{"System Information", "Go version: " + runtime.Version(), "Platform: ", "CPU count: "} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("silent above debug", func(t *testing.T) {
		l, buf := newConsoleLogger(t, LevelInfo)
		LogSystemInfo(l)
		if buf.Len() != 0 {
			t.Errorf("output = %q", buf.String())
		}
	})
}
