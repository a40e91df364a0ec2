package logging

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestColorEnabled(t *testing.T) {
	tests := []struct {
		mode, goos, colorterm string
		want                  bool
	}{
		{ColorAlways, "windows", "", true},
		{ColorNever, "linux", "truecolor", false},
		{ColorAuto, "linux", "", true},
		{ColorAuto, "darwin", "", true},
		{ColorAuto, "windows", "", false},
		{ColorAuto, "windows", "truecolor", true},
		{"", "windows", "", false},
	}
	for _, tt := range tests {
		if got := ColorEnabled(tt.mode, tt.goos, tt.colorterm); got != tt.want {
			t.Errorf("ColorEnabled(%q, %q, %q) = %v, want %v", tt.mode, tt.goos, tt.colorterm, got, tt.want)
		}
	}
}

func TestColorizeLevel(t *testing.T) {
	codes := map[Level]string{
		LevelDebug:    "36",
		LevelInfo:     "32",
		LevelWarning:  "33",
		LevelError:    "31",
		LevelCritical: "35",
	}
	for level, code := range codes {
		got := colorizeLevel(level)
		if !strings.Contains(got, "\x1b["+code) {
			t.Errorf("colorizeLevel(%v) = %q, want SGR %s", level, got, code)
		}
		if ansi.Strip(got) != level.String() {
			t.Errorf("stripped colorizeLevel(%v) = %q", level, ansi.Strip(got))
		}
	}
	if got := colorizeLevel(LevelUnset); got != "UNSET" {
		t.Errorf("colorizeLevel(UNSET) = %q", got)
	}
}
