// Package util holds the text helpers shared by the diagnostics and the
// lfn-debug commands.
package util

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks text that was cut short.
const Ellipsis = "..."

// TruncateString shortens s to at most maxLen runes, ending in Ellipsis.
// It knows nothing about escape codes; use TruncateANSI for styled text.
func TruncateString(s string, maxLen int) string {
	if maxLen <= len(Ellipsis) {
		return Ellipsis
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-len(Ellipsis)]) + Ellipsis
}

// TruncateANSI shortens s to at most maxWidth terminal columns. Escape
// sequences are preserved and take no width; wide characters take two.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= len(Ellipsis) {
		return Ellipsis
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, Ellipsis)
}

// FirstLine returns the first non-blank line of s, trimmed.
func FirstLine(s string) string {
	for line := range strings.Lines(s) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
