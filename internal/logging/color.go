package logging

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color modes accepted by the logging.color setting.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// levelRenderer always emits basic 16-colour ANSI sequences, regardless of
// what the process's stdout turns out to be.
var levelRenderer = func() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return r
}()

var levelStyles = map[Level]lipgloss.Style{
	LevelDebug:    levelRenderer.NewStyle().Foreground(lipgloss.Color("6")),
	LevelInfo:     levelRenderer.NewStyle().Foreground(lipgloss.Color("2")),
	LevelWarning:  levelRenderer.NewStyle().Foreground(lipgloss.Color("3")),
	LevelError:    levelRenderer.NewStyle().Foreground(lipgloss.Color("1")),
	LevelCritical: levelRenderer.NewStyle().Foreground(lipgloss.Color("5")),
}

// colorizeLevel wraps the level label in its fixed colour.
func colorizeLevel(level Level) string {
	style, ok := levelStyles[level]
	if !ok {
		return level.String()
	}
	return style.Render(level.String())
}

// ColorEnabled decides whether console output should be coloured.
// In auto mode colour is on for every platform except Windows, where it
// requires COLORTERM to be set.
func ColorEnabled(mode, goos, colorterm string) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return goos != "windows" || colorterm != ""
	}
}
