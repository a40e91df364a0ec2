package logging

import (
	"log/slog"
	"strings"
)

// Level is the severity of a log record. Levels are totally ordered:
// DEBUG < INFO < WARNING < ERROR < CRITICAL.
type Level int8

// Log levels supported by the logger. LevelUnset marks an option that was not
// supplied and is never attached to a sink.
const (
	LevelUnset Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// slogLevelCritical sits above slog.LevelError so that standard slog handlers
// still treat critical records as the most severe.
const slogLevelCritical = slog.LevelError + 4

var levelNames = map[Level]string{
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNSET"
}

// Slog converts the level to its slog equivalent.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelCritical:
		return slogLevelCritical
	default:
		return slog.LevelInfo
	}
}

// FromSlog maps an slog level back onto the nearest Level at or below it.
func FromSlog(level slog.Level) Level {
	switch {
	case level >= slogLevelCritical:
		return LevelCritical
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarning
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// ParseLevel converts a level name to a Level. Matching is case-insensitive
// and WARN is accepted as an alias of WARNING. The boolean is false when the
// name is not recognised.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARNING", "WARN":
		return LevelWarning, true
	case "ERROR":
		return LevelError, true
	case "CRITICAL":
		return LevelCritical, true
	default:
		return LevelUnset, false
	}
}

// ValidLevels returns the canonical level names in ascending severity.
func ValidLevels() []string {
	return []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}
}

// ResolveLevel determines the effective threshold for a logger.
//
// Precedence: debugOverride forces DEBUG; otherwise an explicit level wins;
// otherwise envValue is used when it names a known level; otherwise INFO.
// Unrecognised values never produce an error.
func ResolveLevel(explicit Level, envValue string, debugOverride bool) Level {
	if debugOverride {
		return LevelDebug
	}
	if explicit != LevelUnset {
		return explicit
	}
	if level, ok := ParseLevel(envValue); ok {
		return level
	}
	return LevelInfo
}
