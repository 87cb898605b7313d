// Package logging provides structured, leveled logging for gauntlet on top of
// charmbracelet/log. Console, file and fan-out loggers share one interface so the
// engine and runner never depend on a concrete backend.
package logging

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// Level is the minimum severity a logger emits, from Debug to Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}

// String returns the configuration name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// LevelNames returns the accepted level names in severity order.
func LevelNames() []string {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return names
}

// ParseLevel parses a level name case-insensitively. Names outside
// LevelNames, including the backend's fatal level, are rejected.
func ParseLevel(s string) (Level, error) {
	lvl, err := log.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	for _, l := range levels {
		if toCharmLevel(l) == lvl {
			return l, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}
