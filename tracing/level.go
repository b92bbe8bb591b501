// Package tracing delivers trace records of simulation components to
// listeners.
package tracing

import (
	"fmt"
	"strings"
)

// Level is the verbosity of a trace record. A sink delivers the records whose
// level is not above its own.
type Level int

// The trace levels, from the least to the most verbose.
const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
	LevelAll
)

var levelNames = []string{
	"OFF", "ERROR", "WARN", "INFO", "DEBUG", "TRACE", "ALL",
}

func (l Level) String() string {
	if l < LevelOff || l > LevelAll {
		return fmt.Sprintf("Level(%d)", int(l))
	}

	return levelNames[l]
}

// ParseLevel converts a level name, in any case, to a Level.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}

	return LevelOff, fmt.Errorf("unknown trace level %q", s)
}
