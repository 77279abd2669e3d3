package trace

import (
	"fmt"
	"strings"
)

// Level is the tracing verbosity.
type Level uint8

const (
	LevelOff   Level = iota
	LevelError       // files into the ring only, dumped on failure
	LevelPhase       // driver and passes
	LevelDetail      // plus files
	LevelDebug       // everything
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether events of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelError, LevelDetail:
		return scope <= ScopeFile
	case LevelPhase:
		return scope <= ScopePass
	case LevelDebug:
		return true
	}
	return false
}
