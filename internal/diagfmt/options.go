package diagfmt

import (
	"fmt"
	"strings"
)

// Format selects a renderer.
type Format uint8

const (
	FormatPretty Format = iota
	FormatShort         // path:line:col: message, as pyflakes prints it
	FormatJSON
	FormatSARIF
	FormatJUnit
)

var formatNames = [...]string{"pretty", "short", "json", "sarif", "junit"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if strings.EqualFold(s, name) {
			return Format(i), nil
		}
	}
	return FormatPretty, fmt.Errorf("unknown format %q (expected %s)", s, strings.Join(formatNames[:], "|"))
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps short or relative paths and shortens long absolute ones.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
	// PathModeAsGiven prints the path exactly as it was loaded.
	PathModeAsGiven
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // source lines shown above the reported one
	PathMode  PathMode
	Width     uint8 // максимальная ширина строки, 0 - не ограничено
	ShowNotes bool
}

// ShortOpts configures the one-line format.
type ShortOpts struct {
	PathMode PathMode
	// WithCode inserts the code after the position, flake8 style.
	WithCode bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	Max          int // обрезка вывода, не Bag
	IncludeNotes bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
	PathMode       PathMode
}

// JUnitOpts names the suite.
type JUnitOpts struct {
	SuiteName string
	PathMode  PathMode
}

// RenderOpts is the union of what the CLI can set for any format.
type RenderOpts struct {
	PathMode    PathMode
	Color       bool
	Context     int8
	Width       uint8
	WithCode    bool
	Max         int
	ToolVersion string
	Args        []string
}
