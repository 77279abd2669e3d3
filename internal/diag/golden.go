package diag

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"flakes/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden files:
//
//	F401 pkg/mod.py:1:1 'os' imported but unused
//
// Entries are sorted by path and position and joined with newlines.
// Without a FileSet the diagnostic's Filename is used as the path.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([][]goldenDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = append(rendered, appendDiagnostic(nil, &diags[i], fs, includeNotes))
	}

	// notes travel with their diagnostic
	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i][0], rendered[j][0]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		return di.Column < dj.Column
	})

	var lines []string
	for _, group := range rendered {
		for _, d := range group {
			if d.Severity == "note" {
				lines = append(lines, fmt.Sprintf("  note %s:%d:%d %s", d.Path, d.Line, d.Column, d.Message))
				continue
			}
			lines = append(lines, fmt.Sprintf("%s %s:%d:%d %s", d.Code, d.Path, d.Line, d.Column, d.Message))
		}
	}
	return strings.Join(lines, "\n")
}

func appendDiagnostic(out []goldenDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes bool) []goldenDiagnostic {
	if loc, ok := resolveSpan(fs, d.Primary, d.Filename); ok {
		out = append(out, goldenDiagnostic{
			Severity: severityLabel(d.Severity),
			Code:     d.Code.ID(),
			Path:     loc.Path,
			Line:     loc.Line,
			Column:   loc.Column,
			Message:  sanitizeMessage(d.Message),
		})
	}

	if includeNotes {
		for _, note := range d.Notes {
			nloc, nok := resolveSpan(fs, note.Span, d.Filename)
			if !nok {
				continue
			}
			out = append(out, goldenDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Path:     nloc.Path,
				Line:     nloc.Line,
				Column:   nloc.Column,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}

	return out
}

type resolvedSpan struct {
	Path   string
	Line   uint32
	Column uint32
}

func resolveSpan(fs *source.FileSet, span source.Span, filename string) (resolvedSpan, bool) {
	path := filename
	if fs != nil {
		if file := fs.Get(span.File); file != nil {
			path = file.FormatPath("relative", fs.BaseDir())
		}
	}
	start := span.Start()
	return resolvedSpan{
		Path:   normalizePath(path),
		Line:   start.Line,
		Column: start.Col,
	}, true
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
