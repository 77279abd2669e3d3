package diagfmt

import (
	"encoding/json"
	"io"

	"flakes/internal/diag"
	"flakes/internal/source"
)

// LocationJSON is a 1-based position range.
type LocationJSON struct {
	File      string `json:"file"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Kind     string       `json:"kind"`
	Message  string       `json:"message"`
	Args     []string     `json:"args,omitempty"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	// Truncated is set when Max cut the list.
	Truncated bool `json:"truncated,omitempty"`
}

func makeLocation(fs *source.FileSet, sp source.Span, fallback string, mode PathMode) LocationJSON {
	loc := LocationJSON{File: displayPath(fs, sp, fallback, mode)}
	if sp.IsValid() {
		start, end := sp.Start(), sp.End()
		loc.StartLine, loc.StartCol = start.Line, start.Col
		if sp.EndLine != 0 {
			loc.EndLine, loc.EndCol = end.Line, end.Col
		}
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	n := len(items)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := DiagnosticsOutput{
		Diagnostics: make([]DiagnosticJSON, 0, n),
		Truncated:   n < len(items),
	}
	for i := range n {
		d := &items[i]
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Kind:     d.Code.Name(),
			Message:  d.Message,
			Args:     d.Args,
			Location: makeLocation(fs, d.Primary, d.Filename, opts.PathMode),
		}
		if opts.IncludeNotes {
			for _, note := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(fs, note.Span, d.Filename, opts.PathMode),
				})
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes the diagnostics as one indented document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
