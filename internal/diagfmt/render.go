package diagfmt

import (
	"io"

	"flakes/internal/diag"
	"flakes/internal/source"
)

// Render dispatches to the renderer for f.
func Render(w io.Writer, f Format, bag *diag.Bag, fs *source.FileSet, opts RenderOpts) error {
	switch f {
	case FormatShort:
		return Short(w, bag, fs, ShortOpts{PathMode: opts.PathMode, WithCode: opts.WithCode})
	case FormatJSON:
		return JSON(w, bag, fs, JSONOpts{PathMode: opts.PathMode, Max: opts.Max, IncludeNotes: true})
	case FormatSARIF:
		return Sarif(w, bag, fs, SarifRunMeta{
			ToolName:       "flakes",
			ToolVersion:    opts.ToolVersion,
			InvocationArgs: opts.Args,
			PathMode:       opts.PathMode,
		})
	case FormatJUnit:
		return JUnit(w, bag, fs, JUnitOpts{PathMode: opts.PathMode})
	default:
		return Pretty(w, bag, fs, PrettyOpts{
			Color:     opts.Color,
			Context:   opts.Context,
			PathMode:  opts.PathMode,
			Width:     opts.Width,
			ShowNotes: true,
		})
	}
}
