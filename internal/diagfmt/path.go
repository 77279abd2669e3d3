package diagfmt

import (
	"flakes/internal/diag"
	"flakes/internal/source"
)

func (m PathMode) String() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	case PathModeAsGiven:
		return "given"
	default:
		return "auto"
	}
}

// fileOf returns the file a span points into, or nil for diagnostics
// that were produced without a FileSet.
func fileOf(fs *source.FileSet, sp source.Span) *source.File {
	if fs == nil {
		return nil
	}
	return fs.Get(sp.File)
}

// displayPath is the path printed for sp. Without a file it falls back to
// the name the checker was given.
func displayPath(fs *source.FileSet, sp source.Span, fallback string, mode PathMode) string {
	f := fileOf(fs, sp)
	if f == nil {
		if fallback == "" {
			return "<unknown>"
		}
		return fallback
	}
	if mode == PathModeAsGiven {
		return f.Path
	}
	return f.FormatPath(mode.String(), fs.BaseDir())
}

func diagPath(fs *source.FileSet, d *diag.Diagnostic, mode PathMode) string {
	return displayPath(fs, d.Primary, d.Filename, mode)
}
