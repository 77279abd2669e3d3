package source

import (
	"fmt"
)

// Span locates a range of a file the way CPython does:
// lines are 1-based, columns are 0-based byte offsets into the line.
type Span struct {
	File    FileID
	Line    uint32
	Col     uint32
	EndLine uint32
	EndCol  uint32
}

// At returns a point span.
func At(file FileID, line, col uint32) Span {
	return Span{File: file, Line: line, Col: col, EndLine: line, EndCol: col}
}

// IsValid reports whether the span has a line.
func (s Span) IsValid() bool {
	return s.Line != 0
}

// Start is the 1-based display position.
func (s Span) Start() LineCol {
	return LineCol{Line: s.Line, Col: s.Col + 1}
}

// End is the 1-based display position of the end.
func (s Span) End() LineCol {
	return LineCol{Line: s.EndLine, Col: s.EndCol + 1}
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d:%d", s.File, s.Line, s.Col+1)
}

// Before orders spans by file, then start position.
func (s Span) Before(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Col < other.Col
}

func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Line < s.Line || (other.Line == s.Line && other.Col < s.Col) {
		s.Line, s.Col = other.Line, other.Col
	}
	if other.EndLine > s.EndLine || (other.EndLine == s.EndLine && other.EndCol > s.EndCol) {
		s.EndLine, s.EndCol = other.EndLine, other.EndCol
	}
	return s
}

// Shift moves the span by whole lines and columns, e.g. for code embedded in a docstring.
func (s Span) Shift(lines, cols uint32) Span {
	if !s.IsValid() {
		return s
	}
	return Span{
		File:    s.File,
		Line:    s.Line + lines,
		Col:     s.Col + cols,
		EndLine: s.EndLine + lines,
		EndCol:  s.EndCol + cols,
	}
}
