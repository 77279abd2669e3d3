package testkit

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"

	"flakes/internal/pyast"
	"flakes/internal/source"
)

// CheckTreePositions runs a minimal set of position invariants on a
// decoded tree against the source it came from:
// 1) every located node starts on line 1 or later and ends after it starts
// 2) both ends fall on lines of the file
// 3) both columns are within their line, counted in UTF-8 bytes
func CheckTreePositions(t *pyast.Tree, sf *source.File) error {
	if t == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	lineCount, err := safecast.Conv[uint32](bytes.Count(sf.Content, []byte{'\n'}) + 1)
	if err != nil {
		return err
	}
	lineLen := func(n uint32) uint32 {
		l, err := safecast.Conv[uint32](len(bytes.TrimRight([]byte(sf.GetLine(n)), "\r\n")))
		if err != nil {
			return 0
		}
		return l
	}

	var bad error
	t.Walk(t.Root, func(id pyast.NodeID) bool {
		if bad != nil {
			return false
		}
		p := t.Pos(id)
		if !p.IsValid() {
			return true
		}
		kind := t.Kind(id)
		switch {
		case p.EndLine < p.Line || (p.EndLine == p.Line && p.EndCol < p.Col):
			bad = fmt.Errorf("%s ends before it starts: %d:%d-%d:%d", kind, p.Line, p.Col, p.EndLine, p.EndCol)
		case p.EndLine > lineCount:
			bad = fmt.Errorf("%s ends on line %d of %d", kind, p.EndLine, lineCount)
		case p.Col > lineLen(p.Line):
			bad = fmt.Errorf("%s starts past the end of line %d: col %d", kind, p.Line, p.Col)
		case p.EndCol > lineLen(p.EndLine):
			bad = fmt.Errorf("%s ends past the end of line %d: col %d", kind, p.EndLine, p.EndCol)
		}
		return bad == nil
	})
	return bad
}
