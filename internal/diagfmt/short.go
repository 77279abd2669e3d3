package diagfmt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"flakes/internal/diag"
	"flakes/internal/source"
)

// Short prints one line per diagnostic the way pyflakes does:
//
//	path:line:col: message
//
// A syntax error is followed by the offending line and a caret, and a file
// that could not be read prints as `path: message`.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts ShortOpts) error {
	bw := bufio.NewWriter(w)
	for i := range bag.Items() {
		d := &bag.Items()[i]
		path := diagPath(fs, d, opts.PathMode)
		code := ""
		if opts.WithCode {
			code = d.Code.ID() + " "
		}
		switch {
		case d.Code == diag.IOError || !d.Primary.IsValid():
			fmt.Fprintf(bw, "%s: %s%s\n", path, code, d.Message)
		case d.Code == diag.SyntaxError:
			writeSyntaxError(bw, path, code, d)
		default:
			start := d.Primary.Start()
			fmt.Fprintf(bw, "%s:%d:%d: %s%s\n", path, start.Line, start.Col, code, d.Message)
		}
	}
	return bw.Flush()
}

// writeSyntaxError follows pyflakes: the column is CPython's 1-based
// offset and the caret sits under it. Args[1], when present, is the text
// of the offending line.
func writeSyntaxError(w io.Writer, path, code string, d *diag.Diagnostic) {
	start := d.Primary.Start()
	fmt.Fprintf(w, "%s:%d:%d: %s%s\n", path, start.Line, start.Col, code, d.Message)
	if len(d.Args) < 2 || d.Args[1] == "" {
		return
	}
	lines := strings.Split(strings.TrimRight(d.Args[1], "\n"), "\n")
	line := lines[len(lines)-1]
	fmt.Fprintln(w, line)
	prefix := line
	if n := int(start.Col) - 1; n < len(prefix) {
		prefix = prefix[:max(n, 0)]
	}
	fmt.Fprintln(w, strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, prefix)+"^")
}
