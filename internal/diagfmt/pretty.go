package diagfmt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"flakes/internal/diag"
	"flakes/internal/source"
)

type palette struct {
	err, warn, info, path, gutter, caret, note, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgBlue, color.Bold),
		path:   color.New(color.FgCyan),
		gutter: color.New(color.FgHiBlack),
		caret:  color.New(color.FgGreen, color.Bold),
		note:   color.New(color.FgMagenta),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.path, p.gutter, p.caret, p.note, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty prints each diagnostic with its source line and an underline:
//
//	pkg/mod.py:3:12: error[F821]: undefined name 'bar'
//	   3 |     return bar
//	     |            ^~~
//
// The bag is expected to be sorted already.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	bw := bufio.NewWriter(w)
	p := newPalette(opts.Color)
	for i := range bag.Items() {
		d := &bag.Items()[i]
		if i > 0 {
			bw.WriteByte('\n')
		}
		sev := strings.ToLower(d.Severity.String())
		start := d.Primary.Start()
		loc := diagPath(fs, d, opts.PathMode)
		if d.Primary.IsValid() {
			loc = fmt.Sprintf("%s:%d:%d", loc, start.Line, start.Col)
		}
		fmt.Fprintf(bw, "%s: %s: %s\n",
			p.path.Sprint(loc),
			p.severity(d.Severity).Sprintf("%s[%s]", sev, d.Code.ID()),
			p.bold.Sprint(d.Message))
		if f := fileOf(fs, d.Primary); f != nil && d.Primary.IsValid() {
			writeSnippet(bw, p, f, d.Primary, opts)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			nloc := displayPath(fs, n.Span, d.Filename, opts.PathMode)
			if n.Span.IsValid() {
				ns := n.Span.Start()
				nloc = fmt.Sprintf("%s:%d:%d", nloc, ns.Line, ns.Col)
			}
			fmt.Fprintf(bw, "  %s %s: %s\n", p.note.Sprint("note:"), p.path.Sprint(nloc), n.Msg)
		}
	}
	return bw.Flush()
}

func writeSnippet(w *bufio.Writer, p palette, f *source.File, sp source.Span, opts PrettyOpts) {
	first := sp.Line
	if ctx := uint32(max(opts.Context, 0)); first > ctx {
		first -= ctx
	} else {
		first = 1
	}
	width := len(strconv.Itoa(int(sp.Line)))
	gutter := func(label string) string {
		return p.gutter.Sprintf(" %*s | ", width+2, label)
	}
	for ln := first; ln <= sp.Line; ln++ {
		fmt.Fprintf(w, "%s%s\n", gutter(strconv.Itoa(int(ln))), clip(f.GetLine(ln), opts.Width))
	}

	line := f.GetLine(sp.Line)
	col := min(int(sp.Col), len(line))
	end := len(line)
	if sp.EndLine == sp.Line && int(sp.EndCol) > col {
		end = min(int(sp.EndCol), len(line))
	}
	under := runewidth.StringWidth(line[col:end])
	if under < 1 {
		under = 1
	}
	fmt.Fprintf(w, "%s%s%s\n", gutter(""), padTo(line[:col]), p.caret.Sprint("^"+strings.Repeat("~", under-1)))
}

// padTo returns blanks as wide as prefix on screen, keeping tabs so the
// caret lines up under tab-indented code.
func padTo(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}

func clip(line string, width uint8) string {
	if width == 0 {
		return line
	}
	return runewidth.Truncate(line, int(width), "…")
}
