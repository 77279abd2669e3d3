// Package doctest extracts interactive examples from docstrings the way
// Python's doctest.DocTestParser does.
package doctest

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// Example is one ">>>" snippet.
type Example struct {
	// Source is the code with prompts and indentation stripped; it always
	// ends with a newline.
	Source string
	Want   string
	// Line is the 0-based line of the first prompt within the docstring.
	Line int
	// Indent is the column of the prompt.
	Indent int
}

var (
	exampleRE = regexp2.MustCompile(
		`(?<source>(?:^(?<indent>[ ]*)>>>.*)(?:\n[ ]*\.\.\..*)*)\n?`+
			`(?<want>(?:(?![ ]*$)(?![ ]*>>>).+$\n?)*)`,
		regexp2.Multiline)
	indentRE         = regexp2.MustCompile(`^([ ]*)(?=\S)`, regexp2.Multiline)
	blankOrCommentRE = regexp2.MustCompile(`^[ ]*(#.*)?$`, regexp2.None)
	optionRE         = regexp2.MustCompile(`#\s*doctest:\s*([^\n'"]*)$`, regexp2.Multiline)
)

var optionFlags = map[string]struct{}{
	"DONT_ACCEPT_TRUE_FOR_1":    {},
	"DONT_ACCEPT_BLANKLINE":     {},
	"NORMALIZE_WHITESPACE":      {},
	"ELLIPSIS":                  {},
	"SKIP":                      {},
	"IGNORE_EXCEPTION_DETAIL":   {},
	"REPORT_UDIFF":              {},
	"REPORT_CDIFF":              {},
	"REPORT_NDIFF":              {},
	"REPORT_ONLY_FIRST_FAILURE": {},
	"FAIL_FAST":                 {},
}

// Examples returns the examples found in a docstring. A malformed docstring
// (inconsistent indentation, missing blank after a prompt, bad option
// directive) is an error; callers usually skip the docstring then.
func Examples(docstring string) ([]Example, error) {
	text := expandTabs(docstring)
	minIndent, err := minIndent(text)
	if err != nil {
		return nil, err
	}
	if minIndent > 0 {
		lines := strings.Split(text, "\n")
		for i, l := range lines {
			lines[i] = sliceFrom(l, minIndent)
		}
		text = strings.Join(lines, "\n")
	}

	rs := []rune(text)
	var out []Example
	charno, lineno := 0, 0
	m, err := exampleRE.FindRunesMatch(rs)
	for ; m != nil && err == nil; m, err = exampleRE.FindNextMatch(m) {
		lineno += countNewlines(rs[charno:m.Index])

		ex, err := parseExample(m, lineno)
		if err != nil {
			return nil, err
		}
		blank, err := blankOrCommentRE.MatchString(ex.Source)
		if err != nil {
			return nil, err
		}
		if !blank {
			ex.Indent += minIndent
			if !strings.HasSuffix(ex.Source, "\n") {
				ex.Source += "\n"
			}
			if ex.Want != "" && !strings.HasSuffix(ex.Want, "\n") {
				ex.Want += "\n"
			}
			out = append(out, ex)
		}

		lineno += countNewlines(rs[m.Index : m.Index+m.Length])
		charno = m.Index + m.Length
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseExample(m *regexp2.Match, lineno int) (Example, error) {
	indent := m.GroupByName("indent").Length

	sourceLines := strings.Split(m.GroupByName("source").String(), "\n")
	for i, line := range sourceLines {
		rl := []rune(line)
		if len(rl) >= indent+4 && rl[indent+3] != ' ' {
			return Example{}, fmt.Errorf("line %d of the docstring lacks blank after %s: %q",
				lineno+i+1, string(rl[indent:indent+3]), line)
		}
	}
	if err := checkPrefix(sourceLines[1:], strings.Repeat(" ", indent)+".", lineno); err != nil {
		return Example{}, err
	}
	for i, line := range sourceLines {
		sourceLines[i] = sliceFrom(line, indent+4)
	}
	source := strings.Join(sourceLines, "\n")

	wantLines := strings.Split(m.GroupByName("want").String(), "\n")
	if len(wantLines) > 1 && strings.Trim(wantLines[len(wantLines)-1], " ") == "" {
		wantLines = wantLines[:len(wantLines)-1]
	}
	if err := checkPrefix(wantLines, strings.Repeat(" ", indent), lineno+len(sourceLines)); err != nil {
		return Example{}, err
	}
	for i, line := range wantLines {
		wantLines[i] = sliceFrom(line, indent)
	}

	if err := checkOptions(source, lineno); err != nil {
		return Example{}, err
	}
	return Example{
		Source: source,
		Want:   strings.Join(wantLines, "\n"),
		Line:   lineno,
		Indent: indent,
	}, nil
}

func checkPrefix(lines []string, prefix string, lineno int) error {
	for i, line := range lines {
		if line != "" && !strings.HasPrefix(line, prefix) {
			return fmt.Errorf("line %d of the docstring has inconsistent leading whitespace: %q", lineno+i+1, line)
		}
	}
	return nil
}

func checkOptions(source string, lineno int) error {
	found := false
	m, err := optionRE.FindStringMatch(source)
	for ; m != nil && err == nil; m, err = optionRE.FindNextMatch(m) {
		spec := strings.ReplaceAll(m.GroupByNumber(1).String(), ",", " ")
		for _, opt := range strings.Fields(spec) {
			if _, ok := optionFlags[opt[1:]]; (opt[0] != '+' && opt[0] != '-') || !ok {
				return fmt.Errorf("line %d of the doctest has an invalid option: %q", lineno+1, opt)
			}
			found = true
		}
	}
	if err != nil {
		return err
	}
	if found {
		blank, err := blankOrCommentRE.MatchString(source)
		if err != nil {
			return err
		}
		if blank {
			return fmt.Errorf("line %d of the doctest has an option directive on a line with no example: %q", lineno, source)
		}
	}
	return nil
}

// minIndent is the smallest indentation of any non-blank line.
func minIndent(s string) (int, error) {
	best := -1
	m, err := indentRE.FindStringMatch(s)
	for ; m != nil && err == nil; m, err = indentRE.FindNextMatch(m) {
		if n := m.GroupByNumber(1).Length; best < 0 || n < best {
			best = n
		}
	}
	if err != nil {
		return 0, err
	}
	if best < 0 {
		return 0, nil
	}
	return best, nil
}

// expandTabs replaces tabs with spaces up to the next multiple of eight,
// restarting the column after every newline or carriage return.
func expandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := 8 - col%8
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}

// sliceFrom drops the first n code points of s.
func sliceFrom(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[i:]
		}
		n--
	}
	return ""
}

func countNewlines(rs []rune) int {
	n := 0
	for _, r := range rs {
		if r == '\n' {
			n++
		}
	}
	return n
}
