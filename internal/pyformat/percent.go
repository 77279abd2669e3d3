package pyformat

import (
	"errors"
	"unicode"
)

// ErrIncomplete reports a '%' directive cut off by the end of the string.
var ErrIncomplete = errors.New("end-of-string while parsing format")

// Directive is one parsed '%' conversion. Empty strings stand for absent parts.
type Directive struct {
	Key        string
	HasKey     bool
	Flags      string
	Width      string
	Precision  string
	Conversion rune
}

// PercentChunk is a literal run followed by an optional directive.
// The trailing literal of a format string has Directive == nil.
type PercentChunk struct {
	Literal   string
	Directive *Directive
}

// ParsePercent splits s into literal text and '%' directives.
// The grammar is: '%' ['(' key ')'] flags width ['.' precision] [hlL] conversion,
// where digits in width and precision may be any Unicode decimal digit.
func ParsePercent(s string) ([]PercentChunk, error) {
	rs := []rune(s)
	var out []PercentChunk
	start := 0
	i := 0
	for i < len(rs) {
		j := indexRune(rs, '%', i)
		if j < 0 {
			break
		}
		end := j
		i = j + 1

		d := &Directive{}
		if i < len(rs) && rs[i] == '(' {
			if k := closeParen(rs, i+1); k >= 0 {
				d.Key, d.HasKey = string(rs[i+1:k]), true
				i = k + 1
			}
		}
		n := i
		for n < len(rs) && isFlag(rs[n]) {
			n++
		}
		d.Flags, i = string(rs[i:n]), n

		d.Width, i = starOrDigits(rs, i)

		if i < len(rs) && rs[i] == '.' {
			var p string
			p, n = starOrDigits(rs, i+1)
			d.Precision, i = "."+p, n
		}
		if i < len(rs) && (rs[i] == 'h' || rs[i] == 'l' || rs[i] == 'L') {
			i++
		}
		if i >= len(rs) {
			return nil, ErrIncomplete
		}
		d.Conversion = rs[i]
		i++

		out = append(out, PercentChunk{Literal: string(rs[start:end]), Directive: d})
		start = i
	}
	out = append(out, PercentChunk{Literal: string(rs[start:])})
	return out, nil
}

func indexRune(rs []rune, r rune, from int) int {
	for i := from; i < len(rs); i++ {
		if rs[i] == r {
			return i
		}
	}
	return -1
}

// closeParen finds the ')' ending a mapping key; nested '(' aborts the key.
func closeParen(rs []rune, from int) int {
	for i := from; i < len(rs); i++ {
		switch rs[i] {
		case ')':
			return i
		case '(':
			return -1
		}
	}
	return -1
}

func isFlag(r rune) bool {
	switch r {
	case '#', '0', '+', ' ', '-':
		return true
	}
	return false
}

func starOrDigits(rs []rune, i int) (string, int) {
	if i < len(rs) && rs[i] == '*' {
		return "*", i + 1
	}
	n := i
	for n < len(rs) && unicode.Is(unicode.Nd, rs[n]) {
		n++
	}
	return string(rs[i:n]), n
}

const validConversions = "diouxXeEfFgGcrsa%"

func validConversion(r rune) bool {
	for _, c := range validConversions {
		if c == r {
			return true
		}
	}
	return false
}
