package pyformat

import (
	"errors"
	"math/big"
	"strings"
	"unicode"
)

var (
	errSingleClose      = errors.New("Single '}' encountered in format string")
	errSingleOpen       = errors.New("Single '{' encountered in format string")
	errBraceInName      = errors.New("unexpected '{' in field name")
	errNoConversion     = errors.New("end of string while looking for conversion specifier")
	errAfterConversion  = errors.New("expected ':' after conversion specifier")
	errUnmatchedSpec    = errors.New("unmatched '{' in format spec")
	errMissingClose     = errors.New("expected '}' before end of string")
	errRecursionTooDeep = errors.New("Max string recursion exceeded")
)

// Field is one chunk of a str.format template: literal text and, when
// Present, the replacement field that follows it.
type Field struct {
	Literal    string
	Present    bool
	Name       string
	Spec       string
	Conversion rune
}

// ParseFormat splits s the way str.format reads it. Errors carry the same
// text Python raises.
func ParseFormat(s string) ([]Field, error) {
	rs := []rune(s)
	var out []Field
	i := 0
	for i < len(rs) {
		start := i
		var c rune
		markup := false
		for i < len(rs) {
			c = rs[i]
			i++
			if c == '{' || c == '}' {
				markup = true
				break
			}
		}
		atEnd := i >= len(rs)
		n := i - start

		if c == '}' && markup && (atEnd || rs[i] != '}') {
			return nil, errSingleClose
		}
		if c == '{' && markup && atEnd {
			return nil, errSingleOpen
		}
		if markup {
			if rs[i] == c {
				// escaped brace
				i++
				markup = false
			} else {
				n--
			}
		}

		f := Field{Literal: string(rs[start : start+n])}
		if markup {
			var err error
			if i, err = parseField(rs, i, &f); err != nil {
				return nil, err
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func parseField(rs []rune, i int, f *Field) (int, error) {
	f.Present = true
	nameStart := i
	var c rune
	stop := false
	for i < len(rs) && !stop {
		c = rs[i]
		i++
		switch c {
		case '{':
			return i, errBraceInName
		case '[':
			for i < len(rs) && rs[i] != ']' {
				i++
			}
		case '}', ':', '!':
			stop = true
		}
	}
	if !stop {
		return i, errMissingClose
	}
	f.Name = string(rs[nameStart : i-1])
	if c == '}' {
		return i, nil
	}

	if c == '!' {
		if i >= len(rs) {
			return i, errNoConversion
		}
		f.Conversion = rs[i]
		i++
		if i < len(rs) {
			c = rs[i]
			i++
			if c == '}' {
				return i, nil
			}
			if c != ':' {
				return i, errAfterConversion
			}
		}
	}

	specStart := i
	depth := 1
	for i < len(rs) {
		c = rs[i]
		i++
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				f.Spec = string(rs[specStart : i-1])
				return i, nil
			}
		}
	}
	return i, errUnmatchedSpec
}

// Key strips attribute and index access from a field name: "a.b[0]" is "a".
func Key(name string) string {
	if k := strings.IndexByte(name, '.'); k >= 0 {
		name = name[:k]
	}
	if k := strings.IndexByte(name, '['); k >= 0 {
		name = name[:k]
	}
	return name
}

// parseIndex mirrors int(str): surrounding whitespace, an optional sign,
// Unicode decimal digits and single underscores between digits.
func parseIndex(s string) (string, bool) {
	s = strings.TrimFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return "", false
	}
	var digits strings.Builder
	prevDigit := false
	for _, r := range s {
		if r == '_' {
			if !prevDigit {
				return "", false
			}
			prevDigit = false
			continue
		}
		d, ok := digitValue(r)
		if !ok {
			return "", false
		}
		digits.WriteByte(byte('0' + d))
		prevDigit = true
	}
	if !prevDigit {
		return "", false
	}
	v, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return "", false
	}
	if neg {
		v.Neg(v)
	}
	return v.String(), true
}

// digitValue returns the decimal value of a Unicode Nd rune. Decimal digit
// ranges come in runs of ten starting at zero.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	if !unicode.Is(unicode.Nd, r) {
		return 0, false
	}
	for _, rg := range unicode.Nd.R16 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
			return int(r-rune(rg.Lo)) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
			return int(r-rune(rg.Lo)) % 10, true
		}
	}
	return 0, false
}
