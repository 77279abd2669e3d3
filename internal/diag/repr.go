package diag

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Repr renders s the way Python's repr() renders a str.
func Repr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte(quote)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&sb, "\\x%02x", s[i])
			i++
			continue
		}
		i += size
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteByte(quote)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, "\\x%02x", r)
		case r < 0x7f || unicode.IsPrint(r):
			sb.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&sb, "\\x%02x", r)
		case r <= 0xffff:
			fmt.Fprintf(&sb, "\\u%04x", r)
		default:
			fmt.Fprintf(&sb, "\\U%08x", r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

// ReprBytes renders a bytes value carried as latin-1 text the way Python's repr() does.
func ReprBytes(latin1 string) string {
	raw := make([]byte, 0, len(latin1))
	for _, r := range latin1 {
		raw = append(raw, byte(r))
	}
	quote := byte('\'')
	if strings.IndexByte(string(raw), '\'') >= 0 && strings.IndexByte(string(raw), '"') < 0 {
		quote = '"'
	}
	var sb strings.Builder
	sb.WriteString("b")
	sb.WriteByte(quote)
	for _, c := range raw {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == quote:
			sb.WriteByte('\\')
			sb.WriteByte(quote)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, "\\x%02x", c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

// Message expands a Python %-style template. %r quotes strings with Repr,
// %s and %d print their argument, %% is a literal percent.
// Arguments of type Raw are inserted verbatim under %r.
func Message(format string, args ...any) string {
	var sb strings.Builder
	n := 0
	next := func() any {
		if n >= len(args) {
			return "?"
		}
		a := args[n]
		n++
		return a
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case '%':
			sb.WriteByte('%')
		case 'r':
			switch a := next().(type) {
			case string:
				sb.WriteString(Repr(a))
			case Raw:
				sb.WriteString(string(a))
			default:
				fmt.Fprint(&sb, a)
			}
		case 's':
			fmt.Fprint(&sb, next())
		case 'd':
			switch a := next().(type) {
			case int:
				sb.WriteString(strconv.Itoa(a))
			default:
				fmt.Fprint(&sb, a)
			}
		default:
			sb.WriteByte('%')
			sb.WriteByte(format[i])
		}
	}
	return sb.String()
}

// Raw is an argument that is already a Python repr.
type Raw string
