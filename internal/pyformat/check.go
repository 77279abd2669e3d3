package pyformat

import (
	"sort"
	"strconv"
	"strings"

	"flakes/internal/diag"
)

// Finding is a problem found in a format string. Args feed the code's message template.
type Finding struct {
	Code diag.Code
	Args []any
}

// Message renders the finding text.
func (f Finding) Message() string {
	return diag.Message(f.Code.Format(), f.Args...)
}

func finding(code diag.Code, args ...any) Finding {
	return Finding{Code: code, Args: args}
}

// OperandShape describes the right-hand side of a '%' expression as far as
// it can be known statically.
type OperandShape uint8

const (
	// OperandOther is anything that is not a literal tuple, list or dict.
	OperandOther OperandShape = iota
	// OperandSequence is a tuple or list literal without starred items.
	OperandSequence
	// OperandMapping is a dict literal whose keys are all string constants.
	OperandMapping
)

// Operand is the static view of the value substituted into a '%' template.
type Operand struct {
	Shape OperandShape
	Count int
	Keys  []string
}

// CheckPercent validates a "'...' % rhs" expression.
func CheckPercent(format string, rhs Operand) []Finding {
	chunks, err := ParsePercent(format)
	if err != nil {
		return []Finding{finding(diag.PercentFormatInvalidFormat, "incomplete format")}
	}

	var out []Finding
	named := map[string]struct{}{}
	positionalCount := 0
	decided, positional := false, false
	for _, ch := range chunks {
		d := ch.Directive
		if d == nil || d.Conversion == '%' {
			continue
		}
		if !validConversion(d.Conversion) {
			out = append(out, finding(diag.PercentFormatUnsupportedFormatCharacter, string(d.Conversion)))
		}
		if !decided {
			decided, positional = true, !d.HasKey
		}
		for _, part := range []string{d.Width, d.Precision} {
			if !strings.Contains(part, "*") {
				continue
			}
			if positional {
				positionalCount++
			} else {
				out = append(out, finding(diag.PercentFormatStarRequiresSequence))
			}
		}
		if positional == d.HasKey {
			return append(out, finding(diag.PercentFormatMixedPositionalAndNamed))
		}
		if positional {
			positionalCount++
		} else {
			named[d.Key] = struct{}{}
		}
	}

	switch rhs.Shape {
	case OperandSequence:
		if positional && positionalCount != rhs.Count {
			out = append(out, finding(diag.PercentFormatPositionalCountMismatch, positionalCount, rhs.Count))
		} else if !positional {
			out = append(out, finding(diag.PercentFormatExpectedMapping))
		}
	case OperandMapping:
		if positional && positionalCount > 1 {
			return append(out, finding(diag.PercentFormatExpectedSequence))
		}
		if positional {
			break
		}
		keys := make(map[string]struct{}, len(rhs.Keys))
		for _, k := range rhs.Keys {
			keys[k] = struct{}{}
		}
		if extra := difference(keys, named); len(extra) > 0 {
			out = append(out, finding(diag.PercentFormatExtraNamedArguments, strings.Join(extra, ", ")))
		}
		if missing := difference(named, keys); len(missing) > 0 {
			out = append(out, finding(diag.PercentFormatMissingArgument, strings.Join(missing, ", ")))
		}
	}
	return out
}

// CallArgs is the static view of a .format(...) call's arguments.
type CallArgs struct {
	Positional int
	Keywords   []string
	// Splat is set when the call passes *args or **kwargs.
	Splat bool
}

// placeholders collects the keys a template refers to.
type placeholders struct {
	auto       int8 // 0 undecided, 1 automatic, -1 manual
	next       int
	positional map[string]struct{}
	named      map[string]struct{}
}

// add records one field name; false means numbering styles were mixed.
func (p *placeholders) add(name string) bool {
	key := Key(name)
	if idx, ok := parseIndex(key); ok {
		if p.auto == 1 {
			return false
		}
		p.auto = -1
		p.positional[idx] = struct{}{}
		return true
	}
	if key == "" {
		if p.auto == -1 {
			return false
		}
		p.auto = 1
		p.positional[strconv.Itoa(p.next)] = struct{}{}
		p.next++
		return true
	}
	p.named[key] = struct{}{}
	return true
}

// CheckDotFormat validates a "'...'.format(...)" call.
func CheckDotFormat(format string, args CallArgs) []Finding {
	fields, err := ParseFormat(format)
	if err != nil {
		return []Finding{finding(diag.StringDotFormatInvalidFormat, err.Error())}
	}
	p := placeholders{
		positional: map[string]struct{}{},
		named:      map[string]struct{}{},
	}
	for _, f := range fields {
		if !f.Present {
			continue
		}
		if !p.add(f.Name) {
			return []Finding{finding(diag.StringDotFormatMixingAutomatic)}
		}
		nested, err := ParseFormat(f.Spec)
		if err != nil {
			return []Finding{finding(diag.StringDotFormatInvalidFormat, err.Error())}
		}
		for _, nf := range nested {
			if !nf.Present {
				continue
			}
			if strings.Contains(nf.Spec, "{") {
				return []Finding{finding(diag.StringDotFormatInvalidFormat, errRecursionTooDeep.Error())}
			}
			if !p.add(nf.Name) {
				return []Finding{finding(diag.StringDotFormatMixingAutomatic)}
			}
		}
	}

	if args.Splat {
		return nil
	}

	given := make(map[string]struct{}, args.Positional)
	for i := 0; i < args.Positional; i++ {
		given[strconv.Itoa(i)] = struct{}{}
	}
	givenNamed := make(map[string]struct{}, len(args.Keywords))
	for _, k := range args.Keywords {
		givenNamed[k] = struct{}{}
	}

	var out []Finding
	if extra := difference(given, p.positional); len(extra) > 0 {
		out = append(out, finding(diag.StringDotFormatExtraPositionalArguments, strings.Join(extra, ", ")))
	}
	if extra := difference(givenNamed, p.named); len(extra) > 0 {
		out = append(out, finding(diag.StringDotFormatExtraNamedArguments, strings.Join(extra, ", ")))
	}
	wanted := union(p.positional, p.named)
	if missing := difference(wanted, union(given, givenNamed)); len(missing) > 0 {
		out = append(out, finding(diag.StringDotFormatMissingArgument, strings.Join(missing, ", ")))
	}
	return out
}

// difference returns the sorted members of a that are not in b.
func difference(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func union(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}
