package diag

import (
	"fmt"
)

// Code identifies a diagnostic kind. Values below 1000 are the pyflakes "F"
// numbers; 1000 and above are "E" codes offset by 1000.
type Code uint16

const (
	UnknownCode Code = 0

	// imports
	UnusedImport            Code = 401
	ImportShadowedByLoopVar Code = 402
	ImportStarUsed          Code = 403
	LateFutureImport        Code = 404
	ImportStarUsage         Code = 405
	ImportStarNotPermitted  Code = 406
	FutureFeatureNotDefined Code = 407

	// % format
	PercentFormatInvalidFormat              Code = 501
	PercentFormatExpectedMapping            Code = 502
	PercentFormatExpectedSequence           Code = 503
	PercentFormatExtraNamedArguments        Code = 504
	PercentFormatMissingArgument            Code = 505
	PercentFormatMixedPositionalAndNamed    Code = 506
	PercentFormatPositionalCountMismatch    Code = 507
	PercentFormatStarRequiresSequence       Code = 508
	PercentFormatUnsupportedFormatCharacter Code = 509

	// str.format
	StringDotFormatExtraNamedArguments      Code = 522
	StringDotFormatExtraPositionalArguments Code = 523
	StringDotFormatMissingArgument          Code = 524
	StringDotFormatMixingAutomatic          Code = 525
	StringDotFormatInvalidFormat            Code = 521
	FStringMissingPlaceholders              Code = 541

	// literals and statements
	MultiValueRepeatedKeyLiteral          Code = 601
	MultiValueRepeatedKeyVariable         Code = 602
	TooManyExpressionsInStarredAssignment Code = 621
	TwoStarredExpressions                 Code = 622
	AssertTuple                           Code = 631
	IsLiteral                             Code = 632
	InvalidPrintSyntax                    Code = 633
	IfTuple                               Code = 634
	BreakOutsideLoop                      Code = 701
	ContinueOutsideLoop                   Code = 702
	YieldOutsideFunction                  Code = 704
	ReturnOutsideFunction                 Code = 706
	DefaultExceptNotLast                  Code = 707
	DoctestSyntaxError                    Code = 721
	ForwardAnnotationSyntaxError          Code = 722

	// names
	RedefinedWhileUnused Code = 811
	UndefinedName        Code = 821
	UndefinedExport      Code = 822
	UndefinedLocal       Code = 823
	DuplicateArgument    Code = 831
	UnusedVariable       Code = 841
	UnusedAnnotation     Code = 842
	RaiseNotImplemented  Code = 901

	// driver
	IOError     Code = 1902
	SyntaxError Code = 1999
)

type codeEntry struct {
	code     Code
	name     string
	format   string
	title    string
	severity Severity
}

// codeTable lists every kind with its message template (Python %-style).
var codeTable = []codeEntry{
	{UnusedImport, "UnusedImport", "%r imported but unused", "module imported but unused", SevWarning},
	{ImportShadowedByLoopVar, "ImportShadowedByLoopVar", "import %r from line %r shadowed by loop variable", "import shadowed by loop variable", SevWarning},
	{ImportStarUsed, "ImportStarUsed", "'from %s import *' used; unable to detect undefined names", "star import used", SevWarning},
	{LateFutureImport, "LateFutureImport", "from __future__ imports must occur at the beginning of the file", "late __future__ import", SevError},
	{ImportStarUsage, "ImportStarUsage", "%r may be undefined, or defined from star imports: %s", "name may come from a star import", SevWarning},
	{ImportStarNotPermitted, "ImportStarNotPermitted", "'from %s import *' only allowed at module level", "star import outside module scope", SevError},
	{FutureFeatureNotDefined, "FutureFeatureNotDefined", "future feature %s is not defined", "unknown __future__ feature", SevError},
	{PercentFormatInvalidFormat, "PercentFormatInvalidFormat", "'...' %% ... has invalid format string: %s", "invalid % format literal", SevWarning},
	{PercentFormatExpectedMapping, "PercentFormatExpectedMapping", "'...' %% ... expected mapping but got sequence", "% format expected mapping", SevWarning},
	{PercentFormatExpectedSequence, "PercentFormatExpectedSequence", "'...' %% ... expected sequence but got mapping", "% format expected sequence", SevWarning},
	{PercentFormatExtraNamedArguments, "PercentFormatExtraNamedArguments", "'...' %% ... has unused named argument(s): %s", "% format unused named arguments", SevWarning},
	{PercentFormatMissingArgument, "PercentFormatMissingArgument", "'...' %% ... is missing argument(s) for placeholder(s): %s", "% format missing arguments", SevWarning},
	{PercentFormatMixedPositionalAndNamed, "PercentFormatMixedPositionalAndNamed", "'...' %% ... has mixed positional and named placeholders", "% format mixes positional and named", SevWarning},
	{PercentFormatPositionalCountMismatch, "PercentFormatPositionalCountMismatch", "'...' %% ... has %d placeholder(s) but %d substitution(s)", "% format placeholder count mismatch", SevWarning},
	{PercentFormatStarRequiresSequence, "PercentFormatStarRequiresSequence", "'...' %% ... `*` specifier requires sequence", "% format `*` requires sequence", SevWarning},
	{PercentFormatUnsupportedFormatCharacter, "PercentFormatUnsupportedFormatCharacter", "'...' %% ... has unsupported format character %r", "% format unsupported character", SevWarning},
	{StringDotFormatExtraNamedArguments, "StringDotFormatExtraNamedArguments", "'...'.format(...) has unused named argument(s): %s", ".format unused named arguments", SevWarning},
	{StringDotFormatExtraPositionalArguments, "StringDotFormatExtraPositionalArguments", "'...'.format(...) has unused arguments at position(s): %s", ".format unused positional arguments", SevWarning},
	{StringDotFormatMissingArgument, "StringDotFormatMissingArgument", "'...'.format(...) is missing argument(s) for placeholder(s): %s", ".format missing arguments", SevWarning},
	{StringDotFormatMixingAutomatic, "StringDotFormatMixingAutomatic", "'...'.format(...) mixes automatic and manual numbering", ".format mixes automatic and manual numbering", SevWarning},
	{StringDotFormatInvalidFormat, "StringDotFormatInvalidFormat", "'...'.format(...) has invalid format string: %s", "invalid .format literal", SevWarning},
	{FStringMissingPlaceholders, "FStringMissingPlaceholders", "f-string is missing placeholders", "f-string without placeholders", SevWarning},
	{MultiValueRepeatedKeyLiteral, "MultiValueRepeatedKeyLiteral", "dictionary key %r repeated with different values", "repeated dictionary key", SevWarning},
	{MultiValueRepeatedKeyVariable, "MultiValueRepeatedKeyVariable", "dictionary key variable %s repeated with different values", "repeated dictionary key variable", SevWarning},
	{TooManyExpressionsInStarredAssignment, "TooManyExpressionsInStarredAssignment", "too many expressions in star-unpacking assignment", "too many expressions in star assignment", SevError},
	{TwoStarredExpressions, "TwoStarredExpressions", "two starred expressions in assignment", "two starred expressions", SevError},
	{AssertTuple, "AssertTuple", "assertion is always true, perhaps remove parentheses?", "assert on a tuple", SevWarning},
	{IsLiteral, "IsLiteral", "use ==/!= to compare constant literals (str, bytes, int, float, tuple)", "is-comparison with a literal", SevWarning},
	{InvalidPrintSyntax, "InvalidPrintSyntax", "use of >> is invalid with print function", "print >> syntax", SevError},
	{IfTuple, "IfTuple", "'if tuple literal' is always true, perhaps remove accidental comma?", "if on a tuple literal", SevWarning},
	{BreakOutsideLoop, "BreakOutsideLoop", "'break' outside loop", "break outside loop", SevError},
	{ContinueOutsideLoop, "ContinueOutsideLoop", "'continue' not properly in loop", "continue outside loop", SevError},
	{YieldOutsideFunction, "YieldOutsideFunction", "'yield' outside function", "yield outside function", SevError},
	{ReturnOutsideFunction, "ReturnOutsideFunction", "'return' outside function", "return outside function", SevError},
	{DefaultExceptNotLast, "DefaultExceptNotLast", "default 'except:' must be last", "bare except is not last", SevError},
	{DoctestSyntaxError, "DoctestSyntaxError", "syntax error in doctest", "doctest syntax error", SevError},
	{ForwardAnnotationSyntaxError, "ForwardAnnotationSyntaxError", "syntax error in forward annotation %r", "forward annotation syntax error", SevError},
	{RedefinedWhileUnused, "RedefinedWhileUnused", "redefinition of unused %r from line %r", "redefinition of unused name", SevWarning},
	{UndefinedName, "UndefinedName", "undefined name %r", "undefined name", SevError},
	{UndefinedExport, "UndefinedExport", "undefined name %r in __all__", "undefined name in __all__", SevError},
	{UndefinedLocal, "UndefinedLocal", "local variable %r defined in enclosing scope on line %r referenced before assignment", "local variable referenced before assignment", SevError},
	{DuplicateArgument, "DuplicateArgument", "duplicate argument %r in function definition", "duplicate argument", SevError},
	{UnusedVariable, "UnusedVariable", "local variable %r is assigned to but never used", "unused local variable", SevWarning},
	{UnusedAnnotation, "UnusedAnnotation", "local variable %r is annotated but never used", "unused local annotation", SevWarning},
	{RaiseNotImplemented, "RaiseNotImplemented", "'raise NotImplemented' should be 'raise NotImplementedError'", "raise NotImplemented", SevWarning},
	{IOError, "IOError", "%s", "file could not be read", SevError},
	{SyntaxError, "SyntaxError", "%s", "syntax error", SevError},
}

var codeIndex = func() map[Code]int {
	m := make(map[Code]int, len(codeTable))
	for i := range codeTable {
		m[codeTable[i].code] = i
	}
	return m
}()

func (c Code) entry() (codeEntry, bool) {
	i, ok := codeIndex[c]
	if !ok {
		return codeEntry{}, false
	}
	return codeTable[i], true
}

// ID is the flake8-style identifier, e.g. F401 or E999.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic == 0:
		return "F000"
	case ic >= 1000:
		return fmt.Sprintf("E%03d", ic-1000)
	default:
		return fmt.Sprintf("F%03d", ic)
	}
}

// Name is the kind tag, e.g. UnusedImport.
func (c Code) Name() string {
	if e, ok := c.entry(); ok {
		return e.name
	}
	return "Unknown"
}

// Format is the message template with Python %-style verbs.
func (c Code) Format() string {
	if e, ok := c.entry(); ok {
		return e.format
	}
	return "%s"
}

func (c Code) Title() string {
	if e, ok := c.entry(); ok {
		return e.title
	}
	return "unknown diagnostic"
}

// Severity is the default severity of the kind.
func (c Code) Severity() Severity {
	if e, ok := c.entry(); ok {
		return e.severity
	}
	return SevError
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Codes lists every known code in table order.
func Codes() []Code {
	out := make([]Code, len(codeTable))
	for i := range codeTable {
		out[i] = codeTable[i].code
	}
	return out
}

// ParseCode resolves an ID (F401) or a kind name (UnusedImport).
func ParseCode(s string) (Code, bool) {
	for i := range codeTable {
		if codeTable[i].name == s || codeTable[i].code.ID() == s {
			return codeTable[i].code, true
		}
	}
	return UnknownCode, false
}
