package diag

import "flakes/internal/source"

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

// NewDefault uses the code's default severity.
func NewDefault(code Code, primary source.Span, msg string) Diagnostic {
	return New(code.Severity(), code, primary, msg)
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithArgs(args ...string) Diagnostic {
	d.Args = append(d.Args, args...)
	return d
}
