package diag

import (
	"flakes/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	// Filename is the name the checker was given, echoed for reporters.
	Filename string
	// Args are the message arguments, already rendered.
	Args  []string
	Notes []Note
}
