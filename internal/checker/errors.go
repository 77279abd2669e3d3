package checker

import (
	"fmt"

	"flakes/internal/pyast"
)

// UnknownNodeError reports a node kind the checker has no handler for.
// It is only returned when Options.StrictUnknownNodes is set.
type UnknownNodeError struct {
	Type string
	Node pyast.NodeID
	Pos  pyast.Pos
}

func (e *UnknownNodeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("unexpected node type %s at line %d, column %d", e.Type, e.Pos.Line, e.Pos.Col+1)
	}
	return "unexpected node type " + e.Type
}

// ContextError reports a Name whose context is neither Load, Store nor Del.
type ContextError struct {
	Context string
	Node    pyast.NodeID
}

func (e *ContextError) Error() string {
	return "impossible expression context " + e.Context
}
