package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"flakes/internal/pyast"
)

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Bindings uint }

// Table aggregates the scope and binding arenas of one checker run.
type Table struct {
	Scopes   *Scopes
	Bindings *Bindings
}

// NewTable builds a fresh table with optional capacity hints.
func NewTable(h Hints) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	bindCap, err := safecast.Conv[uint32](h.Bindings)
	if err != nil {
		panic(fmt.Errorf("binding capacity overflow: %w", err))
	}
	return &Table{
		Scopes:   NewScopes(scopeCap),
		Bindings: NewBindings(bindCap),
	}
}

// NewScope allocates an empty scope.
func (t *Table) NewScope(kind ScopeKind, node pyast.NodeID) ScopeID {
	return t.Scopes.New(NewScope(kind, node))
}

func (t *Table) Scope(id ScopeID) *Scope {
	return t.Scopes.Get(id)
}

func (t *Table) Binding(id BindingID) *Binding {
	return t.Bindings.Get(id)
}

// Lookup resolves name inside one scope to its binding.
func (t *Table) Lookup(scope ScopeID, name string) (*Binding, bool) {
	s := t.Scopes.Get(scope)
	if s == nil {
		return nil, false
	}
	id, ok := s.Lookup(name)
	if !ok {
		return nil, false
	}
	return t.Bindings.Get(id), true
}

// Entry pairs a name with its binding.
type Entry struct {
	Name    string
	Binding BindingID
}

// UnusedAssignments lists the assignments of a function scope that were never read.
// `_`, globals and scopes calling locals() are exempt.
func (t *Table) UnusedAssignments(scope ScopeID) []Entry {
	s := t.Scopes.Get(scope)
	if s == nil || s.UsesLocals {
		return nil
	}
	var out []Entry
	s.Each(func(name string, id BindingID) bool {
		b := t.Bindings.Get(id)
		if !b.Used.IsSet() && name != "_" && !s.IsGlobal(name) && b.Kind.IsAssignment() {
			out = append(out, Entry{Name: name, Binding: id})
		}
		return true
	})
	return out
}

// UnusedAnnotations lists bare annotations of a function scope that were never read.
func (t *Table) UnusedAnnotations(scope ScopeID) []Entry {
	s := t.Scopes.Get(scope)
	if s == nil {
		return nil
	}
	var out []Entry
	s.Each(func(name string, id BindingID) bool {
		b := t.Bindings.Get(id)
		if !b.Used.IsSet() && b.Kind == BindingAnnotation {
			out = append(out, Entry{Name: name, Binding: id})
		}
		return true
	})
	return out
}
