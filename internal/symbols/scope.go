package symbols

import (
	"errors"

	"flakes/internal/pyast"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid   ScopeKind = iota
	ScopeModule              // module body
	ScopeClass               // class body, invisible to nested functions
	ScopeFunction            // def and lambda bodies
	ScopeGenerator           // comprehensions and generator expressions
	ScopeTypeParam           // PEP 695 type parameters
	ScopeDoctest             // module-like scope for docstring examples
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeGenerator:
		return "generator"
	case ScopeTypeParam:
		return "type-param"
	case ScopeDoctest:
		return "doctest"
	default:
		return "invalid"
	}
}

// IsModule is true for module scopes, doctest scopes included.
func (k ScopeKind) IsModule() bool {
	return k == ScopeModule || k == ScopeDoctest
}

// ErrNotFound is returned by Remove when the name is not bound.
var ErrNotFound = errors.New("name not bound in scope")

// alwaysUsed are function locals read by tooling rather than code.
var alwaysUsed = []string{
	"__tracebackhide__",
	"__traceback_info__",
	"__traceback_supplement__",
	"__debuggerskip__",
}

type entry struct {
	name    string
	binding BindingID
	live    bool
}

// Scope maps names to their current binding. Iteration follows first
// insertion like a Python dict: rebinding keeps the slot, removing and
// re-adding moves the name to the end.
type Scope struct {
	Kind ScopeKind
	// Node is the tree node that opened the scope.
	Node pyast.NodeID

	entries []entry
	index   map[string]int
	live    int

	// ImportStarred is set once `from m import *` binds into the scope.
	ImportStarred bool

	// module scopes
	FuturesAllowed    bool
	AnnotationsFuture bool

	// function scopes
	Globals     map[string]struct{}
	UsesLocals  bool
	ReturnValue pyast.NodeID
}

// NewScope builds an empty scope of the given kind.
func NewScope(kind ScopeKind, node pyast.NodeID) Scope {
	s := Scope{
		Kind:  kind,
		Node:  node,
		index: make(map[string]int),
	}
	switch kind {
	case ScopeModule, ScopeDoctest:
		s.FuturesAllowed = true
	case ScopeFunction:
		s.Globals = make(map[string]struct{}, len(alwaysUsed))
		for _, name := range alwaysUsed {
			s.declareGlobal(name)
		}
	}
	return s
}

// Define binds name, replacing any current binding in place.
func (s *Scope) Define(name string, id BindingID) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[name]; ok {
		s.entries[i].binding = id
		return
	}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, entry{name: name, binding: id, live: true})
	s.live++
}

// Lookup returns the current binding of name.
func (s *Scope) Lookup(name string) (BindingID, bool) {
	i, ok := s.index[name]
	if !ok {
		return NoBindingID, false
	}
	return s.entries[i].binding, true
}

// Has reports whether name is bound.
func (s *Scope) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Remove unbinds name.
func (s *Scope) Remove(name string) error {
	i, ok := s.index[name]
	if !ok {
		return ErrNotFound
	}
	delete(s.index, name)
	s.entries[i].live = false
	s.live--
	if s.live == 0 {
		s.entries = s.entries[:0]
	}
	return nil
}

// Len returns the number of bound names.
func (s *Scope) Len() int {
	return s.live
}

// Each visits bound names in dict order until fn returns false.
// fn must not add or remove names.
func (s *Scope) Each(fn func(name string, id BindingID) bool) {
	for _, e := range s.entries {
		if e.live && !fn(e.name, e.binding) {
			return
		}
	}
}

// Names returns the bound names in dict order.
func (s *Scope) Names() []string {
	out := make([]string, 0, s.live)
	s.Each(func(name string, _ BindingID) bool {
		out = append(out, name)
		return true
	})
	return out
}

// IsGlobal reports a name declared global (or always used) in a function scope.
func (s *Scope) IsGlobal(name string) bool {
	_, ok := s.Globals[name]
	return ok
}

// declareGlobal marks name as exempt from the unused-variable scan.
func (s *Scope) declareGlobal(name string) {
	if s.Globals == nil {
		s.Globals = make(map[string]struct{})
	}
	s.Globals[name] = struct{}{}
}

// ForgetGlobal drops a `global` declaration, as `del` does.
func (s *Scope) ForgetGlobal(name string) {
	delete(s.Globals, name)
}
