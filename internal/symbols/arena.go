package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// Scopes stores all allocated scopes in a compact slice-based arena.
type Scopes struct {
	data []Scope
}

// NewScopes creates an arena with optional capacity hint.
func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 16
	}
	return &Scopes{
		data: make([]Scope, 1, capacity+1), // index 0 reserved for NoScopeID
	}
}

// New allocates a scope and returns its ID.
func (s *Scopes) New(scope Scope) ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	s.data = append(s.data, scope)
	return ScopeID(value)
}

// Get returns the scope pointer or nil if ID is invalid.
func (s *Scopes) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports total number of scopes excluding the sentinel.
func (s *Scopes) Len() int { return len(s.data) - 1 }

// Bindings stores every binding ever created by a checker run.
// Bindings are never freed: a replaced binding can still be referenced
// from a diagnostic or an import's redefinition list.
type Bindings struct {
	data []Binding
}

// NewBindings creates a binding arena with optional capacity hint.
func NewBindings(capacity uint32) *Bindings {
	if capacity == 0 {
		capacity = 256
	}
	return &Bindings{
		data: make([]Binding, 1, capacity+1), // index 0 reserved for NoBindingID
	}
}

// New copies b into the arena and returns its ID.
func (s *Bindings) New(b Binding) BindingID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("bindings arena overflow: %w", err))
	}
	s.data = append(s.data, b)
	return BindingID(value)
}

// Get returns a binding pointer or nil for invalid ID.
// The pointer is only valid until the next New.
func (s *Bindings) Get(id BindingID) *Binding {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports number of stored bindings excluding sentinel.
func (s *Bindings) Len() int { return len(s.data) - 1 }
