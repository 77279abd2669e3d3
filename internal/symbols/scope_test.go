package symbols

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScopeDictOrder(t *testing.T) {
	s := NewScope(ScopeModule, 0)
	s.Define("a", 1)
	s.Define("b", 2)
	s.Define("c", 3)
	s.Define("a", 4) // rebinding keeps the slot

	if diff := cmp.Diff([]string{"a", "b", "c"}, s.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if id, _ := s.Lookup("a"); id != 4 {
		t.Fatalf("a = %d, want 4", id)
	}

	if err := s.Remove("b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	s.Define("b", 5)
	if diff := cmp.Diff([]string{"a", "c", "b"}, s.Names()); diff != "" {
		t.Fatalf("re-added name must move to the end (-want +got):\n%s", diff)
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestScopeRemoveMissing(t *testing.T) {
	s := NewScope(ScopeFunction, 0)
	if err := s.Remove("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	s.Define("x", 1)
	if err := s.Remove("x"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.Has("x") || s.Len() != 0 {
		t.Fatalf("x still bound")
	}
	s.Define("y", 2)
	if diff := cmp.Diff([]string{"y"}, s.Names()); diff != "" {
		t.Fatalf("names after emptying (-want +got):\n%s", diff)
	}
}

func TestScopeKindDefaults(t *testing.T) {
	mod := NewScope(ScopeModule, 0)
	if !mod.FuturesAllowed || mod.Globals != nil {
		t.Fatalf("module scope defaults: %+v", mod)
	}
	fn := NewScope(ScopeFunction, 0)
	if !fn.IsGlobal("__tracebackhide__") || !fn.IsGlobal("__debuggerskip__") {
		t.Fatalf("function scope must pre-declare the always-used locals")
	}
	fn.declareGlobal("g")
	fn.ForgetGlobal("g")
	if fn.IsGlobal("g") {
		t.Fatalf("ForgetGlobal did not drop g")
	}
	if !ScopeDoctest.IsModule() || ScopeClass.IsModule() {
		t.Fatalf("doctest scopes behave like modules, class scopes do not")
	}
}
