package diag

import "testing"

func TestCodeIDs(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{UnusedImport, "F401"},
		{StringDotFormatInvalidFormat, "F521"},
		{RaiseNotImplemented, "F901"},
		{IOError, "E902"},
		{SyntaxError, "E999"},
		{UnknownCode, "F000"},
	}
	for _, tc := range cases {
		if got := tc.code.ID(); got != tc.want {
			t.Errorf("%s.ID() = %s, want %s", tc.code.Name(), got, tc.want)
		}
	}
}

func TestCodeTableIsConsistent(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Codes() {
		if seen[c.ID()] {
			t.Errorf("duplicate code %s", c.ID())
		}
		seen[c.ID()] = true
		if c.Name() == "Unknown" || c.Title() == "unknown diagnostic" {
			t.Errorf("%s has no table entry", c.ID())
		}
		if back, ok := ParseCode(c.ID()); !ok || back != c {
			t.Errorf("ParseCode(%s) = %v, %v", c.ID(), back, ok)
		}
		if back, ok := ParseCode(c.Name()); !ok || back != c {
			t.Errorf("ParseCode(%s) = %v, %v", c.Name(), back, ok)
		}
	}
	if _, ok := ParseCode("F999"); ok {
		t.Errorf("F999 must not parse")
	}
}

func TestCodeSeverity(t *testing.T) {
	if UndefinedName.Severity() != SevError {
		t.Errorf("undefined names are errors")
	}
	if UnusedImport.Severity() != SevWarning {
		t.Errorf("unused imports are warnings")
	}
}
