package diag

import "testing"

func TestRepr(t *testing.T) {
	cases := []struct{ in, want string }{
		{"abc", `'abc'`},
		{"it's", `"it's"`},
		{`say "hi" it's`, `'say "hi" it\'s'`},
		{"tab\there", `'tab\there'`},
		{"\u00e9", "'\u00e9'"},
		{"\x00", `'\x00'`},
		{"\u200b", `'\u200b'`},
		{"\U0001f600", "'\U0001f600'"},
		{`a\b`, `'a\\b'`},
		{"\x7f", `'\x7f'`},
		{"\u00a0", `'\xa0'`},
		{"line\nbreak\r\n", `'line\nbreak\r\n'`},
		{"", `''`},
	}
	for _, tc := range cases {
		if got := Repr(tc.in); got != tc.want {
			t.Errorf("Repr(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestReprBytes(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a", `b'a'`},
		{"it's", `b"it's"`},
		{"\u00ff\x00", `b'\xff\x00'`},
	}
	for _, tc := range cases {
		if got := ReprBytes(tc.in); got != tc.want {
			t.Errorf("ReprBytes(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMessage(t *testing.T) {
	got := Message(RedefinedWhileUnused.Format(), "os", 3)
	if want := "redefinition of unused 'os' from line 3"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	got = Message(PercentFormatPositionalCountMismatch.Format(), 1, 2)
	if want := "'...' % ... has 1 placeholder(s) but 2 substitution(s)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	got = Message(MultiValueRepeatedKeyLiteral.Format(), Raw("b'k'"))
	if want := "dictionary key b'k' repeated with different values"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
