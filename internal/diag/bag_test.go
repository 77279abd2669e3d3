package diag

import (
	"testing"

	"flakes/internal/source"
)

func at(line, col uint32) source.Span {
	return source.At(0, line, col)
}

func TestBagLimitAndSort(t *testing.T) {
	b := NewBag(3)
	b.Add(NewDefault(UnusedImport, at(4, 0), "a"))
	b.Add(NewDefault(UndefinedName, at(2, 5), "b"))
	b.Add(NewDefault(UnusedVariable, at(2, 1), "c"))
	if b.Add(NewDefault(UnusedVariable, at(1, 1), "d")) {
		t.Fatalf("limit of 3 not enforced")
	}
	b.Sort()
	var got string
	for _, d := range b.Items() {
		got += d.Message
	}
	if got != "cba" {
		t.Fatalf("sorted order = %q", got)
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("expected both errors and warnings")
	}
}

func TestBagFilterAndMerge(t *testing.T) {
	b := NewBag(0)
	b.Add(NewDefault(UndefinedName, at(1, 0), "x").WithArgs("x"))
	b.Add(NewDefault(UndefinedName, at(2, 0), "y").WithArgs("y"))
	b.Add(NewDefault(UnusedImport, at(3, 0), "x").WithArgs("x"))

	b.Filter(func(d Diagnostic) bool {
		return d.Code != UndefinedName || d.Args[0] != "x"
	})
	if b.Len() != 2 || b.Items()[0].Args[0] != "y" {
		t.Fatalf("filter result = %+v", b.Items())
	}

	other := NewBag(0)
	other.Add(NewDefault(UnusedImport, at(3, 0), "x"))
	b.Merge(other)
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("dedup left %d items", b.Len())
	}
}

func TestFormatGoldenDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		NewDefault(UnusedImport, at(3, 0), "'os' imported but unused"),
		NewDefault(RedefinedWhileUnused, at(2, 4), "redefinition of unused 'f' from line 1").
			WithNote(at(1, 0), "first definition"),
	}
	for i := range diags {
		diags[i].Filename = "./pkg/mod.py"
	}
	want := "F811 pkg/mod.py:2:5 redefinition of unused 'f' from line 1\n" +
		"  note pkg/mod.py:1:1 first definition\n" +
		"F401 pkg/mod.py:3:1 'os' imported but unused"
	if got := FormatGoldenDiagnostics(diags, nil, true); got != want {
		t.Fatalf("unexpected golden output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}
