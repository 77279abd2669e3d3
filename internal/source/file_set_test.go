package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("mod.py", []byte("x = 1\n"), 0)
	id2 := fs.Add("mod.py", []byte("x = 2\n"), 0)
	if id1 == id2 {
		t.Fatalf("expected a new FileID for the second version")
	}

	// индекс указывает на последнюю версию
	latest, ok := fs.GetLatest("mod.py")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "x = 1\n" {
		t.Fatalf("old version content = %q", got)
	}
	if fs.Get(id1).Hash == fs.Get(id2).Hash {
		t.Fatalf("different content must hash differently")
	}
	if fs.Len() != 2 || len(fs.Files()) != 2 {
		t.Fatalf("expected two files in the set")
	}
	if fs.Get(FileID(7)) != nil {
		t.Fatalf("out of range id must yield nil")
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("<stdin>", []byte("import os\n\ndef f():\n    pass")))

	cases := map[uint32]string{
		0: "",
		1: "import os",
		2: "",
		3: "def f():",
		4: "    pass",
		5: "",
	}
	for line, want := range cases {
		if got := f.GetLine(line); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", line, got, want)
		}
	}
}

func TestPosition(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("a.py", []byte("ab\ncd\x00e\n")))
	if got := f.Position(5); got != (LineCol{Line: 2, Col: 3}) {
		t.Fatalf("Position(5) = %+v", got)
	}
	if got := f.Position(1); got != (LineCol{Line: 1, Col: 2}) {
		t.Fatalf("Position(1) = %+v", got)
	}
}

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.py")
	content := []byte("\xEF\xBB\xBFx = 1\r\ny = 2\r\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "x = 1\ny = 2\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
	if f.GetLine(2) != "y = 2" {
		t.Fatalf("line 2 = %q", f.GetLine(2))
	}
}

func TestAddNormalizedKeepsFlags(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddNormalized("<stdin>", []byte("a = 1\r\n"), FileVirtual)
	f := fs.Get(id)
	if string(f.Content) != "a = 1\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileVirtual == 0 || f.Flags&FileNormalizedCRLF == 0 || f.Flags&FileHadBOM != 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
}

func TestLoadMissing(t *testing.T) {
	fs := NewFileSet()
	if _, err := fs.Load(filepath.Join(t.TempDir(), "nope.py")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestSpanOrderingAndShift(t *testing.T) {
	a := At(0, 3, 4)
	b := At(0, 3, 9)
	c := At(1, 1, 0)
	if !a.Before(b) || b.Before(a) || !b.Before(c) {
		t.Fatalf("unexpected ordering")
	}
	if got := a.Start(); got != (LineCol{Line: 3, Col: 5}) {
		t.Fatalf("Start = %+v", got)
	}
	shifted := a.Shift(10, 8)
	if shifted.Line != 13 || shifted.Col != 12 || shifted.EndLine != 13 {
		t.Fatalf("Shift = %+v", shifted)
	}
	if (Span{}).Shift(1, 1).IsValid() {
		t.Fatalf("shifting an invalid span must keep it invalid")
	}
	cover := a.Cover(Span{File: 0, Line: 2, Col: 0, EndLine: 5, EndCol: 1})
	if cover.Line != 2 || cover.EndLine != 5 {
		t.Fatalf("Cover = %+v", cover)
	}
}

func TestFormatPath(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("pkg/mod.py", nil))
	if got := f.FormatPath("basename", ""); got != "mod.py" {
		t.Fatalf("basename = %q", got)
	}
	if got := f.FormatPath("auto", ""); got != "pkg/mod.py" {
		t.Fatalf("auto = %q", got)
	}
}
