package diagfmt

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"flakes/internal/diag"
	"flakes/internal/source"
)

const sample = "import os\n\ndef f():\n    return bar\n"

// newBag holds an unused import, an undefined name and a redefinition
// with a note, sorted by position.
func newBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSetWithBase("/work")
	id := fs.AddVirtual("/work/pkg/mod.py", []byte(sample))

	bag := diag.NewBag(0)
	bag.Add(diag.NewDefault(diag.UndefinedName,
		source.Span{File: id, Line: 4, Col: 11, EndLine: 4, EndCol: 14},
		"undefined name 'bar'").WithArgs("bar"))
	bag.Add(diag.NewDefault(diag.UnusedImport,
		source.Span{File: id, Line: 1, Col: 0, EndLine: 1, EndCol: 9},
		"'os' imported but unused").WithArgs("os"))
	bag.Add(diag.NewDefault(diag.RedefinedWhileUnused,
		source.Span{File: id, Line: 3, Col: 0, EndLine: 4, EndCol: 14},
		"redefinition of unused 'os' from line 1").
		WithNote(source.Span{File: id, Line: 1, Col: 0, EndLine: 1, EndCol: 9}, "'os' first bound here"))
	bag.Sort()
	return bag, fs
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"pretty", "short", "JSON", "sarif", "junit"} {
		f, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", name, err)
		}
		if !strings.EqualFold(f.String(), name) {
			t.Fatalf("round trip %q -> %s", name, f)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestShort(t *testing.T) {
	bag, fs := newBag(t)
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, ShortOpts{PathMode: PathModeRelative}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"pkg/mod.py:1:1: 'os' imported but unused",
		"pkg/mod.py:3:1: redefinition of unused 'os' from line 1",
		"pkg/mod.py:4:12: undefined name 'bar'",
	}
	if diff := cmp.Diff(want, strings.Split(strings.TrimSpace(buf.String()), "\n")); diff != "" {
		t.Fatalf("short output (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := Short(&buf, bag, fs, ShortOpts{PathMode: PathModeBasename, WithCode: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "mod.py:1:1: F401 'os'") {
		t.Fatalf("flake8 style output:\n%s", buf.String())
	}
}

func TestShortSyntaxErrorAndIOError(t *testing.T) {
	syntax := diag.NewDefault(diag.SyntaxError, source.At(0, 2, 6), "invalid syntax").
		WithArgs("invalid syntax", "  x = = 1\n")
	syntax.Filename = "bad.py"
	missing := diag.NewDefault(diag.IOError, source.Span{}, "No such file or directory")
	missing.Filename = "bad.py"
	bag := diag.NewBag(0)
	bag.Add(syntax)
	bag.Add(missing)
	var buf bytes.Buffer
	if err := Short(&buf, bag, nil, ShortOpts{}); err != nil {
		t.Fatal(err)
	}
	want := "bad.py:2:7: invalid syntax\n" +
		"  x = = 1\n" +
		"      ^\n" +
		"bad.py: No such file or directory\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}
}

func TestPretty(t *testing.T) {
	bag, fs := newBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeRelative, Context: 1, ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"pkg/mod.py:4:12: error[F821]: undefined name 'bar'\n",
		"   3 | def f():\n",
		"   4 |     return bar\n",
		"     |            ^~~\n",
		"pkg/mod.py:1:1: warning[F401]: 'os' imported but unused\n",
		"     | ^~~~~~~~~\n",
		"  note: pkg/mod.py:1:1: 'os' first bound here\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("colour codes with Color=false:\n%s", out)
	}
}

func TestPrettyWideRunes(t *testing.T) {
	if got := padTo("\ta界"); got != "\t"+" "+"  " {
		t.Fatalf("padTo = %q", got)
	}
	if got := clip("abcdef", 4); got != "abc…" {
		t.Fatalf("clip = %q", got)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := newBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{PathMode: PathModeRelative, Max: 2, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || !out.Truncated {
		t.Fatalf("count=%d truncated=%v", out.Count, out.Truncated)
	}
	want := DiagnosticJSON{
		Severity: "WARNING",
		Code:     "F401",
		Kind:     "UnusedImport",
		Message:  "'os' imported but unused",
		Args:     []string{"os"},
		Location: LocationJSON{File: "pkg/mod.py", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 10},
	}
	if diff := cmp.Diff(want, out.Diagnostics[0]); diff != "" {
		t.Fatalf("first diagnostic (-want +got):\n%s", diff)
	}
	if len(out.Diagnostics[1].Notes) != 1 {
		t.Fatalf("notes lost: %+v", out.Diagnostics[1])
	}
}

func TestSarif(t *testing.T) {
	bag, fs := newBag(t)
	var buf bytes.Buffer
	meta := SarifRunMeta{ToolVersion: "1.2.3", InvocationArgs: []string{"check", "."}, PathMode: PathModeRelative}
	if err := Sarif(&buf, bag, fs, meta); err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("bad envelope: %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "flakes" || len(run.Tool.Driver.Rules) != len(diag.Codes()) {
		t.Fatalf("driver = %+v", run.Tool.Driver.Name)
	}
	var ids []string
	for _, r := range run.Results {
		ids = append(ids, r.RuleID)
		if got := run.Tool.Driver.Rules[r.RuleIndex].ID; got != r.RuleID {
			t.Fatalf("rule index of %s points at %s", r.RuleID, got)
		}
	}
	if diff := cmp.Diff([]string{"F401", "F811", "F821"}, ids); diff != "" {
		t.Fatalf("results (-want +got):\n%s", diff)
	}
	if uri := run.Results[0].Locations[0].Physical.Artifact.URI; uri != "pkg/mod.py" {
		t.Fatalf("uri = %q", uri)
	}
	if len(run.Results[1].RelatedLocations) != 1 {
		t.Fatalf("related locations lost")
	}
}

func TestJUnit(t *testing.T) {
	bag, fs := newBag(t)
	var buf bytes.Buffer
	if err := JUnit(&buf, bag, fs, JUnitOpts{PathMode: PathModeRelative}); err != nil {
		t.Fatal(err)
	}
	var doc junitSuites
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid XML: %v\n%s", err, buf.String())
	}
	if doc.Tests != 3 || doc.Failures != 3 || len(doc.Suites) != 1 {
		t.Fatalf("totals: %+v", doc)
	}
	if got := doc.Suites[0].Cases[2].Failure.Type; got != "F821" {
		t.Fatalf("third failure type = %q", got)
	}
}

func TestRenderEmptyBag(t *testing.T) {
	for _, f := range []Format{FormatPretty, FormatShort} {
		var buf bytes.Buffer
		if err := Render(&buf, f, diag.NewBag(0), nil, RenderOpts{}); err != nil {
			t.Fatal(err)
		}
		if buf.Len() != 0 {
			t.Fatalf("%s: expected no output, got %q", f, buf.String())
		}
	}
}
