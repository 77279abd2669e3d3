package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"flakes/internal/diag"
	"flakes/internal/pyast"
	"flakes/internal/source"
	"flakes/internal/symbols"
	"flakes/internal/testkit"
)

// parseEntry is one recorded re-parse: a string annotation or a doctest
// example, with either its tree or the interpreter's syntax error.
type parseEntry struct {
	Source string          `json:"source"`
	Tree   json.RawMessage `json:"tree"`
	Error  *struct {
		Msg    string `json:"msg"`
		Lineno int    `json:"lineno"`
		Offset int    `json:"offset"`
	} `json:"error"`
}

// fakeParser answers from recorded parses, keyed by source.
type fakeParser struct {
	t       *testing.T
	entries map[string]parseEntry
	calls   []string
}

func (p *fakeParser) Parse(_ context.Context, src []byte, _ string) (*pyast.Tree, error) {
	p.calls = append(p.calls, string(src))
	e, ok := p.entries[string(src)]
	if !ok {
		p.t.Errorf("unexpected parse of %q", src)
		return nil, fmt.Errorf("no recorded parse for %q", src)
	}
	if e.Error != nil {
		return nil, &pyast.SyntaxError{Msg: e.Error.Msg, Line: e.Error.Lineno, Col: e.Error.Offset}
	}
	return pyast.DecodeBytes(e.Tree)
}

type goldenCase struct {
	opts   Options
	input  string
	want   string
	tree   *pyast.Tree
	parser *fakeParser
}

func loadCase(t *testing.T, path string) goldenCase {
	t.Helper()
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	gc := goldenCase{
		opts:   Options{Filename: "input.py"},
		parser: &fakeParser{t: t, entries: map[string]parseEntry{}},
	}
	for _, f := range ar.Files {
		switch f.Name {
		case "options":
			for _, line := range strings.Split(strings.TrimSpace(string(f.Data)), "\n") {
				key, val, _ := strings.Cut(line, ":")
				val = strings.TrimSpace(val)
				switch key {
				case "filename":
					gc.opts.Filename = val
				case "doctest":
					gc.opts.WithDoctest = val == "true"
				case "builtins":
					gc.opts.ExtraBuiltins = strings.Fields(val)
				default:
					t.Fatalf("%s: unknown option %q", path, key)
				}
			}
		case "input.py":
			gc.input = string(f.Data)
		case "want":
			gc.want = strings.TrimRight(string(f.Data), "\n")
		case "tree.json":
			gc.tree, err = pyast.DecodeBytes(f.Data)
			if err != nil {
				t.Fatalf("%s: decode tree: %v", path, err)
			}
		case "parse.json":
			var entries []parseEntry
			if err := json.Unmarshal(f.Data, &entries); err != nil {
				t.Fatalf("%s: decode parses: %v", path, err)
			}
			for _, e := range entries {
				gc.parser.entries[e.Source] = e
			}
		}
	}
	if gc.tree == nil {
		t.Fatalf("%s: no tree.json", path)
	}
	gc.opts.Parser = gc.parser
	return gc
}

func TestGolden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no golden cases")
	}
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")
		t.Run(name, func(t *testing.T) {
			gc := loadCase(t, path)
			fs := source.NewFileSet()
			if err := testkit.CheckTreePositions(gc.tree, fs.Get(fs.AddVirtual("input.py", []byte(gc.input)))); err != nil {
				t.Fatalf("tree.json does not match input.py: %v", err)
			}
			res, err := Check(context.Background(), gc.tree, gc.opts)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			got := diag.FormatGoldenDiagnostics(res.Diagnostics, nil, false)
			if diff := cmp.Diff(strings.Split(gc.want, "\n"), strings.Split(got, "\n")); diff != "" {
				t.Fatalf("diagnostics mismatch (-want +got):\n%s\ninput:\n%s", diff, gc.input)
			}
		})
	}
}

func TestWithoutParserSkipsStringAnnotations(t *testing.T) {
	gc := loadCase(t, filepath.Join("testdata", "annotations.txtar"))
	gc.opts.Parser = nil
	res, err := Check(context.Background(), gc.tree, gc.opts)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, d := range res.Diagnostics {
		if d.Code == diag.ForwardAnnotationSyntaxError {
			t.Fatalf("string annotation was parsed without a parser: %s", d.Message)
		}
	}
}

func TestDoctestsOnlyWhenEnabled(t *testing.T) {
	gc := loadCase(t, filepath.Join("testdata", "doctests.txtar"))
	gc.opts.WithDoctest = false
	res, err := Check(context.Background(), gc.tree, gc.opts)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	// os is only used by an example
	got := diag.FormatGoldenDiagnostics(res.Diagnostics, nil, false)
	if want := "F401 input.py:1:1 'os' imported but unused"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if len(gc.parser.calls) != 0 {
		t.Fatalf("parser called for %q", gc.parser.calls)
	}
}

func decode(t *testing.T, src string) *pyast.Tree {
	t.Helper()
	tree, err := pyast.DecodeBytes([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return tree
}

func TestCheckRejectsNonModule(t *testing.T) {
	tree := decode(t, `{"_type": "Expression", "body": {"_type": "Name", "_pos": [1,0,1,1], "id": "x", "ctx": {"_type": "Load"}}}`)
	_, err := Check(context.Background(), tree, Options{})
	if !errors.Is(err, ErrNotModule) {
		t.Fatalf("expected ErrNotModule, got %v", err)
	}
	if _, err := Check(context.Background(), nil, Options{}); !errors.Is(err, ErrNotModule) {
		t.Fatalf("nil tree: expected ErrNotModule, got %v", err)
	}
}

const unknownNodeTree = `{"_type": "Module", "body": [
	{"_type": "Frobnicate", "_pos": [1,0,1,5], "value": {"_type": "Name", "_pos": [1,2,1,5], "id": "foo", "ctx": {"_type": "Load"}}}
], "type_ignores": []}`

func TestUnknownNodeWalksChildren(t *testing.T) {
	res, err := Check(context.Background(), decode(t, unknownNodeTree), Options{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	got := diag.FormatGoldenDiagnostics(res.Diagnostics, nil, false)
	if want := "F821 (none):1:3 undefined name 'foo'"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUnknownNodeStrict(t *testing.T) {
	_, err := Check(context.Background(), decode(t, unknownNodeTree), Options{StrictUnknownNodes: true})
	var une *UnknownNodeError
	if !errors.As(err, &une) {
		t.Fatalf("expected UnknownNodeError, got %v", err)
	}
	if une.Type != "Frobnicate" {
		t.Fatalf("type = %q", une.Type)
	}
	if want := "unexpected node type Frobnicate at line 1, column 1"; une.Error() != want {
		t.Fatalf("message = %q, want %q", une.Error(), want)
	}
}

func TestImpossibleContext(t *testing.T) {
	tree := decode(t, `{"_type": "Module", "body": [
		{"_type": "Expr", "_pos": [1,0,1,1], "value": {"_type": "Name", "_pos": [1,0,1,1], "id": "x", "ctx": {"_type": "AugLoad"}}}
	], "type_ignores": []}`)
	_, err := Check(context.Background(), tree, Options{})
	var ce *ContextError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ContextError, got %v", err)
	}
}

// type A[T] = dict[T, Missing]
const typeAliasTree = `{"_type": "Module", "body": [
	{"_type": "TypeAlias", "_pos": [1,0,1,28],
	 "name": {"_type": "Name", "_pos": [1,5,1,6], "id": "A", "ctx": {"_type": "Store"}},
	 "type_params": [{"_type": "TypeVar", "_pos": [1,7,1,8], "name": "T", "bound": null}],
	 "value": {"_type": "Subscript", "_pos": [1,12,1,28],
	   "value": {"_type": "Name", "_pos": [1,12,1,16], "id": "dict", "ctx": {"_type": "Load"}},
	   "slice": {"_type": "Tuple", "_pos": [1,17,1,27], "elts": [
	     {"_type": "Name", "_pos": [1,17,1,18], "id": "T", "ctx": {"_type": "Load"}},
	     {"_type": "Name", "_pos": [1,20,1,27], "id": "Missing", "ctx": {"_type": "Load"}}
	   ], "ctx": {"_type": "Load"}},
	   "ctx": {"_type": "Load"}}}
], "type_ignores": []}`

func TestTypeAliasScopesParameters(t *testing.T) {
	res, err := Check(context.Background(), decode(t, typeAliasTree), Options{Filename: "alias.py"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	got := diag.FormatGoldenDiagnostics(res.Diagnostics, nil, false)
	if want := "F821 alias.py:1:21 undefined name 'Missing'"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if res.Deferred != 1 {
		t.Fatalf("deferred = %d, want 1", res.Deferred)
	}
}

func TestReporterAndNotes(t *testing.T) {
	gc := loadCase(t, filepath.Join("testdata", "redefinition.txtar"))
	bag := diag.NewBag(100)
	gc.opts.Reporter = diag.BagReporter{Bag: bag}
	res, err := Check(context.Background(), gc.tree, gc.opts)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if bag.Len() != len(res.Diagnostics) {
		t.Fatalf("reporter got %d diagnostics, result has %d", bag.Len(), len(res.Diagnostics))
	}
	var notes []string
	for _, d := range res.Diagnostics {
		if d.Code != diag.RedefinedWhileUnused {
			continue
		}
		for _, n := range d.Notes {
			notes = append(notes, fmt.Sprintf("%d: %s", n.Span.Line, n.Msg))
		}
	}
	want := []string{
		"1: 'fu' first bound here",
		"5: 'a' first bound here",
		"8: 'B' first bound here",
		"12: 'mixer' first bound here",
	}
	if diff := cmp.Diff(want, notes); diff != "" {
		t.Fatalf("notes (-want +got):\n%s", diff)
	}
}

func TestCancelledContext(t *testing.T) {
	gc := loadCase(t, filepath.Join("testdata", "locals.txtar"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Check(ctx, gc.tree, gc.opts); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDeadScopesAndTable(t *testing.T) {
	gc := loadCase(t, filepath.Join("testdata", "imports.txtar"))
	res, err := Check(context.Background(), gc.tree, gc.opts)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	// f's type parameters close first; its body is deferred and closes
	// after C, just before the module
	var kinds []symbols.ScopeKind
	for _, id := range res.DeadScopes {
		kinds = append(kinds, res.Table.Scope(id).Kind)
	}
	want := []symbols.ScopeKind{
		symbols.ScopeTypeParam,
		symbols.ScopeClass,
		symbols.ScopeTypeParam,
		symbols.ScopeFunction,
		symbols.ScopeModule,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("dead scope kinds (-want +got):\n%s", diff)
	}
	module := res.Table.Scope(res.DeadScopes[len(res.DeadScopes)-1])
	if !module.Has("OrderedDict") || !module.Has("FU") {
		t.Fatalf("module scope lost imports")
	}
}
