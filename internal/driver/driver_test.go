package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"flakes/internal/diag"
	"flakes/internal/pipeline"
	"flakes/internal/pyast"
	"flakes/internal/source"
	"flakes/internal/trace"
)

const (
	importOS   = "import os\n"
	passStmt   = "pass\n"
	badSyntax  = "def f(:\n"
	importTree = `{"_type":"Module","body":[{"_type":"Import","_pos":[1,0,1,9],"names":[{"_type":"alias","_pos":[1,7,1,9],"name":"os","asname":null}]}],"type_ignores":[]}`
	passTree   = `{"_type":"Module","body":[{"_type":"Pass","_pos":[1,0,1,4]}],"type_ignores":[]}`
)

// stubParser answers from canned trees keyed by source.
type stubParser struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (p *stubParser) Parse(ctx context.Context, src []byte, _ string) (*pyast.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.calls++
	fail := p.fail
	p.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	switch string(src) {
	case importOS:
		return pyast.DecodeBytes([]byte(importTree))
	case passStmt:
		return pyast.DecodeBytes([]byte(passTree))
	case badSyntax:
		return nil, &pyast.SyntaxError{Msg: "invalid syntax", Line: 1, Col: 7, Text: badSyntax}
	}
	return nil, fmt.Errorf("no canned tree for %q", src)
}

func (p *stubParser) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

// summarize renders diagnostics as "CODE base:line:col msg".
func summarize(res *Result) []string {
	bag, _ := res.Bag(0)
	var out []string
	for _, d := range bag.Items() {
		start := d.Primary.Start()
		out = append(out, fmt.Sprintf("%s %s:%d:%d %s", d.Code.ID(), filepath.Base(d.Filename), start.Line, start.Col, d.Message))
	}
	return out
}

func TestCheckFilesMixedOutcomes(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.py": importOS, "b.py": passStmt, "c.py": badSyntax})
	files := []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "b.py"),
		filepath.Join(dir, "c.py"),
		filepath.Join(dir, "missing.py"),
	}
	res, err := CheckFiles(context.Background(), files, Options{Parser: &stubParser{}, Jobs: 2})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := []string{
		"F401 a.py:1:1 'os' imported but unused",
		"E999 c.py:1:7 invalid syntax",
		"E902 missing.py:0:1 No such file or directory",
	}
	if diff := cmp.Diff(want, summarize(res)); diff != "" {
		t.Fatalf("diagnostics (-want +got):\n%s", diff)
	}
	if res.Count() != 3 {
		t.Fatalf("count = %d", res.Count())
	}
	syntax := res.Files[2].Bag.Items()[0]
	if diff := cmp.Diff([]string{"invalid syntax", badSyntax}, syntax.Args); diff != "" {
		t.Fatalf("syntax args (-want +got):\n%s", diff)
	}
	if missing := res.FileSet.Get(res.Files[3].FileID); missing == nil || missing.Flags&source.FileVirtual == 0 {
		t.Fatalf("unreadable file should get a placeholder entry")
	}
}

func TestResultBagTruncates(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.py": importOS, "b.py": importOS})
	res, err := CheckPaths(context.Background(), []string{dir}, Options{Parser: &stubParser{}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	bag, truncated := res.Bag(1)
	if bag.Len() != 1 || !truncated {
		t.Fatalf("len=%d truncated=%v", bag.Len(), truncated)
	}
	if bag.Items()[0].Filename != filepath.ToSlash(filepath.Join(dir, "a.py")) {
		t.Fatalf("first diagnostic from %s", bag.Items()[0].Filename)
	}
}

func TestCheckFilesUsesCache(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.py": importOS, "b.py": passStmt})
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	parser := &stubParser{}
	opts := Options{Parser: parser, Cache: cache, Builtins: []string{"x"}}

	first, err := CheckPaths(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	calls := parser.count()

	var counter pipeline.Counter
	opts.Progress = &counter
	second, err := CheckPaths(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if parser.count() != calls {
		t.Fatalf("cached run parsed again")
	}
	if second.Cached() != 2 || counter.Count(pipeline.StatusCached) != 2 {
		t.Fatalf("cached = %d, events = %d", second.Cached(), counter.Count(pipeline.StatusCached))
	}
	if diff := cmp.Diff(summarize(first), summarize(second)); diff != "" {
		t.Fatalf("cached diagnostics differ (-first +second):\n%s", diff)
	}

	// builtins are part of the key
	opts.Builtins = []string{"y"}
	if _, err := CheckPaths(context.Background(), []string{dir}, opts); err != nil {
		t.Fatal(err)
	}
	if parser.count() == calls {
		t.Fatalf("changed builtins should miss the cache")
	}
}

func TestMemCacheReusesUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.py": importOS, "b.py": passStmt})
	parser := &stubParser{}
	memo := NewMemCache(4)
	opts := Options{Parser: parser, Memo: memo}

	if _, err := CheckPaths(context.Background(), []string{dir}, opts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if parser.count() != 2 || memo.Len() != 2 {
		t.Fatalf("calls = %d, stored = %d", parser.count(), memo.Len())
	}

	// only the edited file is parsed again
	writeFiles(t, dir, map[string]string{"b.py": importOS})
	res, err := CheckPaths(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if parser.count() != 3 {
		t.Fatalf("calls = %d, want 3", parser.count())
	}
	if res.Cached() != 1 || res.Count() != 2 {
		t.Fatalf("cached = %d, count = %d", res.Cached(), res.Count())
	}

	var nilMemo *MemCache
	if _, ok := nilMemo.Get("a.py", Digest{}); ok {
		t.Fatalf("nil cache hit")
	}
}

func TestCheckFilesProgressEvents(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.py": importOS})
	path := filepath.Join(dir, "a.py")
	var (
		mu     sync.Mutex
		events []string
	)
	sink := pipeline.FuncSink(func(e pipeline.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, fmt.Sprintf("%s %s %s %d", filepath.Base(e.File), e.Stage, e.Status, e.Diagnostics))
	})
	if _, err := CheckFiles(context.Background(), []string{path}, Options{Parser: &stubParser{}, Progress: sink}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"a.py load queued 0",
		"a.py parse working 0",
		"a.py check working 0",
		"a.py check done 1",
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
}

func TestCheckFilesInfrastructureError(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.py": importOS})
	boom := errors.New("worker died")
	_, err := CheckPaths(context.Background(), []string{dir}, Options{Parser: &stubParser{fail: boom}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected worker error, got %v", err)
	}
	if _, err := CheckPaths(context.Background(), []string{dir}, Options{}); !errors.Is(err, ErrNoParser) {
		t.Fatalf("expected ErrNoParser, got %v", err)
	}
}

func TestCheckFilesCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.py": importOS})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CheckPaths(ctx, []string{dir}, Options{Parser: &stubParser{}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCheckSourceTraces(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddNormalized(StdinPath, []byte("import os\r\n"), source.FileVirtual)
	ring := trace.NewRingTracer(32, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)

	fr, err := CheckSource(ctx, fs, id, Options{Parser: &stubParser{}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if fr.Bag.Len() != 1 || fr.Bag.Items()[0].Filename != StdinPath {
		t.Fatalf("unexpected result: %+v", fr.Bag.Items())
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindSpanBegin {
			names = append(names, ev.Name)
		}
	}
	want := []string{"check-source", StdinPath, "parse", "check", "deferred", "dead-scopes"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("spans (-want +got):\n%s", diff)
	}
	if _, err := CheckSource(ctx, fs, 99, Options{Parser: &stubParser{}}); err == nil {
		t.Fatalf("expected an error for an unknown file id")
	}
}

func TestSyntaxErrorClampsColumn(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("x.py", []byte("(\n"))
	d := SyntaxErrorDiagnostic(fs.Get(id), &pyast.SyntaxError{Msg: "'(' was never closed", Line: 0, Col: -1})
	if start := d.Primary.Start(); start.Line != 1 || start.Col != 1 {
		t.Fatalf("position = %+v", start)
	}
	if d.Args[1] != "(" {
		t.Fatalf("line text = %q", d.Args[1])
	}
	if d.Code != diag.SyntaxError {
		t.Fatalf("code = %s", d.Code)
	}
}
