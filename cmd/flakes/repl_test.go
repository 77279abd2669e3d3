package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/google/go-cmp/cmp"

	"flakes/internal/driver"
	"flakes/internal/pyast"
)

type scriptedReader struct {
	lines   []string
	errs    map[int]error
	prompts []string
	next    int
}

func (r *scriptedReader) SetPrompt(p string) { r.prompts = append(r.prompts, p) }

func (r *scriptedReader) Readline() (string, error) {
	i := r.next
	r.next++
	if err, ok := r.errs[i]; ok {
		return "", err
	}
	if i >= len(r.lines) {
		return "", io.EOF
	}
	return r.lines[i], nil
}

// snippetParser returns an empty module for anything but a broken def.
type snippetParser struct {
	sources []string
}

func (p *snippetParser) Parse(_ context.Context, src []byte, _ string) (*pyast.Tree, error) {
	p.sources = append(p.sources, string(src))
	lines := strings.Split(string(src), "\n")
	for i, line := range lines {
		if line == "def f(:" {
			return nil, &pyast.SyntaxError{Msg: "invalid syntax", Line: i + 1, Col: 7, Text: line}
		}
	}
	return pyast.DecodeBytes([]byte(`{"_type": "Module", "body": [], "type_ignores": []}`))
}

func TestREPLDropsBrokenSnippets(t *testing.T) {
	rl := &scriptedReader{
		lines: []string{"x = 1", "", "def f(:", "", "y", "  ", "z", "", "w"},
		errs:  map[int]error{7: readline.ErrInterrupt},
	}
	parser := &snippetParser{}
	var out bytes.Buffer
	if err := replLoop(context.Background(), rl, &out, driver.Options{Parser: parser}); err != nil {
		t.Fatalf("repl: %v", err)
	}

	want := "<repl>:2:7: invalid syntax\ndef f(:\n      ^\nKeyboardInterrupt\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
	// the interrupt cleared z; w is checked at EOF
	wantSources := []string{"x = 1\n", "x = 1\ndef f(:\n", "x = 1\ny\n", "x = 1\ny\nw\n"}
	if diff := cmp.Diff(wantSources, parser.sources); diff != "" {
		t.Fatalf("parsed sources (-want +got):\n%s", diff)
	}
	if rl.prompts[0] != ">>> " || rl.prompts[1] != "... " {
		t.Fatalf("prompts = %q", rl.prompts[:2])
	}
}
