package pyast

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func requirePython(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return path
}

func TestProcessParserRoundTrip(t *testing.T) {
	py := requirePython(t)
	p, err := NewProcessParser(py)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	tree, err := p.Parse(ctx, []byte("x = b'\\xff'\nprint(x)\n"), "a.py")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	assign := tree.List(tree.Root, "body")[0]
	v, ok := tree.Const(tree.Child(assign, "value"))
	if !ok || v.Const != ConstBytes || v.Str != "\u00ff" {
		t.Fatalf("bytes constant = %+v", v)
	}

	_, err = p.Parse(ctx, []byte("def (:\n"), "bad.py")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if se.Line != 1 || se.Col == 0 {
		t.Fatalf("syntax error position = %d:%d", se.Line, se.Col)
	}

	// the worker survives a syntax error
	if _, err := p.Parse(ctx, []byte("pass\n"), "ok.py"); err != nil {
		t.Fatalf("parse after error: %v", err)
	}
}

func TestPoolClosedContext(t *testing.T) {
	py := requirePython(t)
	pool, err := NewPool(context.Background(), py, 2)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Parse(ctx, []byte("pass\n"), "x.py"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
