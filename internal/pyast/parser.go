package pyast

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"
)

//go:embed dump.py
var dumpScript string

// Parser turns Python source into a Tree.
type Parser interface {
	Parse(ctx context.Context, src []byte, filename string) (*Tree, error)
}

// SyntaxError is returned when the interpreter rejects the source.
// Line is 1-based, Col is CPython's 1-based offset (0 when unknown).
type SyntaxError struct {
	Msg  string
	Line int
	Col  int
	Text string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (line %d, column %d)", e.Msg, e.Line, e.Col)
}

// ErrParserClosed is returned by a parser after Close.
var ErrParserClosed = errors.New("parser is closed")

type parseRequest struct {
	ID       uint64 `json:"id"`
	Filename string `json:"filename"`
	Source   []byte `json:"source"`
}

type parseResponse struct {
	ID    uint64          `json:"id"`
	Tree  json.RawMessage `json:"tree"`
	Error *struct {
		Msg    string  `json:"msg"`
		Lineno int     `json:"lineno"`
		Offset int     `json:"offset"`
		Text   *string `json:"text"`
	} `json:"error"`
}

// ProcessParser drives one long-lived interpreter process.
// Requests are serialised, so it is safe for concurrent use.
type ProcessParser struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    *bufio.Reader
	nextID uint64
	closed bool
}

// NewProcessParser starts `python -c <worker>`.
func NewProcessParser(python string) (*ProcessParser, error) {
	if python == "" {
		python = "python3"
	}
	cmd := exec.Command(python, "-c", dumpScript)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", python, err)
	}
	return &ProcessParser{
		cmd:   cmd,
		stdin: stdin,
		out:   bufio.NewReaderSize(stdout, 1<<16),
	}, nil
}

func (p *ProcessParser) Parse(ctx context.Context, src []byte, filename string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrParserClosed
	}
	p.nextID++
	req := parseRequest{ID: p.nextID, Filename: filename, Source: src}
	line, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	line = append(line, '\n')

	// a blocked pipe read cannot observe ctx, so cancellation kills the worker
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = p.cmd.Process.Kill()
		case <-done:
		}
	}()

	if _, err := p.stdin.Write(line); err != nil {
		p.closed = true
		return nil, fmt.Errorf("write to worker: %w", err)
	}
	raw, err := p.out.ReadBytes('\n')
	if err != nil {
		p.closed = true
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read from worker: %w", err)
	}
	var resp parseResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("worker response: %w", err)
	}
	if resp.ID != req.ID {
		p.closed = true
		return nil, fmt.Errorf("worker answered request %d, want %d", resp.ID, req.ID)
	}
	if resp.Error != nil {
		se := &SyntaxError{Msg: resp.Error.Msg, Line: resp.Error.Lineno, Col: resp.Error.Offset}
		if resp.Error.Text != nil {
			se.Text = *resp.Error.Text
		}
		return nil, se
	}
	return DecodeBytes(resp.Tree)
}

// Close stops the worker.
func (p *ProcessParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return nil
	}
	p.closed = true
	_ = p.stdin.Close()
	err := p.cmd.Wait()
	p.cmd = nil
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		// killed after cancellation
		return nil
	}
	return err
}

// Pool spreads requests over several workers.
type Pool struct {
	idle chan *ProcessParser
	all  []*ProcessParser
}

// NewPool starts size workers concurrently.
func NewPool(ctx context.Context, python string, size int) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	workers := make([]*ProcessParser, size)
	g, _ := errgroup.WithContext(ctx)
	for i := range workers {
		g.Go(func() error {
			w, err := NewProcessParser(python)
			if err != nil {
				return err
			}
			workers[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, w := range workers {
			if w != nil {
				_ = w.Close()
			}
		}
		return nil, err
	}
	p := &Pool{idle: make(chan *ProcessParser, size), all: workers}
	for _, w := range workers {
		p.idle <- w
	}
	return p, nil
}

func (p *Pool) Parse(ctx context.Context, src []byte, filename string) (*Tree, error) {
	var w *ProcessParser
	select {
	case w = <-p.idle:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { p.idle <- w }()
	return w.Parse(ctx, src, filename)
}

// Close stops every worker.
func (p *Pool) Close() error {
	var errs []error
	for _, w := range p.all {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
