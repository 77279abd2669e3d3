// Package checker finds likely mistakes in a Python module's syntax tree:
// undefined and unused names, redefinitions, bad format strings and a set
// of statement-level errors the compiler accepts.
//
// A run visits the tree once, deferring function bodies, postponed
// annotations and doctests into a FIFO queue that is drained after the
// module body, then inspects every scope that was closed.
package checker

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"flakes/internal/diag"
	"flakes/internal/pyast"
	"flakes/internal/source"
	"flakes/internal/symbols"
	"flakes/internal/trace"
)

// Options configure one run over a module tree.
type Options struct {
	// Filename is echoed in diagnostics. A basename of __init__.py allows
	// __path__ and unresolved __all__ entries.
	Filename string
	File     source.FileID
	// ExtraBuiltins are names treated as always defined.
	ExtraBuiltins []string
	WithDoctest   bool
	// StrictUnknownNodes fails the run on a node kind without a handler
	// instead of walking its children.
	StrictUnknownNodes bool
	// Parser re-parses string annotations and doctest examples. Without one
	// both are skipped.
	Parser pyast.Parser
	// Reporter, when set, receives every diagnostic after the run.
	Reporter diag.Reporter
}

// Result is what a run produced.
type Result struct {
	// Diagnostics are in emission order; callers sort them by position.
	Diagnostics []diag.Diagnostic
	Table       *symbols.Table
	// DeadScopes lists scopes in the order they were closed.
	DeadScopes []symbols.ScopeID
	// Deferred counts the deferred tasks that ran.
	Deferred int
}

// ErrNotModule is returned for trees whose root is not a Module.
var ErrNotModule = errors.New("checker: root node is not a Module")

// Check analyses a module tree.
func Check(ctx context.Context, tree *pyast.Tree, opts Options) (*Result, error) {
	if tree == nil || !tree.Root.IsValid() {
		return nil, ErrNotModule
	}
	if k := tree.Kind(tree.Root); k != pyast.KindModule {
		return nil, fmt.Errorf("%w: got %s", ErrNotModule, tree.Node(tree.Root).Type)
	}
	if opts.Filename == "" {
		opts.Filename = "(none)"
	}
	c := newChecker(ctx, tree, opts)
	if err := c.run(); err != nil {
		return nil, err
	}
	res := &Result{
		Diagnostics: c.diags,
		Table:       c.table,
		DeadScopes:  c.dead,
		Deferred:    c.deferredRun,
	}
	if opts.Reporter != nil {
		for _, d := range c.diags {
			opts.Reporter.Report(d)
		}
	}
	return res, nil
}

type annotationState uint8

const (
	annotationNone annotationState = iota
	annotationString
	annotationBare
)

// offset shifts the positions of nodes parsed out of a docstring.
type offset struct {
	set       bool
	line, col uint32
}

type deferredTask struct {
	name   string
	fn     func()
	stack  []symbols.ScopeID
	offset offset
}

type nodeInfo struct {
	parent pyast.NodeID
	depth  int32
	seen   bool
}

// Checker holds the state of one run. It is not safe for concurrent use.
type Checker struct {
	ctx      context.Context
	tree     *pyast.Tree
	opts     Options
	table    *symbols.Table
	builtins []string

	nodes     []nodeInfo
	stack     []symbols.ScopeID
	dead      []symbols.ScopeID
	nodeDepth int32
	offset    offset

	deferred    []deferredTask
	deferredRun int

	annotation     annotationState
	inFString      bool
	exceptHandlers [][]string

	diags []diag.Diagnostic
	err   error
}

func newChecker(ctx context.Context, tree *pyast.Tree, opts Options) *Checker {
	if ctx == nil {
		ctx = context.Background()
	}
	n := tree.Len()
	return &Checker{
		ctx:            ctx,
		tree:           tree,
		opts:           opts,
		table:          symbols.NewTable(symbols.Hints{Scopes: 16, Bindings: uint(n/4 + 256)}),
		builtins:       builtinSet(opts.ExtraBuiltins),
		nodes:          make([]nodeInfo, n+1),
		exceptHandlers: [][]string{nil},
	}
}

func (c *Checker) run() error {
	tracer := trace.FromContext(c.ctx)
	parent := trace.CurrentSpan(c.ctx).SpanID

	span := trace.Begin(tracer, trace.ScopePass, "check", parent)
	span.WithExtra("file", c.opts.Filename)
	c.pushScope(symbols.ScopeModule, c.tree.Root)
	for _, name := range c.builtins {
		c.addBinding(pyast.NoNodeID, symbols.Binding{Kind: symbols.BindingBuiltin, Name: name})
	}
	c.handleChildren(c.tree.Root)
	span.End("")

	dspan := trace.Begin(tracer, trace.ScopePass, "deferred", parent)
	c.runDeferred()
	dspan.End("tasks=" + strconv.Itoa(c.deferredRun))
	c.popScope()
	if c.err != nil {
		return c.err
	}

	sspan := trace.Begin(tracer, trace.ScopePass, "dead-scopes", parent)
	c.checkDeadScopes()
	sspan.End("scopes=" + strconv.Itoa(len(c.dead)))
	return nil
}

// fail records the first fatal error; the walk unwinds once it is set.
func (c *Checker) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// scope stack

func (c *Checker) scopeID() symbols.ScopeID {
	return c.stack[len(c.stack)-1]
}

// scope returns the innermost scope. The pointer is invalidated by pushScope.
func (c *Checker) scope() *symbols.Scope {
	return c.table.Scope(c.scopeID())
}

func (c *Checker) pushScope(kind symbols.ScopeKind, node pyast.NodeID) symbols.ScopeID {
	id := c.table.NewScope(kind, node)
	c.stack = append(c.stack, id)
	return id
}

// popScope closes the innermost scope; it is inspected by checkDeadScopes.
func (c *Checker) popScope() {
	id := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.dead = append(c.dead, id)
}

func (c *Checker) inScope(kind symbols.ScopeKind, node pyast.NodeID, fn func()) {
	c.pushScope(kind, node)
	defer c.popScope()
	fn()
}

func (c *Checker) binding(id symbols.BindingID) *symbols.Binding {
	return c.table.Binding(id)
}

func (c *Checker) inDoctest() bool {
	return len(c.stack) >= 2 && c.table.Scope(c.stack[1]).Kind == symbols.ScopeDoctest
}

// futuresAllowed is true while only docstrings and __future__ imports have
// been seen at module level.
func (c *Checker) futuresAllowed() bool {
	for _, id := range c.stack {
		if !c.table.Scope(id).Kind.IsModule() {
			return false
		}
	}
	return c.scope().FuturesAllowed
}

func (c *Checker) disallowFutures() {
	if s := c.scope(); s.Kind.IsModule() {
		s.FuturesAllowed = false
	}
}

func (c *Checker) annotationsFutureEnabled() bool {
	s := c.table.Scope(c.stack[0])
	return s.Kind.IsModule() && s.AnnotationsFuture
}

func (c *Checker) inPostponedAnnotation() bool {
	return c.annotation == annotationString || c.annotationsFutureEnabled()
}

func (c *Checker) withAnnotation(state annotationState, fn func()) {
	orig := c.annotation
	c.annotation = state
	defer func() { c.annotation = orig }()
	fn()
}

// deferred queue

// deferFunction schedules fn to run after the module body with the current
// scope stack. Bindings added to those scopes later are visible to fn.
func (c *Checker) deferFunction(name string, fn func()) {
	c.deferred = append(c.deferred, deferredTask{
		name:   name,
		fn:     fn,
		stack:  append([]symbols.ScopeID(nil), c.stack...),
		offset: c.offset,
	})
}

func (c *Checker) runDeferred() {
	origStack, origOffset := c.stack, c.offset
	tracer := trace.FromContext(c.ctx)
	for len(c.deferred) > 0 && c.err == nil {
		if err := c.ctx.Err(); err != nil {
			c.fail(err)
			break
		}
		task := c.deferred[0]
		c.deferred[0] = deferredTask{}
		c.deferred = c.deferred[1:]
		c.stack, c.offset = task.stack, task.offset
		if tracer.Level().ShouldEmit(trace.ScopeNode) {
			span := trace.Begin(tracer, trace.ScopeNode, task.name, 0)
			task.fn()
			span.End("")
		} else {
			task.fn()
		}
		c.deferredRun++
	}
	c.stack, c.offset = origStack, origOffset
}

// reporting

func (c *Checker) span(node pyast.NodeID) source.Span {
	p := c.tree.Pos(node)
	return source.Span{File: c.opts.File, Line: p.Line, Col: p.Col, EndLine: p.EndLine, EndCol: p.EndCol}
}

func (c *Checker) newDiag(code diag.Code, sp source.Span, args ...any) diag.Diagnostic {
	return c.newDiagf(code, sp, code.Format(), args...)
}

// newDiagf is newDiag with a template other than the code's own.
func (c *Checker) newDiagf(code diag.Code, sp source.Span, format string, args ...any) diag.Diagnostic {
	d := diag.NewDefault(code, sp, diag.Message(format, args...))
	d.Filename = c.opts.Filename
	if len(args) > 0 {
		rendered := make([]string, len(args))
		for i, a := range args {
			rendered[i] = argString(a)
		}
		d = d.WithArgs(rendered...)
	}
	return d
}

func (c *Checker) emit(d diag.Diagnostic) {
	c.diags = append(c.diags, d)
}

func (c *Checker) report(code diag.Code, node pyast.NodeID, args ...any) {
	c.emit(c.newDiag(code, c.span(node), args...))
}

// reportRedefinition reports code at node with a note on the original binding.
func (c *Checker) reportRedefinition(code diag.Code, node pyast.NodeID, name string, orig pyast.NodeID) {
	line := int(c.tree.Pos(orig).Line)
	d := c.newDiag(code, c.span(node), name, line)
	c.emit(d.WithNote(c.span(orig), fmt.Sprintf("%s first bound here", diag.Repr(name))))
}

func argString(a any) string {
	switch v := a.(type) {
	case string:
		return v
	case diag.Raw:
		return string(v)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// retractUndefined drops UndefinedName reports for name.
func (c *Checker) retractUndefined(name string) {
	out := c.diags[:0]
	for _, d := range c.diags {
		if d.Code == diag.UndefinedName && len(d.Args) > 0 && d.Args[0] == name {
			continue
		}
		out = append(out, d)
	}
	clear(c.diags[len(out):])
	c.diags = out
}
