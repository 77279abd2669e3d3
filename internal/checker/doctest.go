package checker

import (
	"errors"
	"strconv"

	"fortio.org/safecast"

	"flakes/internal/diag"
	"flakes/internal/doctest"
	"flakes/internal/pyast"
	"flakes/internal/source"
	"flakes/internal/symbols"
	"flakes/internal/trace"
)

// handleDoctests checks the examples in the docstring of a def or class.
// They run in a scope of their own that sees only the module scope.
func (c *Checker) handleDoctests(node pyast.NodeID) {
	if c.opts.Parser == nil {
		return
	}
	body := c.tree.List(node, "body")
	if len(body) == 0 || !c.isDocstring(body[0]) {
		return
	}
	doc, _ := c.tree.StrConst(c.tree.Child(body[0], "value"))
	examples, err := doctest.Examples(doc)
	if err != nil || len(examples) == 0 {
		return
	}
	docLine := int(c.tree.Pos(body[0]).Line) - 1

	span := trace.Begin(trace.FromContext(c.ctx), trace.ScopeNode, "doctest", 0)
	defer span.End("")
	span.WithExtra("examples", strconv.Itoa(len(examples)))

	saved := c.stack
	c.stack = []symbols.ScopeID{saved[0]}
	base := c.offset
	base.set = true
	c.inScope(symbols.ScopeDoctest, node, func() {
		if !c.table.Scope(c.stack[0]).Has("_") {
			c.addBinding(pyast.NoNodeID, symbols.Binding{Kind: symbols.BindingBuiltin, Name: "_"})
		}
		for _, ex := range examples {
			if c.err != nil {
				return
			}
			sub, err := c.opts.Parser.Parse(c.ctx, []byte(ex.Source), "<doctest>")
			if err != nil {
				var se *pyast.SyntaxError
				if !errors.As(err, &se) {
					c.fail(err)
					return
				}
				c.reportDoctestSyntax(node, docLine+ex.Line+se.Line, ex.Indent+4+se.Col)
				continue
			}
			c.offset = offset{
				set:  true,
				line: base.line + toUint32(docLine+ex.Line),
				col:  base.col + toUint32(ex.Indent+4),
			}
			c.handleChildren(c.tree.Graft(sub))
			c.offset = base
		}
	})
	c.stack = saved
}

func (c *Checker) reportDoctestSyntax(node pyast.NodeID, line, col int) {
	sp := source.At(c.opts.File, toUint32(line), toUint32(col))
	if !sp.IsValid() {
		sp = c.span(node)
	}
	c.emit(c.newDiag(diag.DoctestSyntaxError, sp))
}

func toUint32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}
