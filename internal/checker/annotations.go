package checker

import (
	"errors"

	"flakes/internal/diag"
	"flakes/internal/pyast"
)

var typingModules = map[string]struct{}{
	"typing":            {},
	"typing_extensions": {},
}

// isTypingMember reports whether node names a member of typing or
// typing_extensions accepted by match: a name imported from one of them,
// or an attribute of an imported typing module.
func (c *Checker) isTypingMember(node pyast.NodeID, match func(string) bool) bool {
	switch c.tree.Kind(node) {
	case pyast.KindName:
		b := c.lookup(c.tree.Str(node, "id"))
		if b == nil || !b.Kind.IsImportationFrom() {
			return false
		}
		_, ok := typingModules[b.Module]
		return ok && match(b.RealName)
	case pyast.KindAttribute:
		value := c.tree.Child(node, "value")
		if c.tree.Kind(value) != pyast.KindName {
			return false
		}
		b := c.lookup(c.tree.Str(value, "id"))
		if b == nil || !b.Kind.IsImportation() {
			return false
		}
		_, ok := typingModules[b.FullName]
		return ok && match(c.tree.Str(node, "attr"))
	}
	return false
}

func (c *Checker) isTyping(node pyast.NodeID, attr string) bool {
	return c.isTypingMember(node, func(name string) bool { return name == attr })
}

func (c *Checker) isAnyTypingMember(node pyast.NodeID) bool {
	return c.isTypingMember(node, func(string) bool { return true })
}

// isNameOrAttr matches `name` and `x.name`.
func (c *Checker) isNameOrAttr(node pyast.NodeID, name string) bool {
	switch c.tree.Kind(node) {
	case pyast.KindName:
		return c.tree.Str(node, "id") == name
	case pyast.KindAttribute:
		return c.tree.Str(node, "attr") == name
	}
	return false
}

// handleAnnotation visits a type annotation. String annotations and, under
// `from __future__ import annotations`, all annotations are postponed.
func (c *Checker) handleAnnotation(ann, parent pyast.NodeID) {
	if !ann.IsValid() {
		return
	}
	c.withAnnotation(annotationBare, func() {
		if s, ok := c.tree.StrConst(ann); ok {
			c.deferStringAnnotation(s, parent, c.tree.Pos(ann))
			return
		}
		if c.annotationsFutureEnabled() {
			c.handleAnnotationDeferred(ann, parent)
			return
		}
		c.handleNode(ann, parent)
	})
}

// handleAnnotationDeferred visits ann as an annotation once the module body is done.
func (c *Checker) handleAnnotationDeferred(ann, parent pyast.NodeID) {
	if !ann.IsValid() {
		return
	}
	c.deferFunction("annotation", func() {
		c.withAnnotation(annotationBare, func() {
			c.handleNode(ann, parent)
		})
	})
}

func (c *Checker) deferStringAnnotation(s string, node pyast.NodeID, ref pyast.Pos) {
	c.deferFunction("string-annotation", func() {
		c.handleStringAnnotation(s, node, ref)
	})
}

// handleStringAnnotation parses a quoted annotation and visits it as if it
// were written at ref.
func (c *Checker) handleStringAnnotation(s string, node pyast.NodeID, ref pyast.Pos) {
	if c.opts.Parser == nil {
		return
	}
	c.withAnnotation(annotationString, func() {
		sub, err := c.opts.Parser.Parse(c.ctx, []byte(s), "<unknown>")
		if err != nil {
			var se *pyast.SyntaxError
			if errors.As(err, &se) {
				c.report(diag.ForwardAnnotationSyntaxError, node, s)
				return
			}
			c.fail(err)
			return
		}
		body := sub.List(sub.Root, "body")
		if len(body) != 1 || sub.Kind(body[0]) != pyast.KindExpr {
			c.report(diag.ForwardAnnotationSyntaxError, node, s)
			return
		}

		root := c.tree.Graft(sub)
		expr := c.tree.Child(c.tree.List(root, "body")[0], "value")
		c.tree.Walk(expr, func(id pyast.NodeID) bool {
			if n := c.tree.Node(id); n.Pos.IsValid() {
				n.Pos = ref
			}
			return true
		})
		c.handleNode(expr, node)
	})
}
