package checker

import (
	"flakes/internal/diag"
	"flakes/internal/pyast"
	"flakes/internal/pyformat"
	"flakes/internal/symbols"
)

func (c *Checker) binOp(id pyast.NodeID) {
	if c.tree.Kind(c.tree.Child(id, "op")) == pyast.KindMod {
		if format, ok := c.tree.StrConst(c.tree.Child(id, "left")); ok {
			c.percentFormat(id, format)
		}
	}
	c.handleChildren(id)
}

// percentFormat checks `'...' % rhs` against what is statically known of rhs.
func (c *Checker) percentFormat(id pyast.NodeID, format string) {
	var rhs pyformat.Operand
	right := c.tree.Child(id, "right")
	switch c.tree.Kind(right) {
	case pyast.KindList, pyast.KindTuple:
		elts := c.tree.List(right, "elts")
		starred := false
		for _, e := range elts {
			if c.tree.Kind(e) == pyast.KindStarred {
				starred = true
				break
			}
		}
		if !starred {
			rhs = pyformat.Operand{Shape: pyformat.OperandSequence, Count: len(elts)}
		}
	case pyast.KindDict:
		keys := c.tree.List(right, "keys")
		strs := make([]string, 0, len(keys))
		for _, k := range keys {
			s, ok := c.tree.StrConst(k)
			if !ok {
				strs = nil
				break
			}
			strs = append(strs, s)
		}
		if strs != nil {
			rhs = pyformat.Operand{Shape: pyformat.OperandMapping, Keys: strs}
		}
	}
	for _, f := range pyformat.CheckPercent(format, rhs) {
		c.report(f.Code, id, f.Args...)
	}
}

// dotFormat checks `'...'.format(...)`.
func (c *Checker) dotFormat(id pyast.NodeID, format string) {
	var args pyformat.CallArgs
	for _, a := range c.tree.List(id, "args") {
		if c.tree.Kind(a) == pyast.KindStarred {
			args.Splat = true
		}
		args.Positional++
	}
	for _, k := range c.tree.List(id, "keywords") {
		name, ok := c.tree.OptStr(k, "arg")
		if !ok {
			args.Splat = true
			continue
		}
		args.Keywords = append(args.Keywords, name)
	}
	for _, f := range pyformat.CheckDotFormat(format, args) {
		c.report(f.Code, id, f.Args...)
	}
}

type callPart struct {
	node pyast.NodeID
	omit []string
}

// call visits a call. Arguments of typing.cast, TypeVar, TypedDict and
// NamedTuple that spell types are visited as annotations.
func (c *Checker) call(id pyast.NodeID) {
	fn := c.tree.Child(id, "func")
	if c.tree.Kind(fn) == pyast.KindAttribute && c.tree.Str(fn, "attr") == "format" {
		if format, ok := c.tree.StrConst(c.tree.Child(fn, "value")); ok {
			c.dotFormat(id, format)
		}
	}

	args := c.tree.List(id, "args")
	keywords := c.tree.List(id, "keywords")
	var omit []string
	var annotated []pyast.NodeID
	var plain []callPart

	keywordsAsTypes := func() {
		omit = append(omit, "keywords")
		for _, k := range keywords {
			annotated = append(annotated, c.tree.Child(k, "value"))
			plain = append(plain, callPart{k, []string{"value"}})
		}
	}

	switch {
	case len(args) >= 1 && c.isTyping(fn, "cast"):
		c.withAnnotation(annotationBare, func() {
			c.handleNode(args[0], id)
		})

	case c.isTyping(fn, "TypeVar"):
		// TypeVar("T", "int", "str", bound="X")
		omit = append(omit, "args", "keywords")
		if len(args) > 1 {
			annotated = append(annotated, args[1:]...)
		}
		for _, k := range keywords {
			if arg, _ := c.tree.OptStr(k, "arg"); arg == "bound" {
				annotated = append(annotated, c.tree.Child(k, "value"))
				plain = append(plain, callPart{k, []string{"value"}})
			} else {
				plain = append(plain, callPart{k, nil})
			}
		}

	case c.isTyping(fn, "TypedDict"):
		// TypedDict("a", {"a": int})
		if len(args) > 1 && c.tree.Kind(args[1]) == pyast.KindDict {
			omit = append(omit, "args")
			annotated = append(annotated, c.tree.List(args[1], "values")...)
			for i, a := range args {
				p := callPart{node: a}
				if i == 1 {
					p.omit = []string{"values"}
				}
				plain = append(plain, p)
			}
		}
		keywordsAsTypes()

	case c.isTyping(fn, "NamedTuple"):
		// NamedTuple("a", [("a", int)])
		if len(args) > 1 && c.isFieldList(args[1]) {
			omit = append(omit, "args")
			elts := c.tree.List(args[1], "elts")
			for _, elt := range elts {
				annotated = append(annotated, c.tree.List(elt, "elts")[1])
			}
			for _, elt := range elts {
				plain = append(plain, callPart{c.tree.List(elt, "elts")[0], nil})
			}
			for i, a := range args {
				p := callPart{node: a}
				if i == 1 {
					p.omit = []string{"elts"}
				}
				plain = append(plain, p)
			}
			for _, elt := range elts {
				plain = append(plain, callPart{elt, []string{"elts"}})
			}
		}
		keywordsAsTypes()
	}

	if len(omit) == 0 {
		c.handleChildren(id)
		return
	}
	c.withAnnotation(annotationNone, func() {
		for _, p := range plain {
			c.handleChildren(p.node, p.omit...)
		}
		c.handleChildren(id, omit...)
	})
	c.withAnnotation(annotationBare, func() {
		c.handleAll(annotated, id)
	})
}

// isFieldList matches a tuple or list of (name, type) pairs.
func (c *Checker) isFieldList(id pyast.NodeID) bool {
	if !isSequenceDisplay(c.tree.Kind(id)) {
		return false
	}
	for _, elt := range c.tree.List(id, "elts") {
		if !isSequenceDisplay(c.tree.Kind(elt)) || len(c.tree.List(elt, "elts")) != 2 {
			return false
		}
	}
	return true
}

func isSequenceDisplay(k pyast.Kind) bool {
	return k == pyast.KindTuple || k == pyast.KindList
}

// comprehensionExpr visits the generators before the element expressions.
func (c *Checker) comprehensionExpr(id pyast.NodeID, fields ...string) {
	c.inScope(symbols.ScopeGenerator, id, func() {
		c.handleAll(c.tree.List(id, "generators"), id)
		for _, f := range fields {
			c.handleNode(c.tree.Child(id, f), id)
		}
	})
}

func (c *Checker) yield(id pyast.NodeID) {
	if s := c.scope(); s.Kind == symbols.ScopeClass || s.Kind.IsModule() {
		c.report(diag.YieldOutsideFunction, id)
		return
	}
	c.handleNode(c.tree.Child(id, "value"), id)
}

func (c *Checker) isSingleton(id pyast.NodeID) bool {
	if c.tree.Kind(id) != pyast.KindConstant {
		return false
	}
	v, ok := c.tree.Const(id)
	if !ok {
		return false
	}
	switch v.Const {
	case pyast.ConstBool, pyast.ConstNone, pyast.ConstEllipsis:
		return true
	}
	return false
}

// isConstant matches constants and tuples made only of constants.
func (c *Checker) isConstant(id pyast.NodeID) bool {
	switch c.tree.Kind(id) {
	case pyast.KindConstant:
		return true
	case pyast.KindTuple:
		for _, elt := range c.tree.List(id, "elts") {
			if !c.isConstant(elt) {
				return false
			}
		}
		return true
	}
	return false
}

func (c *Checker) compare(id pyast.NodeID) {
	left := c.tree.Child(id, "left")
	comparators := c.tree.List(id, "comparators")
	for i, op := range c.tree.List(id, "ops") {
		if i >= len(comparators) {
			break
		}
		right := comparators[i]
		if k := c.tree.Kind(op); k == pyast.KindIs || k == pyast.KindIsNot {
			if c.isConstant(left) && !c.isSingleton(left) || c.isConstant(right) && !c.isSingleton(right) {
				c.report(diag.IsLiteral, id)
			}
		}
		left = right
	}
	c.handleChildren(id)
}

func (c *Checker) joinedStr(id pyast.NodeID) {
	if !c.inFString {
		placeholders := false
		for _, v := range c.tree.List(id, "values") {
			if c.tree.Kind(v) == pyast.KindFormattedValue {
				placeholders = true
				break
			}
		}
		if !placeholders {
			c.report(diag.FStringMissingPlaceholders, id)
		}
	}
	orig := c.inFString
	c.inFString = true
	c.handleChildren(id)
	c.inFString = orig
}

// constant defers string literals met inside an annotation; they are
// forward references.
func (c *Checker) constant(id pyast.NodeID) {
	if c.annotation == annotationNone {
		return
	}
	if s, ok := c.tree.StrConst(id); ok {
		c.deferStringAnnotation(s, id, c.tree.Pos(id))
	}
}

func (c *Checker) subscript(id pyast.NodeID) {
	value := c.tree.Child(id, "value")
	slice := c.tree.Child(id, "slice")
	plain := func() {
		c.handleNode(value, id)
		c.handleNode(slice, id)
	}

	switch {
	case c.isNameOrAttr(value, "Literal"):
		c.withAnnotation(annotationNone, plain)

	case c.isNameOrAttr(value, "Annotated"):
		c.handleNode(value, id)
		tuple := pyast.NoNodeID
		switch {
		case c.tree.Kind(slice) == pyast.KindTuple:
			tuple = slice
		case c.tree.Kind(slice) == pyast.KindIndex && c.tree.Kind(c.tree.Child(slice, "value")) == pyast.KindTuple:
			tuple = c.tree.Child(slice, "value")
		}
		elts := c.tree.List(tuple, "elts")
		if len(elts) < 2 {
			c.handleNode(slice, id)
		} else {
			// only the first argument is a type
			c.handleNode(elts[0], id)
			c.withAnnotation(annotationNone, func() {
				c.handleAll(elts[1:], id)
			})
		}
		c.handleNode(c.tree.Child(id, "ctx"), id)

	case c.isAnyTypingMember(value):
		c.withAnnotation(annotationBare, plain)

	default:
		plain()
	}
}

func (c *Checker) name(id pyast.NodeID) {
	ctx := c.tree.Child(id, "ctx")
	switch c.tree.Kind(ctx) {
	case pyast.KindLoad:
		c.handleNodeLoad(id, c.getParent(id))
		if c.tree.Str(id, "id") == "locals" && c.tree.Kind(c.parentOf(id)) == pyast.KindCall {
			if s := c.scope(); s.Kind == symbols.ScopeFunction {
				s.UsesLocals = true
			}
		}
	case pyast.KindStore:
		c.handleNodeStore(id)
	case pyast.KindDel:
		c.handleNodeDelete(id)
	default:
		c.fail(&ContextError{Context: c.tree.Kind(ctx).String(), Node: id})
	}
}

// tuple checks starred assignment targets before visiting the elements.
func (c *Checker) tuple(id pyast.NodeID) {
	if c.tree.Kind(c.tree.Child(id, "ctx")) == pyast.KindStore {
		elts := c.tree.List(id, "elts")
		starLoc := -1
		for i, e := range elts {
			if c.tree.Kind(e) != pyast.KindStarred {
				continue
			}
			if starLoc >= 0 {
				c.report(diag.TwoStarredExpressions, id)
				break
			}
			starLoc = i
		}
		if starLoc >= 1<<8 || len(elts)-starLoc-1 >= 1<<24 {
			c.report(diag.TooManyExpressionsInStarredAssignment, id)
		}
	}
	c.handleChildren(id)
}
