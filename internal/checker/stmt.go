package checker

import (
	"strings"

	"flakes/internal/diag"
	"flakes/internal/pyast"
	"flakes/internal/symbols"
)

// typeParamScope opens the scope PEP 695 type parameters live in, binds
// the parameters of node and runs fn inside it.
func (c *Checker) typeParamScope(node pyast.NodeID, fn func()) {
	c.inScope(symbols.ScopeTypeParam, node, func() {
		c.handleAll(c.tree.List(node, "type_params"), node)
		fn()
	})
}

func (c *Checker) functionDef(id pyast.NodeID) {
	c.handleAll(c.tree.List(id, "decorator_list"), id)
	c.typeParamScope(id, func() { c.lambda(id) })
	c.addBinding(id, symbols.Binding{Kind: symbols.BindingFunction, Name: c.tree.Str(id, "name"), Source: id})
	// nested functions and doctest code are not searched for examples
	if c.opts.WithDoctest && !c.inDoctest() && c.scope().Kind != symbols.ScopeFunction {
		c.deferFunction("doctest", func() { c.handleDoctests(id) })
	}
}

func (c *Checker) classDef(id pyast.NodeID) {
	c.handleAll(c.tree.List(id, "decorator_list"), id)
	c.typeParamScope(id, func() {
		c.handleAll(c.tree.List(id, "bases"), id)
		c.handleAll(c.tree.List(id, "keywords"), id)
		c.inScope(symbols.ScopeClass, id, func() {
			if c.opts.WithDoctest && !c.inDoctest() {
				c.deferFunction("doctest", func() { c.handleDoctests(id) })
			}
			c.handleAll(c.tree.List(id, "body"), id)
		})
	})
	c.addBinding(id, symbols.Binding{Kind: symbols.BindingClass, Name: c.tree.Str(id, "name"), Source: id})
}

// lambda checks the signature of a def or lambda now and defers its body.
func (c *Checker) lambda(id pyast.NodeID) {
	args := c.tree.Child(id, "args")
	isLambda := c.tree.Kind(id) == pyast.KindLambda

	var names []string
	var annotations []pyast.NodeID
	for _, field := range [...]string{"posonlyargs", "args", "kwonlyargs"} {
		for _, a := range c.tree.List(args, field) {
			names = append(names, c.tree.Str(a, "arg"))
			annotations = append(annotations, c.tree.Child(a, "annotation"))
		}
	}
	defaults := append(append([]pyast.NodeID(nil), c.tree.List(args, "defaults")...), c.tree.List(args, "kw_defaults")...)
	for _, field := range [...]string{"vararg", "kwarg"} {
		wildcard := c.tree.Child(args, field)
		if !wildcard.IsValid() {
			continue
		}
		names = append(names, c.tree.Str(wildcard, "arg"))
		if !isLambda {
			annotations = append(annotations, c.tree.Child(wildcard, "annotation"))
		}
	}
	if !isLambda {
		annotations = append(annotations, c.tree.Child(id, "returns"))
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			c.report(diag.DuplicateArgument, id, name)
		}
		seen[name] = struct{}{}
	}

	for _, ann := range annotations {
		c.handleAnnotation(ann, id)
	}
	c.handleAll(defaults, id)

	name := "lambda"
	if !isLambda {
		name = "def " + c.tree.Str(id, "name")
	}
	c.deferFunction(name, func() {
		c.inScope(symbols.ScopeFunction, id, func() {
			c.handleChildren(id, "decorator_list", "returns", "type_params")
		})
	})
}

func (c *Checker) arg(id pyast.NodeID) {
	c.addBinding(id, symbols.Binding{
		Kind:   symbols.BindingArgument,
		Name:   c.tree.Str(id, "arg"),
		Source: c.scopeNode(id),
	})
}

func (c *Checker) returnStmt(id pyast.NodeID) {
	s := c.scope()
	if s.Kind == symbols.ScopeClass || s.Kind.IsModule() {
		c.report(diag.ReturnOutsideFunction, id)
		return
	}
	value := c.tree.Child(id, "value")
	if value.IsValid() && s.Kind == symbols.ScopeFunction && !s.ReturnValue.IsValid() {
		s.ReturnValue = value
	}
	c.handleNode(value, id)
}

func (c *Checker) assign(id pyast.NodeID) {
	c.handleNode(c.tree.Child(id, "value"), id)
	c.handleAll(c.tree.List(id, "targets"), id)
}

func (c *Checker) augAssign(id pyast.NodeID) {
	target := c.tree.Child(id, "target")
	c.handleNodeLoad(target, id)
	c.handleNode(c.tree.Child(id, "value"), id)
	c.handleNode(target, id)
}

func (c *Checker) annAssign(id pyast.NodeID) {
	ann := c.tree.Child(id, "annotation")
	c.handleAnnotation(ann, id)
	if value := c.tree.Child(id, "value"); value.IsValid() {
		// the value of an explicit TypeAlias is itself an annotation
		if c.isTyping(ann, "TypeAlias") {
			c.handleAnnotation(value, id)
		} else {
			c.handleNode(value, id)
		}
	}
	c.handleNode(c.tree.Child(id, "target"), id)
}

func (c *Checker) typeAlias(id pyast.NodeID) {
	c.handleNode(c.tree.Child(id, "name"), id)
	c.typeParamScope(id, func() {
		c.handleAnnotationDeferred(c.tree.Child(id, "value"), id)
	})
}

func (c *Checker) forStmt(id pyast.NodeID) {
	c.handleNode(c.tree.Child(id, "iter"), id)
	c.handleNode(c.tree.Child(id, "target"), id)
	c.handleAll(c.tree.List(id, "body"), id)
	c.handleAll(c.tree.List(id, "orelse"), id)
}

// nonEmptyTuple matches the always-true `(a, b)` test of an if or assert.
func (c *Checker) nonEmptyTuple(id pyast.NodeID) bool {
	return c.tree.Kind(id) == pyast.KindTuple && len(c.tree.List(id, "elts")) > 0
}

func (c *Checker) ifStmt(id pyast.NodeID) {
	if c.nonEmptyTuple(c.tree.Child(id, "test")) {
		c.report(diag.IfTuple, id)
	}
	c.handleChildren(id)
}

func (c *Checker) assert(id pyast.NodeID) {
	if c.nonEmptyTuple(c.tree.Child(id, "test")) {
		c.report(diag.AssertTuple, id)
	}
	c.handleChildren(id)
}

func (c *Checker) isNotImplemented(id pyast.NodeID) bool {
	return c.tree.Kind(id) == pyast.KindName && c.tree.Str(id, "id") == "NotImplemented"
}

func (c *Checker) raise(id pyast.NodeID) {
	c.handleChildren(id)
	exc := c.tree.Child(id, "exc")
	if c.tree.Kind(exc) == pyast.KindCall {
		exc = c.tree.Child(exc, "func")
	}
	if c.isNotImplemented(exc) {
		c.report(diag.RaiseNotImplemented, id)
	}
}

func (c *Checker) tryStmt(id pyast.NodeID) {
	handlers := c.tree.List(id, "handlers")
	var names []string
	for i, h := range handlers {
		typ := c.tree.Child(h, "type")
		switch {
		case c.tree.Kind(typ) == pyast.KindTuple:
			for _, elt := range c.tree.List(typ, "elts") {
				names = append(names, c.nodeName(elt))
			}
		case typ.IsValid():
			names = append(names, c.nodeName(typ))
		case i < len(handlers)-1:
			c.report(diag.DefaultExceptNotLast, h)
		}
	}

	c.exceptHandlers = append(c.exceptHandlers, names)
	c.handleAll(c.tree.List(id, "body"), id)
	c.exceptHandlers = c.exceptHandlers[:len(c.exceptHandlers)-1]

	c.handleAll(handlers, id)
	c.handleAll(c.tree.List(id, "orelse"), id)
	c.handleAll(c.tree.List(id, "finalbody"), id)
}

// exceptHandler binds `except E as name` for the handler body only and
// reports the name when the body never reads it.
func (c *Checker) exceptHandler(id pyast.NodeID) {
	name, ok := c.tree.OptStr(id, "name")
	if !ok {
		c.handleChildren(id)
		return
	}
	sid := c.scopeID()
	if c.table.Scope(sid).Has(name) {
		c.handleNodeStore(id)
	}
	prev, hadPrev := c.table.Scope(sid).Lookup(name)
	if hadPrev {
		_ = c.table.Scope(sid).Remove(name)
	}

	c.handleNodeStore(id)
	c.handleChildren(id)

	s := c.table.Scope(sid)
	if bid, ok := s.Lookup(name); ok {
		_ = s.Remove(name)
		if !c.binding(bid).Used.IsSet() {
			c.report(diag.UnusedVariable, id, name)
		}
	}
	if hadPrev {
		s.Define(name, prev)
	}
}

func (c *Checker) importStmt(id pyast.NodeID) {
	for _, alias := range c.tree.List(id, "names") {
		name := c.tree.Str(alias, "name")
		asname, hasAs := c.tree.OptStr(alias, "asname")
		var b symbols.Binding
		switch {
		case strings.Contains(name, ".") && !hasAs:
			b = symbols.NewSubmoduleImport(name, id)
		case hasAs:
			b = symbols.NewImport(asname, id, name)
		default:
			b = symbols.NewImport(name, id, name)
		}
		c.addBinding(id, b)
	}
}

func (c *Checker) importFrom(id pyast.NodeID) {
	mod, _ := c.tree.OptStr(id, "module")
	future := mod == "__future__"
	if future {
		if !c.futuresAllowed() {
			c.report(diag.LateFutureImport, id)
		}
	} else {
		c.disallowFutures()
	}

	module := strings.Repeat(".", int(c.tree.Int(id, "level"))) + mod
	for _, alias := range c.tree.List(id, "names") {
		realName := c.tree.Str(alias, "name")
		name := realName
		if as, ok := c.tree.OptStr(alias, "asname"); ok {
			name = as
		}
		var b symbols.Binding
		switch {
		case future:
			b = symbols.NewFutureImport(name, id, c.scopeID())
			if _, ok := futureFeatures[realName]; !ok {
				c.report(diag.FutureFeatureNotDefined, id, realName)
			}
			if realName == "annotations" {
				if s := c.scope(); s.Kind.IsModule() {
					s.AnnotationsFuture = true
				}
			}
		case realName == "*":
			if !c.scope().Kind.IsModule() {
				c.report(diag.ImportStarNotPermitted, id, module)
				continue
			}
			c.scope().ImportStarred = true
			c.report(diag.ImportStarUsed, id, module)
			b = symbols.NewStarImport(module, id)
		default:
			b = symbols.NewImportFrom(name, id, module, realName)
		}
		c.addBinding(id, b)
	}
}

// global handles `global` and `nonlocal`: the names become bound, and
// already used, in the module scope and every scope below it.
func (c *Checker) global(id pyast.NodeID) {
	gi := 0
	if c.inDoctest() {
		gi = 1
	}
	globalScope := c.stack[gi]
	if c.scopeID() == globalScope {
		return
	}
	for _, name := range c.tree.Strings(id, "names") {
		c.retractUndefined(name)
		bid := c.table.Bindings.New(symbols.Binding{
			Kind:   symbols.BindingAssignment,
			Name:   name,
			Source: id,
			Used:   symbols.Use{Scope: globalScope, Node: id},
		})
		if gs := c.table.Scope(globalScope); !gs.Has(name) {
			gs.Define(name, bid)
		}
		for _, sid := range c.stack[gi+1:] {
			c.table.Scope(sid).Define(name, bid)
		}
	}
}

// loopControl reports break and continue outside a loop body. The else
// clause of a loop does not count as inside it.
func (c *Checker) loopControl(id pyast.NodeID) {
	n := id
	for c.hasParent(n) {
		child := n
		n = c.parentOf(n)
		k := c.tree.Kind(n)
		if k.IsLoop() && !containsNode(c.tree.List(n, "orelse"), child) {
			return
		}
		if k == pyast.KindFunctionDef || k == pyast.KindClassDef {
			break
		}
	}
	if c.tree.Kind(id) == pyast.KindContinue {
		c.report(diag.ContinueOutsideLoop, id)
	} else {
		c.report(diag.BreakOutsideLoop, id)
	}
}

func containsNode(list []pyast.NodeID, id pyast.NodeID) bool {
	for _, n := range list {
		if n == id {
			return true
		}
	}
	return false
}
