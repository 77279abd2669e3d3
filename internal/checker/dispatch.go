package checker

import (
	"flakes/internal/pyast"
	"flakes/internal/trace"
)

// handleNode records node's parent and depth and runs its handler.
func (c *Checker) handleNode(node, parent pyast.NodeID) {
	if !node.IsValid() || c.err != nil {
		return
	}
	n := c.tree.Node(node)
	if n == nil {
		return
	}
	if c.offset.set && n.Pos.IsValid() {
		n.Pos.Line += c.offset.line
		n.Pos.Col += c.offset.col
		n.Pos.EndLine += c.offset.line
		n.Pos.EndCol += c.offset.col
	}
	if c.nodeDepth == 0 && n.Kind != pyast.KindImportFrom && !c.isDocstring(node) && c.futuresAllowed() {
		c.disallowFutures()
	}
	c.nodeDepth++
	c.setParent(node, parent, c.nodeDepth)
	c.dispatch(node, n.Kind)
	c.nodeDepth--
}

// handleChildren visits the direct children in field order.
func (c *Checker) handleChildren(node pyast.NodeID, omit ...string) {
	for _, child := range c.tree.Children(node, nil, omit...) {
		if c.err != nil {
			return
		}
		c.handleNode(child, node)
	}
}

func (c *Checker) handleAll(nodes []pyast.NodeID, parent pyast.NodeID) {
	for _, n := range nodes {
		c.handleNode(n, parent)
	}
}

func (c *Checker) dispatch(id pyast.NodeID, kind pyast.Kind) {
	if kind.IsContext() || kind.IsOperator() {
		return
	}
	switch kind {
	case pyast.KindModule, pyast.KindDelete, pyast.KindWhile, pyast.KindWith, pyast.KindWithItem,
		pyast.KindAsyncWith, pyast.KindExpr,
		pyast.KindBoolOp, pyast.KindUnaryOp, pyast.KindSet, pyast.KindStarred, pyast.KindNameConstant,
		pyast.KindMatch, pyast.KindMatchCase, pyast.KindMatchClass, pyast.KindMatchOr,
		pyast.KindMatchSequence, pyast.KindMatchSingleton, pyast.KindMatchValue,
		pyast.KindSlice, pyast.KindExtSlice, pyast.KindIndex:
		c.handleChildren(id)
	case pyast.KindPass:

	// statements
	case pyast.KindFunctionDef, pyast.KindAsyncFunctionDef:
		c.functionDef(id)
	case pyast.KindClassDef:
		c.classDef(id)
	case pyast.KindReturn:
		c.returnStmt(id)
	case pyast.KindAssign:
		c.assign(id)
	case pyast.KindAugAssign:
		c.augAssign(id)
	case pyast.KindAnnAssign:
		c.annAssign(id)
	case pyast.KindTypeAlias:
		c.typeAlias(id)
	case pyast.KindFor, pyast.KindAsyncFor:
		c.forStmt(id)
	case pyast.KindIf, pyast.KindIfExp:
		c.ifStmt(id)
	case pyast.KindRaise:
		c.raise(id)
	case pyast.KindTry, pyast.KindTryStar:
		c.tryStmt(id)
	case pyast.KindAssert:
		c.assert(id)
	case pyast.KindImport:
		c.importStmt(id)
	case pyast.KindImportFrom:
		c.importFrom(id)
	case pyast.KindGlobal, pyast.KindNonlocal:
		c.global(id)
	case pyast.KindBreak, pyast.KindContinue:
		c.loopControl(id)

	// expressions
	case pyast.KindNamedExpr:
		c.handleNode(c.tree.Child(id, "value"), id)
		c.handleNode(c.tree.Child(id, "target"), id)
	case pyast.KindBinOp:
		c.binOp(id)
	case pyast.KindLambda:
		c.lambda(id)
	case pyast.KindDict:
		c.dict(id)
	case pyast.KindListComp, pyast.KindSetComp, pyast.KindGeneratorExp:
		c.comprehensionExpr(id, "elt")
	case pyast.KindDictComp:
		c.comprehensionExpr(id, "key", "value")
	case pyast.KindAwait, pyast.KindYield, pyast.KindYieldFrom:
		c.yield(id)
	case pyast.KindCompare:
		c.compare(id)
	case pyast.KindCall:
		c.call(id)
	case pyast.KindFormattedValue:
		c.handleNode(c.tree.Child(id, "value"), id)
		c.handleNode(c.tree.Child(id, "format_spec"), id)
	case pyast.KindJoinedStr:
		c.joinedStr(id)
	case pyast.KindConstant:
		c.constant(id)
	case pyast.KindAttribute:
		c.handleNode(c.tree.Child(id, "value"), id)
	case pyast.KindSubscript:
		c.subscript(id)
	case pyast.KindName:
		c.name(id)
	case pyast.KindList, pyast.KindTuple:
		c.tuple(id)

	// helpers
	case pyast.KindComprehension:
		c.handleNode(c.tree.Child(id, "iter"), id)
		c.handleNode(c.tree.Child(id, "target"), id)
		c.handleAll(c.tree.List(id, "ifs"), id)
	case pyast.KindExceptHandler:
		c.exceptHandler(id)
	case pyast.KindArguments:
		c.handleChildren(id, "defaults", "kw_defaults")
	case pyast.KindArg:
		c.arg(id)
	case pyast.KindKeyword:
		c.handleNode(c.tree.Child(id, "value"), id)

	// patterns and type parameters
	case pyast.KindMatchAs, pyast.KindMatchMapping, pyast.KindMatchStar:
		c.handleNodeStore(id)
		c.handleChildren(id)
	case pyast.KindTypeVar:
		c.handleNodeStore(id)
		c.handleAnnotationDeferred(c.tree.Child(id, "bound"), id)
	case pyast.KindParamSpec, pyast.KindTypeVarTuple:
		c.handleNodeStore(id)

	default:
		c.unknown(id)
	}
}

// unknown walks the children of a node kind without a handler, or fails
// the run in strict mode.
func (c *Checker) unknown(id pyast.NodeID) {
	n := c.tree.Node(id)
	trace.Point(trace.FromContext(c.ctx), trace.ScopeNode, "unknown-node", n.Type, 0)
	if c.opts.StrictUnknownNodes {
		c.fail(&UnknownNodeError{Type: n.Type, Node: id, Pos: n.Pos})
		return
	}
	c.handleChildren(id)
}

// tree bookkeeping

func (c *Checker) setParent(node, parent pyast.NodeID, depth int32) {
	if int(node) >= len(c.nodes) {
		grown := make([]nodeInfo, c.tree.Len()+1)
		copy(grown, c.nodes)
		c.nodes = grown
	}
	c.nodes[node] = nodeInfo{parent: parent, depth: depth, seen: true}
}

func (c *Checker) info(node pyast.NodeID) nodeInfo {
	if !node.IsValid() || int(node) >= len(c.nodes) {
		return nodeInfo{}
	}
	return c.nodes[node]
}

// hasParent is false for the module root and for nodes never visited.
func (c *Checker) hasParent(node pyast.NodeID) bool {
	return c.info(node).seen
}

func (c *Checker) parentOf(node pyast.NodeID) pyast.NodeID {
	return c.info(node).parent
}

// getParent returns the nearest ancestor that is not a container or a
// name-like expression (Tuple, List, Set, Starred, Name, Attribute, Subscript).
func (c *Checker) getParent(node pyast.NodeID) pyast.NodeID {
	for {
		node = c.parentOf(node)
		if !node.IsValid() {
			return pyast.NoNodeID
		}
		if !c.tree.Has(node, "elts") && !c.tree.Has(node, "ctx") {
			return node
		}
	}
}

// commonAncestor is the deepest node above both l and r, stopping short of stop.
func (c *Checker) commonAncestor(l, r, stop pyast.NodeID) pyast.NodeID {
	for {
		if l == stop || r == stop || !c.hasParent(l) || !c.hasParent(r) {
			return pyast.NoNodeID
		}
		if l == r {
			return l
		}
		ld, rd := c.info(l).depth, c.info(r).depth
		switch {
		case ld > rd:
			l = c.parentOf(l)
		case ld < rd:
			r = c.parentOf(r)
		default:
			l, r = c.parentOf(l), c.parentOf(r)
		}
	}
}

func (c *Checker) descendantOf(node pyast.NodeID, ancestors []pyast.NodeID, stop pyast.NodeID) bool {
	for _, a := range ancestors {
		if c.commonAncestor(node, a, stop).IsValid() {
			return true
		}
	}
	return false
}

// alternatives lists the mutually exclusive branches of an if, try or match.
func (c *Checker) alternatives(node pyast.NodeID) [][]pyast.NodeID {
	switch c.tree.Kind(node) {
	case pyast.KindIf:
		return [][]pyast.NodeID{c.tree.List(node, "body")}
	case pyast.KindTry:
		body := append(append([]pyast.NodeID(nil), c.tree.List(node, "body")...), c.tree.List(node, "orelse")...)
		out := [][]pyast.NodeID{body}
		for _, h := range c.tree.List(node, "handlers") {
			out = append(out, []pyast.NodeID{h})
		}
		return out
	case pyast.KindMatch:
		var out [][]pyast.NodeID
		for _, mc := range c.tree.List(node, "cases") {
			out = append(out, c.tree.List(mc, "body"))
		}
		return out
	}
	return nil
}

// differentForks reports whether l and r sit on exclusive branches of the
// same if, try or match statement.
func (c *Checker) differentForks(l, r pyast.NodeID) bool {
	ancestor := c.commonAncestor(l, r, c.tree.Root)
	for _, items := range c.alternatives(ancestor) {
		if c.descendantOf(l, items, ancestor) != c.descendantOf(r, items, ancestor) {
			return true
		}
	}
	return false
}

func isScopeNode(k pyast.Kind) bool {
	switch k {
	case pyast.KindModule, pyast.KindClassDef, pyast.KindFunctionDef, pyast.KindAsyncFunctionDef,
		pyast.KindLambda, pyast.KindListComp, pyast.KindSetComp, pyast.KindGeneratorExp, pyast.KindDictComp:
		return true
	}
	return false
}

// scopeNode returns the nearest enclosing node that opens a scope.
func (c *Checker) scopeNode(node pyast.NodeID) pyast.NodeID {
	for node.IsValid() && node != c.tree.Root {
		node = c.getParent(node)
		if isScopeNode(c.tree.Kind(node)) {
			return node
		}
	}
	return pyast.NoNodeID
}

func (c *Checker) isDocstring(node pyast.NodeID) bool {
	if c.tree.Kind(node) != pyast.KindExpr {
		return false
	}
	_, ok := c.tree.StrConst(c.tree.Child(node, "value"))
	return ok
}

// nodeName is the identifier a node binds or reads: Name.id, the name of
// a def, handler or pattern, or MatchMapping.rest.
func (c *Checker) nodeName(node pyast.NodeID) string {
	for _, field := range [...]string{"id", "name", "rest"} {
		if v, ok := c.tree.Field(node, field); ok {
			if v.Kind == pyast.ValueString {
				return v.Str
			}
			return ""
		}
	}
	return ""
}
