package checker

import (
	"sort"
	"strings"

	"flakes/internal/diag"
	"flakes/internal/pyast"
	"flakes/internal/source"
	"flakes/internal/symbols"
)

const undefinedBuiltinLocal = "local variable %r defined as a builtin referenced before assignment"

// addBinding installs b in the current scope on behalf of node, reporting
// redefinitions of unused names and imports shadowed by loop variables.
func (c *Checker) addBinding(node pyast.NodeID, b symbols.Binding) symbols.BindingID {
	owner := c.stack[0]
	for i := len(c.stack) - 1; i >= 0; i-- {
		owner = c.stack[i]
		if c.table.Scope(owner).Has(b.Name) {
			break
		}
	}
	cur := c.scopeID()

	if existingID, ok := c.table.Scope(owner).Lookup(b.Name); ok {
		existing := c.binding(existingID)
		if existing.Kind != symbols.BindingBuiltin && !c.differentForks(node, existing.Source) {
			parentStmt := c.getParent(b.Source)
			switch {
			case existing.Kind.IsImportation() && isForLoop(c.tree.Kind(parentStmt)):
				c.reportRedefinition(diag.ImportShadowedByLoopVar, node, b.Name, existing.Source)
			case owner == cur:
				if !existing.Used.IsSet() && b.Redefines(existing) &&
					(b.Name != "_" || existing.Kind.IsImportation()) &&
					!c.isTypingOverload(existing) {
					c.reportRedefinition(diag.RedefinedWhileUnused, node, b.Name, existing.Source)
				}
			case existing.Kind.IsImportation() && b.Redefines(existing):
				existing.Redefined = append(existing.Redefined, node)
			}
		}
	}

	scope := c.table.Scope(cur)
	// a rebound name inherits the use of the binding it replaces
	if prev, ok := scope.Lookup(b.Name); ok {
		b.Used = c.binding(prev).Used
	}
	if scope.Has(b.Name) && b.Kind == symbols.BindingAnnotation {
		return symbols.NoBindingID
	}

	id := c.table.Bindings.New(b)
	if b.Kind == symbols.BindingNamedExpr {
		// the target of := inside a comprehension binds in the enclosing scope
		for i := len(c.stack) - 1; i >= 0; i-- {
			s := c.table.Scope(c.stack[i])
			if s.Kind == symbols.ScopeGenerator {
				continue
			}
			if !s.Has(b.Name) {
				s.Define(b.Name, id)
			}
			break
		}
		return id
	}
	scope.Define(b.Name, id)
	return id
}

func (c *Checker) isTypingOverload(b *symbols.Binding) bool {
	if !c.tree.Kind(b.Source).IsFunction() {
		return false
	}
	for _, dec := range c.tree.List(b.Source, "decorator_list") {
		if c.isTyping(dec, "overload") {
			return true
		}
	}
	return false
}

// handleNodeLoad resolves a read of node's name through the scope stack.
func (c *Checker) handleNodeLoad(node, parent pyast.NodeID) {
	name := c.nodeName(node)
	if name == "" {
		return
	}
	cur := c.scopeID()
	use := symbols.Use{Scope: cur, Node: node}

	// class bodies are visible only to direct reads, comprehensions and
	// type parameters
	decided, canAccessClass := false, false
	importStarred := false

	for i := len(c.stack) - 1; i >= 0; i-- {
		s := c.table.Scope(c.stack[i])
		if s.Kind == symbols.ScopeClass {
			if name == "__class__" {
				return
			}
			if decided && !canAccessClass {
				continue
			}
		}

		if id, ok := s.Lookup(name); ok {
			b := c.binding(id)
			if b.Kind == symbols.BindingAnnotation && !c.inPostponedAnnotation() {
				b.Used = use
				continue
			}
			if name == "print" && b.Kind == symbols.BindingBuiltin &&
				c.tree.Kind(parent) == pyast.KindBinOp && c.tree.Kind(c.tree.Child(parent, "op")) == pyast.KindRShift {
				c.report(diag.InvalidPrintSyntax, node)
			}
			b.Used = use
			if b.Kind.IsImportation() && b.HasAlias() {
				if full, ok := s.Lookup(b.FullName); ok {
					c.binding(full).Used = use
				}
			}
			return
		}

		importStarred = importStarred || s.ImportStarred
		if !decided || canAccessClass {
			canAccessClass = s.Kind == symbols.ScopeTypeParam || s.Kind == symbols.ScopeGenerator
			decided = true
		}
	}

	if importStarred {
		var from []string
		for i := len(c.stack) - 1; i >= 0; i-- {
			c.table.Scope(c.stack[i]).Each(func(_ string, id symbols.BindingID) bool {
				if b := c.binding(id); b.Kind == symbols.BindingStarImport {
					b.Used = use
					from = append(from, b.FullName)
				}
				return true
			})
		}
		sort.Strings(from)
		c.report(diag.ImportStarUsage, node, name, diag.Raw(strings.Join(from, ", ")))
		return
	}

	if name == "__path__" && source.BaseName(c.opts.Filename) == "__init__.py" {
		return
	}
	if _, ok := classMagicNames[name]; ok && c.scope().Kind == symbols.ScopeClass {
		return
	}
	// guarded by an enclosing `except NameError`
	for _, h := range c.exceptHandlers[len(c.exceptHandlers)-1] {
		if h == "NameError" {
			return
		}
	}
	c.report(diag.UndefinedName, node, name)
}

// handleNodeStore binds node's name in the current scope.
func (c *Checker) handleNodeStore(node pyast.NodeID) {
	name := c.nodeName(node)
	if name == "" {
		return
	}
	curID := c.scopeID()
	if cur := c.table.Scope(curID); cur.Kind == symbols.ScopeFunction && !cur.Has(name) {
		for _, sid := range c.stack[:len(c.stack)-1] {
			s := c.table.Scope(sid)
			if s.Kind != symbols.ScopeFunction && !s.Kind.IsModule() {
				continue
			}
			id, ok := s.Lookup(name)
			if !ok {
				continue
			}
			b := c.binding(id)
			if b.Used.Scope == curID && !cur.IsGlobal(name) {
				c.reportUndefinedLocal(b.Used.Node, name, b.Source)
				break
			}
		}
	}

	parentStmt := c.getParent(node)
	direct := c.parentOf(node)
	stmtKind := c.tree.Kind(parentStmt)
	b := symbols.Binding{Name: name, Source: node}
	switch {
	case stmtKind == pyast.KindAnnAssign && !c.tree.Child(parentStmt, "value").IsValid():
		b.Kind = symbols.BindingAnnotation
	case isForLoop(stmtKind) || stmtKind == pyast.KindComprehension,
		parentStmt != direct && !c.isLiteralTupleUnpacking(parentStmt):
		b.Kind = symbols.BindingPlain
	case name == "__all__" && c.scope().Kind.IsModule() && isAssignStmt(c.tree.Kind(direct)):
		b.Kind = symbols.BindingExport
		b.Source = direct
		b.Names = c.exportNames(direct)
	case stmtKind == pyast.KindNamedExpr:
		b.Kind = symbols.BindingNamedExpr
	default:
		b.Kind = symbols.BindingAssignment
	}
	c.addBinding(node, b)
}

func isForLoop(k pyast.Kind) bool {
	return k == pyast.KindFor || k == pyast.KindAsyncFor
}

func isAssignStmt(k pyast.Kind) bool {
	return k == pyast.KindAssign || k == pyast.KindAugAssign || k == pyast.KindAnnAssign
}

func (c *Checker) reportUndefinedLocal(at pyast.NodeID, name string, orig pyast.NodeID) {
	if !orig.IsValid() {
		c.emit(c.newDiagf(diag.UndefinedLocal, c.span(at), undefinedBuiltinLocal, name))
		return
	}
	c.reportRedefinition(diag.UndefinedLocal, at, name, orig)
}

// isLiteralTupleUnpacking matches `a, b = 1, 2`: every target and the value
// are tuple or list displays.
func (c *Checker) isLiteralTupleUnpacking(stmt pyast.NodeID) bool {
	if c.tree.Kind(stmt) != pyast.KindAssign {
		return false
	}
	for _, t := range c.tree.List(stmt, "targets") {
		if !c.tree.Has(t, "elts") {
			return false
		}
	}
	return c.tree.Has(c.tree.Child(stmt, "value"), "elts")
}

// exportNames collects the string literals assigned to __all__ by stmt.
// `+=` extends the names already known; `a + b + [...]` chains are followed
// while the right operand is a display.
func (c *Checker) exportNames(stmt pyast.NodeID) []string {
	var names []string
	if c.tree.Kind(stmt) == pyast.KindAugAssign {
		if b, ok := c.table.Lookup(c.scopeID(), "__all__"); ok {
			names = append(names, b.Names...)
		}
	}
	add := func(container pyast.NodeID) {
		for _, elt := range c.tree.List(container, "elts") {
			if s, ok := c.tree.StrConst(elt); ok {
				names = append(names, s)
			}
		}
	}
	isDisplay := func(id pyast.NodeID) bool {
		k := c.tree.Kind(id)
		return k == pyast.KindList || k == pyast.KindTuple
	}

	value := c.tree.Child(stmt, "value")
	switch {
	case isDisplay(value):
		add(value)
	case c.tree.Kind(value) == pyast.KindBinOp:
		cur := value
		for isDisplay(c.tree.Child(cur, "right")) {
			left := c.tree.Child(cur, "left")
			add(c.tree.Child(cur, "right"))
			if c.tree.Kind(left) == pyast.KindBinOp {
				cur = left
				continue
			}
			if isDisplay(left) {
				add(left)
			}
			break
		}
	}
	return names
}

// handleNodeDelete unbinds node's name unless the del sits in a conditional branch.
func (c *Checker) handleNodeDelete(node pyast.NodeID) {
	name := c.nodeName(node)
	if name == "" {
		return
	}
	for cur := c.parentOf(node); cur.IsValid(); cur = c.parentOf(cur) {
		switch c.tree.Kind(cur) {
		case pyast.KindIf, pyast.KindWhile, pyast.KindIfExp:
			return
		}
	}
	s := c.scope()
	if s.Kind == symbols.ScopeFunction && s.IsGlobal(name) {
		s.ForgetGlobal(name)
		return
	}
	if err := s.Remove(name); err != nil {
		c.report(diag.UndefinedName, node, name)
	}
}

// lookup returns the binding of name in the innermost scope that has one.
func (c *Checker) lookup(name string) *symbols.Binding {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if b, ok := c.table.Lookup(c.stack[i], name); ok {
			return b
		}
	}
	return nil
}
