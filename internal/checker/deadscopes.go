package checker

import (
	"sort"
	"strings"

	"flakes/internal/diag"
	"flakes/internal/source"
	"flakes/internal/symbols"
)

// checkDeadScopes reports what only shows once a scope is closed: unused
// locals and imports, and __all__ entries that name nothing.
func (c *Checker) checkDeadScopes() {
	pkgInit := source.BaseName(c.opts.Filename) == "__init__.py"
	for _, sid := range c.dead {
		s := c.table.Scope(sid)
		// imports in a class body are public attributes
		if s.Kind == symbols.ScopeClass {
			continue
		}

		if s.Kind == symbols.ScopeFunction {
			for _, e := range c.table.UnusedAssignments(sid) {
				c.report(diag.UnusedVariable, c.binding(e.Binding).Source, e.Name)
			}
			for _, e := range c.table.UnusedAnnotations(sid) {
				c.report(diag.UnusedAnnotation, c.binding(e.Binding).Source, e.Name)
			}
		}

		allNames := map[string]struct{}{}
		var undefined []string
		allID, hasAll := s.Lookup("__all__")
		if hasAll && c.binding(allID).Kind != symbols.BindingExport {
			hasAll = false
		}
		if hasAll {
			all := c.binding(allID)
			for _, name := range all.Names {
				allNames[name] = struct{}{}
				if !s.Has(name) {
					undefined = append(undefined, name)
				}
			}
		}

		if len(undefined) > 0 {
			allSource := c.binding(allID).Source
			if !s.ImportStarred && !pkgInit {
				for _, name := range undefined {
					c.report(diag.UndefinedExport, allSource, name)
				}
			}
			if s.ImportStarred {
				var from []string
				s.Each(func(_ string, id symbols.BindingID) bool {
					if b := c.binding(id); b.Kind == symbols.BindingStarImport {
						b.Used = symbols.Use{Export: allID}
						from = append(from, b.FullName)
					}
					return true
				})
				sort.Strings(from)
				list := diag.Raw(strings.Join(from, ", "))
				for _, name := range undefined {
					c.report(diag.ImportStarUsage, allSource, name, list)
				}
			}
		}

		s.Each(func(_ string, id symbols.BindingID) bool {
			b := c.binding(id)
			if !b.Kind.IsImportation() {
				return true
			}
			_, exported := allNames[b.Name]
			used := b.Used.IsSet() || exported
			if !used {
				c.report(diag.UnusedImport, b.Source, b.String())
			}
			for _, node := range b.Redefined {
				code := diag.RedefinedWhileUnused
				switch {
				case isForLoop(c.tree.Kind(c.getParent(node))):
					code = diag.ImportShadowedByLoopVar
				case used:
					continue
				}
				c.reportRedefinition(code, node, b.Name, b.Source)
			}
			return true
		})
	}
}
