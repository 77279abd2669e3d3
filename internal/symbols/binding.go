package symbols

import (
	"strings"

	"flakes/internal/pyast"
)

// BindingKind is the variant of a binding. The variants form the hierarchy
//
//	Plain, Argument, Annotation, Export
//	Assignment > NamedExpr
//	Definition: Function, Class, Builtin, Import > (ImportFrom > FutureImport), StarImport, SubmoduleImport
type BindingKind uint8

const (
	BindingPlain BindingKind = iota
	BindingArgument
	BindingAssignment
	BindingNamedExpr
	BindingAnnotation
	BindingExport
	BindingFunction
	BindingClass
	BindingBuiltin
	BindingImport
	BindingImportFrom
	BindingSubmoduleImport
	BindingStarImport
	BindingFutureImport
)

func (k BindingKind) String() string {
	switch k {
	case BindingPlain:
		return "Binding"
	case BindingArgument:
		return "Argument"
	case BindingAssignment:
		return "Assignment"
	case BindingNamedExpr:
		return "NamedExprAssignment"
	case BindingAnnotation:
		return "Annotation"
	case BindingExport:
		return "ExportBinding"
	case BindingFunction:
		return "FunctionDefinition"
	case BindingClass:
		return "ClassDefinition"
	case BindingBuiltin:
		return "Builtin"
	case BindingImport:
		return "Importation"
	case BindingImportFrom:
		return "ImportationFrom"
	case BindingSubmoduleImport:
		return "SubmoduleImportation"
	case BindingStarImport:
		return "StarImportation"
	case BindingFutureImport:
		return "FutureImportation"
	default:
		return "invalid"
	}
}

// IsAssignment covers Assignment and NamedExpr.
func (k BindingKind) IsAssignment() bool {
	return k == BindingAssignment || k == BindingNamedExpr
}

// IsImportation covers every import variant.
func (k BindingKind) IsImportation() bool {
	switch k {
	case BindingImport, BindingImportFrom, BindingSubmoduleImport, BindingStarImport, BindingFutureImport:
		return true
	}
	return false
}

// IsImportationFrom covers `from m import x` and `from __future__ import x`.
func (k BindingKind) IsImportationFrom() bool {
	return k == BindingImportFrom || k == BindingFutureImport
}

// IsDefinition covers functions, classes, builtins and imports.
func (k BindingKind) IsDefinition() bool {
	switch k {
	case BindingFunction, BindingClass, BindingBuiltin:
		return true
	}
	return k.IsImportation()
}

// Use records where a binding was last read.
type Use struct {
	Scope ScopeID
	Node  pyast.NodeID
	// Export is set when the only use is a name listed in __all__.
	Export BindingID
}

// IsSet reports whether the binding has been used at all.
func (u Use) IsSet() bool {
	return u.Scope.IsValid() || u.Node.IsValid() || u.Export.IsValid()
}

// Binding associates a name with the node that introduced it.
type Binding struct {
	Kind   BindingKind
	Name   string
	Source pyast.NodeID // NoNodeID for builtins
	Used   Use

	// FullName is the dotted import target; for star imports the module.
	FullName string
	// Module and RealName describe `from Module import RealName as Name`.
	Module   string
	RealName string
	// Redefined lists nodes in nested scopes that rebound this import.
	Redefined []pyast.NodeID
	// Names holds the statically known entries of an __all__ binding.
	Names []string
}

// NewImport builds `import fullName` or `import fullName as name`.
func NewImport(name string, source pyast.NodeID, fullName string) Binding {
	if fullName == "" {
		fullName = name
	}
	return Binding{Kind: BindingImport, Name: name, Source: source, FullName: fullName}
}

// NewSubmoduleImport builds `import a.b.c`, bound under its package name.
func NewSubmoduleImport(fullName string, source pyast.NodeID) Binding {
	pkg, _, _ := strings.Cut(fullName, ".")
	return Binding{Kind: BindingSubmoduleImport, Name: pkg, Source: source, FullName: fullName}
}

// NewImportFrom builds `from module import realName as name`.
func NewImportFrom(name string, source pyast.NodeID, module, realName string) Binding {
	if realName == "" {
		realName = name
	}
	full := module + "." + realName
	if strings.HasSuffix(module, ".") {
		full = module + realName
	}
	return Binding{
		Kind:     BindingImportFrom,
		Name:     name,
		Source:   source,
		FullName: full,
		Module:   module,
		RealName: realName,
	}
}

// NewFutureImport builds `from __future__ import name`; it counts as used from the start.
func NewFutureImport(name string, source pyast.NodeID, scope ScopeID) Binding {
	b := NewImportFrom(name, source, "__future__", "")
	b.Kind = BindingFutureImport
	b.Used = Use{Scope: scope, Node: source}
	return b
}

// NewStarImport builds `from module import *`. The name is unique per module
// so that it never collides with a real binding.
func NewStarImport(module string, source pyast.NodeID) Binding {
	return Binding{Kind: BindingStarImport, Name: module + ".*", Source: source, FullName: module}
}

// Redefines reports whether binding b, arriving over other, hides a
// definition that was worth keeping.
func (b *Binding) Redefines(other *Binding) bool {
	switch {
	case b.Kind == BindingAnnotation:
		return false
	case b.Kind == BindingSubmoduleImport:
		if other.Kind.IsImportation() {
			return b.FullName == other.FullName
		}
		return other.Kind.IsDefinition() && b.Name == other.Name
	case b.Kind.IsImportation():
		if other.Kind == BindingSubmoduleImport {
			return b.FullName == other.FullName
		}
		return other.Kind.IsDefinition() && b.Name == other.Name
	case b.Kind.IsDefinition():
		return (other.Kind.IsDefinition() || other.Kind.IsAssignment()) && b.Name == other.Name
	default:
		return other.Kind.IsDefinition() && b.Name == other.Name
	}
}

// HasAlias reports whether an import needs an `as` clause to bind its name.
func (b *Binding) HasAlias() bool {
	switch b.Kind {
	case BindingImportFrom, BindingFutureImport:
		return b.RealName != b.Name
	case BindingImport:
		last := b.FullName
		if i := strings.LastIndexByte(last, '.'); i >= 0 {
			last = last[i+1:]
		}
		return last != b.Name
	}
	return false
}

// String is the display name used in messages: for imports the imported
// target with its alias.
func (b *Binding) String() string {
	switch b.Kind {
	case BindingImport, BindingImportFrom, BindingFutureImport:
		if b.HasAlias() {
			return b.FullName + " as " + b.Name
		}
		return b.FullName
	case BindingSubmoduleImport:
		return b.FullName
	case BindingStarImport:
		// avoid the ambiguous '..*' for relative modules
		if strings.HasSuffix(b.FullName, ".") {
			return b.SourceStatement()
		}
		return b.Name
	}
	return b.Name
}

// SourceStatement renders an import statement equivalent to the binding.
func (b *Binding) SourceStatement() string {
	switch b.Kind {
	case BindingImport:
		if b.HasAlias() {
			return "import " + b.FullName + " as " + b.Name
		}
		return "import " + b.FullName
	case BindingSubmoduleImport:
		return "import " + b.FullName
	case BindingImportFrom, BindingFutureImport:
		if b.HasAlias() {
			return "from " + b.Module + " import " + b.RealName + " as " + b.Name
		}
		return "from " + b.Module + " import " + b.Name
	case BindingStarImport:
		return "from " + b.FullName + " import *"
	}
	return ""
}
