package pyast

// Kind is the closed set of CPython syntax node classes the checker knows about.
// Classes outside the set decode as KindUnknown and keep their name in Node.Type.
type Kind uint8

const (
	KindUnknown Kind = iota

	// module kinds
	KindModule
	KindInteractive
	KindExpression
	KindFunctionType

	// statements
	KindFunctionDef
	KindAsyncFunctionDef
	KindClassDef
	KindReturn
	KindDelete
	KindAssign
	KindTypeAlias
	KindAugAssign
	KindAnnAssign
	KindFor
	KindAsyncFor
	KindWhile
	KindIf
	KindWith
	KindAsyncWith
	KindMatch
	KindRaise
	KindTry
	KindTryStar
	KindAssert
	KindImport
	KindImportFrom
	KindGlobal
	KindNonlocal
	KindExpr
	KindPass
	KindBreak
	KindContinue

	// expressions
	KindBoolOp
	KindNamedExpr
	KindBinOp
	KindUnaryOp
	KindLambda
	KindIfExp
	KindDict
	KindSet
	KindListComp
	KindSetComp
	KindDictComp
	KindGeneratorExp
	KindAwait
	KindYield
	KindYieldFrom
	KindCompare
	KindCall
	KindFormattedValue
	KindInterpolation
	KindJoinedStr
	KindTemplateStr
	KindConstant
	KindAttribute
	KindSubscript
	KindStarred
	KindName
	KindList
	KindTuple
	KindSlice

	// pre-3.9 slices and pre-3.8 literals
	KindIndex
	KindExtSlice
	KindNum
	KindStr
	KindBytes
	KindNameConstant
	KindEllipsis

	// expression contexts
	KindLoad
	KindStore
	KindDel
	KindAugLoad
	KindAugStore
	KindParam

	// operators
	KindAnd
	KindOr
	KindAdd
	KindSub
	KindMult
	KindMatMult
	KindDiv
	KindMod
	KindPow
	KindLShift
	KindRShift
	KindBitOr
	KindBitXor
	KindBitAnd
	KindFloorDiv
	KindInvert
	KindNot
	KindUAdd
	KindUSub
	KindEq
	KindNotEq
	KindLt
	KindLtE
	KindGt
	KindGtE
	KindIs
	KindIsNot
	KindIn
	KindNotIn

	// helper nodes
	KindComprehension
	KindExceptHandler
	KindArguments
	KindArg
	KindKeyword
	KindAlias
	KindWithItem
	KindMatchCase
	KindTypeIgnore

	// patterns
	KindMatchValue
	KindMatchSingleton
	KindMatchSequence
	KindMatchMapping
	KindMatchClass
	KindMatchStar
	KindMatchAs
	KindMatchOr

	// type parameters
	KindTypeVar
	KindParamSpec
	KindTypeVarTuple

	kindCount
)

// kindNames follows the order of the Kind constants.
var kindNames = [kindCount]string{
	"<unknown>",
	"Module",
	"Interactive",
	"Expression",
	"FunctionType",
	"FunctionDef",
	"AsyncFunctionDef",
	"ClassDef",
	"Return",
	"Delete",
	"Assign",
	"TypeAlias",
	"AugAssign",
	"AnnAssign",
	"For",
	"AsyncFor",
	"While",
	"If",
	"With",
	"AsyncWith",
	"Match",
	"Raise",
	"Try",
	"TryStar",
	"Assert",
	"Import",
	"ImportFrom",
	"Global",
	"Nonlocal",
	"Expr",
	"Pass",
	"Break",
	"Continue",
	"BoolOp",
	"NamedExpr",
	"BinOp",
	"UnaryOp",
	"Lambda",
	"IfExp",
	"Dict",
	"Set",
	"ListComp",
	"SetComp",
	"DictComp",
	"GeneratorExp",
	"Await",
	"Yield",
	"YieldFrom",
	"Compare",
	"Call",
	"FormattedValue",
	"Interpolation",
	"JoinedStr",
	"TemplateStr",
	"Constant",
	"Attribute",
	"Subscript",
	"Starred",
	"Name",
	"List",
	"Tuple",
	"Slice",
	"Index",
	"ExtSlice",
	"Num",
	"Str",
	"Bytes",
	"NameConstant",
	"Ellipsis",
	"Load",
	"Store",
	"Del",
	"AugLoad",
	"AugStore",
	"Param",
	"And",
	"Or",
	"Add",
	"Sub",
	"Mult",
	"MatMult",
	"Div",
	"Mod",
	"Pow",
	"LShift",
	"RShift",
	"BitOr",
	"BitXor",
	"BitAnd",
	"FloorDiv",
	"Invert",
	"Not",
	"UAdd",
	"USub",
	"Eq",
	"NotEq",
	"Lt",
	"LtE",
	"Gt",
	"GtE",
	"Is",
	"IsNot",
	"In",
	"NotIn",
	"comprehension",
	"ExceptHandler",
	"arguments",
	"arg",
	"keyword",
	"alias",
	"withitem",
	"match_case",
	"TypeIgnore",
	"MatchValue",
	"MatchSingleton",
	"MatchSequence",
	"MatchMapping",
	"MatchClass",
	"MatchStar",
	"MatchAs",
	"MatchOr",
	"TypeVar",
	"ParamSpec",
	"TypeVarTuple",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k := KindUnknown + 1; k < kindCount; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// KindOf maps a CPython class name to its Kind.
func KindOf(name string) Kind {
	if k, ok := kindByName[name]; ok {
		return k
	}
	return KindUnknown
}

// String returns the CPython class name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// IsContext reports expression-context marker kinds (Load, Store, Del...).
func (k Kind) IsContext() bool {
	return k >= KindLoad && k <= KindParam
}

// IsOperator reports operator marker kinds.
func (k Kind) IsOperator() bool {
	return k >= KindAnd && k <= KindNotIn
}

// IsFunction reports FunctionDef and AsyncFunctionDef.
func (k Kind) IsFunction() bool {
	return k == KindFunctionDef || k == KindAsyncFunctionDef
}

// IsLoop reports the loop statements.
func (k Kind) IsLoop() bool {
	return k == KindFor || k == KindAsyncFor || k == KindWhile
}
