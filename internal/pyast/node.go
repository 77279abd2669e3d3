package pyast

// Pos is a CPython location: 1-based lines, 0-based UTF-8 byte columns.
type Pos struct {
	Line    uint32
	Col     uint32
	EndLine uint32
	EndCol  uint32
}

// IsValid reports whether the node carried a location.
func (p Pos) IsValid() bool { return p.Line != 0 }

// ValueKind tags the payload of a Value.
type ValueKind uint8

const (
	ValueAbsent ValueKind = iota
	ValueNode
	ValueList
	ValueStrings
	ValueString
	ValueInt
	ValueBool
	ValueConst
)

// ConstType is the Python type of a Constant value.
type ConstType uint8

const (
	ConstNone ConstType = iota
	ConstEllipsis
	ConstBool
	ConstInt
	ConstFloat
	ConstComplex
	ConstStr
	ConstBytes
	ConstOther
)

var constTypeNames = [...]string{
	"NoneType",
	"ellipsis",
	"bool",
	"int",
	"float",
	"complex",
	"str",
	"bytes",
	"object",
}

func (c ConstType) String() string {
	if int(c) < len(constTypeNames) {
		return constTypeNames[c]
	}
	return "object"
}

func constTypeOf(name string) ConstType {
	for i, n := range constTypeNames {
		if n == name {
			return ConstType(i)
		}
	}
	return ConstOther
}

// Value is one field of a node.
//
// Lists of nodes keep NoNodeID for None entries (Dict.keys under `**`).
// Const values keep their text in Str: the string itself, bytes as latin-1,
// numbers in Python repr form.
type Value struct {
	Kind  ValueKind
	Node  NodeID
	Nodes []NodeID
	Strs  []string
	Str   string
	Int   int64
	Bool  bool
	Const ConstType
}

// Field is a named node field in CPython _fields order.
type Field struct {
	Name  string
	Value Value
}

type Node struct {
	Kind   Kind
	Type   string
	Pos    Pos
	Fields []Field
}

// Field looks a field up by name.
func (n *Node) Field(name string) (Value, bool) {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			return n.Fields[i].Value, true
		}
	}
	return Value{}, false
}

// HasField reports whether the node class declares the field, even when its value is absent.
func (n *Node) HasField(name string) bool {
	_, ok := n.Field(name)
	return ok
}
