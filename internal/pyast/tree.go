package pyast

// Tree is a decoded syntax tree. Every node lives in one arena so that node
// ids stay comparable across grafted sub-trees.
type Tree struct {
	Nodes *Arena[Node]
	Root  NodeID
}

// NewTree returns an empty tree.
func NewTree(capHint uint) *Tree {
	return &Tree{Nodes: NewArena[Node](capHint)}
}

// Add appends a node and returns its id.
func (t *Tree) Add(n Node) NodeID {
	return NodeID(t.Nodes.Allocate(n))
}

// Node returns the node or nil for NoNodeID.
func (t *Tree) Node(id NodeID) *Node {
	return t.Nodes.Get(uint32(id))
}

func (t *Tree) Len() int {
	return int(t.Nodes.Len())
}

func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return KindUnknown
}

func (t *Tree) Pos(id NodeID) Pos {
	if n := t.Node(id); n != nil {
		return n.Pos
	}
	return Pos{}
}

func (t *Tree) Field(id NodeID, name string) (Value, bool) {
	n := t.Node(id)
	if n == nil {
		return Value{}, false
	}
	return n.Field(name)
}

// Has reports whether the node class declares the field.
func (t *Tree) Has(id NodeID, name string) bool {
	_, ok := t.Field(id, name)
	return ok
}

// Child returns a single-node field, NoNodeID when absent or not a node.
func (t *Tree) Child(id NodeID, name string) NodeID {
	v, _ := t.Field(id, name)
	if v.Kind == ValueNode {
		return v.Node
	}
	return NoNodeID
}

// List returns a node-list field. None entries are NoNodeID.
func (t *Tree) List(id NodeID, name string) []NodeID {
	v, _ := t.Field(id, name)
	if v.Kind == ValueList {
		return v.Nodes
	}
	return nil
}

// Str returns a string field ("" when absent).
func (t *Tree) Str(id NodeID, name string) string {
	v, _ := t.Field(id, name)
	if v.Kind == ValueString {
		return v.Str
	}
	return ""
}

// OptStr returns a string field and whether it was present and not None.
func (t *Tree) OptStr(id NodeID, name string) (string, bool) {
	v, _ := t.Field(id, name)
	return v.Str, v.Kind == ValueString
}

// Strings returns a list-of-identifiers field such as Global.names.
func (t *Tree) Strings(id NodeID, name string) []string {
	v, _ := t.Field(id, name)
	if v.Kind == ValueStrings {
		return v.Strs
	}
	return nil
}

func (t *Tree) Int(id NodeID, name string) int64 {
	v, _ := t.Field(id, name)
	switch v.Kind {
	case ValueInt:
		return v.Int
	case ValueBool:
		if v.Bool {
			return 1
		}
	}
	return 0
}

// Const returns the value of a Constant or MatchSingleton node.
func (t *Tree) Const(id NodeID) (Value, bool) {
	v, ok := t.Field(id, "value")
	if !ok || v.Kind != ValueConst {
		return Value{}, false
	}
	return v, true
}

// IsConst reports a Constant node holding a value of type ct.
func (t *Tree) IsConst(id NodeID, ct ConstType) bool {
	if t.Kind(id) != KindConstant {
		return false
	}
	v, ok := t.Const(id)
	return ok && v.Const == ct
}

// StrConst returns the text of a str Constant.
func (t *Tree) StrConst(id NodeID) (string, bool) {
	if !t.IsConst(id, ConstStr) {
		return "", false
	}
	v, _ := t.Const(id)
	return v.Str, true
}

// Children returns the direct child nodes in field order, skipping omitted fields.
func (t *Tree) Children(id NodeID, order []string, omit ...string) []NodeID {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	var out []NodeID
	visit := func(f *Field) {
		switch f.Value.Kind {
		case ValueNode:
			out = append(out, f.Value.Node)
		case ValueList:
			for _, c := range f.Value.Nodes {
				if c.IsValid() {
					out = append(out, c)
				}
			}
		}
	}
	skipped := func(name string) bool {
		for _, o := range omit {
			if o == name {
				return true
			}
		}
		return false
	}
	if len(order) == 0 {
		for i := range n.Fields {
			if !skipped(n.Fields[i].Name) {
				visit(&n.Fields[i])
			}
		}
		return out
	}
	for _, name := range order {
		if skipped(name) {
			continue
		}
		for i := range n.Fields {
			if n.Fields[i].Name == name {
				visit(&n.Fields[i])
				break
			}
		}
	}
	return out
}

// FieldNames returns the field names of a node in declaration order.
func (t *Tree) FieldNames(id NodeID) []string {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	names := make([]string, len(n.Fields))
	for i := range n.Fields {
		names[i] = n.Fields[i].Name
	}
	return names
}

// Graft copies every node of sub into t and returns the new id of sub's root.
func (t *Tree) Graft(sub *Tree) NodeID {
	if sub == nil || !sub.Root.IsValid() {
		return NoNodeID
	}
	base := NodeID(t.Nodes.Len())
	remap := func(id NodeID) NodeID {
		if !id.IsValid() {
			return NoNodeID
		}
		return id + base
	}
	for _, n := range sub.Nodes.Slice() {
		cp := n
		cp.Fields = make([]Field, len(n.Fields))
		for i, f := range n.Fields {
			v := f.Value
			switch v.Kind {
			case ValueNode:
				v.Node = remap(v.Node)
			case ValueList:
				nodes := make([]NodeID, len(v.Nodes))
				for j, c := range v.Nodes {
					nodes[j] = remap(c)
				}
				v.Nodes = nodes
			}
			cp.Fields[i] = Field{Name: f.Name, Value: v}
		}
		t.Add(cp)
	}
	return remap(sub.Root)
}

// Walk visits id and its descendants depth-first in field order.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !id.IsValid() || !fn(id) {
		return
	}
	for _, c := range t.Children(id, nil) {
		t.Walk(c, fn)
	}
}
