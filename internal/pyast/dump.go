package pyast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes an indented view of the subtree rooted at id, one node per line:
//
//	Assign @1:0-1:5
//	  targets[0]: Name @1:0-1:1 id='x' ctx=Store
func Dump(w io.Writer, t *Tree, id NodeID) error {
	d := dumper{w: w, t: t}
	d.node("", id, 0)
	return d.err
}

type dumper struct {
	w   io.Writer
	t   *Tree
	err error
}

func (d *dumper) printf(format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}

func (d *dumper) node(label string, id NodeID, depth int) {
	n := d.t.Node(id)
	if n == nil {
		return
	}
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", depth))
	if label != "" {
		sb.WriteString(label)
		sb.WriteString(": ")
	}
	sb.WriteString(n.Type)
	if n.Pos.IsValid() {
		fmt.Fprintf(&sb, " @%d:%d-%d:%d", n.Pos.Line, n.Pos.Col, n.Pos.EndLine, n.Pos.EndCol)
	}
	// scalar fields and bare markers stay on the node line
	type child struct {
		label string
		id    NodeID
	}
	var children []child
	for _, f := range n.Fields {
		v := f.Value
		switch v.Kind {
		case ValueString:
			fmt.Fprintf(&sb, " %s=%s", f.Name, strconv.Quote(v.Str))
		case ValueInt:
			fmt.Fprintf(&sb, " %s=%d", f.Name, v.Int)
		case ValueBool:
			fmt.Fprintf(&sb, " %s=%t", f.Name, v.Bool)
		case ValueStrings:
			fmt.Fprintf(&sb, " %s=[%s]", f.Name, strings.Join(v.Strs, ", "))
		case ValueConst:
			fmt.Fprintf(&sb, " %s=%s(%s)", f.Name, v.Const, strconv.Quote(v.Str))
		case ValueNode:
			if k := d.t.Kind(v.Node); k.IsContext() || k.IsOperator() {
				fmt.Fprintf(&sb, " %s=%s", f.Name, k)
				continue
			}
			children = append(children, child{f.Name, v.Node})
		case ValueList:
			for i, c := range v.Nodes {
				if k := d.t.Kind(c); k.IsOperator() {
					fmt.Fprintf(&sb, " %s[%d]=%s", f.Name, i, k)
					continue
				}
				children = append(children, child{fmt.Sprintf("%s[%d]", f.Name, i), c})
			}
		}
	}
	d.printf("%s\n", sb.String())
	for _, c := range children {
		if !c.id.IsValid() {
			d.printf("%s%s: None\n", strings.Repeat("  ", depth+1), c.label)
			continue
		}
		d.node(c.label, c.id, depth+1)
	}
}
