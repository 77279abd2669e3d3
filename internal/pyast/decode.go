package pyast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"fortio.org/safecast"
)

// Decode reads a tree in the worker's JSON encoding:
//
//	{"_type": "Name", "_pos": [line, col, endLine, endCol], "id": "x", "ctx": {"_type": "Load"}}
//
// Fields keep the order they have in the stream.
func Decode(r io.Reader) (*Tree, error) {
	d := &decoder{dec: json.NewDecoder(r), tree: NewTree(256)}
	d.dec.UseNumber()
	v, err := d.value()
	if err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if v.Kind != ValueNode {
		return nil, errors.New("decode tree: root is not a node")
	}
	d.tree.Root = v.Node
	return d.tree, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) (*Tree, error) {
	return Decode(bytes.NewReader(data))
}

type decoder struct {
	dec  *json.Decoder
	tree *Tree
}

func (d *decoder) value() (Value, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return Value{}, err
	}
	return d.fromToken(tok)
}

func (d *decoder) fromToken(tok json.Token) (Value, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return d.object()
		case '[':
			return d.list()
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", v)
	case nil:
		return Value{Kind: ValueAbsent}, nil
	case string:
		return Value{Kind: ValueString, Str: v}, nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("field number %q: %w", v, err)
		}
		return Value{Kind: ValueInt, Int: i}, nil
	case bool:
		return Value{Kind: ValueBool, Bool: v}, nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func (d *decoder) list() (Value, error) {
	out := Value{Kind: ValueList}
	for d.dec.More() {
		v, err := d.value()
		if err != nil {
			return Value{}, err
		}
		switch v.Kind {
		case ValueNode:
			out.Nodes = append(out.Nodes, v.Node)
		case ValueAbsent:
			out.Nodes = append(out.Nodes, NoNodeID)
		case ValueString:
			out.Kind = ValueStrings
			out.Strs = append(out.Strs, v.Str)
		default:
			return Value{}, fmt.Errorf("unsupported list element of kind %d", v.Kind)
		}
	}
	if out.Kind == ValueStrings && len(out.Nodes) > 0 {
		return Value{}, errors.New("list mixes nodes and strings")
	}
	if _, err := d.dec.Token(); err != nil { // ]
		return Value{}, err
	}
	return out, nil
}

func (d *decoder) key() (string, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return "", err
	}
	k, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return k, nil
}

func (d *decoder) object() (Value, error) {
	if !d.dec.More() {
		if _, err := d.dec.Token(); err != nil {
			return Value{}, err
		}
		return Value{}, errors.New("empty object")
	}
	k, err := d.key()
	if err != nil {
		return Value{}, err
	}
	if k == "_const" {
		return d.constant()
	}

	id := d.tree.Add(Node{})
	var (
		node     Node
		typeSeen bool
	)
	for {
		switch k {
		case "_type":
			v, err := d.value()
			if err != nil {
				return Value{}, err
			}
			if v.Kind != ValueString {
				return Value{}, errors.New("_type is not a string")
			}
			node.Type = v.Str
			node.Kind = KindOf(v.Str)
			typeSeen = true
		case "_pos":
			pos, err := d.pos()
			if err != nil {
				return Value{}, err
			}
			node.Pos = pos
		default:
			v, err := d.value()
			if err != nil {
				return Value{}, fmt.Errorf("field %s: %w", k, err)
			}
			node.Fields = append(node.Fields, Field{Name: k, Value: v})
		}
		if !d.dec.More() {
			break
		}
		if k, err = d.key(); err != nil {
			return Value{}, err
		}
	}
	if _, err := d.dec.Token(); err != nil { // }
		return Value{}, err
	}
	if !typeSeen {
		return Value{}, errors.New("node without _type")
	}
	*d.tree.Node(id) = node
	return Value{Kind: ValueNode, Node: id}, nil
}

func (d *decoder) constant() (Value, error) {
	out := Value{Kind: ValueConst}
	k := "_const"
	for {
		v, err := d.value()
		if err != nil {
			return Value{}, err
		}
		switch k {
		case "_const":
			out.Const = constTypeOf(v.Str)
		case "value":
			switch v.Kind {
			case ValueBool:
				out.Bool = v.Bool
			case ValueString:
				out.Str = v.Str
			case ValueInt:
				out.Str = fmt.Sprint(v.Int)
			}
		}
		if !d.dec.More() {
			break
		}
		if k, err = d.key(); err != nil {
			return Value{}, err
		}
	}
	if _, err := d.dec.Token(); err != nil {
		return Value{}, err
	}
	if out.Const == ConstBool {
		if out.Bool {
			out.Str = "True"
		} else {
			out.Str = "False"
		}
	}
	return out, nil
}

func (d *decoder) pos() (Pos, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return Pos{}, err
	}
	if tok == nil {
		return Pos{}, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return Pos{}, errPosShape
	}
	var nums []uint32
	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return Pos{}, err
		}
		num, ok := tok.(json.Number)
		if !ok {
			return Pos{}, errPosShape
		}
		i, err := num.Int64()
		if err != nil {
			return Pos{}, errPosShape
		}
		u, err := safecast.Conv[uint32](i)
		if err != nil {
			return Pos{}, fmt.Errorf("_pos: %w", err)
		}
		nums = append(nums, u)
	}
	if _, err := d.dec.Token(); err != nil { // ]
		return Pos{}, err
	}
	if len(nums) != 4 {
		return Pos{}, errPosShape
	}
	return Pos{Line: nums[0], Col: nums[1], EndLine: nums[2], EndCol: nums[3]}, nil
}

var errPosShape = errors.New("_pos must hold four integers")
