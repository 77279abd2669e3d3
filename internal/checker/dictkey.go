package checker

import (
	"math/big"
	"strconv"
	"strings"

	"flakes/internal/diag"
	"flakes/internal/pyast"
)

// dictKey is the static value of a dict key or value. Two keys are equal
// when their canonical forms are, following Python equality: 1, 1.0 and
// True are the same key.
type dictKey struct {
	canon string
	// name is set for a bare variable.
	name string
	// repr is the Python repr of a literal.
	repr string
}

func (k dictKey) isVariable() bool { return k.name != "" }

// keyValue converts an expression to a dictKey. Expressions without a
// static value get a unique key.
func (c *Checker) keyValue(id pyast.NodeID, unique *int) dictKey {
	switch c.tree.Kind(id) {
	case pyast.KindConstant:
		if v, ok := c.tree.Const(id); ok {
			if canon, repr, ok := constKey(v); ok {
				return dictKey{canon: canon, repr: repr}
			}
		}
	case pyast.KindTuple:
		elts := c.tree.List(id, "elts")
		var canon, repr strings.Builder
		canon.WriteString("t(")
		repr.WriteByte('(')
		for i, e := range elts {
			k := c.keyValue(e, unique)
			if strings.HasPrefix(k.canon, "u:") {
				return k
			}
			canon.WriteString(strconv.Itoa(len(k.canon)))
			canon.WriteByte(':')
			canon.WriteString(k.canon)
			if i > 0 {
				repr.WriteString(", ")
			}
			if k.isVariable() {
				repr.WriteString(k.name)
			} else {
				repr.WriteString(k.repr)
			}
		}
		if len(elts) == 1 {
			repr.WriteByte(',')
		}
		canon.WriteByte(')')
		repr.WriteByte(')')
		return dictKey{canon: canon.String(), repr: repr.String()}
	case pyast.KindName:
		name := c.tree.Str(id, "id")
		return dictKey{canon: "v:" + name, name: name}
	}
	*unique++
	return dictKey{canon: "u:" + strconv.Itoa(*unique)}
}

// constKey returns the canonical form and repr of a constant.
func constKey(v pyast.Value) (canon, repr string, ok bool) {
	switch v.Const {
	case pyast.ConstNone:
		return "N", "None", true
	case pyast.ConstEllipsis:
		return "E", "Ellipsis", true
	case pyast.ConstBool:
		if v.Str == "True" || v.Bool {
			return "n:1", "True", true
		}
		return "n:0", "False", true
	case pyast.ConstInt, pyast.ConstFloat:
		n, ok := numberKey(v.Str)
		return n, v.Str, ok
	case pyast.ConstComplex:
		n, ok := complexKey(v.Str)
		return n, v.Str, ok
	case pyast.ConstStr:
		return "s:" + strconv.Itoa(len(v.Str)) + ":" + v.Str, diag.Repr(v.Str), true
	case pyast.ConstBytes:
		return "b:" + strconv.Itoa(len(v.Str)) + ":" + v.Str, diag.ReprBytes(v.Str), true
	}
	return "", "", false
}

// numberKey canonicalises an int or float repr.
func numberKey(s string) (string, bool) {
	switch s {
	case "inf":
		return "n:inf", true
	case "nan":
		return "", false
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", false
	}
	return "n:" + r.RatString(), true
}

// complexKey canonicalises a complex repr such as 2j or (1+2j). A zero
// imaginary part makes it equal to the real number.
func complexKey(s string) (string, bool) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	if !strings.HasSuffix(s, "j") {
		return "", false
	}
	s = strings.TrimSuffix(s, "j")
	re, im := "0", s
	// split before the sign of the imaginary part, skipping exponent signs
	for i := len(s) - 1; i > 0; i-- {
		if (s[i] == '+' || s[i] == '-') && s[i-1] != 'e' && s[i-1] != 'E' {
			re, im = s[:i], s[i:]
			break
		}
	}
	reKey, ok := numberKey(strings.TrimPrefix(re, "+"))
	if !ok {
		return "", false
	}
	imKey, ok := numberKey(strings.TrimPrefix(im, "+"))
	if !ok {
		return "", false
	}
	if imKey == "n:0" {
		return reKey, true
	}
	return "c:" + reKey + ":" + imKey, true
}

// dict reports keys repeated with different values.
func (c *Checker) dict(id pyast.NodeID) {
	keyNodes := c.tree.List(id, "keys")
	valueNodes := c.tree.List(id, "values")
	unique := 0
	keys := make([]dictKey, len(keyNodes))
	counts := make(map[string]int, len(keyNodes))
	var order []string
	for i, k := range keyNodes {
		keys[i] = c.keyValue(k, &unique)
		if counts[keys[i].canon] == 0 {
			order = append(order, keys[i].canon)
		}
		counts[keys[i].canon]++
	}

	for _, canon := range order {
		if counts[canon] < 2 {
			continue
		}
		var indices []int
		for i, k := range keys {
			if k.canon == canon {
				indices = append(indices, i)
			}
		}
		values := make(map[string]int, len(indices))
		for _, i := range indices {
			if i < len(valueNodes) {
				values[c.keyValue(valueNodes[i], &unique).canon]++
			}
		}
		differ := false
		for _, n := range values {
			if n == 1 {
				differ = true
				break
			}
		}
		if !differ {
			continue
		}
		first := keys[indices[0]]
		for _, i := range indices {
			if first.isVariable() {
				c.report(diag.MultiValueRepeatedKeyVariable, keyNodes[i], first.name)
			} else {
				c.report(diag.MultiValueRepeatedKeyLiteral, keyNodes[i], diag.Raw(first.repr))
			}
		}
	}
	c.handleChildren(id)
}
