package jsonpath

import (
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/dcook-net/json-everything/internal/jsonvalue"
)

// Value evaluates the expression against a node. current is the value "@"
// refers to and root the value "$" refers to; both are decoded JSON trees.
// ok is false when the result is absent: a path reference that does not
// resolve, or an operation applied to operands outside its domain.
func (e *Expr) Value(current, root any) (any, bool) {
	return e.root.eval(current, root)
}

// Test reports whether the expression holds for a node. Comparisons and
// logical operators test their boolean result; a bare path reference tests
// existence; any other present non-boolean value counts as true.
func (e *Expr) Test(current, root any) bool {
	return truthy(e.root.eval(current, root))
}

// Filter returns the elements of arr the expression holds for, in order.
// Pass the enclosing document as root so "$" references resolve; nil is
// fine when the expression only uses "@".
func (e *Expr) Filter(arr []any, root any) []any {
	var out []any
	for _, el := range arr {
		if e.Test(el, root) {
			out = append(out, el)
		}
	}
	return out
}

func truthy(v any, ok bool) bool {
	if !ok {
		return false
	}
	if b, isBool := v.(bool); isBool {
		return b
	}
	return true
}

// ---- node evaluation ----

func (n *literalNode) eval(_, _ any) (any, bool) {
	return n.v, true
}

func (n *pathNode) eval(current, root any) (any, bool) {
	v := current
	if n.fromRoot {
		v = root
	}
	for _, seg := range n.segs {
		if seg.isIndex {
			arr, isArr := v.([]any)
			if !isArr || seg.index >= len(arr) {
				return nil, false
			}
			v = arr[seg.index]
			continue
		}
		obj, isObj := v.(map[string]any)
		if !isObj {
			return nil, false
		}
		member, present := obj[seg.key]
		if !present {
			return nil, false
		}
		v = member
	}
	return v, true
}

func (n *unaryNode) eval(current, root any) (any, bool) {
	v, ok := n.operand.eval(current, root)
	switch n.op {
	case OpNot:
		return !truthy(v, ok), true
	case OpNeg:
		if !ok {
			return nil, false
		}
		r, isNum := jsonvalue.Rat(v)
		if !isNum {
			return nil, false
		}
		return numberFromRat(new(big.Rat).Neg(r)), true
	}
	return nil, false
}

func (n *binaryNode) eval(current, root any) (any, bool) {
	switch n.op {
	case OpAnd:
		if !truthy(n.left.eval(current, root)) {
			return false, true
		}
		return truthy(n.right.eval(current, root)), true
	case OpOr:
		if truthy(n.left.eval(current, root)) {
			return true, true
		}
		return truthy(n.right.eval(current, root)), true
	}

	lv, lok := n.left.eval(current, root)
	rv, rok := n.right.eval(current, root)

	switch n.op {
	case OpEq:
		return equal(lv, lok, rv, rok), true
	case OpNe:
		return !equal(lv, lok, rv, rok), true
	case OpLt, OpLe, OpGt, OpGe:
		return order(n.op, lv, lok, rv, rok), true
	}
	return arith(n.op, lv, lok, rv, rok)
}

// ---- operator semantics ----

// equal treats two absent operands as equal, so "@.missing == null" is
// false while "@.a == @.b" holds when neither member exists.
func equal(lv any, lok bool, rv any, rok bool) bool {
	if !lok || !rok {
		return lok == rok
	}
	return jsonvalue.Equal(lv, rv)
}

// order compares numbers by value and strings lexicographically. Mixed
// kinds, non-orderable kinds, and absent operands all compare false, for
// every ordering operator.
func order(op Op, lv any, lok bool, rv any, rok bool) bool {
	if !lok || !rok {
		return false
	}
	var cmp int
	lr, lNum := jsonvalue.Rat(lv)
	rr, rNum := jsonvalue.Rat(rv)
	switch {
	case lNum && rNum:
		cmp = lr.Cmp(rr)
	default:
		ls, lStr := lv.(string)
		rs, rStr := rv.(string)
		if !lStr || !rStr {
			return false
		}
		switch {
		case ls < rs:
			cmp = -1
		case ls > rs:
			cmp = 1
		}
	}
	switch op {
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

// arith applies +, -, *, / and % exactly, producing json.Number results.
// "+" concatenates when both operands are strings. Division by zero and
// "%" outside the integers yield the absent state rather than an error.
func arith(op Op, lv any, lok bool, rv any, rok bool) (any, bool) {
	if !lok || !rok {
		return nil, false
	}
	if op == OpAdd {
		if ls, isStr := lv.(string); isStr {
			rs, alsoStr := rv.(string)
			if !alsoStr {
				return nil, false
			}
			return ls + rs, true
		}
	}
	lr, lNum := jsonvalue.Rat(lv)
	rr, rNum := jsonvalue.Rat(rv)
	if !lNum || !rNum {
		return nil, false
	}
	out := new(big.Rat)
	switch op {
	case OpAdd:
		out.Add(lr, rr)
	case OpSub:
		out.Sub(lr, rr)
	case OpMul:
		out.Mul(lr, rr)
	case OpDiv:
		if rr.Sign() == 0 {
			return nil, false
		}
		out.Quo(lr, rr)
	case OpMod:
		if !lr.IsInt() || !rr.IsInt() || rr.Sign() == 0 {
			return nil, false
		}
		rem := new(big.Int).Rem(lr.Num(), rr.Num())
		out.SetInt(rem)
	default:
		return nil, false
	}
	return numberFromRat(out), true
}

// numberFromRat renders integers exactly and everything else through the
// shortest float64 form, matching how decoded documents carry numbers.
func numberFromRat(r *big.Rat) json.Number {
	if r.IsInt() {
		return json.Number(r.Num().String())
	}
	f, _ := r.Float64()
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
}
