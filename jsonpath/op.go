// Package jsonpath implements the expression operators used by path-query
// filters: binary arithmetic, comparison and logical operators with a fixed
// precedence table, parsed from the textual filter form and evaluated
// against decoded JSON values (map[string]any / []any trees).
//
// The package stands alone: it shares the JSON value vocabulary with the
// jsonschema package but is not coupled to schema evaluation.
package jsonpath

// Op identifies an operator in a filter expression.
type Op int

const (
	OpInvalid Op = iota

	// Binary, listed from loosest to tightest binding.
	OpOr  // ||
	OpAnd // &&
	OpEq  // ==
	OpNe  // !=
	OpLt  // <
	OpLe  // <=
	OpGt  // >
	OpGe  // >=
	OpAdd // +
	OpSub // -
	OpMul // *
	OpDiv // /
	OpMod // %

	// Unary.
	OpNot // !x
	OpNeg // -x
)

// Operator precedence is static; a higher level binds tighter. Binary
// operators are left-associative within a level, unary operators outbind
// every binary operator.
const (
	precOr             = 1
	precAnd            = 2
	precEquality       = 3
	precRelational     = 4
	precAdditive       = 5
	precMultiplicative = 6
	precUnary          = 7
)

var opPrecedence = map[Op]int{
	OpOr:  precOr,
	OpAnd: precAnd,
	OpEq:  precEquality,
	OpNe:  precEquality,
	OpLt:  precRelational,
	OpLe:  precRelational,
	OpGt:  precRelational,
	OpGe:  precRelational,
	OpAdd: precAdditive,
	OpSub: precAdditive,
	OpMul: precMultiplicative,
	OpDiv: precMultiplicative,
	OpMod: precMultiplicative,
	OpNot: precUnary,
	OpNeg: precUnary,
}

var opNames = map[Op]string{
	OpOr:  "||",
	OpAnd: "&&",
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpNot: "!",
	OpNeg: "-",
}

// Precedence returns the operator's binding level; 0 for OpInvalid.
func (op Op) Precedence() int { return opPrecedence[op] }

// String renders the operator as written in an expression.
func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "invalid"
}

// IsBinary reports whether the operator takes two operands.
func (op Op) IsBinary() bool { return op >= OpOr && op <= OpMod }

// IsUnary reports whether the operator takes a single operand.
func (op Op) IsUnary() bool { return op == OpNot || op == OpNeg }
