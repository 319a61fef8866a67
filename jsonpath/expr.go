package jsonpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Expr is a compiled filter expression such as
//
//	@.price < 10 && @.category == "fiction"
//
// Operands are literals (numbers, strings, true/false/null) and singular
// path references rooted at "@" (the node under test) or "$" (the whole
// document). An Expr is immutable and safe for concurrent use.
type Expr struct {
	root exprNode
	src  string
}

// Parse compiles the textual filter form.
func Parse(src string) (*Expr, error) {
	p := &parser{lx: &lexer{src: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node, err := p.parseBinary(precOr)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf(p.tok.pos, "unexpected %s after expression", p.tok.describe())
	}
	return &Expr{root: node, src: strings.TrimSpace(src)}, nil
}

// MustParse is Parse for trusted literals; it panics on error.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the expression as written.
func (e *Expr) String() string { return e.src }

// ---- AST ----

type exprNode interface {
	// eval returns the node's value; ok is false for the absent state
	// (a path reference that does not resolve, or an operation whose
	// operands it does not apply to).
	eval(current, root any) (any, bool)
}

type literalNode struct {
	v any
}

// pathSegment is one step of a singular path reference: a member name or an
// array index, never both.
type pathSegment struct {
	key     string
	index   int
	isIndex bool
}

type pathNode struct {
	fromRoot bool // $ instead of @
	segs     []pathSegment
}

type binaryNode struct {
	op          Op
	left, right exprNode
}

type unaryNode struct {
	op      Op
	operand exprNode
}

// ---- lexer ----

type tokKind int

const (
	tokEOF tokKind = iota
	tokLParen
	tokRParen
	tokOp
	tokLiteral
	tokPath
)

type token struct {
	kind tokKind
	op   Op
	lit  any
	path *pathNode
	pos  int
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	case tokOp:
		return fmt.Sprintf("%q", t.op.String())
	case tokPath:
		return "path reference"
	default:
		return fmt.Sprintf("value %v", t.lit)
	}
}

type lexer struct {
	src string
	pos int
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case ' ', '\t', '\n', '\r':
			lx.pos++
		default:
			return
		}
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpace()
	start := lx.pos
	if lx.pos >= len(lx.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := lx.src[lx.pos]
	switch {
	case c == '(':
		lx.pos++
		return token{kind: tokLParen, pos: start}, nil
	case c == ')':
		lx.pos++
		return token{kind: tokRParen, pos: start}, nil
	case c == '@' || c == '$':
		lx.pos++
		path, err := lx.lexPath(c == '$', start)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokPath, path: path, pos: start}, nil
	case c == '\'' || c == '"':
		s, err := lx.lexString(c)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokLiteral, lit: s, pos: start}, nil
	case c >= '0' && c <= '9':
		return token{kind: tokLiteral, lit: lx.lexNumber(), pos: start}, nil
	case isNameStart(c):
		name := lx.lexName()
		switch name {
		case "true":
			return token{kind: tokLiteral, lit: true, pos: start}, nil
		case "false":
			return token{kind: tokLiteral, lit: false, pos: start}, nil
		case "null":
			return token{kind: tokLiteral, lit: nil, pos: start}, nil
		default:
			return token{}, fmt.Errorf("jsonpath: unknown identifier %q at offset %d", name, start)
		}
	}
	if op, width := lx.lexOperator(); op != OpInvalid {
		lx.pos += width
		return token{kind: tokOp, op: op, pos: start}, nil
	}
	return token{}, fmt.Errorf("jsonpath: unexpected character %q at offset %d", c, start)
}

func (lx *lexer) lexOperator() (Op, int) {
	rest := lx.src[lx.pos:]
	switch {
	case strings.HasPrefix(rest, "||"):
		return OpOr, 2
	case strings.HasPrefix(rest, "&&"):
		return OpAnd, 2
	case strings.HasPrefix(rest, "=="):
		return OpEq, 2
	case strings.HasPrefix(rest, "!="):
		return OpNe, 2
	case strings.HasPrefix(rest, "<="):
		return OpLe, 2
	case strings.HasPrefix(rest, ">="):
		return OpGe, 2
	case strings.HasPrefix(rest, "<"):
		return OpLt, 1
	case strings.HasPrefix(rest, ">"):
		return OpGt, 1
	case strings.HasPrefix(rest, "+"):
		return OpAdd, 1
	case strings.HasPrefix(rest, "-"):
		return OpSub, 1
	case strings.HasPrefix(rest, "*"):
		return OpMul, 1
	case strings.HasPrefix(rest, "/"):
		return OpDiv, 1
	case strings.HasPrefix(rest, "%"):
		return OpMod, 1
	case strings.HasPrefix(rest, "!"):
		return OpNot, 1
	}
	return OpInvalid, 0
}

func (lx *lexer) lexNumber() json.Number {
	start := lx.pos
	digits := func() {
		for lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '9' {
			lx.pos++
		}
	}
	digits()
	if lx.pos < len(lx.src) && lx.src[lx.pos] == '.' {
		lx.pos++
		digits()
	}
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == 'e' || lx.src[lx.pos] == 'E') {
		lx.pos++
		if lx.pos < len(lx.src) && (lx.src[lx.pos] == '+' || lx.src[lx.pos] == '-') {
			lx.pos++
		}
		digits()
	}
	return json.Number(lx.src[start:lx.pos])
}

func (lx *lexer) lexString(quote byte) (string, error) {
	start := lx.pos
	lx.pos++ // opening quote
	var b strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch c {
		case quote:
			lx.pos++
			return b.String(), nil
		case '\\':
			lx.pos++
			if lx.pos >= len(lx.src) {
				return "", fmt.Errorf("jsonpath: unterminated escape at offset %d", lx.pos-1)
			}
			esc := lx.src[lx.pos]
			switch esc {
			case '\'', '"', '\\', '/':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'u':
				if lx.pos+4 >= len(lx.src) {
					return "", fmt.Errorf("jsonpath: truncated \\u escape at offset %d", lx.pos-1)
				}
				n, err := strconv.ParseUint(lx.src[lx.pos+1:lx.pos+5], 16, 32)
				if err != nil {
					return "", fmt.Errorf("jsonpath: invalid \\u escape at offset %d", lx.pos-1)
				}
				b.WriteRune(rune(n))
				lx.pos += 4
			default:
				return "", fmt.Errorf("jsonpath: invalid escape \"\\%c\" at offset %d", esc, lx.pos-1)
			}
			lx.pos++
		default:
			b.WriteByte(c)
			lx.pos++
		}
	}
	return "", fmt.Errorf("jsonpath: unterminated string starting at offset %d", start)
}

func (lx *lexer) lexName() string {
	start := lx.pos
	for lx.pos < len(lx.src) && isNameChar(lx.src[lx.pos]) {
		lx.pos++
	}
	return lx.src[start:lx.pos]
}

// lexPath consumes the segments following "@" or "$": ".name", "[0]",
// or a quoted member name in brackets. Only singular references are
// allowed here; wildcards belong to query selectors, not expressions.
func (lx *lexer) lexPath(fromRoot bool, start int) (*pathNode, error) {
	node := &pathNode{fromRoot: fromRoot}
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case '.':
			lx.pos++
			if lx.pos >= len(lx.src) || !isNameStart(lx.src[lx.pos]) {
				return nil, fmt.Errorf("jsonpath: expected member name after '.' at offset %d", lx.pos)
			}
			node.segs = append(node.segs, pathSegment{key: lx.lexName()})
		case '[':
			lx.pos++
			lx.skipSpace()
			if lx.pos >= len(lx.src) {
				return nil, fmt.Errorf("jsonpath: unterminated '[' at offset %d", lx.pos-1)
			}
			switch c := lx.src[lx.pos]; {
			case c == '\'' || c == '"':
				key, err := lx.lexString(c)
				if err != nil {
					return nil, err
				}
				node.segs = append(node.segs, pathSegment{key: key})
			case c >= '0' && c <= '9':
				numStart := lx.pos
				for lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '9' {
					lx.pos++
				}
				idx, err := strconv.Atoi(lx.src[numStart:lx.pos])
				if err != nil {
					return nil, fmt.Errorf("jsonpath: invalid index at offset %d", numStart)
				}
				node.segs = append(node.segs, pathSegment{index: idx, isIndex: true})
			default:
				return nil, fmt.Errorf("jsonpath: expected index or quoted name at offset %d", lx.pos)
			}
			lx.skipSpace()
			if lx.pos >= len(lx.src) || lx.src[lx.pos] != ']' {
				return nil, fmt.Errorf("jsonpath: expected ']' at offset %d", lx.pos)
			}
			lx.pos++
		default:
			return node, nil
		}
	}
	return node, nil
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// ---- parser ----

// The grammar is parsed by precedence climbing: parseBinary(level) consumes
// operators at or above the given level, recursing one level tighter for the
// right-hand side so operators within a level associate left.
type parser struct {
	lx  *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return fmt.Errorf("jsonpath: "+format+" at offset %d", append(args, pos)...)
}

func (p *parser) parseBinary(minPrec int) (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && p.tok.op.IsBinary() && p.tok.op.Precedence() >= minPrec {
		op := p.tok.op
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(op.Precedence() + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (exprNode, error) {
	if p.tok.kind == tokOp {
		// In operand position "-" negates and "!" inverts; no other
		// operator may open an operand.
		var op Op
		switch p.tok.op {
		case OpSub:
			op = OpNeg
		case OpNot:
			op = OpNot
		default:
			return nil, p.errorf(p.tok.pos, "unexpected %s", p.tok.describe())
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (exprNode, error) {
	switch p.tok.kind {
	case tokLiteral:
		node := &literalNode{v: p.tok.lit}
		return node, p.advance()
	case tokPath:
		node := p.tok.path
		return node, p.advance()
	case tokLParen:
		open := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		node, err := p.parseBinary(precOr)
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf(open, "unclosed \"(\"")
		}
		return node, p.advance()
	case tokEOF:
		return nil, p.errorf(p.tok.pos, "expression ends where a value is expected")
	default:
		return nil, p.errorf(p.tok.pos, "unexpected %s", p.tok.describe())
	}
}
