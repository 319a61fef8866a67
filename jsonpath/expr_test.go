package jsonpath_test

import (
	"strings"
	"testing"

	"github.com/dcook-net/json-everything/jsonpath"
)

func mustParse(t *testing.T, src string) *jsonpath.Expr {
	t.Helper()
	e, err := jsonpath.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return e
}

func TestParse_Precedence(t *testing.T) {
	// Each expression must hold with empty inputs; wrong grouping would
	// flip the result.
	cases := []string{
		"1 + 2 * 3 == 7",
		"(1 + 2) * 3 == 9",
		"10 - 3 - 2 == 5",
		"8 / 4 / 2 == 1",
		"2 * 3 % 4 == 2",
		"-3 + 5 == 2",
		"1 < 2 == true",
		"false || true && false == false",
		"!(1 == 2)",
		"1 + 1 == 2 && 2 + 2 == 4 || 1 == 2",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			if !mustParse(t, src).Test(nil, nil) {
				t.Fatalf("expected %q to hold", src)
			}
		})
	}
}

func TestParse_Paths(t *testing.T) {
	doc := decode(t, `{
		"store": {"book": [{"title": "SICP"}, {"title": "TAPL"}]},
		"key with space": 7,
		"nested": {"k": [10, 20]}
	}`)
	cases := []struct {
		src  string
		want string
	}{
		{`@.store.book[0].title`, `"SICP"`},
		{`@.store.book[1].title`, `"TAPL"`},
		{`@["key with space"]`, `7`},
		{`@['key with space']`, `7`},
		{`@.nested["k"][1]`, `20`},
		{`$.nested.k[0]`, `10`},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			e := mustParse(t, tc.src)
			v, ok := e.Value(doc, doc)
			if !ok {
				t.Fatalf("%q: expected a value, got absent", tc.src)
			}
			if got := literal(t, v); got != tc.want {
				t.Fatalf("%q = %s, want %s", tc.src, got, tc.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		src     string
		wantSub string
	}{
		{"", "expression ends"},
		{"1 +", "expression ends"},
		{"(1 + 2", `unclosed "("`},
		{"1 + 2)", `unexpected ")"`},
		{"@.", "expected member name"},
		{"@[x]", "expected index or quoted name"},
		{"@[0", "expected ']'"},
		{"foo", "unknown identifier"},
		{"'abc", "unterminated string"},
		{"\"a\\q\"", "invalid escape"},
		{"1 ? 2", "unexpected character"},
		{"* 2", `unexpected "*"`},
		{"1 2", "unexpected value"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			_, err := jsonpath.Parse(tc.src)
			if err == nil {
				t.Fatalf("Parse(%q): expected error", tc.src)
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("Parse(%q) error %q, want substring %q", tc.src, err, tc.wantSub)
			}
			if !strings.HasPrefix(err.Error(), "jsonpath: ") {
				t.Fatalf("Parse(%q) error %q lacks package prefix", tc.src, err)
			}
		})
	}
}

func TestParse_StringEscapes(t *testing.T) {
	e := mustParse(t, `@.name == "line\nbreak é \"q\" \\"`)
	doc := map[string]any{"name": "line\nbreak é \"q\" \\"}
	if !e.Test(doc, nil) {
		t.Fatalf("escaped string literal did not match")
	}
}

func TestMustParse_PanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("MustParse on a bad expression should panic")
		}
	}()
	jsonpath.MustParse("1 +")
}

func TestExpr_String(t *testing.T) {
	src := "  @.a == 1 && @.b < 2 "
	if got := mustParse(t, src).String(); got != "@.a == 1 && @.b < 2" {
		t.Fatalf("String() = %q", got)
	}
}

func TestOp_Table(t *testing.T) {
	ops := []jsonpath.Op{
		jsonpath.OpOr, jsonpath.OpAnd,
		jsonpath.OpEq, jsonpath.OpNe,
		jsonpath.OpLt, jsonpath.OpLe, jsonpath.OpGt, jsonpath.OpGe,
		jsonpath.OpAdd, jsonpath.OpSub, jsonpath.OpMul, jsonpath.OpDiv, jsonpath.OpMod,
		jsonpath.OpNot, jsonpath.OpNeg,
	}
	for _, op := range ops {
		if op.String() == "" {
			t.Fatalf("op %d has no name", op)
		}
		if op.Precedence() <= 0 {
			t.Fatalf("op %s has no precedence", op)
		}
		if op.IsBinary() == op.IsUnary() {
			t.Fatalf("op %s must be exactly one of binary or unary", op)
		}
	}
	if jsonpath.OpMul.Precedence() <= jsonpath.OpAdd.Precedence() {
		t.Fatalf("multiplicative operators must bind tighter than additive")
	}
	if jsonpath.OpAnd.Precedence() <= jsonpath.OpOr.Precedence() {
		t.Fatalf("&& must bind tighter than ||")
	}
	if jsonpath.OpEq.Precedence() <= jsonpath.OpAnd.Precedence() {
		t.Fatalf("comparisons must bind tighter than &&")
	}
}
