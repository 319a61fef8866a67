package jsonpointer_test

import (
	"errors"
	"testing"

	jp "github.com/dcook-net/json-everything/jsonpointer"
)

func TestParse_RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"/a",
		"/a/b/0",
		"/a~1b",
		"/m~0n",
		"/",
		"//",
		"/ ",
	}
	for _, s := range cases {
		p, err := jp.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got := p.String(); got != s {
			t.Errorf("round trip %q: got %q", s, got)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"a/b", "/a~2b", "/a~"} {
		if _, err := jp.Parse(s); err == nil {
			t.Errorf("Parse(%q): want error, got nil", s)
		}
	}
}

func TestAppend_DoesNotMutateParent(t *testing.T) {
	base := jp.New("items")
	left := base.AppendIndex(0)
	right := base.AppendKey("name")

	if got := base.String(); got != "/items" {
		t.Fatalf("parent changed after append: %q", got)
	}
	if got := left.String(); got != "/items/0" {
		t.Errorf("left = %q", got)
	}
	if got := right.String(); got != "/items/name" {
		t.Errorf("right = %q", got)
	}
}

func TestAppend_SiblingsIndependent(t *testing.T) {
	// Two children appended from the same parent must not alias each
	// other's storage.
	base := jp.New("a", "b")
	c1 := base.AppendKey("x")
	c2 := base.AppendKey("y")
	g1 := c1.AppendKey("deep")

	if got := c2.String(); got != "/a/b/y" {
		t.Errorf("sibling corrupted: %q", got)
	}
	if got := g1.String(); got != "/a/b/x/deep" {
		t.Errorf("grandchild = %q", got)
	}
}

func TestString_EscapesSpecials(t *testing.T) {
	p := jp.New("a/b", "m~n")
	if got := p.String(); got != "/a~1b/m~0n" {
		t.Fatalf("String() = %q", got)
	}
	back, err := jp.Parse(p.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !back.Equal(p) {
		t.Fatalf("escape round trip lost tokens: %v vs %v", back.Tokens(), p.Tokens())
	}
}

func TestTokens_ReturnsCopy(t *testing.T) {
	p := jp.New("a", "b")
	toks := p.Tokens()
	toks[0] = "mutated"
	if got := p.String(); got != "/a/b" {
		t.Fatalf("Tokens() leaked internal storage: %q", got)
	}
}

func TestEqual(t *testing.T) {
	if !jp.Root.Equal(jp.New()) {
		t.Error("root pointers should be equal")
	}
	if !jp.New("a", "0").Equal(jp.MustParse("/a/0")) {
		t.Error("equivalent pointers should be equal")
	}
	if jp.New("a", "b").Equal(jp.New("b", "a")) {
		t.Error("token order must matter")
	}
	if jp.New("a").Equal(jp.New("a", "b")) {
		t.Error("prefix must not equal longer pointer")
	}
}

func TestEvaluate(t *testing.T) {
	doc := map[string]any{
		"users": []any{
			map[string]any{"name": "ann"},
			map[string]any{"name": "bo"},
		},
		"a/b": "slash",
	}

	cases := []struct {
		ptr  string
		want any
	}{
		{"", doc},
		{"/users/1/name", "bo"},
		{"/a~1b", "slash"},
	}
	for _, tc := range cases {
		got, err := jp.MustParse(tc.ptr).Evaluate(doc)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tc.ptr, err)
		}
		switch want := tc.want.(type) {
		case string:
			if got != want {
				t.Errorf("Evaluate(%q) = %v, want %v", tc.ptr, got, want)
			}
		default:
			if got == nil {
				t.Errorf("Evaluate(%q) = nil", tc.ptr)
			}
		}
	}
}

func TestEvaluate_NotFound(t *testing.T) {
	doc := map[string]any{"xs": []any{"a", "b"}}
	for _, s := range []string{"/missing", "/xs/2", "/xs/01", "/xs/-", "/xs/0/deep"} {
		_, err := jp.MustParse(s).Evaluate(doc)
		if !errors.Is(err, jp.ErrNotFound) {
			t.Errorf("Evaluate(%q): want ErrNotFound, got %v", s, err)
		}
	}
}
