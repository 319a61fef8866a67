package jsonpath_test

import (
	"bytes"
	"encoding/json"
	"testing"

	gojson "github.com/goccy/go-json"
)

func decode(t *testing.T, src string) any {
	t.Helper()
	dec := gojson.NewDecoder(bytes.NewReader([]byte(src)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode %s: %v", src, err)
	}
	return v
}

func literal(t *testing.T, v any) string {
	t.Helper()
	b, err := gojson.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %v: %v", v, err)
	}
	return string(b)
}

func TestEval_Comparisons(t *testing.T) {
	doc := decode(t, `{"n": 1, "f": 1.0, "s": "abc", "b": true, "z": null, "arr": [1]}`)
	cases := []struct {
		src  string
		want bool
	}{
		// numeric equality is by value, not representation
		{`@.n == 1`, true},
		{`@.n == @.f`, true},
		{`@.n == 1.0`, true},
		{`@.n != 2`, true},
		{`0.1 + 0.2 == 0.3`, true},
		{`@.s == "abc"`, true},
		{`@.s == "abd"`, false},
		{`@.z == null`, true},
		{`@.b == true`, true},
		{`@.arr == @.arr`, true},
		// absent semantics: two misses agree, a miss never equals a value
		{`@.missing == @.alsoMissing`, true},
		{`@.missing == null`, false},
		{`@.missing != null`, true},
		{`@.missing != @.alsoMissing`, false},
		// ordering
		{`@.n < 2`, true},
		{`@.n <= 1`, true},
		{`@.n > 0.5`, true},
		{`@.n >= 1.0`, true},
		{`@.s < "abd"`, true},
		{`@.s > "ab"`, true},
		// ordering never holds across kinds or against a miss
		{`@.s < 5`, false},
		{`@.n < "abc"`, false},
		{`@.missing < 5`, false},
		{`@.missing <= @.alsoMissing`, false},
		{`@.b < true`, false},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			if got := mustParse(t, tc.src).Test(doc, doc); got != tc.want {
				t.Fatalf("Test(%q) = %v, want %v", tc.src, got, tc.want)
			}
		})
	}
}

func TestEval_Arithmetic(t *testing.T) {
	doc := decode(t, `{"a": 10, "b": 3, "pi": 3.5, "s1": "foo", "s2": "bar"}`)
	cases := []struct {
		src  string
		want string // expected Value as JSON, or "" for absent
	}{
		{`@.a + @.b`, `13`},
		{`@.a - @.b`, `7`},
		{`@.a * @.b`, `30`},
		{`@.a / 4`, `2.5`},
		{`@.a % @.b`, `1`},
		{`-@.b`, `-3`},
		{`@.pi * 2`, `7`},
		{`@.s1 + @.s2`, `"foobar"`},
		// outside the domain the result is absent, never an error
		{`@.a / 0`, ``},
		{`@.pi % 2`, ``},
		{`@.a % 0`, ``},
		{`@.s1 + 1`, ``},
		{`@.s1 - @.s2`, ``},
		{`@.missing + 1`, ``},
		{`-@.s1`, ``},
		{`-@.missing`, ``},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			v, ok := mustParse(t, tc.src).Value(doc, doc)
			if tc.want == "" {
				if ok {
					t.Fatalf("Value(%q) = %v, want absent", tc.src, v)
				}
				return
			}
			if !ok {
				t.Fatalf("Value(%q) is absent, want %s", tc.src, tc.want)
			}
			if _, isNum := v.(json.Number); !isNum {
				if _, isStr := v.(string); !isStr {
					t.Fatalf("Value(%q) has kind %T", tc.src, v)
				}
			}
			if got := literal(t, v); got != tc.want {
				t.Fatalf("Value(%q) = %s, want %s", tc.src, got, tc.want)
			}
		})
	}
}

func TestEval_TruncatedModulo(t *testing.T) {
	// % follows truncated division, like Go's own operator.
	doc := decode(t, `{}`)
	cases := []struct {
		src  string
		want string
	}{
		{`-7 % 3`, `-1`},
		{`7 % -3`, `1`},
		{`-7 % -3`, `-1`},
		{`8 - 7 % 3`, `7`}, // % binds tighter than binary -
	}
	for _, tc := range cases {
		v, ok := mustParse(t, tc.src).Value(doc, doc)
		if !ok {
			t.Fatalf("Value(%q) is absent", tc.src)
		}
		if got := literal(t, v); got != tc.want {
			t.Fatalf("Value(%q) = %s, want %s", tc.src, got, tc.want)
		}
	}
}

func TestEval_Truthiness(t *testing.T) {
	doc := decode(t, `{"name": "x", "flag": false, "zero": 0, "empty": "", "z": null}`)
	cases := []struct {
		src  string
		want bool
	}{
		// a bare path is an existence test, except that a present false
		// stays false
		{`@.name`, true},
		{`@.flag`, false},
		{`@.missing`, false},
		// present non-boolean values are true regardless of content
		{`@.zero`, true},
		{`@.empty`, true},
		{`@.z`, true},
		{`!@.missing`, true},
		{`!@.name`, false},
		{`@.name && @.zero`, true},
		{`@.flag || @.missing`, false},
		{`@.flag || @.name`, true},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			if got := mustParse(t, tc.src).Test(doc, doc); got != tc.want {
				t.Fatalf("Test(%q) = %v, want %v", tc.src, got, tc.want)
			}
		})
	}
}

func TestEval_PathMisses(t *testing.T) {
	doc := decode(t, `{"obj": {"a": 1}, "arr": [1, 2]}`)
	for _, src := range []string{
		`@.obj.b`,   // missing member
		`@.arr[5]`,  // index past the end
		`@.obj[0]`,  // index into an object
		`@.arr.a`,   // member of an array
		`@.obj.a.b`, // member of a number
		`$.nowhere`, // root miss
	} {
		t.Run(src, func(t *testing.T) {
			if _, ok := mustParse(t, src).Value(doc, doc); ok {
				t.Fatalf("Value(%q): expected absent", src)
			}
		})
	}
}

func TestEval_RootVersusCurrent(t *testing.T) {
	root := decode(t, `{"budget": 10, "items": [{"price": 5}, {"price": 15}]}`)
	item := decode(t, `{"price": 5}`)
	e := mustParse(t, `@.price < $.budget`)
	if !e.Test(item, root) {
		t.Fatalf("5 < 10 should hold")
	}
	item = decode(t, `{"price": 15}`)
	if e.Test(item, root) {
		t.Fatalf("15 < 10 should not hold")
	}
}

func TestFilter(t *testing.T) {
	doc := decode(t, `{
		"budget": 10,
		"books": [
			{"title": "A", "price": 8, "fiction": true},
			{"title": "B", "price": 12, "fiction": true},
			{"title": "C", "price": 9, "fiction": false},
			{"title": "D", "price": 3}
		]
	}`).(map[string]any)
	books := doc["books"].([]any)

	titles := func(filtered []any) string {
		var out string
		for _, b := range filtered {
			out += b.(map[string]any)["title"].(string)
		}
		return out
	}

	cases := []struct {
		src  string
		want string
	}{
		{`@.price < 10`, "ACD"},
		{`@.price < $.budget`, "ACD"},
		{`@.fiction`, "AB"},
		{`@.fiction == false`, "C"},
		{`@.price < 10 && @.fiction`, "A"},
		{`@.price > 100`, ""},
		{`@.fiction == @.nope`, "D"}, // both absent only on D
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			got := titles(mustParse(t, tc.src).Filter(books, doc))
			if got != tc.want {
				t.Fatalf("Filter(%q) kept %q, want %q", tc.src, got, tc.want)
			}
		})
	}
}

func TestFilter_NilRootIsFine(t *testing.T) {
	books := decode(t, `[{"n": 1}, {"n": 2}]`).([]any)
	kept := mustParse(t, `@.n == 2`).Filter(books, nil)
	if len(kept) != 1 {
		t.Fatalf("kept %d elements, want 1", len(kept))
	}
}
