package jsonschema

import (
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dcook-net/json-everything/internal/jsonvalue"
	"github.com/dcook-net/json-everything/jsonpointer"
)

// Assertion keywords judge the current instance node on their own: no
// annotations read or written, no subschemas applied. A keyword whose type
// does not match the instance (minimum on a string, minItems on an object)
// simply passes; "type" is the keyword whose job is to complain about kinds.

// ---- type ----

var typeNames = map[string]bool{
	"null": true, "boolean": true, "number": true, "integer": true,
	"string": true, "array": true, "object": true,
}

type typeKeyword struct {
	types []string
}

func (k *typeKeyword) Name() string { return "type" }

func (k *typeKeyword) Evaluate(ctx *EvaluationContext) error {
	v := ctx.Instance()
	kind := jsonvalue.KindOf(v)
	for _, t := range k.types {
		if typeMatches(t, kind, v) {
			return nil
		}
	}
	ctx.Fail("got %s, want %s", kind, strings.Join(k.types, " or "))
	return nil
}

func typeMatches(t string, kind jsonvalue.Kind, v any) bool {
	if t == "integer" {
		return kind == jsonvalue.KindNumber && jsonvalue.IsIntegral(v)
	}
	return t == kind.String()
}

func compileType(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	switch v := raw.(type) {
	case string:
		if !typeNames[v] {
			cc.addIssue(loc, CodeInvalidKeyword, fmt.Sprintf("unknown type name %q", v))
			return nil
		}
		return &typeKeyword{types: []string{v}}
	case []any:
		if len(v) == 0 {
			cc.addIssue(loc, CodeInvalidKeyword, `"type" must name at least one type`)
			return nil
		}
		types := make([]string, 0, len(v))
		ok := true
		for i, el := range v {
			s, isStr := el.(string)
			if !isStr || !typeNames[s] {
				cc.addIssue(loc.AppendIndex(i), CodeInvalidKeyword, "type entries must be known type names")
				ok = false
				continue
			}
			types = append(types, s)
		}
		if !ok {
			return nil
		}
		return &typeKeyword{types: types}
	default:
		cc.addIssue(loc, CodeInvalidKeyword, `"type" must be a string or an array of strings`)
		return nil
	}
}

// ---- enum / const ----

type enumKeyword struct {
	values []any
}

func (k *enumKeyword) Name() string { return "enum" }

func (k *enumKeyword) Evaluate(ctx *EvaluationContext) error {
	v := ctx.Instance()
	for _, w := range k.values {
		if jsonvalue.Equal(v, w) {
			return nil
		}
	}
	ctx.Fail("value is not one of the %d allowed values", len(k.values))
	return nil
}

func compileEnum(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		cc.addIssue(loc, CodeInvalidKeyword, `"enum" must be a non-empty array`)
		return nil
	}
	return &enumKeyword{values: list}
}

type constKeyword struct {
	value any
}

func (k *constKeyword) Name() string { return "const" }

func (k *constKeyword) Evaluate(ctx *EvaluationContext) error {
	if !jsonvalue.Equal(ctx.Instance(), k.value) {
		ctx.Fail("value does not equal the required constant")
	}
	return nil
}

func compileConst(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	return &constKeyword{value: raw}
}

// ---- minimum / maximum ----

type boundKeyword struct {
	name    string
	limit   *big.Rat
	display string
	upper   bool
}

func (k *boundKeyword) Name() string { return k.name }

func (k *boundKeyword) Evaluate(ctx *EvaluationContext) error {
	r, ok := jsonvalue.Rat(ctx.Instance())
	if !ok {
		return nil
	}
	cmp := r.Cmp(k.limit)
	if k.upper && cmp > 0 {
		ctx.Fail("%s is greater than maximum %s", numberDisplay(ctx.Instance()), k.display)
	}
	if !k.upper && cmp < 0 {
		ctx.Fail("%s is less than minimum %s", numberDisplay(ctx.Instance()), k.display)
	}
	return nil
}

func compileMinimum(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	return compileBound(cc, raw, loc, "minimum", false)
}

func compileMaximum(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	return compileBound(cc, raw, loc, "maximum", true)
}

func compileBound(cc *compileCtx, raw any, loc jsonpointer.Pointer, name string, upper bool) Keyword {
	r, ok := jsonvalue.Rat(raw)
	if !ok {
		cc.addIssue(loc, CodeInvalidKeyword, fmt.Sprintf("%q must be a number", name))
		return nil
	}
	return &boundKeyword{name: name, limit: r, display: numberDisplay(raw), upper: upper}
}

func numberDisplay(v any) string {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	return fmt.Sprintf("%v", v)
}

// ---- minLength / maxLength ----

type lengthKeyword struct {
	name  string
	n     int
	upper bool
}

func (k *lengthKeyword) Name() string { return k.name }

func (k *lengthKeyword) Evaluate(ctx *EvaluationContext) error {
	s, ok := ctx.Instance().(string)
	if !ok {
		return nil
	}
	// Length counts characters, not bytes.
	n := utf8.RuneCountInString(s)
	if k.upper && n > k.n {
		ctx.Fail("string has %d characters, want at most %d", n, k.n)
	}
	if !k.upper && n < k.n {
		ctx.Fail("string has %d characters, want at least %d", n, k.n)
	}
	return nil
}

func compileMinLength(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	n, ok := compileCount(cc, raw, loc, "minLength")
	if !ok {
		return nil
	}
	return &lengthKeyword{name: "minLength", n: n}
}

func compileMaxLength(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	n, ok := compileCount(cc, raw, loc, "maxLength")
	if !ok {
		return nil
	}
	return &lengthKeyword{name: "maxLength", n: n, upper: true}
}

// ---- pattern ----

type patternKeyword struct {
	re *regexp.Regexp
}

func (k *patternKeyword) Name() string { return "pattern" }

func (k *patternKeyword) Evaluate(ctx *EvaluationContext) error {
	s, ok := ctx.Instance().(string)
	if !ok {
		return nil
	}
	// Unanchored search: the pattern must occur somewhere in the string.
	if !k.re.MatchString(s) {
		ctx.Fail("%q does not match pattern %q", s, k.re.String())
	}
	return nil
}

func compilePattern(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	s, ok := raw.(string)
	if !ok {
		cc.addIssue(loc, CodeInvalidPattern, `"pattern" must be a string`)
		return nil
	}
	re, err := regexp.Compile(s)
	if err != nil {
		cc.addIssueCause(loc, CodeInvalidPattern, fmt.Sprintf("invalid regular expression %q", s), err)
		return nil
	}
	return &patternKeyword{re: re}
}

// ---- required ----

type requiredKeyword struct {
	names []string // sorted, deduplicated
}

func (k *requiredKeyword) Name() string { return "required" }

func (k *requiredKeyword) Evaluate(ctx *EvaluationContext) error {
	obj, ok := ctx.Instance().(map[string]any)
	if !ok {
		return nil
	}
	var missing []string
	for _, name := range k.names {
		if _, present := obj[name]; !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		ctx.Fail("missing required properties: %s", strings.Join(missing, ", "))
	}
	return nil
}

func compileRequired(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	list, ok := raw.([]any)
	if !ok {
		cc.addIssue(loc, CodeInvalidKeyword, `"required" must be an array of property names`)
		return nil
	}
	seen := make(map[string]bool, len(list))
	for i, el := range list {
		s, isStr := el.(string)
		if !isStr {
			cc.addIssue(loc.AppendIndex(i), CodeInvalidKeyword, "required entries must be strings")
			return nil
		}
		seen[s] = true
	}
	names := make([]string, 0, len(seen))
	for s := range seen {
		names = append(names, s)
	}
	sort.Strings(names)
	return &requiredKeyword{names: names}
}

// ---- minItems / maxItems ----

type itemCountKeyword struct {
	name  string
	n     int
	upper bool
}

func (k *itemCountKeyword) Name() string { return k.name }

func (k *itemCountKeyword) Evaluate(ctx *EvaluationContext) error {
	arr, ok := ctx.Instance().([]any)
	if !ok {
		return nil
	}
	if k.upper && len(arr) > k.n {
		ctx.Fail("array has %d items, want at most %d", len(arr), k.n)
	}
	if !k.upper && len(arr) < k.n {
		ctx.Fail("array has %d items, want at least %d", len(arr), k.n)
	}
	return nil
}

func compileMinItems(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	n, ok := compileCount(cc, raw, loc, "minItems")
	if !ok {
		return nil
	}
	return &itemCountKeyword{name: "minItems", n: n}
}

func compileMaxItems(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	n, ok := compileCount(cc, raw, loc, "maxItems")
	if !ok {
		return nil
	}
	return &itemCountKeyword{name: "maxItems", n: n, upper: true}
}

// ---- uniqueItems ----

type uniqueItemsKeyword struct {
	unique bool
}

func (k *uniqueItemsKeyword) Name() string { return "uniqueItems" }

func (k *uniqueItemsKeyword) Evaluate(ctx *EvaluationContext) error {
	if !k.unique {
		return nil
	}
	arr, ok := ctx.Instance().([]any)
	if !ok {
		return nil
	}
	// Bucket by structural hash, confirm with deep equality; the first
	// colliding pair settles the verdict.
	buckets := make(map[uint64][]int, len(arr))
	for i, el := range arr {
		h := jsonvalue.Hash(el)
		for _, prev := range buckets[h] {
			if jsonvalue.Equal(arr[prev], el) {
				ctx.Fail("items %d and %d are equal", prev, i)
				return nil
			}
		}
		buckets[h] = append(buckets[h], i)
	}
	return nil
}

func compileUniqueItems(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	b, ok := raw.(bool)
	if !ok {
		cc.addIssue(loc, CodeInvalidKeyword, `"uniqueItems" must be a boolean`)
		return nil
	}
	return &uniqueItemsKeyword{unique: b}
}

// ---- shared config helpers ----

// compileCount decodes a non-negative integer configuration value.
func compileCount(cc *compileCtx, raw any, loc jsonpointer.Pointer, name string) (int, bool) {
	r, ok := jsonvalue.Rat(raw)
	if !ok || !r.IsInt() || r.Sign() < 0 || !r.Num().IsInt64() {
		cc.addIssue(loc, CodeInvalidKeyword, fmt.Sprintf("%q must be a non-negative integer", name))
		return 0, false
	}
	return int(r.Num().Int64()), true
}
