package jsonschema

import (
	"strconv"

	"github.com/dcook-net/json-everything/internal/jsonvalue"
	"github.com/dcook-net/json-everything/jsonpointer"
)

// The array keywords hand coverage to each other through annotations on the
// current node: prefixItems covers a positional prefix, items resumes after
// it, additionalItems resumes after a positional items, and contains counts
// matches for minContains/maxContains. The coverage annotation is either
// true (the whole array is covered) or the count of covered leading
// elements; an absent annotation means the producer was absent, inapplicable
// or did not finish its scan, and consumers treat that as "nothing known".

// ---- prefixItems ----

type prefixItemsKeyword struct {
	subs []*Schema
}

func (k *prefixItemsKeyword) Name() string { return "prefixItems" }

func (k *prefixItemsKeyword) Evaluate(ctx *EvaluationContext) error {
	arr, ok := ctx.Instance().([]any)
	if !ok {
		return nil
	}
	n := len(k.subs)
	if len(arr) < n {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		child, err := ctx.Apply(k.subs[i], arr[i], strconv.Itoa(i), "prefixItems", strconv.Itoa(i))
		if err != nil {
			return err
		}
		if !child.Valid() {
			ctx.Fail("item %d is invalid", i)
			if ctx.FailFast() {
				return nil
			}
		}
	}
	if n == len(arr) {
		ctx.Annotate(true)
	} else {
		ctx.Annotate(n)
	}
	return nil
}

func compilePrefixItems(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	subs := compileSchemaList(cc, raw, loc, "prefixItems")
	if subs == nil {
		return nil
	}
	return &prefixItemsKeyword{subs: subs}
}

// ---- items ----

// itemsKeyword has two configuration forms: the single form applies one
// subschema to every element not already covered by prefixItems; the
// positional form pairs leading elements with a subschema list and is only
// legal in dialects that predate prefixItems' takeover of that job.
type itemsKeyword struct {
	single *Schema
	tuple  []*Schema // non-nil (possibly empty) means the positional form was written
}

func (k *itemsKeyword) Name() string { return "items" }

func (k *itemsKeyword) Evaluate(ctx *EvaluationContext) error {
	// Form legality first: an illegal schema construct is reported even
	// when the instance would never have reached the per-element work.
	if k.tuple != nil && ctx.Draft()&(Draft202012|DraftNext) != 0 {
		return ctx.ConfigErrorf(`the array form was removed in draft 2020-12; use "prefixItems"`)
	}
	arr, ok := ctx.Instance().([]any)
	if !ok {
		ctx.Fail("got %s, want array", jsonvalue.KindOf(ctx.Instance()))
		return nil
	}
	if k.tuple != nil {
		return k.evaluateTuple(ctx, arr)
	}

	start := 0
	if ann, ok := ctx.Annotation("prefixItems"); ok {
		switch a := ann.(type) {
		case bool:
			if a {
				// Everything is already covered; confirm coverage and stop.
				ctx.Annotate(true)
				return nil
			}
		case int:
			start = a
		}
	}
	for i := start; i < len(arr); i++ {
		child, err := ctx.Apply(k.single, arr[i], strconv.Itoa(i), "items")
		if err != nil {
			return err
		}
		if !child.Valid() {
			ctx.Fail("item %d is invalid", i)
			if ctx.FailFast() {
				return nil
			}
		}
	}
	ctx.Annotate(true)
	return nil
}

func (k *itemsKeyword) evaluateTuple(ctx *EvaluationContext, arr []any) error {
	n := len(k.tuple)
	if len(arr) < n {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		child, err := ctx.Apply(k.tuple[i], arr[i], strconv.Itoa(i), "items", strconv.Itoa(i))
		if err != nil {
			return err
		}
		if !child.Valid() {
			ctx.Fail("item %d is invalid", i)
			if ctx.FailFast() {
				return nil
			}
		}
	}
	if len(k.tuple) >= len(arr) {
		ctx.Annotate(true)
	} else {
		ctx.Annotate(len(k.tuple))
	}
	return nil
}

func compileItems(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	if list, ok := raw.([]any); ok {
		// The positional form may be empty; whether it is legal at all is a
		// question for the active dialect at evaluation time.
		subs := make([]*Schema, 0, len(list))
		bad := false
		for i, el := range list {
			sub := cc.compileSchema(el, loc.AppendIndex(i))
			if sub == nil {
				bad = true
				continue
			}
			subs = append(subs, sub)
		}
		if bad {
			return nil
		}
		return &itemsKeyword{tuple: subs}
	}
	sub := cc.compileSchema(raw, loc)
	if sub == nil {
		return nil
	}
	return &itemsKeyword{single: sub}
}

// ---- additionalItems ----

type additionalItemsKeyword struct {
	sub *Schema
}

func (k *additionalItemsKeyword) Name() string { return "additionalItems" }

func (k *additionalItemsKeyword) Evaluate(ctx *EvaluationContext) error {
	ann, ok := ctx.Annotation("items")
	if !ok {
		// No positional count to resume from.
		return nil
	}
	start := -1
	switch a := ann.(type) {
	case bool:
		if a {
			return nil
		}
	case int:
		start = a
	}
	if start < 0 {
		return nil
	}
	arr, ok := ctx.Instance().([]any)
	if !ok {
		return nil
	}
	for i := start; i < len(arr); i++ {
		child, err := ctx.Apply(k.sub, arr[i], strconv.Itoa(i), "additionalItems")
		if err != nil {
			return err
		}
		if !child.Valid() {
			ctx.Fail("item %d is invalid", i)
			if ctx.FailFast() {
				return nil
			}
		}
	}
	ctx.Annotate(true)
	return nil
}

func compileAdditionalItems(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	sub := cc.compileSchema(raw, loc)
	if sub == nil {
		return nil
	}
	return &additionalItemsKeyword{sub: sub}
}

// ---- contains / minContains / maxContains ----

type containsKeyword struct {
	sub *Schema
}

func (k *containsKeyword) Name() string { return "contains" }

func (k *containsKeyword) Evaluate(ctx *EvaluationContext) error {
	arr, ok := ctx.Instance().([]any)
	if !ok {
		return nil
	}
	// No fail-fast shortcut here: a failure is only known at the end of the
	// scan, and stopping early would starve minContains/maxContains of the
	// count they tighten the verdict with.
	matched := 0
	for i, el := range arr {
		child, err := ctx.Apply(k.sub, el, strconv.Itoa(i), "contains")
		if err != nil {
			return err
		}
		if child.Valid() {
			matched++
		}
	}
	if matched == 0 {
		ctx.Fail(`no item matches the "contains" subschema`)
	}
	if len(arr) > 0 && matched == len(arr) {
		ctx.Annotate(true)
	} else {
		ctx.Annotate(matched)
	}
	return nil
}

func compileContains(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	sub := cc.compileSchema(raw, loc)
	if sub == nil {
		return nil
	}
	return &containsKeyword{sub: sub}
}

type minContainsKeyword struct {
	n int
}

func (k *minContainsKeyword) Name() string { return "minContains" }

func (k *minContainsKeyword) Evaluate(ctx *EvaluationContext) error {
	count := containsCount(ctx)
	if count < 0 {
		return nil
	}
	if count < k.n {
		ctx.Fail("%d matching items, want at least %d", count, k.n)
	}
	return nil
}

func compileMinContains(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	n, ok := compileCount(cc, raw, loc, "minContains")
	if !ok {
		return nil
	}
	return &minContainsKeyword{n: n}
}

type maxContainsKeyword struct {
	n int
}

func (k *maxContainsKeyword) Name() string { return "maxContains" }

func (k *maxContainsKeyword) Evaluate(ctx *EvaluationContext) error {
	count := containsCount(ctx)
	if count < 0 {
		return nil
	}
	if count > k.n {
		ctx.Fail("%d matching items, want at most %d", count, k.n)
	}
	return nil
}

func compileMaxContains(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	n, ok := compileCount(cc, raw, loc, "maxContains")
	if !ok {
		return nil
	}
	return &maxContainsKeyword{n: n}
}

// containsCount reads the match count published by contains; -1 means none
// was published.
func containsCount(ctx *EvaluationContext) int {
	ann, ok := ctx.Annotation("contains")
	if !ok {
		return -1
	}
	switch a := ann.(type) {
	case bool:
		if a {
			if arr, ok := ctx.Instance().([]any); ok {
				return len(arr)
			}
		}
		return -1
	case int:
		return a
	}
	return -1
}
