package jsonschema

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dcook-net/json-everything/jsonpointer"
)

// Applicator keywords derive their single outcome from subschema results:
// the children they attach stay visible in the verdict tree, but only the
// applicator's own Fail decides whether the node suffers for them. That is
// what lets an anyOf node stay valid while carrying failed branches.

// ---- allOf / anyOf / oneOf ----

type allOfKeyword struct {
	subs []*Schema
}

func (k *allOfKeyword) Name() string { return "allOf" }

func (k *allOfKeyword) Evaluate(ctx *EvaluationContext) error {
	var failed []int
	for i, sub := range k.subs {
		child, err := ctx.ApplySelf(sub, "allOf", strconv.Itoa(i))
		if err != nil {
			return err
		}
		if !child.Valid() {
			failed = append(failed, i)
			if ctx.FailFast() {
				break
			}
		}
	}
	if len(failed) > 0 {
		ctx.Fail("subschemas %v did not match", failed)
	}
	return nil
}

func compileAllOf(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	subs := compileSchemaList(cc, raw, loc, "allOf")
	if subs == nil {
		return nil
	}
	return &allOfKeyword{subs: subs}
}

type anyOfKeyword struct {
	subs []*Schema
}

func (k *anyOfKeyword) Name() string { return "anyOf" }

func (k *anyOfKeyword) Evaluate(ctx *EvaluationContext) error {
	matched := false
	for i, sub := range k.subs {
		child, err := ctx.ApplySelf(sub, "anyOf", strconv.Itoa(i))
		if err != nil {
			return err
		}
		if child.Valid() {
			matched = true
			if ctx.FailFast() {
				break
			}
		}
	}
	if !matched {
		ctx.Fail("no subschema matched")
	}
	return nil
}

func compileAnyOf(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	subs := compileSchemaList(cc, raw, loc, "anyOf")
	if subs == nil {
		return nil
	}
	return &anyOfKeyword{subs: subs}
}

type oneOfKeyword struct {
	subs []*Schema
}

func (k *oneOfKeyword) Name() string { return "oneOf" }

func (k *oneOfKeyword) Evaluate(ctx *EvaluationContext) error {
	var matched []int
	for i, sub := range k.subs {
		child, err := ctx.ApplySelf(sub, "oneOf", strconv.Itoa(i))
		if err != nil {
			return err
		}
		if child.Valid() {
			matched = append(matched, i)
			if len(matched) > 1 && ctx.FailFast() {
				break
			}
		}
	}
	if len(matched) != 1 {
		ctx.Fail("want exactly one matching subschema, got %d", len(matched))
	}
	return nil
}

func compileOneOf(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	subs := compileSchemaList(cc, raw, loc, "oneOf")
	if subs == nil {
		return nil
	}
	return &oneOfKeyword{subs: subs}
}

// ---- not ----

type notKeyword struct {
	sub *Schema
}

func (k *notKeyword) Name() string { return "not" }

func (k *notKeyword) Evaluate(ctx *EvaluationContext) error {
	child, err := ctx.ApplySelf(k.sub, "not")
	if err != nil {
		return err
	}
	if child.Valid() {
		ctx.Fail(`value matches the "not" subschema`)
	}
	return nil
}

func compileNot(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	sub := cc.compileSchema(raw, loc)
	if sub == nil {
		return nil
	}
	return &notKeyword{sub: sub}
}

// ---- properties ----

type propertiesKeyword struct {
	subs  map[string]*Schema
	names []string // sorted for deterministic scans and output
}

func (k *propertiesKeyword) Name() string { return "properties" }

func (k *propertiesKeyword) Evaluate(ctx *EvaluationContext) error {
	obj, ok := ctx.Instance().(map[string]any)
	if !ok {
		return nil
	}
	evaluated := make([]string, 0, len(k.names))
	for _, name := range k.names {
		v, present := obj[name]
		if !present {
			continue
		}
		child, err := ctx.Apply(k.subs[name], v, name, "properties", name)
		if err != nil {
			return err
		}
		evaluated = append(evaluated, name)
		if !child.Valid() {
			ctx.Fail("property %q is invalid", name)
			if ctx.FailFast() {
				// Truncated scan: consumers see no annotation.
				return nil
			}
		}
	}
	// The evaluated-name set is published even when some of those
	// properties failed; a completed scan is a completed scan.
	ctx.Annotate(evaluated)
	return nil
}

func compileProperties(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	subs := compileSchemaMap(cc, raw, loc, "properties")
	if subs == nil {
		return nil
	}
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return &propertiesKeyword{subs: subs, names: names}
}

// ---- additionalProperties ----

type additionalPropertiesKeyword struct {
	sub *Schema
}

func (k *additionalPropertiesKeyword) Name() string { return "additionalProperties" }

func (k *additionalPropertiesKeyword) Evaluate(ctx *EvaluationContext) error {
	obj, ok := ctx.Instance().(map[string]any)
	if !ok {
		return nil
	}
	covered := make(map[string]bool)
	if ann, ok := ctx.Annotation("properties"); ok {
		if names, ok := ann.([]string); ok {
			for _, n := range names {
				covered[n] = true
			}
		}
	}
	evaluated := make([]string, 0, len(obj))
	for _, name := range sortedKeys(obj) {
		if covered[name] {
			continue
		}
		child, err := ctx.Apply(k.sub, obj[name], name, "additionalProperties")
		if err != nil {
			return err
		}
		evaluated = append(evaluated, name)
		if !child.Valid() {
			ctx.Fail("additional property %q is invalid", name)
			if ctx.FailFast() {
				return nil
			}
		}
	}
	ctx.Annotate(evaluated)
	return nil
}

func compileAdditionalProperties(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	sub := cc.compileSchema(raw, loc)
	if sub == nil {
		return nil
	}
	return &additionalPropertiesKeyword{sub: sub}
}

// ---- shared subschema-config helpers ----

func compileSchemaList(cc *compileCtx, raw any, loc jsonpointer.Pointer, name string) []*Schema {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		cc.addIssue(loc, CodeInvalidKeyword, fmt.Sprintf("%q must be a non-empty array of schemas", name))
		return nil
	}
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
	return subs
}

func compileSchemaMap(cc *compileCtx, raw any, loc jsonpointer.Pointer, name string) map[string]*Schema {
	obj, ok := raw.(map[string]any)
	if !ok {
		cc.addIssue(loc, CodeInvalidKeyword, fmt.Sprintf("%q must be an object of schemas", name))
		return nil
	}
	subs := make(map[string]*Schema, len(obj))
	bad := false
	for _, key := range sortedKeys(obj) {
		sub := cc.compileSchema(obj[key], loc.AppendKey(key))
		if sub == nil {
			bad = true
			continue
		}
		subs[key] = sub
	}
	if bad {
		return nil
	}
	return subs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
