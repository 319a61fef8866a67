package jsonschema

import (
	"strings"

	"github.com/dcook-net/json-everything/jsonpointer"
)

// ---- $defs ----

// defsKeyword holds named subschemas for "$ref" to target. Holding them
// applies nothing to the instance.
type defsKeyword struct {
	subs map[string]*Schema
}

func (k *defsKeyword) Name() string { return "$defs" }

func (k *defsKeyword) Evaluate(ctx *EvaluationContext) error { return nil }

func compileDefs(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	subs := compileSchemaMap(cc, raw, loc, "$defs")
	if subs == nil {
		return nil
	}
	return &defsKeyword{subs: subs}
}

// ---- $ref ----

// refKeyword applies another schema of the same document to the current
// instance node. Targets are resolved lazily so self-referential trees
// compile; a recursion that data keeps feeding runs into the frame budget
// instead of looping forever.
type refKeyword struct {
	fragment string              // as written, for messages
	target   jsonpointer.Pointer // location within the document
}

func (k *refKeyword) Name() string { return "$ref" }

func (k *refKeyword) Evaluate(ctx *EvaluationContext) error {
	target, ok := ctx.RootSchema().Resolve(k.target)
	if !ok {
		return ctx.ConfigErrorf("reference %q does not resolve to a schema in this document", k.fragment)
	}
	child, err := ctx.ApplySelf(target, "$ref")
	if err != nil {
		return err
	}
	if !child.Valid() {
		ctx.Fail("value does not satisfy the schema referenced as %q", k.fragment)
	}
	return nil
}

func compileRef(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword {
	s, ok := raw.(string)
	if !ok {
		cc.addIssue(loc, CodeInvalidRef, `"$ref" must be a string`)
		return nil
	}
	if !strings.HasPrefix(s, "#") {
		cc.addIssue(loc, CodeInvalidRef, `only document-local references ("#...") are supported`)
		return nil
	}
	ptr, err := jsonpointer.Parse(s[1:])
	if err != nil {
		cc.addIssueCause(loc, CodeInvalidRef, "malformed reference fragment "+s, err)
		return nil
	}
	return &refKeyword{fragment: s, target: ptr}
}
