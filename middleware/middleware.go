package middleware

import (
	"context"

	"github.com/dcook-net/json-everything/jsonschema"
)

// Validated carries a request body that passed schema evaluation: the decoded
// document and the evaluation result, annotations included.
type Validated struct {
	Document any
	Result   *jsonschema.Result
}

// ctxKeyValidated is a typed context key for storing Validated.
type ctxKeyValidated struct{}

// ContextWithValidated attaches a Validated to the context.
func ContextWithValidated(ctx context.Context, v Validated) context.Context {
	return context.WithValue(ctx, ctxKeyValidated{}, v)
}

// ValidatedFromContext retrieves a Validated from context.
func ValidatedFromContext(ctx context.Context) (Validated, bool) {
	v, ok := ctx.Value(ctxKeyValidated{}).(Validated)
	return v, ok
}

// DefaultEvaluateOpt returns a recommended default for HTTP JSON boundaries.
// - Fail-fast keeps work bounded on untrusted bodies
// - The depth limit is stated explicitly rather than inherited
func DefaultEvaluateOpt() jsonschema.EvaluateOpt {
	return jsonschema.EvaluateOpt{
		FailFast: true,
		MaxDepth: jsonschema.DefaultMaxDepth,
	}
}

// ErrorPayload shapes a failed Result for JSON responses.
func ErrorPayload(res *jsonschema.Result) map[string]any {
	return map[string]any{"valid": false, "errors": res.Flatten()}
}
