package jsonschema

import "context"

// DefaultMaxDepth bounds nested schema applications per evaluation when the
// caller does not choose a limit.
const DefaultMaxDepth = 512

// Logger receives per-keyword evaluation traces. *logrus.Logger satisfies it
// directly; the zero value of EvaluateOpt logs nothing.
type Logger interface {
	Debugf(format string, args ...any)
}

// EvaluateOpt controls a single Evaluate call. Pass it variadically; when
// several are given the last one wins. There is no process-wide evaluation
// state: everything an evaluation needs is captured here at entry.
type EvaluateOpt struct {
	// Draft selects the active dialect. Zero means: the schema's own
	// $schema declaration if present, else DefaultDraft. Must name exactly
	// one dialect.
	Draft Draft
	// FailFast lets keywords stop scanning further members or elements once
	// their own outcome is already a failure. It never changes which
	// keywords run.
	FailFast bool
	// MaxDepth bounds nested schema applications; zero means
	// DefaultMaxDepth.
	MaxDepth int
	// Logger, when non-nil, receives a Debugf line per dispatched keyword.
	Logger Logger
}

func normalizeEvaluateOpt(s *Schema, opts []EvaluateOpt) (EvaluateOpt, error) {
	var opt EvaluateOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.Draft == 0 {
		opt.Draft = s.DeclaredDraft()
	}
	if opt.Draft == 0 {
		opt.Draft = DefaultDraft
	}
	if !opt.Draft.IsSingle() {
		return opt, &ConfigError{Message: "evaluation needs exactly one active draft, got " + opt.Draft.String()}
	}
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	return opt, nil
}

type contextKey int

const _ctxKeyFailFast contextKey = iota

// WithFailFast returns a child context that marks fail-fast evaluation
// behavior, as an alternative to EvaluateOpt.FailFast for callers that
// already thread a context through.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the context requests fail-fast evaluation.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, ok := v.(bool)
	return ok && b
}
