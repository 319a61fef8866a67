package jsonschema

import (
	"context"
	"fmt"

	"github.com/dcook-net/json-everything/jsonpointer"
)

// EvaluationContext is the state of one Evaluate call: an explicit stack of
// frames, one per schema application. Keywords read the current frame,
// report verdicts with Fail/Annotate, and descend with Apply/ApplySelf.
// A context lives for exactly one call and is never shared.
type EvaluationContext struct {
	goCtx  context.Context
	opt    EvaluateOpt
	root   *Schema
	frames []*evalFrame
}

// evalFrame pairs an instance node with the schema node being applied to it.
// Locations and verdicts live on the result under construction.
type evalFrame struct {
	instance any
	schema   *Schema
	result   *Result
	keyword  string // name of the keyword currently dispatched, "" between dispatches
}

func (c *EvaluationContext) cur() *evalFrame { return c.frames[len(c.frames)-1] }

// guard enforces the abort conditions at every push boundary: caller
// cancellation and the frame budget. Either aborts the whole evaluation
// before the new frame does any work.
func (c *EvaluationContext) guard(instLoc jsonpointer.Pointer) error {
	if err := c.goCtx.Err(); err != nil {
		return err
	}
	if len(c.frames) >= c.opt.MaxDepth {
		return &DepthError{MaxDepth: c.opt.MaxDepth, InstanceLocation: instLoc.String()}
	}
	return nil
}

func (c *EvaluationContext) pushRoot(instance any, s *Schema) error {
	if err := c.guard(jsonpointer.Root); err != nil {
		return err
	}
	c.frames = append(c.frames, &evalFrame{
		instance: instance,
		schema:   s,
		result:   newResult(jsonpointer.Root, jsonpointer.Root),
	})
	return nil
}

// Push opens a frame that descends into both documents: instanceToken
// addresses the child value within the current instance node, schemaTokens
// extend the evaluation path to the subschema being applied.
func (c *EvaluationContext) Push(sub *Schema, instance any, instanceToken string, schemaTokens ...string) error {
	f := c.cur()
	instLoc := f.result.instanceLoc.Append(instanceToken)
	if err := c.guard(instLoc); err != nil {
		return err
	}
	c.frames = append(c.frames, &evalFrame{
		instance: instance,
		schema:   sub,
		result:   newResult(instLoc, f.result.evalPath.Append(schemaTokens...)),
	})
	return nil
}

// PushSchema opens a frame that descends into the schema only; the instance
// node and its location carry over (allOf branches, $ref targets).
func (c *EvaluationContext) PushSchema(sub *Schema, schemaTokens ...string) error {
	f := c.cur()
	if err := c.guard(f.result.instanceLoc); err != nil {
		return err
	}
	c.frames = append(c.frames, &evalFrame{
		instance: f.instance,
		schema:   sub,
		result:   newResult(f.result.instanceLoc, f.result.evalPath.Append(schemaTokens...)),
	})
	return nil
}

// Pop closes the current frame, attaches its result beneath the parent and
// returns it. Popping the last frame just returns the root result.
func (c *EvaluationContext) Pop() *Result {
	f := c.cur()
	c.frames = c.frames[:len(c.frames)-1]
	if len(c.frames) > 0 {
		parent := c.cur()
		parent.result.children = append(parent.result.children, f.result)
	}
	return f.result
}

// Apply runs one subschema against a child of the current instance:
// Push, Evaluate, Pop. The returned result is already attached to the
// current node; callers read its Valid to derive their own outcome.
func (c *EvaluationContext) Apply(sub *Schema, instance any, instanceToken string, schemaTokens ...string) (*Result, error) {
	if err := c.Push(sub, instance, instanceToken, schemaTokens...); err != nil {
		return nil, err
	}
	err := c.Evaluate()
	child := c.Pop()
	if err != nil {
		return nil, err
	}
	return child, nil
}

// ApplySelf runs one subschema against the current instance node itself.
func (c *EvaluationContext) ApplySelf(sub *Schema, schemaTokens ...string) (*Result, error) {
	if err := c.PushSchema(sub, schemaTokens...); err != nil {
		return nil, err
	}
	err := c.Evaluate()
	child := c.Pop()
	if err != nil {
		return nil, err
	}
	return child, nil
}

// ---- current-frame accessors ----

// Instance returns the instance node under evaluation.
func (c *EvaluationContext) Instance() any { return c.cur().instance }

// Schema returns the schema node being applied.
func (c *EvaluationContext) Schema() *Schema { return c.cur().schema }

// InstanceLocation returns where in the instance document this frame sits.
func (c *EvaluationContext) InstanceLocation() jsonpointer.Pointer {
	return c.cur().result.instanceLoc
}

// EvaluationPath returns the dynamic path of schema keywords that led here.
func (c *EvaluationContext) EvaluationPath() jsonpointer.Pointer {
	return c.cur().result.evalPath
}

// RootSchema returns the schema document root, the base for $ref targets.
func (c *EvaluationContext) RootSchema() *Schema { return c.root }

// Draft returns the single dialect active for this evaluation.
func (c *EvaluationContext) Draft() Draft { return c.opt.Draft }

// FailFast reports whether keywords may stop scanning once their own
// outcome is decided.
func (c *EvaluationContext) FailFast() bool {
	return c.opt.FailFast || IsFailFast(c.goCtx)
}

// Context returns the caller's context.
func (c *EvaluationContext) Context() context.Context { return c.goCtx }

// Depth reports the number of open frames.
func (c *EvaluationContext) Depth() int { return len(c.frames) }

// ---- verdict recording ----

// Fail records a validation failure of the currently dispatched keyword
// against the current instance node. This is the only path by which an
// instance is ever reported invalid; it never aborts evaluation.
func (c *EvaluationContext) Fail(format string, args ...any) {
	f := c.cur()
	f.result.addError(f.keyword, fmt.Sprintf(format, args...))
}

// Annotate publishes the currently dispatched keyword's annotation on the
// current node for later siblings to read. One write per keyword per node;
// a second write is a keyword-implementation bug and panics.
func (c *EvaluationContext) Annotate(v any) {
	f := c.cur()
	if f.keyword == "" {
		panic("jsonschema: Annotate called outside keyword dispatch")
	}
	f.result.annotate(f.keyword, v)
}

// Annotation reads a sibling keyword's annotation on the current node.
// ok is false when nothing was published; absence is an ordinary state the
// reader must interpret, not an error.
func (c *EvaluationContext) Annotation(keyword string) (any, bool) {
	return c.cur().result.Annotation(keyword)
}

// ConfigErrorf builds the fatal error for an illegal use of the currently
// dispatched keyword, located at that keyword's evaluation path.
func (c *EvaluationContext) ConfigErrorf(format string, args ...any) error {
	f := c.cur()
	return &ConfigError{
		Keyword:        f.keyword,
		EvaluationPath: f.result.evalPath.AppendKey(f.keyword).String(),
		Message:        fmt.Sprintf(format, args...),
	}
}

func (c *EvaluationContext) debugf(format string, args ...any) {
	if c.opt.Logger != nil {
		c.opt.Logger.Debugf(format, args...)
	}
}
