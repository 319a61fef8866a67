package jsonschema

import (
	"fmt"

	j "github.com/goccy/go-json"

	"github.com/dcook-net/json-everything/jsonpointer"
)

// KeywordError is one keyword's complaint about one instance node.
type KeywordError struct {
	Keyword string `json:"keyword,omitempty"`
	Message string `json:"message"`
}

// Result is one node of the verdict tree: the outcome of applying one schema
// node to one instance node, plus the child results of every subschema the
// keywords applied beneath it. Invalid children do not make a node invalid
// by themselves; each applicator decides what its children mean for its own
// outcome (an anyOf node is valid while carrying failed branches).
type Result struct {
	valid       bool
	instanceLoc jsonpointer.Pointer
	evalPath    jsonpointer.Pointer
	errors      []KeywordError
	annotations map[string]any
	children    []*Result
}

func newResult(instLoc, evalPath jsonpointer.Pointer) *Result {
	return &Result{valid: true, instanceLoc: instLoc, evalPath: evalPath}
}

func (r *Result) addError(keyword, message string) {
	r.valid = false
	r.errors = append(r.errors, KeywordError{Keyword: keyword, Message: message})
}

func (r *Result) annotate(keyword string, v any) {
	if r.annotations == nil {
		r.annotations = make(map[string]any)
	}
	if _, dup := r.annotations[keyword]; dup {
		panic(fmt.Sprintf("jsonschema: keyword %q wrote a second annotation at instance %q", keyword, r.instanceLoc.String()))
	}
	r.annotations[keyword] = v
}

// Valid reports whether this node's schema accepted its instance node.
func (r *Result) Valid() bool { return r.valid }

// InstanceLocation returns the instance node this verdict is about.
func (r *Result) InstanceLocation() jsonpointer.Pointer { return r.instanceLoc }

// EvaluationPath returns the dynamic keyword path that produced this node.
func (r *Result) EvaluationPath() jsonpointer.Pointer { return r.evalPath }

// Errors returns a copy of the node's keyword failures.
func (r *Result) Errors() []KeywordError {
	if len(r.errors) == 0 {
		return nil
	}
	return append([]KeywordError(nil), r.errors...)
}

// Annotation returns the value a keyword published on this node. ok is false
// when the keyword published nothing here.
func (r *Result) Annotation(keyword string) (any, bool) {
	v, ok := r.annotations[keyword]
	return v, ok
}

// Annotations returns a copy of the node's annotation snapshot.
func (r *Result) Annotations() map[string]any {
	if len(r.annotations) == 0 {
		return nil
	}
	out := make(map[string]any, len(r.annotations))
	for k, v := range r.annotations {
		out[k] = v
	}
	return out
}

// Children returns the subschema results attached beneath this node.
func (r *Result) Children() []*Result {
	if len(r.children) == 0 {
		return nil
	}
	return append([]*Result(nil), r.children...)
}

type resultJSON struct {
	Valid            bool           `json:"valid"`
	InstanceLocation string         `json:"instanceLocation"`
	EvaluationPath   string         `json:"evaluationPath"`
	Errors           []KeywordError `json:"errors,omitempty"`
	Annotations      map[string]any `json:"annotations,omitempty"`
	Details          []*Result      `json:"details,omitempty"`
}

// MarshalJSON renders the hierarchical verbose form; nested nodes appear
// under "details".
func (r *Result) MarshalJSON() ([]byte, error) {
	return j.Marshal(resultJSON{
		Valid:            r.valid,
		InstanceLocation: r.instanceLoc.String(),
		EvaluationPath:   r.evalPath.String(),
		Errors:           r.errors,
		Annotations:      r.annotations,
		Details:          r.children,
	})
}

// FlatError is one row of the flattened error list.
type FlatError struct {
	InstanceLocation string `json:"instanceLocation"`
	EvaluationPath   string `json:"evaluationPath"`
	Keyword          string `json:"keyword,omitempty"`
	Message          string `json:"message"`
}

// Flatten lists the keyword failures of every failing subtree depth-first,
// each row carrying both locations. Failures beneath a valid node did not
// contribute to the verdict (a satisfied anyOf still records its failed
// branches) and are left out; valid trees flatten to nothing.
func (r *Result) Flatten() []FlatError {
	var out []FlatError
	r.flattenInto(&out)
	return out
}

func (r *Result) flattenInto(dst *[]FlatError) {
	if r.valid {
		return
	}
	for _, ke := range r.errors {
		*dst = append(*dst, FlatError{
			InstanceLocation: r.instanceLoc.String(),
			EvaluationPath:   r.evalPath.String(),
			Keyword:          ke.Keyword,
			Message:          ke.Message,
		})
	}
	for _, ch := range r.children {
		ch.flattenInto(dst)
	}
}
