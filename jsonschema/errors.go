package jsonschema

import (
	"errors"
	"fmt"
	"strings"
)

// Decode issue codes (exported consts for IDE completion and stable matching).
const (
	CodeParseError     = "parse_error"
	CodeInvalidSchema  = "invalid_schema"
	CodeInvalidKeyword = "invalid_keyword"
	CodeInvalidPattern = "invalid_pattern"
	CodeInvalidRef     = "invalid_ref"
	CodeUnknownDraft   = "unknown_draft"
	CodeDuplicateKey   = "duplicate_key"
)

// DecodeIssue is a single compile-time problem in a schema document.
type DecodeIssue struct {
	Path    string // JSON Pointer to the offending member (for example: /properties/id/pattern).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
}

// DecodeIssues is the collected compile-time failures of one document. It
// implements error; Compile returns it (and nothing else) when the document
// cannot become a usable schema.
type DecodeIssues []DecodeIssue

// Error summarizes the first few issues.
func (iss DecodeIssues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		fmt.Fprintf(b, "%s at %q", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsDecodeIssues reports whether err carries DecodeIssues and returns them.
func AsDecodeIssues(err error) (DecodeIssues, bool) {
	if err == nil {
		return nil, false
	}
	var iss DecodeIssues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// AsConfigError reports whether err carries a *ConfigError and returns it.
func AsConfigError(err error) (*ConfigError, bool) {
	if err == nil {
		return nil, false
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsDepthError reports whether err carries a *DepthError and returns it.
func AsDepthError(err error) (*DepthError, bool) {
	if err == nil {
		return nil, false
	}
	var de *DepthError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// ConfigError reports a schema construct that decoded cleanly but is illegal
// to use under the conditions of this evaluation (for example the positional
// array form of "items" under the 2020-12 dialect). It aborts the evaluation
// before the offending keyword does any per-instance work; it is never a
// statement about the instance.
type ConfigError struct {
	Keyword        string // Keyword whose use is invalid.
	EvaluationPath string // Schema location of the offending use.
	Message        string
}

func (e *ConfigError) Error() string {
	if e.Keyword == "" {
		return "jsonschema: invalid configuration: " + e.Message
	}
	return fmt.Sprintf("jsonschema: invalid use of %q at %q: %s", e.Keyword, e.EvaluationPath, e.Message)
}

// DepthError reports that evaluation exceeded the configured frame budget,
// which in practice means a self-referential schema recursing over
// self-referential data.
type DepthError struct {
	MaxDepth         int
	InstanceLocation string // Instance location at which the budget ran out.
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("jsonschema: evaluation exceeded %d nested schema applications at instance %q", e.MaxDepth, e.InstanceLocation)
}
