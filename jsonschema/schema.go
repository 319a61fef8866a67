package jsonschema

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"

	j "github.com/goccy/go-json"

	"github.com/dcook-net/json-everything/internal/jsonvalue"
	"github.com/dcook-net/json-everything/jsonpointer"
)

// Schema is a compiled schema node: either a boolean form or a set of
// compiled keywords ordered for dispatch. It is immutable after Compile and
// safe to share across concurrent Evaluate calls.
type Schema struct {
	boolean  *bool
	keywords []compiledKeyword
	members  map[string]any // decoded members as written, unknown keywords included
	loc      jsonpointer.Pointer
	root     *Schema
	index    map[string]*Schema // root only: absolute location -> subschema
	draft    Draft              // root only: declared $schema dialect, 0 when absent
}

type compiledKeyword struct {
	info *keywordInfo
	kw   Keyword
}

// CompileOpt controls Compile. Pass it variadically; the last one wins.
type CompileOpt struct {
	// CheckDuplicateKeys scans the raw document for object members that
	// appear twice, which plain JSON decoding would silently collapse.
	CheckDuplicateKeys bool
}

func normalizeCompileOpt(opts []CompileOpt) CompileOpt {
	var opt CompileOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return opt
}

// Compile decodes and compiles a schema document. All problems with the
// document are collected into the returned DecodeIssues; a schema is only
// returned when there are none.
func Compile(data []byte, opts ...CompileOpt) (*Schema, error) {
	opt := normalizeCompileOpt(opts)
	if opt.CheckDuplicateKeys {
		if iss := scanDuplicateKeys(data); len(iss) > 0 {
			return nil, iss
		}
	}
	v, err := DecodeValue(data)
	if err != nil {
		return nil, DecodeIssues{{Path: "", Code: CodeParseError, Message: "schema document is not valid JSON", Cause: err}}
	}
	return CompileValue(v)
}

// MustCompile is Compile for trusted literals; it panics on error.
func MustCompile(data []byte, opts ...CompileOpt) *Schema {
	s, err := Compile(data, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// CompileValue compiles an already-decoded schema document (a bool or a
// map[string]any tree, as produced by DecodeValue). The tree is borrowed: it
// must not be mutated while the schema is in use.
func CompileValue(v any) (*Schema, error) {
	cc := &compileCtx{}
	s := cc.compileSchema(v, jsonpointer.Root)
	if len(cc.issues) > 0 {
		return nil, cc.issues
	}
	return s, nil
}

// errTrailingContent rejects inputs that continue past the first document.
var errTrailingContent = errors.New("jsonschema: unexpected content after the top-level value")

// DecodeValue decodes one JSON document into the value vocabulary this
// package evaluates: map[string]any, []any, json.Number, string, bool, nil.
// Trailing non-whitespace content is an error.
func DecodeValue(data []byte) (any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, errTrailingContent
	}
	return v, nil
}

// ---- compilation ----

type compileCtx struct {
	root   *Schema
	issues DecodeIssues
}

func (cc *compileCtx) addIssue(loc jsonpointer.Pointer, code, message string) {
	cc.issues = append(cc.issues, DecodeIssue{Path: loc.String(), Code: code, Message: message})
}

func (cc *compileCtx) addIssueCause(loc jsonpointer.Pointer, code, message string, cause error) {
	cc.issues = append(cc.issues, DecodeIssue{Path: loc.String(), Code: code, Message: message, Cause: cause})
}

// compileSchema builds the node at loc and registers it in the root's
// resolution index. Returns nil when the node is unusable; the issue has
// already been recorded.
func (cc *compileCtx) compileSchema(raw any, loc jsonpointer.Pointer) *Schema {
	switch v := raw.(type) {
	case bool:
		b := v
		s := &Schema{boolean: &b, loc: loc}
		cc.attach(s)
		return s
	case map[string]any:
		s := &Schema{members: v, loc: loc}
		cc.attach(s)
		cc.compileMembers(s, v, loc)
		return s
	default:
		cc.addIssue(loc, CodeInvalidSchema,
			"schema must be an object or a boolean, got "+jsonvalue.KindOf(raw).String())
		return nil
	}
}

// attach links a node to the document root and indexes it by location. The
// first node compiled becomes the root and owns the index.
func (cc *compileCtx) attach(s *Schema) {
	if cc.root == nil {
		cc.root = s
		s.index = make(map[string]*Schema)
	}
	s.root = cc.root
	cc.root.index[s.loc.String()] = s
}

func (cc *compileCtx) compileMembers(s *Schema, members map[string]any, loc jsonpointer.Pointer) {
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := members[name]
		if name == "$schema" {
			cc.compileDialect(s, raw, loc.AppendKey(name))
			continue
		}
		info, ok := keywordRegistry[name]
		if !ok {
			// Unknown keywords are carried for re-encoding, never evaluated.
			continue
		}
		if kw := info.compile(cc, raw, loc.AppendKey(name)); kw != nil {
			s.keywords = append(s.keywords, compiledKeyword{info: info, kw: kw})
		}
	}

	sort.SliceStable(s.keywords, func(a, b int) bool {
		ka, kb := s.keywords[a].info, s.keywords[b].info
		if ka.priority != kb.priority {
			return ka.priority < kb.priority
		}
		return ka.order < kb.order
	})
}

// compileDialect records the declared dialect. Only the root declaration
// selects behavior; nested $schema members are carried verbatim but do not
// re-scope evaluation.
func (cc *compileCtx) compileDialect(s *Schema, raw any, loc jsonpointer.Pointer) {
	if !s.loc.IsRoot() {
		return
	}
	uri, ok := raw.(string)
	if !ok {
		cc.addIssue(loc, CodeInvalidKeyword, `"$schema" must be a string`)
		return
	}
	d, err := ParseDraft(uri)
	if err != nil {
		cc.addIssue(loc, CodeUnknownDraft, "unrecognized dialect "+uri)
		return
	}
	s.draft = d
}

// ---- accessors ----

// Bool reports the boolean form: value true/false and ok when the schema is
// the bare "true" or "false" form.
func (s *Schema) Bool() (value, ok bool) {
	if s.boolean == nil {
		return false, false
	}
	return *s.boolean, true
}

// Location returns the node's absolute location within its document.
func (s *Schema) Location() jsonpointer.Pointer { return s.loc }

// Root returns the document root this node belongs to.
func (s *Schema) Root() *Schema { return s.root }

// DeclaredDraft returns the dialect named by the document's $schema member,
// or 0 when it declares none.
func (s *Schema) DeclaredDraft() Draft {
	if s.root != nil {
		return s.root.draft
	}
	return s.draft
}

// Keywords lists the node's compiled keywords in dispatch order.
func (s *Schema) Keywords() []string {
	out := make([]string, 0, len(s.keywords))
	for _, ck := range s.keywords {
		out = append(out, ck.info.name)
	}
	return out
}

// UnknownKeywords lists members that no built-in keyword claims, sorted.
// They survive MarshalJSON but are never evaluated.
func (s *Schema) UnknownKeywords() []string {
	var out []string
	for name := range s.members {
		if _, ok := keywordRegistry[name]; !ok && name != "$schema" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Resolve returns the subschema at the location ptr relative to this node,
// descending through keyword configurations ("/items/0", "/properties/x",
// "/$defs/node/not").
func (s *Schema) Resolve(ptr jsonpointer.Pointer) (*Schema, bool) {
	if s == nil || s.root == nil {
		return nil, false
	}
	abs := s.loc.Append(ptr.Tokens()...)
	sub, ok := s.root.index[abs.String()]
	return sub, ok
}

// MarshalJSON re-encodes the schema as written: the boolean forms as bare
// booleans, object forms with every member (unknown keywords included) under
// deterministic key order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.boolean != nil {
		return j.Marshal(*s.boolean)
	}
	if s.members == nil {
		return []byte("{}"), nil
	}
	return j.Marshal(s.members)
}

// ---- evaluation entry points ----

// Evaluate checks one decoded instance against the schema. The returned
// Result carries the full verdict tree; err is non-nil only for fatal
// conditions (ConfigError, DepthError, context cancellation) and never for a
// merely invalid instance.
func (s *Schema) Evaluate(ctx context.Context, instance any, opts ...EvaluateOpt) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opt, err := normalizeEvaluateOpt(s, opts)
	if err != nil {
		return nil, err
	}
	// propagate fail-fast intent via context for keyword implementations
	if opt.FailFast {
		ctx = WithFailFast(ctx, true)
	}
	ec := &EvaluationContext{goCtx: ctx, opt: opt, root: s.root}
	if err := ec.pushRoot(instance, s); err != nil {
		return nil, err
	}
	if err := ec.Evaluate(); err != nil {
		return nil, err
	}
	return ec.Pop(), nil
}

// EvaluateBytes decodes one JSON document and evaluates it. Decode failures
// surface as DecodeIssues, keeping the three failure classes apart even for
// instance input.
func (s *Schema) EvaluateBytes(ctx context.Context, data []byte, opts ...EvaluateOpt) (*Result, error) {
	v, err := DecodeValue(data)
	if err != nil {
		return nil, DecodeIssues{{Path: "", Code: CodeParseError, Message: "instance document is not valid JSON", Cause: err}}
	}
	return s.Evaluate(ctx, v, opts...)
}
