package jsonschema_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dcook-net/json-everything/jsonpointer"
	"github.com/dcook-net/json-everything/jsonschema"
)

func TestCompile_CollectsEveryIssue(t *testing.T) {
	_, err := jsonschema.Compile([]byte(`{"minItems":-1,"pattern":"("}`))
	if err == nil {
		t.Fatalf("expected compile issues, got nil")
	}
	issues, ok := jsonschema.AsDecodeIssues(err)
	if !ok {
		t.Fatalf("expected DecodeIssues, got %T: %v", err, err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected both issues reported, got %d: %v", len(issues), issues)
	}
	if issues[0].Path != "/minItems" || issues[0].Code != jsonschema.CodeInvalidKeyword {
		t.Fatalf("unexpected first issue: %+v", issues[0])
	}
	if issues[1].Path != "/pattern" || issues[1].Code != jsonschema.CodeInvalidPattern {
		t.Fatalf("unexpected second issue: %+v", issues[1])
	}
	if issues[1].Cause == nil {
		t.Fatalf("the pattern issue should carry the regexp error")
	}
}

func TestCompile_RootMustBeObjectOrBoolean(t *testing.T) {
	_, err := jsonschema.Compile([]byte(`[1,2]`))
	issues, ok := jsonschema.AsDecodeIssues(err)
	if !ok || len(issues) != 1 {
		t.Fatalf("expected one issue, got %v", err)
	}
	if issues[0].Code != jsonschema.CodeInvalidSchema || issues[0].Path != "" {
		t.Fatalf("unexpected issue: %+v", issues[0])
	}
}

func TestCompile_MalformedAndTrailingInput(t *testing.T) {
	for _, src := range []string{`{"a":`, `{} {}`, ``} {
		_, err := jsonschema.Compile([]byte(src))
		issues, ok := jsonschema.AsDecodeIssues(err)
		if !ok || len(issues) == 0 {
			t.Fatalf("%q: expected decode issues, got %v", src, err)
		}
		if issues[0].Code != jsonschema.CodeParseError {
			t.Fatalf("%q: unexpected code %q", src, issues[0].Code)
		}
	}
}

func TestCompile_RefMustBeLocal(t *testing.T) {
	cases := []struct {
		src  string
		hint string
	}{
		{`{"$ref":"http://example.com/s#/a"}`, "document-local"},
		{`{"$ref":123}`, "must be a string"},
		{`{"$ref":"#bad"}`, "malformed"},
	}
	for _, tc := range cases {
		_, err := jsonschema.Compile([]byte(tc.src))
		issues, ok := jsonschema.AsDecodeIssues(err)
		if !ok || len(issues) != 1 {
			t.Fatalf("%s: expected one issue, got %v", tc.src, err)
		}
		if issues[0].Code != jsonschema.CodeInvalidRef || issues[0].Path != "/$ref" {
			t.Fatalf("%s: unexpected issue: %+v", tc.src, issues[0])
		}
		if !strings.Contains(issues[0].Message, tc.hint) {
			t.Fatalf("%s: message %q should mention %q", tc.src, issues[0].Message, tc.hint)
		}
	}
}

func TestCompile_DialectDeclarations(t *testing.T) {
	s := mustCompile(t, `{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"object"}`)
	if got := s.DeclaredDraft(); got != jsonschema.Draft202012 {
		t.Fatalf("DeclaredDraft() = %v, want 2020-12", got)
	}

	_, err := jsonschema.Compile([]byte(`{"$schema":"urn:something-else"}`))
	issues, ok := jsonschema.AsDecodeIssues(err)
	if !ok || len(issues) != 1 || issues[0].Code != jsonschema.CodeUnknownDraft {
		t.Fatalf("expected an unknown_draft issue, got %v", err)
	}

	_, err = jsonschema.Compile([]byte(`{"$schema":42}`))
	issues, ok = jsonschema.AsDecodeIssues(err)
	if !ok || len(issues) != 1 || issues[0].Code != jsonschema.CodeInvalidKeyword {
		t.Fatalf("expected an invalid_keyword issue, got %v", err)
	}

	// $schema below the root is carried as data, not honored.
	s = mustCompile(t, `{"properties":{"a":{"$schema":"urn:whatever","type":"string"}}}`)
	if got := s.DeclaredDraft(); got != 0 {
		t.Fatalf("nested $schema must not set the dialect, got %v", got)
	}
}

func TestSchema_UnknownKeywordsSurviveRoundTrip(t *testing.T) {
	src := `{"title":"T","type":"object","x-vendor":{"note":"keep"}}`
	s := mustCompile(t, src)

	if got := s.Keywords(); !reflect.DeepEqual(got, []string{"type"}) {
		t.Fatalf("Keywords() = %v", got)
	}
	if got := s.UnknownKeywords(); !reflect.DeepEqual(got, []string{"title", "x-vendor"}) {
		t.Fatalf("UnknownKeywords() = %v", got)
	}

	out, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	again, err := jsonschema.Compile(out)
	if err != nil {
		t.Fatalf("re-Compile(%s): %v", out, err)
	}
	if !s.Equal(again) {
		t.Fatalf("round trip changed the schema:\n%s", out)
	}

	// Marshalling is stable across calls.
	out2, err := again.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(out) != string(out2) {
		t.Fatalf("marshal output drifted:\n%s\n%s", out, out2)
	}
}

func TestSchema_MarshalBooleanForms(t *testing.T) {
	for _, tc := range []struct{ src, want string }{
		{`true`, `true`},
		{`false`, `false`},
		{`{}`, `{}`},
	} {
		out, err := mustCompile(t, tc.src).MarshalJSON()
		if err != nil {
			t.Fatalf("%s: MarshalJSON: %v", tc.src, err)
		}
		if string(out) != tc.want {
			t.Fatalf("%s: marshalled to %s", tc.src, out)
		}
	}
}

func TestCompile_DuplicateKeyDetection(t *testing.T) {
	// Off by default: the later value wins silently.
	if _, err := jsonschema.Compile([]byte(`{"a":{"b":1,"b":2}}`)); err != nil {
		t.Fatalf("duplicate scan should be opt-in: %v", err)
	}

	_, err := jsonschema.Compile([]byte(`{"a":{"b":1,"b":2}}`),
		jsonschema.CompileOpt{CheckDuplicateKeys: true})
	issues, ok := jsonschema.AsDecodeIssues(err)
	if !ok || len(issues) != 1 {
		t.Fatalf("expected one issue, got %v", err)
	}
	if issues[0].Code != jsonschema.CodeDuplicateKey || issues[0].Path != "/a/b" {
		t.Fatalf("unexpected issue: %+v", issues[0])
	}

	// Array positions take part in the reported path.
	_, err = jsonschema.Compile([]byte(`{"prefixItems":[{"type":"string","type":"integer"}]}`),
		jsonschema.CompileOpt{CheckDuplicateKeys: true})
	issues, ok = jsonschema.AsDecodeIssues(err)
	if !ok || len(issues) != 1 || issues[0].Path != "/prefixItems/0/type" {
		t.Fatalf("unexpected issue for nested duplicate: %v", err)
	}
}

func TestSchema_ResolveWalksKeywordConfigurations(t *testing.T) {
	s := mustCompile(t, `{
		"$defs": {"leaf": {"type":"integer"}},
		"properties": {"a": {"items": {"type":"string"}}}
	}`)

	leaf, ok := s.Resolve(jsonpointer.MustParse("/$defs/leaf"))
	if !ok {
		t.Fatalf("expected /$defs/leaf to resolve")
	}
	if got := leaf.Keywords(); !reflect.DeepEqual(got, []string{"type"}) {
		t.Fatalf("leaf keywords = %v", got)
	}

	a, ok := s.Resolve(jsonpointer.MustParse("/properties/a"))
	if !ok {
		t.Fatalf("expected /properties/a to resolve")
	}
	// Resolution is relative to the receiving node.
	if _, ok := a.Resolve(jsonpointer.MustParse("/items")); !ok {
		t.Fatalf("expected /items to resolve against the subschema")
	}
	if got := a.Location().String(); got != "/properties/a" {
		t.Fatalf("Location() = %q", got)
	}

	// Intermediate containers are not schemas.
	if _, ok := s.Resolve(jsonpointer.MustParse("/properties")); ok {
		t.Fatalf("/properties is a keyword configuration, not a schema")
	}
	if _, ok := s.Resolve(jsonpointer.MustParse("/nope")); ok {
		t.Fatalf("expected a miss for an unknown location")
	}
}

func TestMustCompile_PanicsOnBadSchema(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustCompile to panic")
		}
	}()
	jsonschema.MustCompile([]byte(`{"pattern":"("}`))
}
