package yamlconv_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/dcook-net/json-everything/jsonschema"
	"github.com/dcook-net/json-everything/yamlconv"
)

func TestDecode_Mapping(t *testing.T) {
	v, err := yamlconv.Decode([]byte("name: box\nsize:\n  - 1\n  - 2\nsolid: true\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := map[string]any{
		"name":  "box",
		"size":  []any{1, 2},
		"solid": true,
	}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("Decode = %#v, want %#v", v, want)
	}
}

func TestDecode_AliasesResolve(t *testing.T) {
	v, err := yamlconv.Decode([]byte("base: &b\n  kind: disk\ncopy: *b\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("Decode = %T", v)
	}
	if !reflect.DeepEqual(m["base"], m["copy"]) {
		t.Fatalf("alias should mirror its anchor: %#v vs %#v", m["base"], m["copy"])
	}
}

func TestDecode_EmptyInput(t *testing.T) {
	if _, err := yamlconv.Decode(nil); err == nil {
		t.Fatalf("expected error for empty input, got nil")
	}
}

func TestDecode_RejectsExtraDocuments(t *testing.T) {
	_, err := yamlconv.Decode([]byte("a: 1\n---\nb: 2\n"))
	if err == nil || !strings.Contains(err.Error(), "multiple documents") {
		t.Fatalf("expected a multi-document error, got %v", err)
	}
}

func TestDecodeAll_SplitsDocuments(t *testing.T) {
	docs, err := yamlconv.DecodeAll([]byte("a: 1\n---\n- x\n- y\n"))
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if !reflect.DeepEqual(docs[0], map[string]any{"a": 1}) {
		t.Fatalf("first document = %#v", docs[0])
	}
	if !reflect.DeepEqual(docs[1], []any{"x", "y"}) {
		t.Fatalf("second document = %#v", docs[1])
	}

	docs, err = yamlconv.DecodeAll(nil)
	if err != nil || len(docs) != 0 {
		t.Fatalf("empty stream: docs=%v err=%v", docs, err)
	}
}

func TestDecode_FeedsSchemaCompiler(t *testing.T) {
	schemaYAML := []byte(`
type: object
required: [id]
properties:
  id:
    type: integer
  tags:
    type: array
    items:
      type: string
`)
	sv, err := yamlconv.Decode(schemaYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s, err := jsonschema.CompileValue(sv)
	if err != nil {
		t.Fatalf("CompileValue: %v", err)
	}

	iv, err := yamlconv.Decode([]byte("id: 7\ntags: [a, b]\n"))
	if err != nil {
		t.Fatalf("Decode instance: %v", err)
	}
	res, err := s.Evaluate(context.Background(), iv)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Valid() {
		t.Fatalf("expected valid: %+v", res.Errors())
	}

	iv, err = yamlconv.Decode([]byte("id: seven\n"))
	if err != nil {
		t.Fatalf("Decode instance: %v", err)
	}
	res, err = s.Evaluate(context.Background(), iv)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Valid() {
		t.Fatalf("a string id must not pass")
	}
}
