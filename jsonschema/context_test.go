package jsonschema_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/dcook-net/json-everything/jsonschema"
)

func TestEvaluate_SelfReferenceHitsDepthGuard(t *testing.T) {
	s := mustCompile(t, `{"$ref":"#"}`)
	res, err := s.EvaluateBytes(context.Background(), []byte(`1`))
	if err == nil {
		t.Fatalf("expected depth error, got valid=%v", res.Valid())
	}
	de, ok := jsonschema.AsDepthError(err)
	if !ok {
		t.Fatalf("expected DepthError, got %T: %v", err, err)
	}
	if de.MaxDepth != jsonschema.DefaultMaxDepth {
		t.Fatalf("MaxDepth = %d, want the default %d", de.MaxDepth, jsonschema.DefaultMaxDepth)
	}
}

func TestEvaluate_DeepInstanceHitsConfiguredLimit(t *testing.T) {
	s := mustCompile(t, `{
		"$ref": "#/$defs/node",
		"$defs": {
			"node": {
				"anyOf": [
					{"type": "integer"},
					{"items": {"$ref": "#/$defs/node"}}
				]
			}
		}
	}`)

	nested := func(depth int) []byte {
		return []byte(strings.Repeat("[", depth) + "1" + strings.Repeat("]", depth))
	}

	res, err := s.EvaluateBytes(context.Background(), nested(5))
	if err != nil {
		t.Fatalf("shallow nesting: %v", err)
	}
	if !res.Valid() {
		t.Fatalf("shallow nesting: expected valid, got %+v", res.Errors())
	}

	_, err = s.EvaluateBytes(context.Background(), nested(40), jsonschema.EvaluateOpt{MaxDepth: 64})
	de, ok := jsonschema.AsDepthError(err)
	if !ok {
		t.Fatalf("expected DepthError, got %T: %v", err, err)
	}
	if de.MaxDepth != 64 {
		t.Fatalf("MaxDepth = %d, want 64", de.MaxDepth)
	}
}

func TestEvaluate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mustCompile(t, `{"type":"integer"}`).EvaluateBytes(ctx, []byte(`1`))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRef_ResolvesWithinDocument(t *testing.T) {
	s := mustCompile(t, `{"$defs":{"pos":{"type":"integer","minimum":1}},"$ref":"#/$defs/pos"}`)
	if res := mustEval(t, s, `3`); !res.Valid() {
		t.Fatalf("expected valid: %+v", res.Errors())
	}
	res := mustEval(t, s, `0`)
	if res.Valid() {
		t.Fatalf("0 is below the referenced minimum")
	}
	if errs := res.Errors(); len(errs) != 1 || errs[0].Keyword != "$ref" {
		t.Fatalf("unexpected errors: %+v", res.Errors())
	}
}

func TestRef_UnresolvableTargetIsFatal(t *testing.T) {
	s := mustCompile(t, `{"properties":{"a":{"$ref":"#/nope"}}}`)

	// The dangling reference only matters once its keyword actually runs.
	if res := mustEval(t, s, `{}`); !res.Valid() {
		t.Fatalf("expected valid for an instance that never reaches the reference")
	}

	_, err := s.EvaluateBytes(context.Background(), []byte(`{"a":1}`))
	ce, ok := jsonschema.AsConfigError(err)
	if !ok {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
	if ce.Keyword != "$ref" || ce.EvaluationPath != "/properties/a/$ref" {
		t.Fatalf("unexpected error location: %+v", ce)
	}
}

func TestEvaluate_SharedSchemaAcrossGoroutines(t *testing.T) {
	s := mustCompile(t, `{
		"type": "object",
		"required": ["id"],
		"properties": {"id": {"type": "integer"}},
		"additionalProperties": false
	}`)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				res, err := s.EvaluateBytes(context.Background(), []byte(`{"id":1}`))
				if err != nil || !res.Valid() {
					t.Errorf("good instance: err=%v", err)
					return
				}
				res, err = s.EvaluateBytes(context.Background(), []byte(`{"id":1,"extra":true}`))
				if err != nil || res.Valid() {
					t.Errorf("extra property slipped through: err=%v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestEvaluate_RepeatRunsAgree(t *testing.T) {
	s := mustCompile(t, `{"properties":{"a":{"type":"integer"}},"required":["b"]}`)
	first := mustEval(t, s, `{"a":"x"}`)
	second := mustEval(t, s, `{"a":"x"}`)

	b1, err := first.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	b2, err := second.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatalf("two identical runs disagreed:\n%s\n%s", b1, b2)
	}
}

func TestEvaluateOpt_LastOneWins(t *testing.T) {
	s := mustCompile(t, `{"items":[{"type":"integer"}]}`)

	_, err := s.EvaluateBytes(context.Background(), []byte(`[1]`),
		jsonschema.EvaluateOpt{Draft: jsonschema.Draft7},
		jsonschema.EvaluateOpt{Draft: jsonschema.Draft202012})
	if _, ok := jsonschema.AsConfigError(err); !ok {
		t.Fatalf("last option should select draft 2020-12, got %v", err)
	}

	res, err := s.EvaluateBytes(context.Background(), []byte(`[1]`),
		jsonschema.EvaluateOpt{Draft: jsonschema.Draft202012},
		jsonschema.EvaluateOpt{Draft: jsonschema.Draft7})
	if err != nil {
		t.Fatalf("last option should select draft-07: %v", err)
	}
	if !res.Valid() {
		t.Fatalf("expected valid: %+v", res.Errors())
	}
}

func TestEvaluateOpt_RejectsDraftUnions(t *testing.T) {
	s := mustCompile(t, `{"type":"integer"}`)
	_, err := s.EvaluateBytes(context.Background(), []byte(`1`),
		jsonschema.EvaluateOpt{Draft: jsonschema.Draft6 | jsonschema.Draft7})
	ce, ok := jsonschema.AsConfigError(err)
	if !ok {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
	if !strings.Contains(ce.Message, "exactly one") {
		t.Fatalf("unexpected message: %q", ce.Message)
	}
}

func TestEvaluateOpt_OverridesDeclaredDialect(t *testing.T) {
	s := mustCompile(t, `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"items": [{"type":"integer"}]
	}`)
	// Declared dialect admits the positional form.
	if res := mustEval(t, s, `[1]`); !res.Valid() {
		t.Fatalf("expected valid under the declared dialect: %+v", res.Errors())
	}
	// An explicit option takes precedence over $schema.
	_, err := s.EvaluateBytes(context.Background(), []byte(`[1]`),
		jsonschema.EvaluateOpt{Draft: jsonschema.Draft202012})
	if _, ok := jsonschema.AsConfigError(err); !ok {
		t.Fatalf("expected ConfigError under the overriding dialect, got %v", err)
	}
}

func TestEvaluateOpt_LoggerTracesDispatch(t *testing.T) {
	var buf bytes.Buffer
	lg := logrus.New()
	lg.SetOutput(&buf)
	lg.SetLevel(logrus.DebugLevel)

	s := mustCompile(t, `{"type":"integer"}`)
	if res := mustEval(t, s, `3`, jsonschema.EvaluateOpt{Logger: lg}); !res.Valid() {
		t.Fatalf("expected valid: %+v", res.Errors())
	}
	out := buf.String()
	if !strings.Contains(out, "jsonschema: eval") || !strings.Contains(out, "type") {
		t.Fatalf("expected a dispatch trace, got:\n%s", out)
	}
}
