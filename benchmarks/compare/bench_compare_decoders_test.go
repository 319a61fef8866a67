package compare_test

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"
	jsoniter "github.com/json-iterator/go"

	"github.com/dcook-net/json-everything/jsonschema"
)

// The evaluator takes any decoded document, so the decoder is swappable.
// These benchmarks race decode-then-evaluate across decoders; number
// representation differs (json.Number vs float64) but the verdict does not.

var jsoniterStd = jsoniter.ConfigCompatibleWithStandardLibrary

func sonicToAny(data []byte) (any, error) {
	var doc any
	err := sonic.Unmarshal(data, &doc)
	return doc, err
}

func jsoniterToAny(data []byte) (any, error) {
	var doc any
	err := jsoniterStd.Unmarshal(data, &doc)
	return doc, err
}

func decodeEvaluateLoop(b *testing.B, schemaSrc string, data []byte, decode func([]byte) (any, error)) {
	b.Helper()
	s := jsonschema.MustCompile([]byte(schemaSrc))
	ctx := context.Background()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc, err := decode(data)
		if err != nil {
			b.Fatal(err)
		}
		res, err := s.Evaluate(ctx, doc)
		if err != nil {
			b.Fatal(err)
		}
		if !res.Valid() {
			b.Fatal("expected valid")
		}
	}
}

func Benchmark_DecodeAndEvaluate_gojson_Small(b *testing.B) {
	decodeEvaluateLoop(b, jsonSchemaUser, smallUserJSON(), jsonschema.DecodeValue)
}

func Benchmark_DecodeAndEvaluate_sonic_Small(b *testing.B) {
	decodeEvaluateLoop(b, jsonSchemaUser, smallUserJSON(), sonicToAny)
}

func Benchmark_DecodeAndEvaluate_jsoniter_Small(b *testing.B) {
	decodeEvaluateLoop(b, jsonSchemaUser, smallUserJSON(), jsoniterToAny)
}

func Benchmark_DecodeAndEvaluate_gojson_Array1k(b *testing.B) {
	decodeEvaluateLoop(b, jsonSchemaRecords, recordsJSON(1000), jsonschema.DecodeValue)
}

func Benchmark_DecodeAndEvaluate_sonic_Array1k(b *testing.B) {
	decodeEvaluateLoop(b, jsonSchemaRecords, recordsJSON(1000), sonicToAny)
}

func Benchmark_DecodeAndEvaluate_jsoniter_Array1k(b *testing.B) {
	decodeEvaluateLoop(b, jsonSchemaRecords, recordsJSON(1000), jsoniterToAny)
}
