// Package yamlconv bridges YAML documents into the JSON value model used by
// the jsonschema package, so schemas and instances may be authored in YAML.
//
// YAML mappings become map[string]any, sequences become []any, and scalars
// keep their decoded Go types. Mapping keys that are not strings are rendered
// textually ("1" for 1), matching how the wider YAML-to-JSON ecosystem treats
// them; composite keys are rejected.
package yamlconv

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Decode parses a single YAML document. Trailing documents are rejected; use
// DecodeAll for multi-document streams.
func Decode(data []byte) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var node any
	if err := dec.Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("yamlconv: empty input")
		}
		return nil, fmt.Errorf("yamlconv: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("yamlconv: %w", err)
		}
		return nil, errors.New("yamlconv: multiple documents in input, want one")
	}
	return normalize(node)
}

// DecodeAll parses every document in a multi-document stream. An empty input
// yields an empty slice.
func DecodeAll(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []any
	for {
		var node any
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, fmt.Errorf("yamlconv: document %d: %w", len(docs), err)
		}
		v, err := normalize(node)
		if err != nil {
			return nil, fmt.Errorf("yamlconv: document %d: %w", len(docs), err)
		}
		docs = append(docs, v)
	}
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			nv, err := normalize(vv)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, err := keyString(k)
			if err != nil {
				return nil, err
			}
			nv, err := normalize(vv)
			if err != nil {
				return nil, err
			}
			out[ks] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i := range t {
			nv, err := normalize(t[i])
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case time.Time:
		// The YAML resolver turns ISO8601-looking scalars into time values;
		// JSON has no such kind.
		return t.Format(time.RFC3339Nano), nil
	case []byte:
		// !!binary
		return base64.StdEncoding.EncodeToString(t), nil
	default:
		return v, nil
	}
}

func keyString(k any) (string, error) {
	switch t := k.(type) {
	case string:
		return t, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprintf("%v", t), nil
	default:
		return "", fmt.Errorf("unsupported mapping key of type %T", k)
	}
}
