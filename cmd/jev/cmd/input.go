package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/dcook-net/json-everything/jsonschema"
	"github.com/dcook-net/json-everything/yamlconv"
)

func errInvalidOutput(format string) error {
	return fmt.Errorf("output format must be %s or %s, got %q", outputTable, outputJSON, format)
}

// isYAMLFile reports whether path should be decoded as YAML; everything else
// is treated as JSON.
func isYAMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// loadSchema compiles the schema document at path. YAML schemas go through
// the yamlconv bridge; compile issues come back untouched so callers can
// report them per member.
func loadSchema(path string) (*jsonschema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isYAMLFile(path) {
		doc, err := yamlconv.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return jsonschema.CompileValue(doc)
	}
	return jsonschema.Compile(data)
}

// loadDocument reads the instance document at path into the decoded-JSON
// vocabulary.
func loadDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isYAMLFile(path) {
		doc, err := yamlconv.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return doc, nil
	}
	doc, err := jsonschema.DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
