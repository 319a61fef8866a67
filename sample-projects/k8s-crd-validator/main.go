package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dcook-net/json-everything/jsonschema"
	"github.com/dcook-net/json-everything/yamlconv"
)

// widgetCRDYAML is a CustomResourceDefinition for the Widget kind. The
// validator compiles the openAPIV3Schema node of the served version directly:
// a CRD validation schema is an ordinary schema document.
const widgetCRDYAML = `
apiVersion: apiextensions.k8s.io/v1
kind: CustomResourceDefinition
metadata:
  name: widgets.example.com
spec:
  group: example.com
  names:
    kind: Widget
    listKind: WidgetList
    plural: widgets
    singular: widget
  scope: Namespaced
  versions:
    - name: v1
      served: true
      storage: true
      schema:
        openAPIV3Schema:
          description: Widget is a demo resource with a small structural schema.
          x-kubernetes-preserve-unknown-fields: false
          type: object
          required: [apiVersion, kind, metadata, spec]
          properties:
            apiVersion:
              type: string
            kind:
              const: Widget
            metadata:
              type: object
              required: [name]
              properties:
                name:
                  type: string
                  minLength: 1
                  pattern: "^[a-z0-9]([-a-z0-9]*[a-z0-9])?$"
                namespace:
                  type: string
                labels:
                  type: object
            spec:
              type: object
              required: [size]
              additionalProperties: false
              properties:
                size:
                  enum: [small, medium, large]
                replicas:
                  type: integer
                  minimum: 1
                  maximum: 10
                image:
                  type: string
                  minLength: 1
                ports:
                  type: array
                  minItems: 1
                  uniqueItems: true
                  items:
                    type: integer
                    minimum: 1
                    maximum: 65535
`

const validWidgetYAML = `
apiVersion: example.com/v1
kind: Widget
metadata:
  name: my-widget
  namespace: default
  labels:
    app: demo
spec:
  size: medium
  replicas: 3
  image: example/widget:1.2.3
  ports: [8080, 9090]
`

const invalidWidgetYAML = `
apiVersion: example.com/v1
kind: Widget
metadata:
  name: My_Widget
spec:
  size: huge
  replicas: 0
  color: blue
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Usage: %s validate <file|->\n", os.Args[0])
			os.Exit(1)
		}
		if err := validateWidgetFile(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Validation passed")

	case "schema":
		if err := showSchema(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show schema: %v\n", err)
			os.Exit(1)
		}

	case "demo":
		if err := runDemo(); err != nil {
			fmt.Fprintf(os.Stderr, "Demo failed: %v\n", err)
			os.Exit(1)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`Kubernetes CRD Validator Sample

Usage: %s <command> [args...]

Commands:
  validate <file|->     Validate a Widget resource from file or stdin
  schema                Show the Widget validation schema (canonical JSON)
  demo                  Run the validation demo with built-in resources

Examples:
  %s validate my-widget.yaml
  kubectl get widgets my-widget -o yaml | %s validate -
  %s demo

`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

// loadCRDSchema compiles the validation schema of the served Widget version.
func loadCRDSchema() (*jsonschema.Schema, error) {
	crd, err := yamlconv.Decode([]byte(widgetCRDYAML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse CRD: %w", err)
	}

	doc, version, err := crdServedSchema(crd)
	if err != nil {
		return nil, err
	}

	schema, err := jsonschema.CompileValue(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema of version %s: %w", version, err)
	}

	// OpenAPI-flavored members are carried but never evaluated.
	for _, name := range schema.UnknownKeywords() {
		fmt.Fprintf(os.Stderr, "Warning: ignoring unknown keyword %q\n", name)
	}

	return schema, nil
}

// crdServedSchema walks a decoded CustomResourceDefinition to the
// openAPIV3Schema of the first served version (or the first version when
// none is marked served).
func crdServedSchema(crd any) (any, string, error) {
	root, ok := crd.(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("CRD document must be a mapping")
	}
	spec, ok := root["spec"].(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("CRD has no spec")
	}
	versions, ok := spec["versions"].([]any)
	if !ok || len(versions) == 0 {
		return nil, "", fmt.Errorf("CRD has no versions")
	}

	var picked map[string]any
	for _, v := range versions {
		vm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if served, _ := vm["served"].(bool); served {
			picked = vm
			break
		}
	}
	if picked == nil {
		picked, _ = versions[0].(map[string]any)
	}
	if picked == nil {
		return nil, "", fmt.Errorf("CRD versions are malformed")
	}

	name, _ := picked["name"].(string)
	schema, ok := picked["schema"].(map[string]any)
	if !ok {
		return nil, name, fmt.Errorf("version %q has no schema", name)
	}
	doc, ok := schema["openAPIV3Schema"]
	if !ok {
		return nil, name, fmt.Errorf("version %q has no openAPIV3Schema", name)
	}
	return doc, name, nil
}

func validateWidgetFile(filename string) error {
	var data []byte
	var err error
	if filename == "-" {
		fmt.Fprintln(os.Stderr, "Reading from stdin...")
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Validating %s...\n", filename)
		data, err = os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}
	}
	return validateWidget(data)
}

func validateWidget(data []byte) error {
	schema, err := loadCRDSchema()
	if err != nil {
		return err
	}

	resource, err := yamlconv.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse resource: %w", err)
	}

	res, err := schema.Evaluate(context.Background(), resource)
	if err != nil {
		return err
	}
	if !res.Valid() {
		flat := res.Flatten()
		fmt.Fprintf(os.Stderr, "Resource is invalid, %d issue(s):\n", len(flat))
		for i, fe := range flat {
			fmt.Fprintf(os.Stderr, "  %d. %s at %s (keyword %s)\n", i+1, fe.Message, fe.InstanceLocation, fe.Keyword)
		}
		return fmt.Errorf("validation failed with %d issue(s)", len(flat))
	}

	fmt.Fprintln(os.Stderr, "Resource is valid")
	printResourceSummary(resource)
	return nil
}

func printResourceSummary(resource any) {
	doc, ok := resource.(map[string]any)
	if !ok {
		return
	}
	if metadata, ok := doc["metadata"].(map[string]any); ok {
		if name, ok := metadata["name"].(string); ok {
			fmt.Fprintf(os.Stderr, "  name: %s\n", name)
		}
		if namespace, ok := metadata["namespace"].(string); ok {
			fmt.Fprintf(os.Stderr, "  namespace: %s\n", namespace)
		}
	}
	if spec, ok := doc["spec"].(map[string]any); ok {
		if size, ok := spec["size"].(string); ok {
			fmt.Fprintf(os.Stderr, "  size: %s\n", size)
		}
		if replicas, ok := spec["replicas"]; ok {
			fmt.Fprintf(os.Stderr, "  replicas: %v\n", replicas)
		}
	}
}

func showSchema() error {
	schema, err := loadCRDSchema()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runDemo() error {
	fmt.Println("CRD Validation Demo")
	fmt.Println("===================")
	fmt.Println()

	fmt.Println("1. Valid Widget resource:")
	if err := validateWidget([]byte(validWidgetYAML)); err != nil {
		return fmt.Errorf("valid widget test failed: %w", err)
	}
	fmt.Println()

	fmt.Println("2. Invalid Widget resource:")
	if err := validateWidget([]byte(invalidWidgetYAML)); err != nil {
		fmt.Fprintf(os.Stderr, "Expected validation failure: %v\n", err)
	}
	fmt.Println()

	fmt.Println("3. Widget validation schema:")
	if err := showSchema(); err != nil {
		return fmt.Errorf("schema display failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Demo completed")
	return nil
}
