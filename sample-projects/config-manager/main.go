package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dcook-net/json-everything/jsonschema"
	"github.com/dcook-net/json-everything/yamlconv"
)

// configSchemaYAML is the configuration contract, written as a schema
// document rather than code. The tls block shows a cross-field rule: when
// tls is enabled, both file members must be present and non-empty.
const configSchemaYAML = `
$schema: "https://json-schema.org/draft/2020-12/schema"
type: object
required: [app, database, logging]
additionalProperties: false
properties:
  app:
    type: object
    required: [name, version]
    additionalProperties: false
    properties:
      name: {type: string, minLength: 1}
      version: {type: string, pattern: "^[0-9]+\\.[0-9]+\\.[0-9]+$"}
      environment: {enum: [development, staging, production]}
      port: {type: integer, minimum: 1, maximum: 65535}
      host: {type: string}
      tls:
        type: object
        additionalProperties: false
        properties:
          enabled: {type: boolean}
          certFile: {type: string}
          keyFile: {type: string}
        anyOf:
          - properties: {enabled: {const: false}}
          - required: [certFile, keyFile]
            properties:
              certFile: {minLength: 1}
              keyFile: {minLength: 1}
      cors:
        type: object
        additionalProperties: false
        properties:
          enabled: {type: boolean}
          origins:
            type: array
            items: {type: string, minLength: 1}
            minItems: 1
            uniqueItems: true
      metadata:
        type: object
  database:
    type: object
    required: [host, database, username]
    additionalProperties: false
    properties:
      host: {type: string, minLength: 1}
      port: {type: integer, minimum: 1, maximum: 65535}
      database: {type: string, minLength: 1}
      username: {type: string, minLength: 1}
      password: {type: string}
      maxConns: {type: integer, minimum: 1}
      maxIdleConns: {type: integer, minimum: 0}
      sslMode: {enum: [disable, prefer, require]}
  redis:
    type: object
    additionalProperties: false
    properties:
      host: {type: string}
      port: {type: integer, minimum: 1, maximum: 65535}
      database: {type: integer, minimum: 0}
      password: {type: string}
      poolSize: {type: integer, minimum: 1}
  logging:
    type: object
    additionalProperties: false
    properties:
      level: {enum: [debug, info, warn, error]}
      format: {enum: [json, text]}
      output: {type: string}
  features:
    type: object
    additionalProperties: false
    properties:
      analytics: {type: boolean}
      debugging: {type: boolean}
`

// ConfigManager loads layered YAML configuration and validates the merged
// document against the schema above.
type ConfigManager struct {
	schema *jsonschema.Schema
}

func NewConfigManager() (*ConfigManager, error) {
	doc, err := yamlconv.Decode([]byte(configSchemaYAML))
	if err != nil {
		return nil, fmt.Errorf("decode embedded schema: %w", err)
	}
	schema, err := jsonschema.CompileValue(doc)
	if err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	return &ConfigManager{schema: schema}, nil
}

// LoadConfig reads base.yaml, overlays <env>.yaml when present, expands
// environment variables and validates the merged result. Only valid
// configuration ever leaves this function.
func (cm *ConfigManager) LoadConfig(env string) (map[string]any, error) {
	baseData, err := os.ReadFile("base.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}
	merged, err := yamlconv.Decode(expandEnvVars(baseData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base config: %w", err)
	}

	envFile := env + ".yaml"
	if _, err := os.Stat(envFile); err == nil {
		envData, err := os.ReadFile(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", env, err)
		}
		overlay, err := yamlconv.Decode(expandEnvVars(envData))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s config: %w", env, err)
		}
		merged = mergeDocs(merged, overlay)
	}

	res, err := cm.schema.Evaluate(context.Background(), merged)
	if err != nil {
		return nil, err
	}
	if !res.Valid() {
		var lines []string
		for _, fe := range res.Flatten() {
			lines = append(lines, fmt.Sprintf("  %s: %s (%s)", fe.InstanceLocation, fe.Message, fe.Keyword))
		}
		return nil, fmt.Errorf("configuration is invalid:\n%s", strings.Join(lines, "\n"))
	}

	doc, ok := merged.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("configuration root must be a mapping")
	}
	return doc, nil
}

func (cm *ConfigManager) ValidateConfig(env string) error {
	if _, err := cm.LoadConfig(env); err != nil {
		return err
	}
	fmt.Printf("configuration for environment %q is valid\n", env)
	return nil
}

func (cm *ConfigManager) ShowConfig(env string, maskSecrets bool) error {
	config, err := cm.LoadConfig(env)
	if err != nil {
		return err
	}
	if maskSecrets {
		maskSecretValues(config)
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Printf("# configuration for environment: %s\n", env)
	fmt.Print(string(data))
	return nil
}

// ShowSchema prints the compiled schema in its canonical JSON form.
func (cm *ConfigManager) ShowSchema() error {
	data, err := json.MarshalIndent(cm.schema, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// mergeDocs overlays override onto base: mappings merge per key, everything
// else is replaced by the override value.
func mergeDocs(base, override any) any {
	bm, bok := base.(map[string]any)
	om, ook := override.(map[string]any)
	if !bok || !ook {
		return override
	}
	out := make(map[string]any, len(bm))
	for k, v := range bm {
		out[k] = v
	}
	for k, v := range om {
		if prev, ok := out[k]; ok {
			out[k] = mergeDocs(prev, v)
			continue
		}
		out[k] = v
	}
	return out
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars substitutes ${VAR} and ${VAR:-default} occurrences.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		if name, def, ok := strings.Cut(expr, ":-"); ok {
			if value := os.Getenv(name); value != "" {
				return []byte(value)
			}
			return []byte(def)
		}
		return []byte(os.Getenv(expr))
	})
}

// maskSecretValues blanks member values whose names suggest credentials,
// recursively.
func maskSecretValues(doc map[string]any) {
	for k, v := range doc {
		switch k {
		case "password", "keyFile":
			if s, ok := v.(string); ok && s != "" {
				doc[k] = "***masked***"
			}
		default:
			if sub, ok := v.(map[string]any); ok {
				maskSecretValues(sub)
			}
		}
	}
}

func (cm *ConfigManager) GenerateTemplate() error {
	templates := map[string]string{
		"base.yaml": `# Base configuration (common settings)
app:
  name: "MyWebApp"
  version: "1.0.0"
  host: "0.0.0.0"
  port: 8080
  tls:
    enabled: false
  cors:
    enabled: true
    origins: ["*"]
  metadata:
    author: "Your Name"
    description: "Web application"

database:
  host: "localhost"
  port: 5432
  database: "myapp"
  username: "postgres"
  maxConns: 10
  maxIdleConns: 5
  sslMode: "prefer"

redis:
  host: "localhost"
  port: 6379
  database: 0
  poolSize: 10

logging:
  level: "info"
  format: "json"
  output: "stdout"

features:
  analytics: true
  debugging: false
`,
		"development.yaml": `# Development environment overrides
app:
  environment: "development"
  port: 3000

database:
  password: "${DB_PASSWORD:-dev_password}"
  sslMode: "disable"

logging:
  level: "debug"

features:
  debugging: true
`,
		"staging.yaml": `# Staging environment overrides
app:
  environment: "staging"
  cors:
    origins: ["https://staging.example.com"]

database:
  host: "${DB_HOST:-staging-db.example.com}"
  password: "${DB_PASSWORD}"
  sslMode: "require"

logging:
  level: "info"
`,
		"production.yaml": `# Production environment overrides
app:
  environment: "production"
  port: 443
  tls:
    enabled: true
    certFile: "${TLS_CERT_FILE}"
    keyFile: "${TLS_KEY_FILE}"
  cors:
    origins: ["https://example.com", "https://app.example.com"]

database:
  host: "${DB_HOST}"
  password: "${DB_PASSWORD}"
  maxConns: 50
  maxIdleConns: 10
  sslMode: "require"

logging:
  level: "warn"
  output: "${LOG_OUTPUT:-stdout}"

features:
  debugging: false
`,
	}

	for filename, content := range templates {
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		fmt.Printf("generated %s\n", filename)
	}
	fmt.Println("template configuration files generated")
	fmt.Println("validate with: go run . validate --env=development")
	return nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cm, err := NewConfigManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		if err := cm.ValidateConfig(getEnvFlag()); err != nil {
			fmt.Fprintf(os.Stderr, "validation failed: %v\n", err)
			os.Exit(1)
		}
	case "show":
		if err := cm.ShowConfig(getEnvFlag(), !getBoolFlag("--no-mask")); err != nil {
			fmt.Fprintf(os.Stderr, "show failed: %v\n", err)
			os.Exit(1)
		}
	case "generate":
		if !getBoolFlag("--template") {
			fmt.Fprintln(os.Stderr, "use --template to generate template files")
			os.Exit(1)
		}
		if err := cm.GenerateTemplate(); err != nil {
			fmt.Fprintf(os.Stderr, "generate failed: %v\n", err)
			os.Exit(1)
		}
	case "schema":
		if err := cm.ShowSchema(); err != nil {
			fmt.Fprintf(os.Stderr, "schema failed: %v\n", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`Config Manager Sample

Usage: %s <command> [flags...]

Commands:
  validate [--env=<env>]           Validate configuration for environment
  show [--env=<env>] [--no-mask]   Show configuration (default: mask secrets)
  generate --template              Generate template configuration files
  schema                           Show the configuration schema (canonical JSON)

Environment Files:
  base.yaml               Base configuration (required)
  <environment>.yaml      Environment-specific overrides (optional)

`, os.Args[0])
}

func getEnvFlag() string {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "--env=") {
			return strings.TrimPrefix(arg, "--env=")
		}
	}
	return "development"
}

func getBoolFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}
