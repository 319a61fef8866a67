// Package jsonschema evaluates JSON documents against declarative schemas.
//
// A schema is compiled once with Compile and may then be shared across
// goroutines; each Evaluate call owns its evaluation context and result tree.
// Keywords are dispatched in a fixed priority order so that annotation
// producers (prefixItems, properties, contains) always run before the
// keywords that consume their annotations (items, additionalProperties,
// minContains), letting sibling keywords cooperate on the same instance node
// without coupling their implementations.
//
// The package distinguishes three failure classes and never mixes them:
// malformed schema documents surface as DecodeIssues from Compile, invalid
// keyword usage for the active draft surfaces as a ConfigError from Evaluate,
// and instances that merely violate the schema produce a Result tree whose
// Valid method reports false.
package jsonschema
