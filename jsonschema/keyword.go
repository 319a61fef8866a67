package jsonschema

import (
	"fmt"

	"github.com/dcook-net/json-everything/jsonpointer"
)

// Keyword is one compiled occurrence of a schema keyword. Evaluate inspects
// the current frame of the context, records validation failures and
// annotations through it, and descends into subschemas via Apply/ApplySelf.
//
// A non-nil error from Evaluate is always fatal to the whole evaluation
// (ConfigError, DepthError, context cancellation); an instance that merely
// violates the keyword is reported with ctx.Fail and a nil error.
type Keyword interface {
	Name() string
	Evaluate(ctx *EvaluationContext) error
}

// compileFunc builds the compiled form of a keyword from its decoded
// configuration value. Shape problems are collected on the compile context;
// a nil return means the keyword did not compile.
type compileFunc func(cc *compileCtx, raw any, loc jsonpointer.Pointer) Keyword

// Dispatch priorities. Keywords run in ascending priority; within one
// priority the table order below is preserved. Producers must finish before
// the keywords that read their annotations start.
const (
	priorityIndependent   = 0  // plain assertions and self-contained applicators
	priorityAnnotators    = 10 // keywords that publish annotations for siblings
	priorityConsumers     = 20 // keywords reading annotations from priorityAnnotators
	priorityLateConsumers = 30 // keywords reading annotations from priorityConsumers
)

type keywordInfo struct {
	name      string
	priority  int
	drafts    Draft   // dialects in which the keyword participates at all
	dependsOn []string // annotation producers this keyword reads
	compile   compileFunc
	order     int // position in the table; tie-break within a priority
}

// keywordTable is the complete built-in catalog. It is fixed at compile time:
// evaluation order and annotation dependencies are data here, not behavior
// scattered through the implementations.
var keywordTable = []keywordInfo{
	{name: "type", priority: priorityIndependent, drafts: AllDrafts, compile: compileType},
	{name: "enum", priority: priorityIndependent, drafts: AllDrafts, compile: compileEnum},
	{name: "const", priority: priorityIndependent, drafts: AllDrafts, compile: compileConst},
	{name: "minimum", priority: priorityIndependent, drafts: AllDrafts, compile: compileMinimum},
	{name: "maximum", priority: priorityIndependent, drafts: AllDrafts, compile: compileMaximum},
	{name: "minLength", priority: priorityIndependent, drafts: AllDrafts, compile: compileMinLength},
	{name: "maxLength", priority: priorityIndependent, drafts: AllDrafts, compile: compileMaxLength},
	{name: "pattern", priority: priorityIndependent, drafts: AllDrafts, compile: compilePattern},
	{name: "required", priority: priorityIndependent, drafts: AllDrafts, compile: compileRequired},
	{name: "minItems", priority: priorityIndependent, drafts: AllDrafts, compile: compileMinItems},
	{name: "maxItems", priority: priorityIndependent, drafts: AllDrafts, compile: compileMaxItems},
	{name: "uniqueItems", priority: priorityIndependent, drafts: AllDrafts, compile: compileUniqueItems},
	{name: "allOf", priority: priorityIndependent, drafts: AllDrafts, compile: compileAllOf},
	{name: "anyOf", priority: priorityIndependent, drafts: AllDrafts, compile: compileAnyOf},
	{name: "oneOf", priority: priorityIndependent, drafts: AllDrafts, compile: compileOneOf},
	{name: "not", priority: priorityIndependent, drafts: AllDrafts, compile: compileNot},
	{name: "$defs", priority: priorityIndependent, drafts: AllDrafts, compile: compileDefs},
	{name: "$ref", priority: priorityIndependent, drafts: AllDrafts, compile: compileRef},

	{name: "prefixItems", priority: priorityAnnotators, drafts: AllDrafts, compile: compilePrefixItems},
	{name: "properties", priority: priorityAnnotators, drafts: AllDrafts, compile: compileProperties},
	{name: "contains", priority: priorityAnnotators, drafts: AllDrafts, compile: compileContains},

	{name: "items", priority: priorityConsumers, drafts: AllDrafts, dependsOn: []string{"prefixItems"}, compile: compileItems},
	{name: "additionalProperties", priority: priorityConsumers, drafts: AllDrafts, dependsOn: []string{"properties"}, compile: compileAdditionalProperties},
	{name: "minContains", priority: priorityConsumers, drafts: Draft201909 | Draft202012 | DraftNext, dependsOn: []string{"contains"}, compile: compileMinContains},
	{name: "maxContains", priority: priorityConsumers, drafts: Draft201909 | Draft202012 | DraftNext, dependsOn: []string{"contains"}, compile: compileMaxContains},

	{name: "additionalItems", priority: priorityLateConsumers, drafts: Draft6 | Draft7 | Draft201909, dependsOn: []string{"items"}, compile: compileAdditionalItems},
}

var keywordRegistry map[string]*keywordInfo

func init() {
	keywordRegistry = make(map[string]*keywordInfo, len(keywordTable))
	for i := range keywordTable {
		info := &keywordTable[i]
		info.order = i
		if _, dup := keywordRegistry[info.name]; dup {
			panic(fmt.Sprintf("jsonschema: duplicate keyword %q in table", info.name))
		}
		keywordRegistry[info.name] = info
	}
	if err := checkKeywordTable(); err != nil {
		panic(err)
	}
}

// checkKeywordTable enforces the two structural rules of the catalog: a
// keyword must run strictly after every producer it depends on, and must not
// be applicable in a dialect where its producer is absent.
func checkKeywordTable() error {
	for i := range keywordTable {
		info := &keywordTable[i]
		for _, dep := range info.dependsOn {
			prod, ok := keywordRegistry[dep]
			if !ok {
				return fmt.Errorf("jsonschema: keyword %q depends on unregistered %q", info.name, dep)
			}
			if prod.priority >= info.priority {
				return fmt.Errorf("jsonschema: keyword %q (priority %d) must run after %q (priority %d)",
					info.name, info.priority, dep, prod.priority)
			}
			if !prod.drafts.Contains(info.drafts) {
				return fmt.Errorf("jsonschema: keyword %q is applicable in %v where its producer %q is not",
					info.name, info.drafts&^prod.drafts, dep)
			}
		}
	}
	return nil
}

// RegisteredKeywords lists the built-in keyword names in dispatch order
// (ascending priority, table order within a priority).
func RegisteredKeywords() []string {
	names := make([]string, 0, len(keywordTable))
	for i := range keywordTable {
		names = append(names, keywordTable[i].name)
	}
	return names
}

// KeywordApplicability reports the priority and dialect set of a built-in
// keyword.
func KeywordApplicability(name string) (priority int, drafts Draft, ok bool) {
	info, ok := keywordRegistry[name]
	if !ok {
		return 0, 0, false
	}
	return info.priority, info.drafts, true
}
