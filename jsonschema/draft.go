package jsonschema

import (
	"fmt"
	"strings"
)

// Draft is a bit set of schema dialect versions. A single bit names one
// dialect; unions such as AllDrafts express keyword applicability ranges.
type Draft uint

const (
	// Draft6 is draft-06 of JSON Schema.
	Draft6 Draft = 1 << iota
	// Draft7 is draft-07.
	Draft7
	// Draft201909 is the 2019-09 dialect.
	Draft201909
	// Draft202012 is the 2020-12 dialect.
	Draft202012
	// DraftNext is the in-progress dialect following 2020-12.
	DraftNext

	draftEnd
)

// AllDrafts covers every dialect this package knows about.
const AllDrafts = draftEnd - 1

// DefaultDraft is used when neither the schema's $schema member nor the
// Evaluate options pick a dialect.
const DefaultDraft = Draft202012

var draftNames = map[Draft]string{
	Draft6:      "6",
	Draft7:      "7",
	Draft201909: "2019-09",
	Draft202012: "2020-12",
	DraftNext:   "next",
}

var draftMetaURIs = map[Draft]string{
	Draft6:      "http://json-schema.org/draft-06/schema#",
	Draft7:      "http://json-schema.org/draft-07/schema#",
	Draft201909: "https://json-schema.org/draft/2019-09/schema",
	Draft202012: "https://json-schema.org/draft/2020-12/schema",
	DraftNext:   "https://json-schema.org/draft/next/schema",
}

// KnownDrafts lists the supported dialects from oldest to newest.
func KnownDrafts() []Draft {
	return []Draft{Draft6, Draft7, Draft201909, Draft202012, DraftNext}
}

// IsSingle reports whether d names exactly one known dialect.
func (d Draft) IsSingle() bool {
	return d != 0 && d&(d-1) == 0 && d&AllDrafts == d
}

// Contains reports whether every bit of o is set in d.
func (d Draft) Contains(o Draft) bool { return o != 0 && d&o == o }

// MetaSchemaURI returns the canonical $schema URI for a single dialect and
// "" for unions.
func (d Draft) MetaSchemaURI() string { return draftMetaURIs[d] }

// String renders single dialects by name ("2020-12") and unions as a
// "|"-joined list in version order.
func (d Draft) String() string {
	if d == 0 {
		return "none"
	}
	if name, ok := draftNames[d]; ok {
		return name
	}
	var parts []string
	for _, known := range KnownDrafts() {
		if d&known != 0 {
			parts = append(parts, draftNames[known])
		}
	}
	if rest := d &^ AllDrafts; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseDraft accepts a dialect name ("7", "2020-12", "next") or a $schema
// meta-schema URI, tolerating the http/https and trailing-# variants seen in
// the wild.
func ParseDraft(s string) (Draft, error) {
	for d, name := range draftNames {
		if s == name {
			return d, nil
		}
	}
	norm := strings.TrimSuffix(s, "#")
	norm = strings.TrimPrefix(norm, "http://")
	norm = strings.TrimPrefix(norm, "https://")
	for d, uri := range draftMetaURIs {
		u := strings.TrimSuffix(uri, "#")
		u = strings.TrimPrefix(u, "http://")
		u = strings.TrimPrefix(u, "https://")
		if norm == u {
			return d, nil
		}
	}
	return 0, fmt.Errorf("jsonschema: unknown draft %q", s)
}
