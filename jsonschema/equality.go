package jsonschema

import (
	"hash"
	"hash/fnv"
	"strconv"

	"github.com/dcook-net/json-everything/internal/jsonvalue"
)

// Schema identity is structural, over the configuration as written: the two
// forms (boolean vs keyword set) are a discriminant and never compare equal
// to each other. Positional configurations (prefixItems, the array form of
// items, allOf/anyOf/oneOf) compare in order; set-like ones (required, the
// array form of type) compare as sets; keyed ones (properties, $defs)
// compare per key. Hash is consistent with Equal: equal schemas always
// share a digest.

// Equal reports structural equality with another schema node.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	sb, sIsBool := s.Bool()
	ob, oIsBool := o.Bool()
	if sIsBool != oIsBool {
		return false
	}
	if sIsBool {
		return sb == ob
	}
	return schemaMembersEqual(s.members, o.members)
}

// Hash returns the structural digest of the node.
func (s *Schema) Hash() uint64 {
	h := fnv.New64a()
	if b, ok := s.Bool(); ok {
		if b {
			h.Write([]byte("B1"))
		} else {
			h.Write([]byte("B0"))
		}
		return h.Sum64()
	}
	writeMembersHash(h, s.members)
	return h.Sum64()
}

// ---- equality walk ----

func schemaMembersEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for name, av := range a {
		bv, ok := b[name]
		if !ok || !keywordConfigEqual(name, av, bv) {
			return false
		}
	}
	return true
}

func keywordConfigEqual(name string, a, b any) bool {
	switch name {
	case "required":
		as, aok := stringSet(a)
		bs, bok := stringSet(b)
		if aok && bok {
			return stringSetsEqual(as, bs)
		}
	case "type":
		if _, isList := a.([]any); isList {
			as, aok := stringSet(a)
			bs, bok := stringSet(b)
			if aok && bok {
				return stringSetsEqual(as, bs)
			}
		}
	case "properties", "$defs":
		am, aok := a.(map[string]any)
		bm, bok := b.(map[string]any)
		if aok && bok {
			if len(am) != len(bm) {
				return false
			}
			for k, av := range am {
				bv, ok := bm[k]
				if !ok || !rawSchemaEqual(av, bv) {
					return false
				}
			}
			return true
		}
	case "prefixItems", "allOf", "anyOf", "oneOf":
		return rawSchemaListEqual(a, b)
	case "items":
		_, aList := a.([]any)
		_, bList := b.([]any)
		if aList != bList {
			return false // single and positional forms are different things
		}
		if aList {
			return rawSchemaListEqual(a, b)
		}
		return rawSchemaEqual(a, b)
	case "not", "additionalProperties", "additionalItems", "contains":
		return rawSchemaEqual(a, b)
	}
	return jsonvalue.Equal(a, b)
}

func rawSchemaEqual(a, b any) bool {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if aok && bok {
		return schemaMembersEqual(am, bm)
	}
	return jsonvalue.Equal(a, b)
}

func rawSchemaListEqual(a, b any) bool {
	al, aok := a.([]any)
	bl, bok := b.([]any)
	if !aok || !bok {
		return jsonvalue.Equal(a, b)
	}
	if len(al) != len(bl) {
		return false
	}
	for i := range al {
		if !rawSchemaEqual(al[i], bl[i]) {
			return false
		}
	}
	return true
}

func stringSet(v any) (map[string]bool, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	set := make(map[string]bool, len(list))
	for _, el := range list {
		s, ok := el.(string)
		if !ok {
			return nil, false
		}
		set[s] = true
	}
	return set, true
}

func stringSetsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// ---- hash walk ----

func writeMembersHash(h hash.Hash64, members map[string]any) {
	h.Write([]byte{'S'})
	for _, name := range sortedKeys(members) {
		h.Write([]byte(name))
		h.Write([]byte{0})
		writeKeywordConfigHash(h, name, members[name])
	}
}

func writeKeywordConfigHash(h hash.Hash64, name string, v any) {
	switch name {
	case "required":
		if set, ok := stringSet(v); ok {
			writeStringSetHash(h, set)
			return
		}
	case "type":
		if _, isList := v.([]any); isList {
			if set, ok := stringSet(v); ok {
				writeStringSetHash(h, set)
				return
			}
		}
	case "properties", "$defs":
		if m, ok := v.(map[string]any); ok {
			h.Write([]byte{'M'})
			for _, k := range sortedKeys(m) {
				h.Write([]byte(k))
				h.Write([]byte{0})
				writeRawSchemaHash(h, m[k])
			}
			return
		}
	case "prefixItems", "allOf", "anyOf", "oneOf", "items":
		if list, ok := v.([]any); ok {
			writeRawSchemaListHash(h, list)
			return
		}
		if name == "items" {
			writeRawSchemaHash(h, v)
			return
		}
	case "not", "additionalProperties", "additionalItems", "contains":
		writeRawSchemaHash(h, v)
		return
	}
	writeValueHash(h, v)
}

func writeRawSchemaHash(h hash.Hash64, v any) {
	if m, ok := v.(map[string]any); ok {
		writeMembersHash(h, m)
		return
	}
	if b, ok := v.(bool); ok {
		if b {
			h.Write([]byte("B1"))
		} else {
			h.Write([]byte("B0"))
		}
		return
	}
	writeValueHash(h, v)
}

func writeRawSchemaListHash(h hash.Hash64, list []any) {
	// Position matters: fold a separator before each element.
	h.Write([]byte{'L'})
	h.Write([]byte(strconv.Itoa(len(list))))
	for _, el := range list {
		h.Write([]byte{'.'})
		writeRawSchemaHash(h, el)
	}
}

// writeStringSetHash folds element digests commutatively so member order
// cannot influence the result.
func writeStringSetHash(h hash.Hash64, set map[string]bool) {
	var sum uint64
	for s := range set {
		eh := fnv.New64a()
		eh.Write([]byte(s))
		sum += eh.Sum64()
	}
	h.Write([]byte{'T'})
	h.Write([]byte(strconv.Itoa(len(set))))
	h.Write([]byte(strconv.FormatUint(sum, 16)))
}

func writeValueHash(h hash.Hash64, v any) {
	h.Write([]byte{'V'})
	h.Write([]byte(strconv.FormatUint(jsonvalue.Hash(v), 16)))
}
