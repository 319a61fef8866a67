// Package jsonvalue classifies and compares decoded JSON trees
// (map[string]any / []any / json.Number values). It is internal plumbing
// shared by the keyword implementations and not part of the public API.
package jsonvalue

import (
	"encoding/json"
	"hash/fnv"
	"math/big"
	"sort"
	"strconv"
)

// Kind identifies the JSON type of a decoded value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindNull:    "null",
	KindBool:    "boolean",
	KindNumber:  "number",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// KindOf reports the JSON kind of v. Numeric Go types are all KindNumber;
// anything outside the decoded-JSON vocabulary is KindInvalid.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindInvalid
	}
}

// Rat converts any numeric value into an exact rational. ok is false for
// non-numeric values and unparseable json.Number payloads.
func Rat(v any) (*big.Rat, bool) {
	switch n := v.(type) {
	case json.Number:
		r, ok := new(big.Rat).SetString(n.String())
		return r, ok
	case float64:
		r := new(big.Rat).SetFloat64(n)
		return r, r != nil
	case float32:
		r := new(big.Rat).SetFloat64(float64(n))
		return r, r != nil
	case int:
		return new(big.Rat).SetInt64(int64(n)), true
	case int8:
		return new(big.Rat).SetInt64(int64(n)), true
	case int16:
		return new(big.Rat).SetInt64(int64(n)), true
	case int32:
		return new(big.Rat).SetInt64(int64(n)), true
	case int64:
		return new(big.Rat).SetInt64(n), true
	case uint:
		return new(big.Rat).SetUint64(uint64(n)), true
	case uint8:
		return new(big.Rat).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Rat).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Rat).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Rat).SetUint64(n), true
	default:
		return nil, false
	}
}

// IsIntegral reports whether v is a number with zero fractional part.
// 1.0 and json.Number("1e2") are integral; "1" (a string) is not a number.
func IsIntegral(v any) bool {
	r, ok := Rat(v)
	return ok && r.IsInt()
}

// Equal compares two decoded JSON values structurally. Arrays are
// order-sensitive; objects compare by key set and per-key values; numbers
// compare by mathematical value, so 1, 1.0 and json.Number("1.0") are all
// equal.
func Equal(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.(bool) == b.(bool)
	case KindString:
		return a.(string) == b.(string)
	case KindNumber:
		ra, oka := Rat(a)
		rb, okb := Rat(b)
		return oka && okb && ra.Cmp(rb) == 0
	case KindArray:
		aa, ba := a.([]any), b.([]any)
		if len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !Equal(aa[i], ba[i]) {
				return false
			}
		}
		return true
	case KindObject:
		ao, bo := a.(map[string]any), b.(map[string]any)
		if len(ao) != len(bo) {
			return false
		}
		for k, av := range ao {
			bv, ok := bo[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Hash computes a structural FNV-1a digest consistent with Equal: values
// that Equal reports equal hash identically. Object members are folded in
// sorted key order so map iteration order cannot leak into the digest.
func Hash(v any) uint64 {
	h := fnv.New64a()
	writeHash(h, v)
	return h.Sum64()
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

func writeHash(h hashWriter, v any) {
	switch KindOf(v) {
	case KindNull:
		h.Write([]byte{'n'})
	case KindBool:
		if v.(bool) {
			h.Write([]byte{'t'})
		} else {
			h.Write([]byte{'f'})
		}
	case KindString:
		h.Write([]byte{'s'})
		h.Write([]byte(v.(string)))
		h.Write([]byte{0})
	case KindNumber:
		// Canonicalize through big.Rat so 1 and 1.0 share a digest.
		h.Write([]byte{'d'})
		if r, ok := Rat(v); ok {
			h.Write([]byte(r.RatString()))
		}
		h.Write([]byte{0})
	case KindArray:
		arr := v.([]any)
		h.Write([]byte{'a'})
		h.Write([]byte(strconv.Itoa(len(arr))))
		for _, el := range arr {
			writeHash(h, el)
		}
	case KindObject:
		obj := v.(map[string]any)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		h.Write([]byte{'o'})
		h.Write([]byte(strconv.Itoa(len(obj))))
		for _, k := range keys {
			h.Write([]byte(k))
			h.Write([]byte{0})
			writeHash(h, obj[k])
		}
	default:
		h.Write([]byte{'?'})
	}
}
