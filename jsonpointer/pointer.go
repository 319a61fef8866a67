// Package jsonpointer implements RFC 6901 JSON Pointers as immutable,
// append-only values. Pointers double as instance locations (where in a
// document) and evaluation paths (where in a schema), so appending never
// mutates the receiver: every Append* returns a fresh Pointer sharing no
// mutable state with its parent.
package jsonpointer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Pointer is an ordered sequence of reference tokens. The zero value is the
// root pointer ("" / whole document).
type Pointer struct {
	tokens []string
}

// ErrNotFound reports that a pointer does not reference a value in the
// evaluated document.
var ErrNotFound = errors.New("jsonpointer: reference not found")

// Root is the pointer addressing the whole document.
var Root = Pointer{}

// New builds a pointer from raw (unescaped) reference tokens.
func New(tokens ...string) Pointer {
	if len(tokens) == 0 {
		return Pointer{}
	}
	return Pointer{tokens: append([]string(nil), tokens...)}
}

// Parse parses the textual form ("" or "/a/~1b/0"). Escapes ~0 and ~1 are
// decoded; any other use of '~' is an error.
func Parse(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if s[0] != '/' {
		return Pointer{}, fmt.Errorf("jsonpointer: %q does not start with '/'", s)
	}
	raw := strings.Split(s[1:], "/")
	tokens := make([]string, len(raw))
	for i, tok := range raw {
		dec, err := unescapeToken(tok)
		if err != nil {
			return Pointer{}, err
		}
		tokens[i] = dec
	}
	return Pointer{tokens: tokens}, nil
}

// MustParse is Parse for trusted literals; it panics on malformed input.
func MustParse(s string) Pointer {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// AppendKey returns a new pointer extended with a property-name token.
func (p Pointer) AppendKey(name string) Pointer {
	return Pointer{tokens: append(append([]string(nil), p.tokens...), name)}
}

// AppendIndex returns a new pointer extended with an array-index token.
func (p Pointer) AppendIndex(i int) Pointer {
	return Pointer{tokens: append(append([]string(nil), p.tokens...), strconv.Itoa(i))}
}

// Append returns a new pointer extended with raw tokens.
func (p Pointer) Append(tokens ...string) Pointer {
	if len(tokens) == 0 {
		return p
	}
	return Pointer{tokens: append(append([]string(nil), p.tokens...), tokens...)}
}

// Len reports the number of reference tokens.
func (p Pointer) Len() int { return len(p.tokens) }

// IsRoot reports whether the pointer addresses the whole document.
func (p Pointer) IsRoot() bool { return len(p.tokens) == 0 }

// Tokens returns a copy of the raw reference tokens.
func (p Pointer) Tokens() []string {
	if len(p.tokens) == 0 {
		return nil
	}
	return append([]string(nil), p.tokens...)
}

// Equal reports order-sensitive token equality.
func (p Pointer) Equal(o Pointer) bool {
	if len(p.tokens) != len(o.tokens) {
		return false
	}
	for i := range p.tokens {
		if p.tokens[i] != o.tokens[i] {
			return false
		}
	}
	return true
}

// String renders the RFC 6901 textual form; the root pointer renders as "".
func (p Pointer) String() string {
	if len(p.tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range p.tokens {
		b.WriteByte('/')
		b.WriteString(escapeToken(tok))
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Pointer) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pointer) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Evaluate walks a decoded JSON document (map[string]any / []any tree) and
// returns the referenced value. Array tokens must be canonical base-10
// indices; "-" (the RFC 6901 end-of-array token) is not addressable.
func (p Pointer) Evaluate(doc any) (any, error) {
	cur := doc
	for i, tok := range p.tokens {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[tok]
			if !ok {
				return nil, fmt.Errorf("%w: no member %q at %q", ErrNotFound, tok, Pointer{tokens: p.tokens[:i]}.String())
			}
			cur = v
		case []any:
			idx, err := parseIndex(tok)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an array index at %q", ErrNotFound, tok, Pointer{tokens: p.tokens[:i]}.String())
			}
			if idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("%w: index %d out of range at %q", ErrNotFound, idx, Pointer{tokens: p.tokens[:i]}.String())
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("%w: cannot descend into %T at %q", ErrNotFound, cur, Pointer{tokens: p.tokens[:i]}.String())
		}
	}
	return cur, nil
}

func parseIndex(tok string) (int, error) {
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, fmt.Errorf("jsonpointer: non-canonical index %q", tok)
	}
	return strconv.Atoi(tok)
}

var tokenEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapeToken(s string) string { return tokenEscaper.Replace(s) }

func unescapeToken(s string) (string, error) {
	if !strings.ContainsRune(s, '~') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '~' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("jsonpointer: dangling '~' in token %q", s)
		}
		i++
		switch s[i] {
		case '0':
			b.WriteByte('~')
		case '1':
			b.WriteByte('/')
		default:
			return "", fmt.Errorf("jsonpointer: invalid escape \"~%c\" in token %q", s[i], s)
		}
	}
	return b.String(), nil
}
