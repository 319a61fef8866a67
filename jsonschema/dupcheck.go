package jsonschema

import (
	"bytes"
	"fmt"
	"io"

	j "github.com/goccy/go-json"

	"github.com/dcook-net/json-everything/jsonpointer"
)

// Duplicate object members are silently collapsed by JSON decoding, which
// for a schema document can flip keyword configuration without a trace.
// scanDuplicateKeys walks the raw token stream before decoding and reports
// every member name that occurs twice in the same object, with its pointer.

type scanKind int

const (
	scanObject scanKind = iota
	scanArray
)

type scanFrame struct {
	kind         scanKind
	keys         map[string]struct{}
	expectingKey bool
	pendingKey   string
	nextIndex    int
	path         jsonpointer.Pointer
}

func scanDuplicateKeys(data []byte) DecodeIssues {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var issues DecodeIssues
	var stack []scanFrame

	// valueDone advances the parent frame past one complete value.
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		switch top.kind {
		case scanObject:
			top.expectingKey = true
		case scanArray:
			top.nextIndex++
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed documents are Compile's problem; the scan only
			// speaks about duplicates.
			break
		}
		switch v := tok.(type) {
		case j.Delim:
			switch v {
			case '{', '[':
				var path jsonpointer.Pointer
				if len(stack) > 0 {
					top := &stack[len(stack)-1]
					if top.kind == scanObject {
						path = top.path.AppendKey(top.pendingKey)
					} else {
						path = top.path.AppendIndex(top.nextIndex)
					}
				}
				frame := scanFrame{kind: scanArray, path: path}
				if v == '{' {
					frame = scanFrame{kind: scanObject, path: path, keys: make(map[string]struct{}), expectingKey: true}
				}
				stack = append(stack, frame)
			case '}', ']':
				stack = stack[:len(stack)-1]
				valueDone()
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.kind == scanObject && top.expectingKey {
					if _, dup := top.keys[v]; dup {
						issues = append(issues, DecodeIssue{
							Path:    top.path.AppendKey(v).String(),
							Code:    CodeDuplicateKey,
							Message: fmt.Sprintf("member %q appears more than once", v),
						})
					}
					top.keys[v] = struct{}{}
					top.pendingKey = v
					top.expectingKey = false
					continue
				}
			}
			valueDone()
		default:
			valueDone()
		}
	}
	return issues
}
