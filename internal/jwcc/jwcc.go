// Package jwcc parses "JSON With Commas and Comments": standard JSON
// extended with //- and /* */-style comments and trailing commas. Parsed
// documents keep their members in source order, so re-encoding a document
// never reorders sibling fields.
package jwcc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Kind int

const (
	Invalid Kind = iota
	Null
	Bool
	Number
	String
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "invalid"
	}
}

// Value is a single node of a parsed document.
// Exactly one of the payload fields is meaningful, selected by Kind.
type Value struct {
	Kind    Kind
	Str     string      // Kind == String
	Num     json.Number // Kind == Number, raw source text
	Bool    bool        // Kind == Bool
	Members []Member    // Kind == Object, in declaration order
	Elems   []*Value    // Kind == Array
}

// Member is a single name/value pair of an object.
type Member struct {
	Name  string
	Value *Value
}

// Lookup returns the value of the named member, or nil if absent.
// When a name appears more than once the first occurrence wins.
func (v *Value) Lookup(name string) *Value {
	if v == nil || v.Kind != Object {
		return nil
	}
	for _, m := range v.Members {
		if m.Name == name {
			return m.Value
		}
	}
	return nil
}

// MarshalJSON encodes the value as strict JSON, preserving member order
// and the raw text of numbers.
func (v *Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil), nil
}

func (v *Value) String() string {
	return string(v.appendJSON(nil))
}

func (v *Value) appendJSON(buf []byte) []byte {
	switch v.Kind {
	case Null:
		return append(buf, "null"...)
	case Bool:
		return strconv.AppendBool(buf, v.Bool)
	case Number:
		return append(buf, v.Num...)
	case String:
		quoted, _ := json.Marshal(v.Str)
		return append(buf, quoted...)
	case Object:
		buf = append(buf, '{')
		for i, m := range v.Members {
			if i > 0 {
				buf = append(buf, ',')
			}
			name, _ := json.Marshal(m.Name)
			buf = append(buf, name...)
			buf = append(buf, ':')
			buf = m.Value.appendJSON(buf)
		}
		return append(buf, '}')
	case Array:
		buf = append(buf, '[')
		for i, e := range v.Elems {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = e.appendJSON(buf)
		}
		return append(buf, ']')
	default:
		return append(buf, "null"...)
	}
}

// ParseError reports a syntax error in a document source. Line and Col are
// 1-based; both are zero when the position could not be determined.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Col, e.Msg)
	}
	return e.Msg
}
