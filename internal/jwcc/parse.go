package jwcc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tailscale/hujson"
)

// Parse parses a JWCC source into a document tree. Comments and trailing
// commas are discarded; everything else round-trips through MarshalJSON.
// Syntax errors are reported as *ParseError.
func Parse(src []byte) (*Value, error) {
	// Standardize replaces JWCC-only syntax with whitespace of the same
	// length, so byte offsets in the standardized buffer match the source.
	std, err := hujson.Standardize(bytes.Clone(src))
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}

	dec := json.NewDecoder(bytes.NewReader(std))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, locate(std, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		line, col := lineCol(std, dec.InputOffset())
		return nil, &ParseError{Line: line, Col: col, Msg: "unexpected data after top-level value"}
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return valueFromToken(dec, tok)
}

func valueFromToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &Value{Kind: Object}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object member name must be a string, got %v", keyTok)
				}
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Members = append(obj.Members, Member{Name: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := &Value{Kind: Array}
			for dec.More() {
				elem, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Elems = append(arr.Elems, elem)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		return &Value{Kind: String, Str: t}, nil
	case json.Number:
		return &Value{Kind: Number, Num: t}, nil
	case bool:
		return &Value{Kind: Bool, Bool: t}, nil
	case nil:
		return &Value{Kind: Null}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// locate converts decoder errors into *ParseError with a line/column
// position where the standard library provides an offset.
func locate(std []byte, err error) error {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		line, col := lineCol(std, syn.Offset)
		return &ParseError{Line: line, Col: col, Msg: syn.Error()}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		line, col := lineCol(std, int64(len(std)))
		return &ParseError{Line: line, Col: col, Msg: "unexpected end of input"}
	}
	return &ParseError{Msg: err.Error()}
}

func lineCol(b []byte, offset int64) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(b)) {
		offset = int64(len(b))
	}
	head := b[:offset]
	line = 1 + bytes.Count(head, []byte{'\n'})
	last := bytes.LastIndexByte(head, '\n')
	col = int(offset) - last
	return line, col
}
