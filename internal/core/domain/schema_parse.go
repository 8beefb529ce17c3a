package domain

import (
	"fmt"
	"strings"

	"github.com/opencfg/confcheck/internal/jwcc"
)

const refPrefix = "#/$defs/"

// ParseSchema interprets a parsed JSON-Schema-like document as a Schema.
// Supported vocabulary: $defs with #/$defs/... references, type (string,
// boolean, object, array, or a [type, "null"] pair), enum of string
// literals, anyOf used as a nullable variant, properties, required, items
// and title. Anything outside that vocabulary is a *SchemaParseError.
func ParseSchema(doc *jwcc.Value) (Schema, error) {
	if doc == nil || doc.Kind != jwcc.Object {
		return Schema{}, &SchemaParseError{Path: "$", Msg: "schema root must be an object"}
	}

	p := &schemaParser{defs: make(map[string]*jwcc.Value), resolving: make(map[string]bool)}
	if defs := doc.Lookup("$defs"); defs != nil {
		if defs.Kind != jwcc.Object {
			return Schema{}, &SchemaParseError{Path: "$.$defs", Msg: "$defs must be an object"}
		}
		for _, m := range defs.Members {
			p.defs[m.Name] = m.Value
		}
	}

	root, err := p.resolve(doc, "$")
	if err != nil {
		return Schema{}, err
	}
	if root.Type != TypeObject {
		return Schema{}, &SchemaParseError{Path: "$", Msg: "schema root must describe an object"}
	}

	sch := Schema{Root: *root}
	if t := doc.Lookup("title"); t != nil && t.Kind == jwcc.String {
		sch.Title = t.Str
	}
	return sch, nil
}

type schemaParser struct {
	defs      map[string]*jwcc.Value
	resolving map[string]bool // $defs names on the current resolution path
}

func (p *schemaParser) resolve(node *jwcc.Value, path string) (*Field, error) {
	if node == nil || node.Kind != jwcc.Object {
		return nil, &SchemaParseError{Path: path, Msg: "field definition must be an object"}
	}

	if ref := node.Lookup("$ref"); ref != nil {
		return p.resolveRef(ref, path)
	}
	if anyOf := node.Lookup("anyOf"); anyOf != nil {
		return p.resolveAnyOf(anyOf, path)
	}
	if enum := node.Lookup("enum"); enum != nil {
		return resolveEnum(enum, path)
	}

	typ := node.Lookup("type")
	if typ == nil {
		return nil, &SchemaParseError{Path: path, Msg: "missing type"}
	}
	names, nullable, err := typeNames(typ, path)
	if err != nil {
		return nil, err
	}

	var f *Field
	switch names[0] {
	case "string":
		f = &Field{Type: TypeString}
	case "boolean":
		f = &Field{Type: TypeBool}
	case "object":
		f, err = p.resolveObject(node, path)
	case "array":
		f, err = p.resolveArray(node, path)
	default:
		return nil, &SchemaParseError{Path: path, Msg: fmt.Sprintf("unsupported type %q", names[0])}
	}
	if err != nil {
		return nil, err
	}
	f.Nullable = f.Nullable || nullable
	return f, nil
}

func (p *schemaParser) resolveRef(ref *jwcc.Value, path string) (*Field, error) {
	if ref.Kind != jwcc.String {
		return nil, &SchemaParseError{Path: path, Msg: "$ref must be a string"}
	}
	name, ok := strings.CutPrefix(ref.Str, refPrefix)
	if !ok {
		return nil, &SchemaParseError{Path: path, Msg: fmt.Sprintf("unsupported $ref %q, only %s... references are allowed", ref.Str, refPrefix)}
	}
	target, ok := p.defs[name]
	if !ok {
		return nil, &SchemaParseError{Path: path, Msg: fmt.Sprintf("$ref to undefined $defs entry %q", name)}
	}
	if p.resolving[name] {
		return nil, &SchemaParseError{Path: path, Msg: fmt.Sprintf("circular $ref through %q", name)}
	}
	p.resolving[name] = true
	defer delete(p.resolving, name)
	return p.resolve(target, path)
}

func (p *schemaParser) resolveAnyOf(anyOf *jwcc.Value, path string) (*Field, error) {
	if anyOf.Kind != jwcc.Array || len(anyOf.Elems) == 0 {
		return nil, &SchemaParseError{Path: path, Msg: "anyOf must be a non-empty array"}
	}

	var branch *jwcc.Value
	nullable := false
	for _, e := range anyOf.Elems {
		if isNullBranch(e) {
			nullable = true
			continue
		}
		if branch != nil {
			return nil, &SchemaParseError{Path: path, Msg: "anyOf is only supported as a nullable variant with a single non-null branch"}
		}
		branch = e
	}
	if branch == nil {
		return nil, &SchemaParseError{Path: path, Msg: "anyOf has no non-null branch"}
	}

	f, err := p.resolve(branch, path)
	if err != nil {
		return nil, err
	}
	f.Nullable = f.Nullable || nullable
	return f, nil
}

func (p *schemaParser) resolveObject(node *jwcc.Value, path string) (*Field, error) {
	f := &Field{Type: TypeObject}

	required := make(map[string]bool)
	if req := node.Lookup("required"); req != nil {
		if req.Kind != jwcc.Array {
			return nil, &SchemaParseError{Path: path, Msg: "required must be an array of field names"}
		}
		for _, e := range req.Elems {
			if e.Kind != jwcc.String {
				return nil, &SchemaParseError{Path: path, Msg: "required entries must be strings"}
			}
			required[e.Str] = true
		}
	}

	props := node.Lookup("properties")
	if props == nil {
		if len(required) > 0 {
			return nil, &SchemaParseError{Path: path, Msg: "required lists fields but properties is absent"}
		}
		return f, nil
	}
	if props.Kind != jwcc.Object {
		return nil, &SchemaParseError{Path: path, Msg: "properties must be an object"}
	}

	for _, m := range props.Members {
		sub, err := p.resolve(m.Value, path+"."+m.Name)
		if err != nil {
			return nil, err
		}
		sub.Name = m.Name
		sub.Required = required[m.Name]
		delete(required, m.Name)
		f.Fields = append(f.Fields, *sub)
	}

	for name := range required {
		return nil, &SchemaParseError{Path: path, Msg: fmt.Sprintf("required lists unknown field %q", name)}
	}
	return f, nil
}

func (p *schemaParser) resolveArray(node *jwcc.Value, path string) (*Field, error) {
	items := node.Lookup("items")
	if items == nil {
		return nil, &SchemaParseError{Path: path, Msg: "array definition requires items"}
	}
	elem, err := p.resolve(items, path+".items")
	if err != nil {
		return nil, err
	}
	return &Field{Type: TypeArray, Elem: elem}, nil
}

func resolveEnum(enum *jwcc.Value, path string) (*Field, error) {
	if enum.Kind != jwcc.Array || len(enum.Elems) == 0 {
		return nil, &SchemaParseError{Path: path, Msg: "enum must list at least one value"}
	}
	values := make([]string, 0, len(enum.Elems))
	for _, e := range enum.Elems {
		if e.Kind != jwcc.String {
			return nil, &SchemaParseError{Path: path, Msg: "enum values must be strings"}
		}
		values = append(values, e.Str)
	}
	return &Field{Type: TypeEnum, Enum: values}, nil
}

// typeNames normalizes the "type" keyword, which may be a single name or a
// [name, "null"] pair. It returns the non-null names and whether null was
// among them.
func typeNames(typ *jwcc.Value, path string) ([]string, bool, error) {
	var raw []string
	switch typ.Kind {
	case jwcc.String:
		raw = []string{typ.Str}
	case jwcc.Array:
		for _, e := range typ.Elems {
			if e.Kind != jwcc.String {
				return nil, false, &SchemaParseError{Path: path, Msg: "type entries must be strings"}
			}
			raw = append(raw, e.Str)
		}
	default:
		return nil, false, &SchemaParseError{Path: path, Msg: "type must be a string or an array of strings"}
	}

	nullable := false
	names := raw[:0]
	for _, n := range raw {
		if n == "null" {
			nullable = true
			continue
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return nil, false, &SchemaParseError{Path: path, Msg: "field cannot be null-only"}
	}
	if len(names) > 1 {
		return nil, false, &SchemaParseError{Path: path, Msg: "type unions other than nullable variants are not supported"}
	}
	return names, nullable, nil
}

func isNullBranch(v *jwcc.Value) bool {
	if v == nil || v.Kind != jwcc.Object {
		return false
	}
	t := v.Lookup("type")
	return t != nil && t.Kind == jwcc.String && t.Str == "null"
}
