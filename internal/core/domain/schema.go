package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FieldType is the closed set of types a schema field may declare.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeBool   FieldType = "boolean"
	TypeEnum   FieldType = "enum"
	TypeArray  FieldType = "array"
	TypeObject FieldType = "object"
)

// Field describes one schema field. Object fields carry their sub-fields in
// declaration order; validation walks them in that order so reports are
// reproducible.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	Nullable bool // value may be null in addition to the declared type
	Enum     []string
	Elem     *Field  // element schema, Type == TypeArray
	Fields   []Field // sub-fields, Type == TypeObject
}

// Schema is an immutable description of a configuration document's shape.
// Root is always an object field.
type Schema struct {
	Title string
	Root  Field
}

// SchemaParseError reports a structurally invalid schema definition, such as
// an enum without literals or a dangling $ref. Path locates the offending
// node within the schema source.
type SchemaParseError struct {
	Path string
	Msg  string
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.Path, e.Msg)
}

// StoredSchema is a named schema source kept for a tenant. Source is
// normalized JSON.
type StoredSchema struct {
	TenantID  string
	Name      string
	Source    json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
