// Package schema defines the descriptor model that the query translation
// engine resolves column paths against. A Definition maps field names to
// typed FieldDefinition entries; it is built once (by hand or inferred from a
// Go struct) and shared read-only across requests.
package schema

import "strings"

// Document is a single record as produced by a query backend.
type Document map[string]any

// FieldType represents the basic field types supported by the schema system.
type FieldType string

const (
	FieldTypeString  FieldType = "string"  // Text data
	FieldTypeNumber  FieldType = "number"  // Floating-point numeric data
	FieldTypeInteger FieldType = "integer" // Whole-number numeric data
	FieldTypeBoolean FieldType = "boolean" // True/false values
	FieldTypeArray   FieldType = "array"   // Ordered list of items
	FieldTypeObject  FieldType = "object"  // Structured data with nested fields
)

// FieldDefinition describes a single field of a record type. For object
// fields, Fields holds the nested field set; for array fields, Items
// describes the element type, whose Fields are consulted when a filter path
// navigates through the collection.
type FieldDefinition struct {
	Name   string                      `json:"name"`
	Type   FieldType                   `json:"type"`
	Fields map[string]*FieldDefinition `json:"fields,omitempty"`
	Items  *FieldDefinition            `json:"items,omitempty"`
}

// Definition describes the shape of a record type: its name (used as the
// table name by SQL backends) and its public fields keyed by canonical name.
type Definition struct {
	Name   string                      `json:"name"`
	Fields map[string]*FieldDefinition `json:"fields"`
}

// ResolveField finds a top-level field by name, matching case-insensitively,
// and returns the canonical definition or nil.
func (d *Definition) ResolveField(name string) *FieldDefinition {
	return resolveIn(d.Fields, name)
}

// ResolvePath walks a dot-separated column path one segment at a time. The
// first segment resolves against the definition's own fields; each subsequent
// segment resolves against the previously resolved field's nested fields,
// descending into the element type when the previous field is an array. It
// returns the canonical names of every traversed field plus the leaf
// definition, or false if any segment fails to resolve.
func (d *Definition) ResolvePath(path string) ([]string, *FieldDefinition, bool) {
	segments := strings.Split(path, ".")
	resolved := make([]string, 0, len(segments))

	fields := d.Fields
	var leaf *FieldDefinition
	for _, segment := range segments {
		if fields == nil {
			return nil, nil, false
		}
		field := resolveIn(fields, segment)
		if field == nil {
			return nil, nil, false
		}
		resolved = append(resolved, field.Name)
		leaf = field

		switch field.Type {
		case FieldTypeArray:
			if field.Items != nil {
				fields = field.Items.Fields
			} else {
				fields = nil
			}
		case FieldTypeObject:
			fields = field.Fields
		default:
			fields = nil
		}
	}
	return resolved, leaf, true
}

// ColumnNames returns the canonical names of all top-level fields.
func (d *Definition) ColumnNames() []string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	return names
}

func resolveIn(fields map[string]*FieldDefinition, name string) *FieldDefinition {
	if field, ok := fields[name]; ok {
		return field
	}
	for key, field := range fields {
		if strings.EqualFold(key, name) {
			return field
		}
	}
	return nil
}
