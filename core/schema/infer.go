package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// FromStruct derives a Definition from a Go struct type by walking its
// exported fields once at startup. Field names honor `json` tags; untagged
// fields keep their Go name. The input must be a struct or a pointer to a
// struct. Nested structs become object fields and slices become array fields
// with an inferred element type, which is what allows filter paths to
// navigate one level into a collection property.
func FromStruct(name string, record any) (*Definition, error) {
	t := reflect.TypeOf(record)
	if t == nil {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", t.Kind())
	}

	fields, err := inferFields(t, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}
	return &Definition{Name: name, Fields: fields}, nil
}

func inferFields(t reflect.Type, seen map[reflect.Type]bool) (map[string]*FieldDefinition, error) {
	if seen[t] {
		return nil, fmt.Errorf("recursive struct type %s is not supported", t)
	}
	seen[t] = true
	defer delete(seen, t)

	fields := make(map[string]*FieldDefinition, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("json"); ok {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}

		field, err := inferField(name, sf.Type, seen)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		fields[name] = field
	}
	return fields, nil
}

func inferField(name string, t reflect.Type, seen map[reflect.Type]bool) (*FieldDefinition, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &FieldDefinition{Name: name, Type: FieldTypeString}, nil
	case reflect.Bool:
		return &FieldDefinition{Name: name, Type: FieldTypeBoolean}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &FieldDefinition{Name: name, Type: FieldTypeInteger}, nil
	case reflect.Float32, reflect.Float64:
		return &FieldDefinition{Name: name, Type: FieldTypeNumber}, nil
	case reflect.Slice, reflect.Array:
		item, err := inferField(name, t.Elem(), seen)
		if err != nil {
			return nil, err
		}
		return &FieldDefinition{Name: name, Type: FieldTypeArray, Items: item}, nil
	case reflect.Struct:
		nested, err := inferFields(t, seen)
		if err != nil {
			return nil, err
		}
		return &FieldDefinition{Name: name, Type: FieldTypeObject, Fields: nested}, nil
	case reflect.Map, reflect.Interface:
		return &FieldDefinition{Name: name, Type: FieldTypeObject}, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", t.Kind())
	}
}
