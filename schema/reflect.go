package schema

import (
	"reflect"
	"strings"
)

// FromStruct derives an object shape from a Go struct using reflection.
// Field names follow the json tag when present; a `description` tag becomes
// the property description. Pointer fields and fields tagged omitempty are
// optional, everything else is required.
func FromStruct(structType any) *Node {
	t := reflect.TypeOf(structType)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	shape := NewObject()
	if t == nil || t.Kind() != reflect.Struct {
		return shape
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if jsonTag != "" {
			if name := strings.Split(jsonTag, ",")[0]; name != "" {
				fieldName = name
			}
		}

		shape.Properties[fieldName] = &Node{
			Type:        jsonType(field.Type),
			Description: field.Tag.Get("description"),
		}

		if !hasOmitEmpty(jsonTag) && field.Type.Kind() != reflect.Ptr {
			shape.Required = append(shape.Required, fieldName)
		}
	}

	return shape
}

// jsonType maps a Go type onto the closest JSON Schema type.
func jsonType(t reflect.Type) Type {
	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.Bool:
		return TypeBoolean
	case reflect.Slice, reflect.Array:
		return TypeArray
	case reflect.Map, reflect.Struct:
		return TypeObject
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return TypeString
	}
}

// hasOmitEmpty checks if a JSON tag carries the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}
