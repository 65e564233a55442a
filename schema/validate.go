package schema

import (
	"fmt"
	"slices"
)

// ValidationError reports an argument that failed validation against a shape.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Validate checks args against an object shape: every required field must be
// present, every known field must match its declared type and, when an enum
// is declared, one of its permitted values. Unknown extra fields pass through
// unchecked so models may volunteer additional context without failing calls.
func Validate(args map[string]any, shape *Node) error {
	if shape == nil {
		return nil
	}

	for _, name := range shape.Required {
		if _, exists := args[name]; !exists {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	for name, value := range args {
		prop, exists := shape.Properties[name]
		if !exists {
			continue
		}

		if !matchesType(value, prop.Type) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", prop.Type, value),
			}
		}

		if len(prop.Enum) > 0 {
			s, ok := value.(string)
			if !ok || !slices.Contains(prop.Enum, s) {
				return &ValidationError{
					Field:   name,
					Value:   value,
					Message: fmt.Sprintf("value is not one of the permitted choices %v", prop.Enum),
				}
			}
		}
	}

	return nil
}

// matchesType checks a value against the expected JSON schema type. A nil
// value is accepted for any type.
func matchesType(value any, expected Type) bool {
	if value == nil {
		return true
	}

	switch expected {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeInteger:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling produces float64 for numbers
			return v == float64(int64(v))
		}
		return false
	case TypeNumber:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeArray:
		_, ok := value.([]any)
		return ok
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
