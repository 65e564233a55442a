package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentloom/schema"
)

// Signature describes an agent's input and output shapes. Input is always an
// object shape whose properties are the agent's declared input fields; Output
// may be a plain string shape (free text) or a structured shape the
// generation loop decodes results against.
type Signature struct {
	Input       *schema.Node
	Output      *schema.Node
	Description string
}

// NewSignature builds a signature from structured shapes. A nil output
// defaults to plain text.
func NewSignature(input, output *schema.Node) *Signature {
	if input == nil {
		input = schema.NewObject()
	}
	if output == nil {
		output = &schema.Node{Type: schema.TypeString}
	}
	return &Signature{Input: input, Output: output}
}

// ParseSignature parses the compact string form
//
//	"query, region -> answer"
//	"city:string, days:integer -> forecast:json"
//
// Input and output field lists are comma separated; each field may carry an
// optional type after a colon (string, number, integer, boolean, array,
// json). Untyped fields default to string. A single string-typed output field
// yields a plain text output shape; anything else yields an object shape.
func ParseSignature(s string) (*Signature, error) {
	parts := strings.Split(s, "->")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid signature %q: expected exactly one \"->\"", s)
	}

	input, err := parseFieldList(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", s, err)
	}

	output, err := parseFieldList(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", s, err)
	}

	sig := &Signature{Input: input}

	// A single plain string output collapses to free text.
	if len(output.Properties) == 1 {
		for _, prop := range output.Properties {
			if prop.Type == schema.TypeString {
				sig.Output = &schema.Node{Type: schema.TypeString}
			}
		}
	}
	if sig.Output == nil {
		sig.Output = output
	}

	return sig, nil
}

// FieldNames returns the declared input field names.
func (s *Signature) FieldNames() []string {
	return s.Input.FieldNames()
}

func parseFieldList(list string) (*schema.Node, error) {
	node := schema.NewObject()

	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		name, typeName := field, "string"
		if idx := strings.Index(field, ":"); idx >= 0 {
			name = strings.TrimSpace(field[:idx])
			typeName = strings.TrimSpace(field[idx+1:])
		}
		if name == "" {
			return nil, fmt.Errorf("empty field name in %q", field)
		}

		fieldType, err := parseFieldType(typeName)
		if err != nil {
			return nil, err
		}

		node.Properties[name] = &schema.Node{Type: fieldType}
		node.Required = append(node.Required, name)
	}

	if len(node.Properties) == 0 {
		return nil, fmt.Errorf("no fields declared")
	}

	return node, nil
}

func parseFieldType(name string) (schema.Type, error) {
	switch name {
	case "string", "":
		return schema.TypeString, nil
	case "number":
		return schema.TypeNumber, nil
	case "integer":
		return schema.TypeInteger, nil
	case "boolean":
		return schema.TypeBoolean, nil
	case "array", "string[]":
		return schema.TypeArray, nil
	case "json", "object":
		return schema.TypeObject, nil
	default:
		return "", fmt.Errorf("unknown field type %q", name)
	}
}
