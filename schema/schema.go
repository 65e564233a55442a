// Package schema implements the typed parameter-shape tree used to describe
// agent signatures and tool parameters, together with the pure projection
// operations (field removal, model-enum injection) that agent composition is
// built on. All projections are copy-on-write: they return fresh trees and
// never mutate their input, which makes concurrent composition of the same
// shape from multiple parents safe without locking.
package schema

import (
	"encoding/json"
	"slices"
)

// Type enumerates the JSON Schema types understood by the shape tree.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Node is a single node in a parameter-shape tree. Object nodes carry
// Properties and Required; array nodes carry Items; leaf nodes may carry an
// Enum restricting permissible values.
//
// Invariant: after any projection operation Required is a subset of the
// Properties keys. Projections never leave a required-but-absent field.
type Node struct {
	Type        Type             `json:"type"`
	Description string           `json:"description,omitempty"`
	Properties  map[string]*Node `json:"properties,omitempty"`
	Required    []string         `json:"required,omitempty"`
	Enum        []string         `json:"enum,omitempty"`
	Items       *Node            `json:"items,omitempty"`
}

// NewObject returns an empty object node ready to receive properties.
func NewObject() *Node {
	return &Node{Type: TypeObject, Properties: map[string]*Node{}}
}

// Clone returns a deep copy of the node. A nil receiver yields nil.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := &Node{
		Type:        n.Type,
		Description: n.Description,
		Items:       n.Items.Clone(),
	}

	if n.Properties != nil {
		clone.Properties = make(map[string]*Node, len(n.Properties))
		for name, prop := range n.Properties {
			clone.Properties[name] = prop.Clone()
		}
	}

	if n.Required != nil {
		clone.Required = slices.Clone(n.Required)
	}

	if n.Enum != nil {
		clone.Enum = slices.Clone(n.Enum)
	}

	return clone
}

// FieldNames returns the property names of an object node in unspecified
// order. Nil-safe.
func (n *Node) FieldNames() []string {
	if n == nil || n.Properties == nil {
		return nil
	}
	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	return names
}

// String returns the JSON representation of the shape.
func (n *Node) String() string {
	b, _ := json.Marshal(n)
	return string(b)
}
