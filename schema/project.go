package schema

import (
	"fmt"
	"slices"
	"strings"
)

// ModelChoice is one selectable backing model offered through an injected
// enum field. Key is the stable identifier the calling model picks;
// Description is the human-readable guidance shown alongside it.
type ModelChoice struct {
	Key         string
	Description string
}

// ModelFieldName is the reserved property name used for model selection.
// Fields with this name are never subject to parent passthrough.
const ModelFieldName = "model"

// RemoveFields returns a deep copy of shape with every key in keys removed
// from both Properties and Required. Keys absent from the shape are ignored;
// the operation never errors and never mutates its input. An empty key list
// therefore produces a structurally equal, freshly allocated copy.
func RemoveFields(shape *Node, keys []string) *Node {
	projected := shape.Clone()
	if projected == nil || len(keys) == 0 {
		return projected
	}

	for _, key := range keys {
		delete(projected.Properties, key)
	}

	projected.Required = slices.DeleteFunc(projected.Required, func(name string) bool {
		return slices.Contains(keys, name)
	})
	if len(projected.Required) == 0 {
		projected.Required = nil
	}

	return projected
}

// AddModelField returns a deep copy of shape (or a fresh empty object shape
// when shape is nil) with a required "model" enum property offering one value
// per choice. The property description enumerates every key together with its
// human description so the calling model can pick an appropriate backing
// model for the sub-task.
//
// Idempotent: if a "model" property is already present, the shape is returned
// as-is (cloned) without overwriting or duplicating it.
func AddModelField(shape *Node, choices []ModelChoice) *Node {
	if shape == nil {
		shape = NewObject()
	} else {
		shape = shape.Clone()
	}

	if _, exists := shape.Properties[ModelFieldName]; exists {
		return shape
	}

	if shape.Properties == nil {
		shape.Properties = map[string]*Node{}
	}

	keys := make([]string, 0, len(choices))
	var desc strings.Builder
	desc.WriteString("The model to use for this task. Choose one of:")
	for _, choice := range choices {
		keys = append(keys, choice.Key)
		fmt.Fprintf(&desc, " `%s` %s.", choice.Key, choice.Description)
	}

	shape.Properties[ModelFieldName] = &Node{
		Type:        TypeString,
		Description: desc.String(),
		Enum:        keys,
	}
	shape.Required = append(shape.Required, ModelFieldName)

	return shape
}
