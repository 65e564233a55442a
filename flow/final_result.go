package flow

import (
	"context"

	"github.com/hupe1980/agentloom/schema"
	"github.com/hupe1980/agentloom/tool"
)

// FinalResultToolName is the distinguished function whose invocation
// terminates the generation loop successfully.
const FinalResultToolName = "finalResult"

// NewFinalResultTool builds the synthetic tool that gives the model an
// explicit way to signal completion. Its parameter shape is derived from the
// declared output shape; invoking it simply hands its arguments back as the
// final value.
//
// Object output shapes become the tool's parameter shape directly. Plain
// (string or otherwise scalar) output shapes are wrapped into a single
// required "value" field so the envelope format stays uniform.
func NewFinalResultTool(outputShape *schema.Node) tool.Tool {
	var params *schema.Node
	wrapped := outputShape == nil || outputShape.Type != schema.TypeObject

	if wrapped {
		value := outputShape.Clone()
		if value == nil {
			value = &schema.Node{Type: schema.TypeString}
		}
		value.Description = "The final result"
		params = &schema.Node{
			Type:       schema.TypeObject,
			Properties: map[string]*schema.Node{"value": value},
			Required:   []string{"value"},
		}
	} else {
		params = outputShape.Clone()
	}

	return tool.NewFunctionTool(
		FinalResultToolName,
		"Deliver the final result for the task. Call this exactly once, when the task is complete.",
		params,
		func(_ context.Context, args map[string]any, _ tool.CallOptions) (any, error) {
			if wrapped {
				return args["value"], nil
			}
			return args, nil
		},
	)
}

// hasFinalResult reports whether the tool set already carries a final-result
// tool, so a caller-supplied one is never shadowed by the synthetic default.
func hasFinalResult(tools []tool.Tool) bool {
	for _, t := range tools {
		if t.Name() == FinalResultToolName {
			return true
		}
	}
	return false
}
