package agent

import (
	"context"
	"testing"

	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/schema"
	"github.com/hupe1980/agentloom/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childCallable(received *map[string]any) tool.Tool {
	return tool.NewFunctionTool("childAgent", "A child agent callable",
		&schema.Node{
			Type: schema.TypeObject,
			Properties: map[string]*schema.Node{
				"region": {Type: schema.TypeString},
				"topic":  {Type: schema.TypeString},
			},
			Required: []string{"region", "topic"},
		},
		func(_ context.Context, args map[string]any, _ tool.CallOptions) (any, error) {
			if received != nil {
				*received = args
			}
			return "ok", nil
		})
}

func TestAdaptFunction_Passthrough(t *testing.T) {
	var received map[string]any
	base := childCallable(&received)

	adapted := AdaptFunction(base,
		map[string]any{"region": "EU", "unrelated": "x"},
		[]string{"region", "unrelated"},
		nil, AdapterPolicy{}, logging.NoOpLogger{})

	// The shared field is hidden from the exposed shape.
	params := adapted.Parameters()
	assert.NotContains(t, params.Properties, "region")
	assert.Contains(t, params.Properties, "topic")
	assert.Equal(t, []string{"topic"}, params.Required)

	// The original callable keeps its full shape.
	assert.Contains(t, base.Parameters().Properties, "region")

	// The parent's value is injected at call time and wins over whatever the
	// model supplied for the hidden key.
	_, err := adapted.Call(context.Background(),
		map[string]any{"topic": "weather", "region": "hallucinated"}, tool.CallOptions{})
	require.NoError(t, err)

	assert.Equal(t, "EU", received["region"])
	assert.Equal(t, "weather", received["topic"])
}

func TestAdaptFunction_PassthroughExclusions(t *testing.T) {
	adapted := AdaptFunction(childCallable(nil),
		map[string]any{"region": "EU"},
		[]string{"region"},
		nil,
		AdapterPolicy{PassthroughExclusions: []string{"region"}},
		logging.NoOpLogger{})

	// Excluded fields stay visible to the model.
	assert.Contains(t, adapted.Parameters().Properties, "region")
}

func TestAdaptFunction_ModelFieldNeverInjected(t *testing.T) {
	base := tool.NewFunctionTool("childAgent", "A child agent callable",
		&schema.Node{
			Type: schema.TypeObject,
			Properties: map[string]*schema.Node{
				"model": {Type: schema.TypeString},
				"topic": {Type: schema.TypeString},
			},
		}, nil)

	adapted := AdaptFunction(base,
		map[string]any{"model": "fast"},
		[]string{"model"},
		nil, AdapterPolicy{}, logging.NoOpLogger{})

	// "model" is reserved for routing and never a passthrough key, so the
	// callable is returned unchanged.
	assert.Contains(t, adapted.Parameters().Properties, "model")
}

func TestAdaptFunction_ModelRouting(t *testing.T) {
	models := model.ModelList{
		{Key: "fast", Model: "gpt-4o-mini", Description: "cheap"},
		{Key: "smart", Model: "gpt-4o", Description: "thorough"},
	}

	adapted := AdaptFunction(childCallable(nil),
		nil,
		[]string{"query"}, // no overlap with the child's fields
		models,
		AdapterPolicy{CanConfigureSmartModelRouting: true},
		logging.NoOpLogger{})

	prop, ok := adapted.Parameters().Properties[schema.ModelFieldName]
	require.True(t, ok)
	assert.Equal(t, []string{"fast", "smart"}, prop.Enum)
	assert.Contains(t, adapted.Parameters().Required, schema.ModelFieldName)
}

func TestAdaptFunction_PassthroughWinsOverRouting(t *testing.T) {
	models := model.ModelList{{Key: "fast", Model: "gpt-4o-mini", Description: "cheap"}}

	adapted := AdaptFunction(childCallable(nil),
		map[string]any{"region": "EU"},
		[]string{"region"},
		models,
		AdapterPolicy{CanConfigureSmartModelRouting: true},
		logging.NoOpLogger{})

	// The two rewrites are mutually exclusive per call; the shared field
	// selects passthrough and no model field appears.
	assert.NotContains(t, adapted.Parameters().Properties, schema.ModelFieldName)
	assert.NotContains(t, adapted.Parameters().Properties, "region")
}

func TestAdaptFunction_RoutingSuppressed(t *testing.T) {
	models := model.ModelList{{Key: "fast", Model: "gpt-4o-mini", Description: "cheap"}}
	base := childCallable(nil)

	// Disabled by the parent.
	adapted := AdaptFunction(base, nil, nil, models,
		AdapterPolicy{DisableSmartModelRouting: true, CanConfigureSmartModelRouting: true},
		logging.NoOpLogger{})
	assert.Same(t, base, adapted)

	// Child owns a fixed service and must not also expose a model choice.
	adapted = AdaptFunction(base, nil, nil, models,
		AdapterPolicy{CanConfigureSmartModelRouting: false},
		logging.NoOpLogger{})
	assert.Same(t, base, adapted)
}
