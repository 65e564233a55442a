package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentloom/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Tool = (*FunctionTool)(nil)

func sumParams() *schema.Node {
	return &schema.Node{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Node{
			"a": {Type: schema.TypeNumber},
			"b": {Type: schema.TypeNumber},
		},
		Required: []string{"a", "b"},
	}
}

func TestFunctionTool_Success(t *testing.T) {
	sumTool := NewFunctionTool("calculateSum", "Calculate the sum of two numbers", sumParams(),
		func(_ context.Context, args map[string]any, _ CallOptions) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})

	assert.Equal(t, "calculateSum", sumTool.Name())
	assert.Equal(t, "Calculate the sum of two numbers", sumTool.Description())

	result, err := sumTool.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0}, CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	sumTool := NewFunctionTool("calculateSum", "Calculate the sum of two numbers", sumParams(),
		func(_ context.Context, _ map[string]any, _ CallOptions) (any, error) {
			t.Fatal("function must not run on invalid arguments")
			return nil, nil
		})

	_, err := sumTool.Call(context.Background(), map[string]any{"a": 2.0}, CallOptions{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "calculateSum", toolErr.Tool)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	failing := NewFunctionTool("failing", "Always fails", nil,
		func(_ context.Context, _ map[string]any, _ CallOptions) (any, error) {
			return nil, errors.New("backend unavailable")
		})

	_, err := failing.Call(context.Background(), map[string]any{}, CallOptions{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Equal(t, "backend unavailable", toolErr.Message)
}

func TestFunctionTool_ToolErrorPassedThrough(t *testing.T) {
	custom := NewToolError("custom", "rate limited", "RATE_LIMITED")
	failing := NewFunctionTool("custom", "Fails with a custom code", nil,
		func(_ context.Context, _ map[string]any, _ CallOptions) (any, error) {
			return nil, custom
		})

	_, err := failing.Call(context.Background(), map[string]any{}, CallOptions{})
	assert.Same(t, custom, err.(*ToolError))
}

func TestNewFunctionToolFromStruct(t *testing.T) {
	type weatherArgs struct {
		City string `json:"city" description:"City name"`
		Days int    `json:"days,omitempty"`
	}

	weather := NewFunctionToolFromStruct("getWeather", "Get the weather for a city", weatherArgs{},
		func(_ context.Context, args map[string]any, _ CallOptions) (any, error) {
			return "sunny in " + args["city"].(string), nil
		})

	params := weather.Parameters()
	assert.Contains(t, params.Properties, "city")
	assert.Contains(t, params.Properties, "days")
	assert.Equal(t, []string{"city"}, params.Required)

	result, err := weather.Call(context.Background(), map[string]any{"city": "Berlin"}, CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "sunny in Berlin", result)
}

func TestToolError_Error(t *testing.T) {
	withCode := &ToolError{Tool: "sum", Message: "boom", Code: "EXECUTION_ERROR"}
	assert.Equal(t, "tool error [EXECUTION_ERROR] in sum: boom", withCode.Error())

	withoutCode := &ToolError{Tool: "sum", Message: "boom"}
	assert.Equal(t, "tool error in sum: boom", withoutCode.Error())
}
