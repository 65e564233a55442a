package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/hupe1980/agentloom/tool"
)

// FunctionCall identifies which function (if any) a completion step invoked,
// together with its output and the raw envelope text it was parsed from.
type FunctionCall struct {
	Name   string // Invoked function name; empty when no invocation was found
	Result any    // Execution output
	Raw    string // Raw envelope text the call was parsed from
}

// FunctionCaller is the callable-execution collaborator: given raw model
// text and the active tool set it detects a function invocation, executes it
// and reports the outcome. The distinguished name FinalResultToolName signals
// loop termination to the caller.
type FunctionCaller interface {
	Call(ctx context.Context, text string, tools []tool.Tool, opts tool.CallOptions) (*FunctionCall, error)
}

// envelope is the JSON function-call format the default caller expects models
// to emit, e.g. {"function": "getWeather", "arguments": {"city": "Berlin"}}.
type envelope struct {
	Function  string         `json:"function"`
	Arguments map[string]any `json:"arguments"`
}

// JSONFunctionCaller is the default FunctionCaller. It locates a JSON
// function-call envelope inside the model text (tolerating surrounding prose
// and markdown fences) and executes the named tool against the active set.
//
// Tool executions are panic-safe: a recovered panic is converted into a
// ToolError so a misbehaving tool can never take down the loop.
type JSONFunctionCaller struct{}

// NewJSONFunctionCaller constructs the default caller.
func NewJSONFunctionCaller() *JSONFunctionCaller { return &JSONFunctionCaller{} }

// Call implements FunctionCaller.
func (c *JSONFunctionCaller) Call(ctx context.Context, text string, tools []tool.Tool, opts tool.CallOptions) (*FunctionCall, error) {
	raw, env, ok := parseEnvelope(text)
	if !ok {
		return &FunctionCall{}, nil
	}

	var target tool.Tool
	for _, t := range tools {
		if t.Name() == env.Function {
			target = t
			break
		}
	}
	if target == nil {
		return &FunctionCall{Name: env.Function, Raw: raw}, fmt.Errorf("function %s not found", env.Function)
	}

	args := env.Arguments
	if args == nil {
		args = map[string]any{}
	}

	result, err := safeCall(ctx, target, args, opts)
	if err != nil {
		return &FunctionCall{Name: env.Function, Raw: raw}, err
	}

	return &FunctionCall{Name: env.Function, Result: result, Raw: raw}, nil
}

// safeCall executes a tool converting panics into errors.
func safeCall(ctx context.Context, t tool.Tool, args map[string]any, opts tool.CallOptions) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &tool.ToolError{
				Tool:    t.Name(),
				Message: fmt.Sprintf("panic recovered: %v", r),
				Code:    "EXECUTION_ERROR",
				Details: string(debug.Stack()),
			}
		}
	}()

	return t.Call(ctx, args, opts)
}

// parseEnvelope extracts the outermost JSON object from text and decodes it
// as a function-call envelope. Markdown fences are stripped first.
func parseEnvelope(text string) (string, *envelope, bool) {
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", nil, false
	}

	raw := text[start : end+1]

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.Function == "" {
		return "", nil, false
	}

	return raw, &env, true
}
