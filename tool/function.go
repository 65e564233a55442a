package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentloom/schema"
)

// FunctionTool is a generic adapter that exposes a plain Go function as an
// agentloom tool.
//
// Responsibilities:
//   - Holds the parameter shape describing accepted arguments
//   - Validates model supplied arguments against that shape before execution
//   - Normalizes error handling so callers receive *ToolError with consistent
//     codes:
//     VALIDATION_ERROR  -> shape / argument mismatch
//     EXECUTION_ERROR   -> underlying function returned an error (non-ToolError)
//     (custom codes preserved if the function returns *ToolError directly)
//
// Concurrency:
//
//	A FunctionTool has no internal mutable state after construction and is
//	safe for concurrent use by multiple goroutines.
type FunctionTool struct {
	// Tool identifier (camelCase recommended)
	name string
	// Human-readable description shown to models
	description string
	// Shape describing accepted arguments
	parameters *schema.Node
	// User supplied implementation
	fn func(ctx context.Context, args map[string]any, opts CallOptions) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit shape and function.
//
// Example:
//
//	sumTool := NewFunctionTool(
//	  "calculateSum",
//	  "Calculate the sum of two numbers",
//	  &schema.Node{
//	    Type: schema.TypeObject,
//	    Properties: map[string]*schema.Node{
//	      "a": {Type: schema.TypeNumber},
//	      "b": {Type: schema.TypeNumber},
//	    },
//	    Required: []string{"a", "b"},
//	  },
//	  func(ctx context.Context, args map[string]any, opts CallOptions) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters *schema.Node,
	fn func(ctx context.Context, args map[string]any, opts CallOptions) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter shape from a struct using
// reflection. It is a convenience for simple argument containers and produces
// a shape equivalent to schema.FromStruct(structType).
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any, opts CallOptions) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, schema.FromStruct(structType), fn)
}

// Name returns the unique tool name used in function call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the shape describing expected arguments.
func (t *FunctionTool) Parameters() *schema.Node { return t.parameters }

// Call validates the provided args against the declared shape then invokes
// the underlying function. Validation or execution failures are wrapped (or
// passed through) as *ToolError for uniform downstream handling.
//
// Error Semantics:
//
//	*ToolError (returned directly)  -> forwarded unchanged
//	validation failure              -> *ToolError{Code: "VALIDATION_ERROR"}
//	other error                     -> *ToolError{Code: "EXECUTION_ERROR"}
func (t *FunctionTool) Call(ctx context.Context, args map[string]any, opts CallOptions) (any, error) {
	logger := opts.Logger
	start := time.Now()

	if logger != nil {
		logger.Debug("tool.call.start", "tool", t.name, "session", opts.SessionID)
	}

	if err := schema.Validate(args, t.parameters); err != nil {
		if logger != nil {
			logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())
		}

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(ctx, args, opts)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok { // Already a ToolError -> just log and forward
			if logger != nil {
				logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)
			}

			return nil, toolErr
		}

		if logger != nil {
			logger.Error("tool.call.error", "tool", t.name, "error", err.Error())
		}

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	if logger != nil {
		logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())
	}

	return result, nil
}
