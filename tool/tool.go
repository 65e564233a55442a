// Package tool implements the callable subsystem that lets agents expose
// structured capabilities (APIs, computations, child agents) to a completion
// model with schema validated arguments, consistent error handling and rich
// metadata for LLM guidance.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/schema"
)

// Tool is a named operation with a parameter shape and an invocation
// function, offered to a completion model as an available action.
//
// Identity (name, description) is immutable once a tool has been handed to a
// consumer; composition layers that need to rewrite a parameter shape produce
// a projected copy instead of mutating the original.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper parameter shapes
//   - Handle errors gracefully
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does. It is provided to the LLM to help it decide when to use the tool.
	Description() string

	// Parameters returns the shape describing the expected arguments.
	Parameters() *schema.Node

	// Call executes the tool with structured arguments and runtime options.
	Call(ctx context.Context, args map[string]any, opts CallOptions) (any, error)
}

// CallOptions carries per-invocation runtime context into a tool call.
type CallOptions struct {
	// SessionID correlates the call with a conversation session.
	SessionID string

	// Service is the completion service active for the surrounding
	// generation-loop run, for tools (such as agent-backed ones) that issue
	// their own completions.
	Service model.CompletionService

	// Logger is the diagnostic sink. Never nil when invoked through the
	// generation loop.
	Logger logging.Logger
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
