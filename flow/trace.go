package flow

import (
	"time"

	"github.com/hupe1980/agentloom/internal/util"
	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/model"
)

// FunctionInvocation records one function executed during a step.
type FunctionInvocation struct {
	Name   string `json:"name"`
	Args   string `json:"args,omitempty"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Step records one completion round-trip and its aftermath.
type Step struct {
	Prompt              string               `json:"prompt"`
	RawResponse         string               `json:"raw_response"`
	FunctionInvocations []FunctionInvocation `json:"function_invocations,omitempty"`
	ParsingError        string               `json:"parsing_error,omitempty"`
	Usage               *model.TokenUsage    `json:"usage,omitempty"`
}

// Trace is the ordered per-run log handed back to the caller. It is owned by
// the generation loop for the duration of one run and is never shared across
// concurrent runs, so no locking is required.
type Trace struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id,omitempty"`
	Steps     []Step           `json:"steps"`
	Usage     model.TokenUsage `json:"usage"`
	Error     string           `json:"error,omitempty"`
	StartedAt time.Time        `json:"started_at"`
}

// NewTrace starts an empty trace for a run.
func NewTrace(sessionID string) *Trace {
	return &Trace{ID: util.NewID(), SessionID: sessionID, StartedAt: time.Now()}
}

// AddStep appends a step record and accumulates its token usage.
func (t *Trace) AddStep(step Step) {
	t.Steps = append(t.Steps, step)
	t.Usage.Add(step.Usage)
}

// ParsingErrors returns the parsing errors recorded across all steps, in order.
func (t *Trace) ParsingErrors() []string {
	var errs []string
	for _, step := range t.Steps {
		if step.ParsingError != "" {
			errs = append(errs, step.ParsingError)
		}
	}
	return errs
}

// Mirror writes the full trace to the diagnostic sink. Called synchronously
// before a debug-enabled run returns or propagates its error.
func (t *Trace) Mirror(logger logging.Logger) {
	if logger == nil {
		return
	}
	logger.Debug("flow.trace",
		"trace_id", t.ID,
		"session", t.SessionID,
		"steps", len(t.Steps),
		"total_tokens", t.Usage.TotalTokens,
		"error", t.Error,
	)
	for i, step := range t.Steps {
		logger.Debug("flow.trace.step",
			"trace_id", t.ID,
			"step", i+1,
			"prompt", step.Prompt,
			"response", step.RawResponse,
			"functions", len(step.FunctionInvocations),
			"parsing_error", step.ParsingError,
		)
	}
}
