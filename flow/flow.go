// Package flow implements the self-correcting generation loop that drives a
// completion service through a bounded sequence of calls, detects and executes
// function invocations, and repairs malformed structured output via
// retry-with-feedback.
//
// Per run the loop is an explicit state machine
//
//	Start -> (FunctionStep)* -> Final | Failed
//
// with enumerated terminal conditions (final, budget exhausted, duplicate,
// empty, decode exhausted) surfaced as a tagged Result plus a typed error.
// Every run owns a fresh Trace that records each prompt, raw response,
// function execution and parsing error; partial progress therefore remains
// inspectable even when the run fails.
package flow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/agentloom/codec"
	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/memory"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/schema"
	"github.com/hupe1980/agentloom/tool"
)

const (
	// DefaultMaxSteps bounds the function loop when no explicit budget is set.
	DefaultMaxSteps = 20

	// maxRepairAttempts bounds the output-repair loop of the single-shot path.
	maxRepairAttempts = 3
)

// State tags the terminal condition of a run.
type State string

const (
	// StateFinal marks a successful run.
	StateFinal State = "final"
	// StateEmpty marks termination on an empty completion result.
	StateEmpty State = "empty"
	// StateDuplicate marks termination on two identical consecutive results.
	StateDuplicate State = "duplicate"
	// StateBudgetExhausted marks termination on step budget exhaustion.
	StateBudgetExhausted State = "budget_exhausted"
	// StateDecodeExhausted marks termination after the repair budget ran out.
	StateDecodeExhausted State = "decode_exhausted"
	// StateFailed marks termination on an unrecoverable service or tool error.
	StateFailed State = "failed"
)

// Options configures a Generator.
type Options struct {
	// MaxSteps bounds the function loop. Defaults to DefaultMaxSteps.
	MaxSteps int

	// Debug mirrors the full trace to the diagnostic sink synchronously
	// before a run returns or propagates its error.
	Debug bool

	// Config carries per-call generation parameters forwarded to the service.
	Config model.Config

	// Memory is the session-keyed conversation log. Defaults to a fresh
	// in-memory store.
	Memory memory.Memory

	// Decoder turns raw text into typed values. Defaults to the JSON decoder.
	Decoder codec.Decoder

	// Caller detects and executes function invocations. Defaults to the JSON
	// envelope caller.
	Caller FunctionCaller

	// Logger is the diagnostic sink. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Request describes one generation run.
type Request struct {
	// Query is the task the loop drives the model through.
	Query string

	// Functions is the assembled callable set. An empty set selects the
	// single-shot path with output repair instead of the function loop.
	Functions []tool.Tool

	// OutputShape, when set, declares the expected result structure. It also
	// causes a synthetic final-result tool to be appended in the function
	// loop, giving the model an explicit way to signal completion.
	OutputShape *schema.Node

	// SessionID keys conversation memory and the trace. Optional.
	SessionID string
}

// Result is the tagged outcome of a run. The Trace is always populated, also
// on failure, so callers can inspect partial progress.
type Result struct {
	Value any
	State State
	Trace *Trace
}

// Generator drives the generation loop against one completion service. A
// Generator is cheap to construct and holds no per-run state; all work within
// a run is strictly sequential because each step's prompt depends on the
// cumulative history of all prior steps.
type Generator struct {
	service model.CompletionService
	opts    Options
}

// New creates a Generator for the given service. The service's own debug
// option is honored unless overridden.
func New(service model.CompletionService, optFns ...func(o *Options)) *Generator {
	opts := Options{
		MaxSteps: DefaultMaxSteps,
		Debug:    service.Options().Debug,
		Memory:   memory.NewInMemoryStore(),
		Decoder:  codec.NewJSONDecoder(),
		Caller:   NewJSONFunctionCaller(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}

	return &Generator{service: service, opts: opts}
}

// Run executes the loop to completion. The returned Result is non-nil even on
// failure; the error, when non-nil, is one of the typed terminal errors and
// has already been recorded on the trace.
func (g *Generator) Run(ctx context.Context, req Request) (*Result, error) {
	trace := NewTrace(req.SessionID)

	res, err := g.run(ctx, req, trace, nil)
	if err != nil {
		trace.Error = err.Error()
	}
	if g.opts.Debug {
		trace.Mirror(g.opts.Logger)
	}

	return res, err
}

// Stream executes the loop emitting each step's textual output as a fragment
// on the returned channel. The sequence is lazy, ordered and single-pass;
// each invocation starts a fresh run. A terminal error, if any, is delivered
// on the error channel after the fragment channel closes.
func (g *Generator) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	out := make(chan string, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		defer close(out)

		trace := NewTrace(req.SessionID)

		emit := func(fragment string) {
			select {
			case out <- fragment:
			case <-ctx.Done():
			}
		}

		_, err := g.run(ctx, req, trace, emit)
		if err != nil {
			trace.Error = err.Error()
			errCh <- err
		}
		if g.opts.Debug {
			trace.Mirror(g.opts.Logger)
		}
	}()

	return out, errCh
}

// run dispatches to the single-shot repair path or the function loop.
func (g *Generator) run(ctx context.Context, req Request, trace *Trace, emit func(string)) (*Result, error) {
	if len(req.Functions) == 0 {
		return g.runRepair(ctx, req, trace, emit)
	}
	return g.runFunctions(ctx, req, trace, emit)
}

// runRepair performs a single completion followed by a retry-bounded
// output-repair loop. Re-decoding the same raw value is never useful, so each
// failed attempt (while attempts remain) issues one additional completion
// that feeds the previous output and the decode error back to the model,
// replacing the raw value.
func (g *Generator) runRepair(ctx context.Context, req Request, trace *Trace, emit func(string)) (*Result, error) {
	prompt := g.buildPrompt(req, g.opts.Memory.History(req.SessionID), nil)

	resp, err := g.service.Generate(ctx, prompt, g.opts.Config, req.SessionID)
	if err != nil {
		return &Result{State: StateFailed, Trace: trace}, fmt.Errorf("completion failed: %w", err)
	}

	raw := resp.Text()
	step := Step{Prompt: prompt, RawResponse: raw, Usage: resp.Usage}

	var lastErr error
	for attempt := 1; attempt <= maxRepairAttempts; attempt++ {
		value, decErr := g.opts.Decoder.Decode(raw, req.OutputShape)
		if decErr == nil {
			trace.AddStep(step)
			g.opts.Memory.Add(raw, req.SessionID)
			if emit != nil {
				emit(raw)
			}
			return &Result{Value: value, State: StateFinal, Trace: trace}, nil
		}

		lastErr = decErr
		step.ParsingError = decErr.Error()
		trace.AddStep(step)

		g.opts.Logger.Warn("flow.repair.decode_failed",
			"attempt", attempt,
			"session", req.SessionID,
			"error", decErr.Error(),
		)

		if attempt == maxRepairAttempts {
			break
		}

		prompt = g.buildRepairPrompt(req, raw, decErr)
		resp, err = g.service.Generate(ctx, prompt, g.opts.Config, req.SessionID)
		if err != nil {
			return &Result{State: StateFailed, Trace: trace}, fmt.Errorf("repair completion failed: %w", err)
		}

		raw = resp.Text()
		step = Step{Prompt: prompt, RawResponse: raw, Usage: resp.Usage}
	}

	return &Result{State: StateDecodeExhausted, Trace: trace},
		&SyntaxRepairExhaustedError{Attempts: maxRepairAttempts, LastErr: lastErr}
}

// runFunctions drives the bounded function loop. Each step rebuilds the
// prompt from the query plus the full conversation history, so steps never
// overlap or pipeline.
func (g *Generator) runFunctions(ctx context.Context, req Request, trace *Trace, emit func(string)) (*Result, error) {
	fns := slices.Clone(req.Functions)
	if req.OutputShape != nil && !hasFinalResult(fns) {
		fns = append(fns, NewFinalResultTool(req.OutputShape))
	}

	callOpts := tool.CallOptions{
		SessionID: req.SessionID,
		Service:   g.service,
		Logger:    g.opts.Logger,
	}

	var prev string
	for stepNum := 1; stepNum <= g.opts.MaxSteps; stepNum++ {
		prompt := g.buildPrompt(req, g.opts.Memory.History(req.SessionID), fns)

		g.opts.Logger.Debug("flow.step.start", "step", stepNum, "session", req.SessionID)

		resp, err := g.service.Generate(ctx, prompt, g.opts.Config, req.SessionID)
		if err != nil {
			return &Result{State: StateFailed, Trace: trace}, fmt.Errorf("completion failed at step %d: %w", stepNum, err)
		}

		text := strings.TrimSpace(resp.Text())
		step := Step{Prompt: prompt, RawResponse: text, Usage: resp.Usage}

		if text == "" {
			trace.AddStep(step)
			return &Result{State: StateEmpty, Trace: trace}, &EmptyResponseError{Step: stepNum}
		}
		if text == prev {
			trace.AddStep(step)
			return &Result{State: StateDuplicate, Trace: trace}, &DuplicateResponseError{Step: stepNum}
		}
		prev = text

		if emit != nil {
			emit(text)
		}

		call, callErr := g.opts.Caller.Call(ctx, text, fns, callOpts)
		if call == nil {
			call = &FunctionCall{}
		}

		switch {
		case callErr != nil:
			// Feed the failure back through memory so the model can correct
			// itself on the next step.
			step.FunctionInvocations = append(step.FunctionInvocations, FunctionInvocation{
				Name:  call.Name,
				Args:  call.Raw,
				Error: callErr.Error(),
			})
			g.opts.Memory.Add(fmt.Sprintf("%s\nResult:\n%v", text, callErr), req.SessionID)
			g.opts.Logger.Warn("flow.function.error", "step", stepNum, "function", call.Name, "error", callErr.Error())
		case call.Name != "":
			resultText := stringify(call.Result)
			step.FunctionInvocations = append(step.FunctionInvocations, FunctionInvocation{
				Name:   call.Name,
				Args:   call.Raw,
				Result: resultText,
			})
			g.opts.Memory.Add(fmt.Sprintf("%s\nResult:\n%s", text, resultText), req.SessionID)
		default:
			g.opts.Memory.Add(text, req.SessionID)
		}

		trace.AddStep(step)

		if call.Name == FinalResultToolName && callErr == nil {
			g.opts.Logger.Debug("flow.final", "step", stepNum, "session", req.SessionID)
			return &Result{Value: call.Result, State: StateFinal, Trace: trace}, nil
		}
	}

	return &Result{State: StateBudgetExhausted, Trace: trace}, &StepBudgetExceededError{MaxSteps: g.opts.MaxSteps}
}

// buildPrompt assembles the step prompt from function declarations, the
// conversation history and the query.
func (g *Generator) buildPrompt(req Request, history string, fns []tool.Tool) string {
	var b strings.Builder

	if len(fns) > 0 {
		b.WriteString("You can call the following functions. To call a function, respond with a single JSON object of the form {\"function\": \"<name>\", \"arguments\": {...}}.\n\nFunctions:\n")
		for _, t := range fns {
			fmt.Fprintf(&b, "- %s: %s\n  Parameters: %s\n", t.Name(), t.Description(), t.Parameters().String())
		}
		b.WriteString("\n")
	} else if req.OutputShape != nil && req.OutputShape.Type == schema.TypeObject {
		fmt.Fprintf(&b, "Respond with a single JSON object matching this schema: %s\n\n", req.OutputShape.String())
	}

	if history != "" {
		b.WriteString("Conversation so far:\n")
		b.WriteString(history)
		b.WriteString("\n\n")
	}

	b.WriteString(req.Query)

	return b.String()
}

// buildRepairPrompt feeds the previous output and its decode error back to
// the model.
func (g *Generator) buildRepairPrompt(req Request, previous string, decErr error) string {
	var b strings.Builder

	b.WriteString(g.buildPrompt(req, "", nil))
	b.WriteString("\n\nYour previous output could not be parsed:\n")
	b.WriteString(previous)
	fmt.Fprintf(&b, "\n\nError: %v\nRespond again with only the corrected output.", decErr)

	return b.String()
}

// stringify renders a tool result for memory and the trace.
func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
