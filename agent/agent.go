package agent

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/hupe1980/agentloom/flow"
	"github.com/hupe1980/agentloom/internal/util"
	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/memory"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/schema"
	"github.com/hupe1980/agentloom/tool"
)

// ErrMissingService is returned when an agent is invoked without an
// agent-bound or caller-supplied completion service.
var ErrMissingService = errors.New("AI service is required")

const (
	// MinNameLength is the minimum agent name length enforced at construction.
	MinNameLength = 5

	// MinDescriptionLength is the minimum description length enforced at
	// construction and on every later description update.
	MinDescriptionLength = 20
)

// Options configures an Agent instance. Use functional options with New to
// override defaults.
type Options struct {
	// Service pins the agent to a fixed completion service. Agents without a
	// pinned service use the caller-supplied one at invocation time and
	// offer smart model routing to their parents.
	Service model.CompletionService

	// Agents are child agents exposed to the model as callables.
	Agents []*Agent

	// Functions are directly attached callables.
	Functions []tool.Tool

	// DisableSmartModelRouting suppresses model-enum injection entirely.
	DisableSmartModelRouting bool

	// ExcludeFieldsFromPassthrough lists fields never auto-injected from
	// this agent into child-agent calls.
	ExcludeFieldsFromPassthrough []string

	// Debug mirrors merged adapter arguments and full traces to the logger.
	Debug bool

	// MaxSteps bounds the generation loop per invocation.
	MaxSteps int

	// Memory is the session-keyed conversation log shared with the loop.
	Memory memory.Memory

	// Logger is the diagnostic sink.
	Logger logging.Logger
}

// Features reports composition-relevant capabilities of an agent. Smart model
// routing is only offered to a consumer when the agent does not already own a
// fixed backing service; an agent pinned to one model must not also expose a
// model choice.
type Features struct {
	CanConfigureSmartModelRouting bool
	PassthroughExclusions         []string
}

// Agent is a named, schema-described unit of work backed by a completion
// service. It exposes itself as a single callable (its input shape becomes
// the callable's parameter schema) and, when invoked, assembles its full
// callable set (direct tools plus adapted child-agent callables) before
// delegating to the generation loop.
//
// An Agent is constructed once and mutated only via explicit setters. It
// exclusively owns its direct tool list and signature; children are held by
// reference and never mutated.
type Agent struct {
	name                     string
	description              string
	signature                *Signature
	service                  model.CompletionService
	children                 []*Agent
	functions                []tool.Tool
	disableSmartModelRouting bool
	passthroughExclusions    []string
	debug                    bool
	maxSteps                 int
	mem                      memory.Memory
	logger                   logging.Logger
	fn                       *agentTool
	id                       string
	parentID                 string
	examples                 []map[string]any
	demos                    []map[string]any
}

// New creates an agent from the compact string signature form (see
// ParseSignature).
func New(name, description, signature string, optFns ...func(o *Options)) (*Agent, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	return NewFromSignature(name, description, sig, optFns...)
}

// NewFromSignature creates an agent from a structured signature. The name
// must be at least MinNameLength characters and the description at least
// MinDescriptionLength, else construction fails with a validation error
// naming the offending field.
func NewFromSignature(name, description string, sig *Signature, optFns ...func(o *Options)) (*Agent, error) {
	if len(name) < MinNameLength {
		return nil, &schema.ValidationError{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("must be at least %d characters", MinNameLength),
		}
	}
	if len(description) < MinDescriptionLength {
		return nil, &schema.ValidationError{
			Field:   "description",
			Value:   description,
			Message: fmt.Sprintf("must be at least %d characters", MinDescriptionLength),
		}
	}

	opts := Options{
		MaxSteps: flow.DefaultMaxSteps,
		Memory:   memory.NewInMemoryStore(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if sig == nil {
		sig = NewSignature(nil, nil)
	}
	sig.Description = description

	a := &Agent{
		name:                     name,
		description:              description,
		signature:                sig,
		service:                  opts.Service,
		children:                 slices.Clone(opts.Agents),
		functions:                slices.Clone(opts.Functions),
		disableSmartModelRouting: opts.DisableSmartModelRouting,
		passthroughExclusions:    slices.Clone(opts.ExcludeFieldsFromPassthrough),
		debug:                    opts.Debug,
		maxSteps:                 opts.MaxSteps,
		mem:                      opts.Memory,
		logger:                   opts.Logger,
	}

	// The exposed callable is computed once. A pinned service with a model
	// list augments the shape with a model field unless routing is disabled.
	params := sig.Input.Clone()
	if a.service != nil && !a.disableSmartModelRouting {
		if list := a.service.ModelList(); len(list) > 0 {
			params = schema.AddModelField(params, list.Choices())
		}
	}
	a.fn = &agentTool{
		agent:       a,
		name:        util.CamelCase(name),
		description: description,
		params:      params,
	}

	return a, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's description.
func (a *Agent) Description() string { return a.description }

// Signature returns the agent's input/output signature.
func (a *Agent) Signature() *Signature { return a.signature }

// ID returns the agent's identifier.
func (a *Agent) ID() string { return a.id }

// SetID assigns the agent's identifier.
func (a *Agent) SetID(id string) { a.id = id }

// ParentID returns the identifier of the agent's parent, if assigned.
func (a *Agent) ParentID() string { return a.parentID }

// SetParentID assigns the identifier of the agent's parent.
func (a *Agent) SetParentID(id string) { a.parentID = id }

// SetDescription updates the agent's description, re-validating the minimum
// length. The update propagates to the exposed callable's description field
// so the two copies never diverge.
func (a *Agent) SetDescription(desc string) error {
	if len(desc) < MinDescriptionLength {
		return &schema.ValidationError{
			Field:   "description",
			Value:   desc,
			Message: fmt.Sprintf("must be at least %d characters", MinDescriptionLength),
		}
	}

	a.description = desc
	a.signature.Description = desc
	a.fn.description = desc

	return nil
}

// SetExamples stores worked examples, distributing them to every child agent
// so example data stays consistent across the hierarchy.
func (a *Agent) SetExamples(examples []map[string]any) {
	a.examples = examples
	for _, child := range a.children {
		child.SetExamples(examples)
	}
}

// Examples returns the stored worked examples.
func (a *Agent) Examples() []map[string]any { return a.examples }

// SetDemos stores demonstration traces, distributing them to every child
// agent so demonstration data stays consistent across the hierarchy.
func (a *Agent) SetDemos(demos []map[string]any) {
	a.demos = demos
	for _, child := range a.children {
		child.SetDemos(demos)
	}
}

// Demos returns the stored demonstration traces.
func (a *Agent) Demos() []map[string]any { return a.demos }

// Features reports the agent's composition feature flags.
func (a *Agent) Features() Features {
	return Features{
		CanConfigureSmartModelRouting: a.service == nil,
		PassthroughExclusions:         slices.Clone(a.passthroughExclusions),
	}
}

// Agents returns the agent's child agents.
func (a *Agent) Agents() []*Agent { return slices.Clone(a.children) }

// Func returns the agent's exposed callable. Its name is the camel-case
// normalization of the agent name; its parameter schema is the agent's input
// shape, augmented with a model field when a pinned service offers one.
func (a *Agent) Func() tool.Tool { return a.fn }

// Forward resolves the effective completion service (the agent's own, else
// the caller-supplied one), assembles the callable set and delegates to the
// generation loop. The returned flow.Result carries the final value and the
// per-call trace.
func (a *Agent) Forward(ctx context.Context, service model.CompletionService, values map[string]any, optFns ...func(o *ForwardOptions)) (*flow.Result, error) {
	effective, opts, err := a.prepare(service, optFns)
	if err != nil {
		return nil, err
	}

	return a.generator(effective, opts).Run(ctx, a.request(effective, values, opts))
}

// StreamingForward behaves like Forward but produces a lazy, ordered,
// single-pass sequence of incremental output fragments. It is not
// restartable; each invocation starts a fresh run.
func (a *Agent) StreamingForward(ctx context.Context, service model.CompletionService, values map[string]any, optFns ...func(o *ForwardOptions)) (<-chan string, <-chan error, error) {
	effective, opts, err := a.prepare(service, optFns)
	if err != nil {
		return nil, nil, err
	}

	out, errCh := a.generator(effective, opts).Stream(ctx, a.request(effective, values, opts))
	return out, errCh, nil
}

// ForwardOptions carries per-invocation overrides.
type ForwardOptions struct {
	// SessionID keys conversation memory and the trace.
	SessionID string

	// Functions are additional caller-supplied callables merged into the set.
	Functions []tool.Tool

	// Model selects a backing model by descriptor key.
	Model string

	// MaxSteps overrides the agent's step budget for this call.
	MaxSteps int
}

func (a *Agent) prepare(service model.CompletionService, optFns []func(o *ForwardOptions)) (model.CompletionService, ForwardOptions, error) {
	effective := a.service
	if effective == nil {
		effective = service
	}
	if effective == nil {
		return nil, ForwardOptions{}, ErrMissingService
	}

	opts := ForwardOptions{MaxSteps: a.maxSteps}
	for _, fn := range optFns {
		fn(&opts)
	}

	return effective, opts, nil
}

func (a *Agent) generator(effective model.CompletionService, opts ForwardOptions) *flow.Generator {
	return flow.New(effective, func(o *flow.Options) {
		o.MaxSteps = opts.MaxSteps
		o.Debug = a.debug || effective.Options().Debug
		o.Memory = a.mem
		o.Logger = a.logger
		o.Config = model.Config{Model: opts.Model}
	})
}

func (a *Agent) request(effective model.CompletionService, values map[string]any, opts ForwardOptions) flow.Request {
	return flow.Request{
		Query:       a.renderQuery(values),
		Functions:   a.assembleFunctions(effective, values, opts.Functions),
		OutputShape: a.signature.Output,
		SessionID:   opts.SessionID,
	}
}

// assembleFunctions merges direct tools, adapted child-agent callables and
// caller-supplied tools into the set handed to the generation loop.
func (a *Agent) assembleFunctions(effective model.CompletionService, parentValues map[string]any, extra []tool.Tool) []tool.Tool {
	fns := slices.Clone(a.functions)

	parentFields := a.signature.FieldNames()
	for _, child := range a.children {
		policy := AdapterPolicy{
			Debug:                         a.debug,
			DisableSmartModelRouting:      a.disableSmartModelRouting,
			PassthroughExclusions:         a.passthroughExclusions,
			CanConfigureSmartModelRouting: child.Features().CanConfigureSmartModelRouting,
		}
		fns = append(fns, AdaptFunction(child.Func(), parentValues, parentFields, effective.ModelList(), policy, a.logger))
	}

	return append(fns, extra...)
}

// renderQuery builds the task text from the agent's description and the
// input values, keyed deterministically.
func (a *Agent) renderQuery(values map[string]any) string {
	var b strings.Builder
	b.WriteString(a.description)

	if len(values) > 0 {
		b.WriteString("\n\nInputs:\n")
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", k, values[k])
		}
	}

	return b.String()
}

// agentTool is the agent's exposed callable. Identity is fixed at
// construction except for the description, which SetDescription keeps in
// sync with the agent's own.
type agentTool struct {
	agent       *Agent
	name        string
	description string
	params      *schema.Node
}

func (t *agentTool) Name() string             { return t.name }
func (t *agentTool) Description() string      { return t.description }
func (t *agentTool) Parameters() *schema.Node { return t.params }

// Call validates the arguments, strips the model selection from the
// forwarded input and delegates to Forward. It requires an agent-bound or
// caller-supplied service.
func (t *agentTool) Call(ctx context.Context, args map[string]any, opts tool.CallOptions) (any, error) {
	service := t.agent.service
	if service == nil {
		service = opts.Service
	}
	if service == nil {
		return nil, ErrMissingService
	}

	if err := schema.Validate(args, t.params); err != nil {
		return nil, &tool.ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	values := maps.Clone(args)
	if values == nil {
		values = map[string]any{}
	}
	modelKey, _ := values[schema.ModelFieldName].(string)
	delete(values, schema.ModelFieldName)

	res, err := t.agent.Forward(ctx, service, values, func(o *ForwardOptions) {
		o.SessionID = opts.SessionID
		o.Model = modelKey
	})
	if err != nil {
		return nil, err
	}

	return res.Value, nil
}
