package agent

import (
	"context"
	"maps"
	"slices"

	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/schema"
	"github.com/hupe1980/agentloom/tool"
)

// AdapterPolicy controls how a child agent's exposed callable is rewritten
// when assembled into a parent's callable set.
type AdapterPolicy struct {
	// Debug mirrors the merged argument set to the diagnostic sink before
	// delegating a passthrough invocation.
	Debug bool

	// DisableSmartModelRouting suppresses model-enum injection entirely.
	DisableSmartModelRouting bool

	// PassthroughExclusions lists fields that are never auto-injected from
	// parent to child even when both declare them.
	PassthroughExclusions []string

	// CanConfigureSmartModelRouting is the child's feature flag: model
	// routing is only offered when the child does not already own a fixed
	// backing service.
	CanConfigureSmartModelRouting bool
}

// AdaptFunction produces a possibly-rewritten copy of a child agent's
// exposed callable for use inside one parent invocation:
//
//  1. Fields declared by both parent and child (except the literal "model"
//     field) and not excluded by policy are hidden from the child's exposed
//     parameter shape and auto-filled from the parent's input values at call
//     time. Parent values take precedence over caller-supplied values for
//     those keys, so passthrough cannot be bypassed by the model
//     hallucinating them.
//  2. Otherwise, when a model list is available, routing is not disabled and
//     the child permits it, a required model enum field is added to the
//     shape; the chosen model is consumed by the completion dispatch, not
//     here.
//
// The two rewrites are mutually exclusive per call; passthrough wins when a
// field would qualify for both. The original callable is never mutated.
func AdaptFunction(
	fn tool.Tool,
	parentValues map[string]any,
	parentFields []string,
	models model.ModelList,
	policy AdapterPolicy,
	logger logging.Logger,
) tool.Tool {
	childFields := fn.Parameters().FieldNames()

	var injectionKeys []string
	for _, field := range parentFields {
		if field == schema.ModelFieldName {
			continue
		}
		if !slices.Contains(childFields, field) {
			continue
		}
		if slices.Contains(policy.PassthroughExclusions, field) {
			continue
		}
		injectionKeys = append(injectionKeys, field)
	}

	if len(injectionKeys) > 0 {
		return &passthroughTool{
			base:         fn,
			params:       schema.RemoveFields(fn.Parameters(), injectionKeys),
			keys:         injectionKeys,
			parentValues: parentValues,
			debug:        policy.Debug,
			logger:       logger,
		}
	}

	if len(models) > 0 && !policy.DisableSmartModelRouting && policy.CanConfigureSmartModelRouting {
		return &routedTool{
			base:   fn,
			params: schema.AddModelField(fn.Parameters(), models.Choices()),
		}
	}

	return fn
}

// passthroughTool hides injected fields from the exposed shape and merges
// the parent's values back in at call time.
type passthroughTool struct {
	base         tool.Tool
	params       *schema.Node
	keys         []string
	parentValues map[string]any
	debug        bool
	logger       logging.Logger
}

func (t *passthroughTool) Name() string             { return t.base.Name() }
func (t *passthroughTool) Description() string      { return t.base.Description() }
func (t *passthroughTool) Parameters() *schema.Node { return t.params }

func (t *passthroughTool) Call(ctx context.Context, args map[string]any, opts tool.CallOptions) (any, error) {
	merged := maps.Clone(args)
	if merged == nil {
		merged = map[string]any{}
	}
	for _, key := range t.keys {
		if value, ok := t.parentValues[key]; ok {
			merged[key] = value
		}
	}

	if t.debug && t.logger != nil {
		t.logger.Debug("agent.adapter.injected_args",
			"function", t.base.Name(),
			"keys", t.keys,
			"args", merged,
		)
	}

	return t.base.Call(ctx, merged, opts)
}

// routedTool exposes a model-augmented shape while leaving invocation
// untouched.
type routedTool struct {
	base   tool.Tool
	params *schema.Node
}

func (t *routedTool) Name() string             { return t.base.Name() }
func (t *routedTool) Description() string      { return t.base.Description() }
func (t *routedTool) Parameters() *schema.Node { return t.params }

func (t *routedTool) Call(ctx context.Context, args map[string]any, opts tool.CallOptions) (any, error) {
	return t.base.Call(ctx, args, opts)
}
