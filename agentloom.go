// Package agentloom provides a high-level façade over agent composition and
// the generation loop, enabling rapid construction of hierarchical
// agent systems. Most applications interact with this package by:
//  1. Creating a Loom via New() (optionally overriding the default in-memory
//     conversation store and logger)
//  2. Building one or more agents with NewAgent, composing children via
//     agent options
//  3. Invoking agents synchronously (Run) or as a fragment stream (Stream)
//
// The façade only wires shared services (memory, logging) into agents it
// constructs; orchestration itself lives in the agent and flow packages. All
// defaults are safe for local development and testing; production
// deployments typically supply a durable conversation store and a structured
// logger.
package agentloom

import (
	"context"

	"github.com/hupe1980/agentloom/agent"
	"github.com/hupe1980/agentloom/flow"
	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/memory"
	"github.com/hupe1980/agentloom/model"
)

// Options configures the Loom instance.
type Options struct {
	// Memory is the shared session-keyed conversation store injected into
	// every agent the Loom constructs. Defaults to an in-memory store.
	Memory memory.Memory

	// Logger is the shared diagnostic sink. Defaults to NoOp.
	Logger logging.Logger

	// Debug enables trace and adapter-argument mirroring on constructed agents.
	Debug bool
}

// Loom is the high-level façade aggregating shared services for agent
// construction and invocation.
type Loom struct {
	opts Options
}

// New creates a Loom with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Loom {
	opts := Options{
		Memory: memory.NewInMemoryStore(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Loom{opts: opts}
}

// NewAgent constructs an agent wired to the Loom's shared memory and logger.
// Caller options are applied after the shared wiring and may override it.
func (l *Loom) NewAgent(name, description, signature string, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	wired := append([]func(o *agent.Options){func(o *agent.Options) {
		o.Memory = l.opts.Memory
		o.Logger = l.opts.Logger
		o.Debug = l.opts.Debug
	}}, optFns...)

	return agent.New(name, description, signature, wired...)
}

// Run invokes an agent synchronously against the given service and input
// values, returning the loop result together with its trace.
func (l *Loom) Run(
	ctx context.Context,
	a *agent.Agent,
	service model.CompletionService,
	values map[string]any,
	sessionID string,
) (*flow.Result, error) {
	return a.Forward(ctx, service, values, func(o *agent.ForwardOptions) {
		o.SessionID = sessionID
	})
}

// Stream invokes an agent producing a lazy, ordered, single-pass fragment
// stream. Each call starts a fresh run.
func (l *Loom) Stream(
	ctx context.Context,
	a *agent.Agent,
	service model.CompletionService,
	values map[string]any,
	sessionID string,
) (<-chan string, <-chan error, error) {
	return a.StreamingForward(ctx, service, values, func(o *agent.ForwardOptions) {
		o.SessionID = sessionID
	})
}

// History returns the conversation history recorded for a session.
func (l *Loom) History(sessionID string) string {
	return l.opts.Memory.History(sessionID)
}
