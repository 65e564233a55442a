package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentloom/codec"
	"github.com/hupe1980/agentloom/memory"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/schema"
	"github.com/hupe1980/agentloom/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answerShape() *schema.Node {
	return &schema.Node{
		Type: schema.TypeObject,
		Properties: map[string]*schema.Node{
			"answer": {Type: schema.TypeString},
		},
		Required: []string{"answer"},
	}
}

// erroringService always fails the completion round-trip.
type erroringService struct{}

func (erroringService) Generate(context.Context, string, model.Config, string) (*model.Response, error) {
	return nil, errors.New("provider down")
}
func (erroringService) ModelList() model.ModelList { return nil }
func (erroringService) Options() model.Options     { return model.Options{} }

// -------------------- Single-shot path with output repair --------------------

func TestRun_PlainTextSingleShot(t *testing.T) {
	mock := model.NewMockService()
	mock.Script("  The answer is 42.  ")

	mem := memory.NewInMemoryStore()
	g := New(mock, func(o *Options) { o.Memory = mem })

	res, err := g.Run(context.Background(), Request{Query: "What is the answer?", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, StateFinal, res.State)
	assert.Equal(t, "The answer is 42.", res.Value)
	require.Len(t, res.Trace.Steps, 1)
	assert.Empty(t, res.Trace.ParsingErrors())
	assert.Positive(t, res.Trace.Usage.TotalTokens)
	assert.Equal(t, []string{"  The answer is 42.  "}, mem.Entries("s1"))
}

func TestRun_RepairRecoversWithinBudget(t *testing.T) {
	mock := model.NewMockService()
	mock.Script(
		"no structured output here",
		`{"answer": }`,
		`{"answer": "42"}`,
	)

	g := New(mock)

	res, err := g.Run(context.Background(), Request{Query: "Answer as JSON.", OutputShape: answerShape(), SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, StateFinal, res.State)
	assert.Equal(t, map[string]any{"answer": "42"}, res.Value)

	// Two failed attempts each left a parsing error and triggered a feedback
	// completion carrying the previous output.
	assert.Len(t, res.Trace.ParsingErrors(), 2)
	assert.Len(t, res.Trace.Steps, 3)

	prompts := mock.Prompts()
	require.Len(t, prompts, 3)
	assert.Contains(t, prompts[1], "could not be parsed")
	assert.Contains(t, prompts[1], "no structured output here")
	assert.Contains(t, prompts[2], `{"answer": }`)
}

func TestRun_RepairExhausted(t *testing.T) {
	mock := model.NewMockService()
	mock.Script("bad one", "bad two", "bad three")

	g := New(mock)

	res, err := g.Run(context.Background(), Request{Query: "Answer as JSON.", OutputShape: answerShape(), SessionID: "s1"})
	require.Error(t, err)

	var repairErr *SyntaxRepairExhaustedError
	require.ErrorAs(t, err, &repairErr)
	assert.Equal(t, 3, repairErr.Attempts)
	assert.Equal(t, "unable to fix result syntax", err.Error())

	assert.Equal(t, StateDecodeExhausted, res.State)
	assert.Len(t, res.Trace.ParsingErrors(), 3)
	assert.Equal(t, "unable to fix result syntax", res.Trace.Error)

	// The last decode failure remains reachable through Unwrap.
	var decErr *codec.DecodeError
	assert.ErrorAs(t, err, &decErr)

	// Exactly three completions: the initial one plus two repairs.
	assert.Len(t, mock.Prompts(), 3)
}

func TestRun_ServiceFailure(t *testing.T) {
	g := New(erroringService{})

	res, err := g.Run(context.Background(), Request{Query: "anything"})
	require.Error(t, err)
	assert.Equal(t, StateFailed, res.State)
	assert.Contains(t, err.Error(), "provider down")
}

// -------------------- Function loop --------------------

func TestRun_FunctionLoopToFinalResult(t *testing.T) {
	mock := model.NewMockService()
	mock.Script(
		`{"function": "echo", "arguments": {"text": "hi"}}`,
		`{"function": "finalResult", "arguments": {"answer": "done"}}`,
	)

	mem := memory.NewInMemoryStore()
	g := New(mock, func(o *Options) { o.Memory = mem })

	res, err := g.Run(context.Background(), Request{
		Query:       "Echo then finish.",
		Functions:   []tool.Tool{echoTool()},
		OutputShape: answerShape(),
		SessionID:   "s1",
	})
	require.NoError(t, err)

	assert.Equal(t, StateFinal, res.State)
	assert.Equal(t, map[string]any{"answer": "done"}, res.Value)

	require.Len(t, res.Trace.Steps, 2)
	require.Len(t, res.Trace.Steps[0].FunctionInvocations, 1)
	inv := res.Trace.Steps[0].FunctionInvocations[0]
	assert.Equal(t, "echo", inv.Name)
	assert.Equal(t, "hi", inv.Result)

	// The synthetic final-result tool was offered alongside the real one.
	assert.Contains(t, res.Trace.Steps[0].Prompt, "echo")
	assert.Contains(t, res.Trace.Steps[0].Prompt, FinalResultToolName)

	// Every executed call and its result landed in conversation memory.
	entries := mem.Entries("s1")
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0], "Result:\nhi")
}

func TestRun_FunctionErrorFedBack(t *testing.T) {
	mock := model.NewMockService()
	mock.Script(
		`{"function": "missing", "arguments": {}}`,
		`{"function": "finalResult", "arguments": {"value": "ok"}}`,
	)

	mem := memory.NewInMemoryStore()
	g := New(mock, func(o *Options) { o.Memory = mem })

	res, err := g.Run(context.Background(), Request{
		Query:       "Try a function.",
		Functions:   []tool.Tool{echoTool()},
		OutputShape: &schema.Node{Type: schema.TypeString},
		SessionID:   "s1",
	})
	require.NoError(t, err)

	assert.Equal(t, StateFinal, res.State)
	assert.Equal(t, "ok", res.Value)

	require.Len(t, res.Trace.Steps, 2)
	require.Len(t, res.Trace.Steps[0].FunctionInvocations, 1)
	assert.Equal(t, "function missing not found", res.Trace.Steps[0].FunctionInvocations[0].Error)

	// The failure was fed back through memory so the model could correct
	// itself on the next step.
	entries := mem.Entries("s1")
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0], "function missing not found")
}

func TestRun_EmptyResponse(t *testing.T) {
	mock := model.NewMockService()
	mock.Script("   ")

	g := New(mock)

	res, err := g.Run(context.Background(), Request{
		Query:     "anything",
		Functions: []tool.Tool{echoTool()},
	})
	require.Error(t, err)

	var emptyErr *EmptyResponseError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, 1, emptyErr.Step)
	assert.Equal(t, "empty response received", err.Error())
	assert.Equal(t, StateEmpty, res.State)
}

func TestRun_DuplicateResponse(t *testing.T) {
	mock := model.NewMockService()
	mock.Script("let me think about that", "let me think about that")

	g := New(mock)

	res, err := g.Run(context.Background(), Request{
		Query:     "anything",
		Functions: []tool.Tool{echoTool()},
	})
	require.Error(t, err)

	var dupErr *DuplicateResponseError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, 2, dupErr.Step)
	assert.Equal(t, "duplicate response received", err.Error())
	assert.Equal(t, StateDuplicate, res.State)
	assert.Len(t, res.Trace.Steps, 2)
}

func TestRun_StepBudgetExceeded(t *testing.T) {
	mock := model.NewMockService()
	mock.Script("first musing", "second musing")

	g := New(mock, func(o *Options) { o.MaxSteps = 2 })

	res, err := g.Run(context.Background(), Request{
		Query:     "anything",
		Functions: []tool.Tool{echoTool()},
	})
	require.Error(t, err)

	var budgetErr *StepBudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, 2, budgetErr.MaxSteps)
	assert.Equal(t, "max 2 steps allowed", err.Error())
	assert.Equal(t, StateBudgetExhausted, res.State)
	assert.Len(t, res.Trace.Steps, 2)
}

func TestRun_HistoryCarriesAcrossSteps(t *testing.T) {
	mock := model.NewMockService()
	mock.Script(
		`{"function": "echo", "arguments": {"text": "first"}}`,
		`{"function": "finalResult", "arguments": {"value": "done"}}`,
	)

	g := New(mock)

	_, err := g.Run(context.Background(), Request{
		Query:       "anything",
		Functions:   []tool.Tool{echoTool()},
		OutputShape: &schema.Node{Type: schema.TypeString},
		SessionID:   "s1",
	})
	require.NoError(t, err)

	prompts := mock.Prompts()
	require.Len(t, prompts, 2)
	assert.NotContains(t, prompts[0], "Conversation so far:")
	assert.Contains(t, prompts[1], "Conversation so far:")
	assert.Contains(t, prompts[1], "Result:\nfirst")
}

// -------------------- Streaming --------------------

func TestStream_EmitsFragmentsInOrder(t *testing.T) {
	mock := model.NewMockService()
	mock.Script(
		`{"function": "echo", "arguments": {"text": "hi"}}`,
		`{"function": "finalResult", "arguments": {"value": "done"}}`,
	)

	g := New(mock)

	out, errCh := g.Stream(context.Background(), Request{
		Query:       "anything",
		Functions:   []tool.Tool{echoTool()},
		OutputShape: &schema.Node{Type: schema.TypeString},
	})

	var fragments []string
	for fragment := range out {
		fragments = append(fragments, fragment)
	}

	assert.NoError(t, <-errCh)
	require.Len(t, fragments, 2)
	assert.Contains(t, fragments[0], "echo")
	assert.Contains(t, fragments[1], FinalResultToolName)
}

func TestStream_DeliversTerminalError(t *testing.T) {
	mock := model.NewMockService()
	mock.Script("")

	g := New(mock)

	out, errCh := g.Stream(context.Background(), Request{
		Query:     "anything",
		Functions: []tool.Tool{echoTool()},
	})

	for range out {
	}

	err := <-errCh
	var emptyErr *EmptyResponseError
	assert.ErrorAs(t, err, &emptyErr)
}
