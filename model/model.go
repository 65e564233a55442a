package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentloom/schema"
)

// ModelDescriptor identifies one selectable backing model. Key is the stable
// identifier exposed to calling models through the injected model enum field;
// Model is the provider-specific model id; Description is shown to the
// calling model so it can pick an appropriate backing model per sub-task.
type ModelDescriptor struct {
	Key         string `json:"key"`
	Model       string `json:"model"`
	Description string `json:"description"`
}

// ModelList is an ordered sequence of model descriptors, unique by key.
type ModelList []ModelDescriptor

// Find returns the descriptor with the given key.
func (l ModelList) Find(key string) (ModelDescriptor, bool) {
	for _, d := range l {
		if d.Key == key {
			return d, true
		}
	}
	return ModelDescriptor{}, false
}

// Choices converts the list into the schema projection input used to build
// the injected model enum field.
func (l ModelList) Choices() []schema.ModelChoice {
	choices := make([]schema.ModelChoice, 0, len(l))
	for _, d := range l {
		choices = append(choices, schema.ModelChoice{Key: d.Key, Description: d.Description})
	}
	return choices
}

// TokenUsage captures token usage statistics for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage sample into the receiver.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Result is a single completion candidate.
type Result struct {
	Text string `json:"text"`
}

// Response is the normalized output of one completion call.
type Response struct {
	Results []Result    `json:"results"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// Text returns the text of the first result, or the empty string when the
// provider returned no candidates.
func (r *Response) Text() string {
	if r == nil || len(r.Results) == 0 {
		return ""
	}
	return r.Results[0].Text
}

// Config carries per-call generation parameters. Model, when set, selects a
// backing model by descriptor key (falling back to a raw provider id for
// providers without a model list).
type Config struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int64   `json:"max_tokens,omitempty"`
}

// Options describes provider-level switches surfaced to higher layers.
type Options struct {
	Debug bool `json:"debug,omitempty"`
}

// CompletionService is the minimal completion-provider capability required by
// agents and the generation loop. Providers (e.g. OpenAI, Anthropic) implement
// this interface so higher layers remain decoupled from vendor SDKs.
type CompletionService interface {
	// Generate performs one completion round-trip. The session id is an
	// opaque correlation key forwarded for provider-side bookkeeping; it has
	// no influence on the completion itself.
	Generate(ctx context.Context, prompt string, cfg Config, sessionID string) (*Response, error)

	// ModelList returns the selectable backing models, or nil when the
	// provider exposes a single fixed model.
	ModelList() ModelList

	// Options returns provider-level switches such as debug mirroring.
	Options() Options
}

// MockService is a lightweight in-memory CompletionService useful for tests
// and examples. Responses are served from a per-prompt map first, then from a
// FIFO script, then from a deterministic fallback string. All prompts are
// recorded for inspection.
//
// Concurrency: guarded by a mutex; safe for concurrent use.
type MockService struct {
	mu        sync.Mutex
	byPrompt  map[string]string
	script    []string
	prompts   []string
	modelList ModelList
	options   Options
}

// NewMockService constructs an empty MockService.
func NewMockService() *MockService {
	return &MockService{byPrompt: make(map[string]string)}
}

// AddResponse registers a deterministic canned completion for an exact prompt.
func (m *MockService) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPrompt[prompt] = response
}

// Script appends responses served in order to prompts without an exact match.
func (m *MockService) Script(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, responses...)
}

// SetModelList configures the selectable model descriptors reported by the mock.
func (m *MockService) SetModelList(list ModelList) { m.modelList = list }

// SetDebug toggles the debug option reported by the mock.
func (m *MockService) SetDebug(debug bool) { m.options.Debug = debug }

// Prompts returns a copy of every prompt seen so far, in call order.
func (m *MockService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Generate implements CompletionService.
func (m *MockService) Generate(_ context.Context, prompt string, _ Config, _ string) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)

	text, ok := m.byPrompt[prompt]
	if !ok && len(m.script) > 0 {
		text, m.script = m.script[0], m.script[1:]
		ok = true
	}
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", strings.TrimSpace(prompt))
	}

	return &Response{
		Results: []Result{{Text: text}},
		Usage:   &TokenUsage{PromptTokens: len(prompt) / 4, CompletionTokens: len(text) / 4, TotalTokens: (len(prompt) + len(text)) / 4},
	}, nil
}

// ModelList implements CompletionService.
func (m *MockService) ModelList() ModelList { return m.modelList }

// Options implements CompletionService.
func (m *MockService) Options() Options { return m.options }
