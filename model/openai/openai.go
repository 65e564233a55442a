// Package openai provides an implementation of model.CompletionService using
// the OpenAI Chat Completions API. It adapts agentloom's prompt/response
// shapes into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentloom/model"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI service adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	Debug               bool

	// ModelList, when set, exposes selectable backing models to agent
	// composition (smart model routing). Keys resolve to provider model ids
	// at call time.
	ModelList model.ModelList
}

// Service wraps the OpenAI Chat Completions API behind the generic
// model.CompletionService interface.
type Service struct {
	client *openai.Client
	opts   Options
}

// NewService creates a new OpenAI service using the official client.
func NewService(optFns ...func(o *Options)) *Service {
	client := openai.NewClient()
	return NewServiceFromClient(&client, optFns...)
}

// NewServiceFromClient creates a new OpenAI service from an existing client.
func NewServiceFromClient(client *openai.Client, optFns ...func(o *Options)) *Service {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{client: client, opts: opts}
}

// resolveModel maps a descriptor key from the per-call config onto a provider
// model id, falling back to the adapter default.
func (s *Service) resolveModel(cfg model.Config) string {
	if cfg.Model == "" {
		return s.opts.Model
	}
	if d, ok := s.opts.ModelList.Find(cfg.Model); ok {
		return d.Model
	}
	return cfg.Model
}

// Generate implements model.CompletionService with a single non-streaming
// chat completion call.
func (s *Service) Generate(ctx context.Context, prompt string, cfg model.Config, _ string) (*model.Response, error) {
	temperature := s.opts.Temperature
	if cfg.Temperature != 0 {
		temperature = cfg.Temperature
	}
	maxTokens := s.opts.MaxCompletionTokens
	if cfg.MaxTokens != 0 {
		maxTokens = cfg.MaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model:               s.resolveModel(cfg),
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	results := make([]model.Result, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		results = append(results, model.Result{Text: choice.Message.Content})
	}

	return &model.Response{
		Results: results,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// ModelList implements model.CompletionService.
func (s *Service) ModelList() model.ModelList { return s.opts.ModelList }

// Options implements model.CompletionService.
func (s *Service) Options() model.Options { return model.Options{Debug: s.opts.Debug} }
