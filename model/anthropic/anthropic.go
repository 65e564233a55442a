// Package anthropic provides a model.CompletionService wrapper for the
// Anthropic Claude Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentloom/model"
)

// Options configures the Anthropic service adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	Debug       bool

	// ModelList, when set, exposes selectable backing models to agent
	// composition (smart model routing). Keys resolve to provider model ids
	// at call time.
	ModelList model.ModelList
}

// Service wraps the Anthropic Messages API behind the generic
// model.CompletionService interface.
type Service struct {
	client *anthropic.Client
	opts   Options
}

// NewService creates a new Anthropic service using the official client.
func NewService(optFns ...func(o *Options)) *Service {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Service{client: &client, opts: opts}
}

// NewServiceFromClient creates a new Anthropic service from an existing client.
func NewServiceFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Service {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Service{client: client, opts: opts}
}

// resolveModel maps a descriptor key from the per-call config onto a provider
// model id, falling back to the adapter default.
func (s *Service) resolveModel(cfg model.Config) anthropic.Model {
	if cfg.Model == "" {
		return s.opts.Model
	}
	if d, ok := s.opts.ModelList.Find(cfg.Model); ok {
		return anthropic.Model(d.Model)
	}
	return anthropic.Model(cfg.Model)
}

// Generate implements model.CompletionService with a single non-streaming
// Messages API call.
func (s *Service) Generate(ctx context.Context, prompt string, cfg model.Config, _ string) (*model.Response, error) {
	temperature := s.opts.Temperature
	if cfg.Temperature != 0 {
		temperature = cfg.Temperature
	}
	maxTokens := s.opts.MaxTokens
	if cfg.MaxTokens != 0 {
		maxTokens = cfg.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       s.resolveModel(cfg),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	usage := &model.TokenUsage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}

	return &model.Response{
		Results: []model.Result{{Text: text.String()}},
		Usage:   usage,
	}, nil
}

// ModelList implements model.CompletionService.
func (s *Service) ModelList() model.ModelList { return s.opts.ModelList }

// Options implements model.CompletionService.
func (s *Service) Options() model.Options { return model.Options{Debug: s.opts.Debug} }
