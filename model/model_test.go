package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ CompletionService = (*MockService)(nil)

func TestModelList_Find(t *testing.T) {
	list := ModelList{
		{Key: "fast", Model: "gpt-4o-mini", Description: "cheap"},
		{Key: "smart", Model: "gpt-4o", Description: "thorough"},
	}

	d, ok := list.Find("smart")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", d.Model)

	_, ok = list.Find("missing")
	assert.False(t, ok)
}

func TestModelList_Choices(t *testing.T) {
	list := ModelList{{Key: "fast", Model: "gpt-4o-mini", Description: "cheap"}}

	choices := list.Choices()
	require.Len(t, choices, 1)
	assert.Equal(t, "fast", choices[0].Key)
	assert.Equal(t, "cheap", choices[0].Description)
}

func TestTokenUsage_Add(t *testing.T) {
	usage := TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	usage.Add(&TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})

	assert.Equal(t, TokenUsage{PromptTokens: 11, CompletionTokens: 7, TotalTokens: 18}, usage)

	usage.Add(nil) // no-op
	assert.Equal(t, 18, usage.TotalTokens)
}

func TestResponse_Text(t *testing.T) {
	assert.Equal(t, "", (*Response)(nil).Text())
	assert.Equal(t, "", (&Response{}).Text())
	assert.Equal(t, "hi", (&Response{Results: []Result{{Text: "hi"}, {Text: "ignored"}}}).Text())
}

func TestMockService_ByPromptThenScriptThenFallback(t *testing.T) {
	mock := NewMockService()
	mock.AddResponse("exact prompt", "canned")
	mock.Script("scripted one", "scripted two")

	ctx := context.Background()

	resp, err := mock.Generate(ctx, "exact prompt", Config{}, "s1")
	require.NoError(t, err)
	assert.Equal(t, "canned", resp.Text())

	resp, _ = mock.Generate(ctx, "anything else", Config{}, "s1")
	assert.Equal(t, "scripted one", resp.Text())

	resp, _ = mock.Generate(ctx, "more", Config{}, "s1")
	assert.Equal(t, "scripted two", resp.Text())

	resp, _ = mock.Generate(ctx, "unmatched", Config{}, "s1")
	assert.Equal(t, "Mock response to: unmatched", resp.Text())

	assert.Equal(t, []string{"exact prompt", "anything else", "more", "unmatched"}, mock.Prompts())
	assert.NotNil(t, resp.Usage)
}
