// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// openAIBaseURL overrides the OpenAI endpoint. Tests point it at an
// httptest server; empty means the production API.
var openAIBaseURL = ""

// chatCompleter is the slice of the OpenAI client the backend needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIBackend classifies passages through the OpenAI chat completion
// API.
type OpenAIBackend struct {
	model  string
	client chatCompleter
}

// NewOpenAI builds an OpenAI backend from AI configuration.
func NewOpenAI(cfg types.AIConfig) *OpenAIBackend {
	conf := openai.DefaultConfig(cfg.APIKey)
	if openAIBaseURL != "" {
		conf.BaseURL = openAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIBackend{
		model:  model,
		client: openai.NewClientWithConfig(conf),
	}
}

// Name returns the backend identifier.
func (b *OpenAIBackend) Name() string { return string(types.ProviderOpenAI) }

// Complete sends one system+user exchange and returns the assistant text.
func (b *OpenAIBackend) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Temperature: 0.2,
		MaxTokens:   500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
