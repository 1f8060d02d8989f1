// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/equitylab/positionality-engine/pkg/types"
)

// anthropicBaseURL overrides the Anthropic endpoint. Tests point it at
// an httptest server; empty means the production API.
var anthropicBaseURL = ""

const defaultAnthropicModel = "claude-sonnet-4-5"

// messageCreator is the slice of the Anthropic client the backend needs.
type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicBackend classifies passages through the Anthropic Messages
// API.
type AnthropicBackend struct {
	model    string
	messages messageCreator
}

// NewAnthropic builds an Anthropic backend from AI configuration.
func NewAnthropic(cfg types.AIConfig) *AnthropicBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if anthropicBaseURL != "" {
		opts = append(opts, option.WithBaseURL(anthropicBaseURL))
	}
	client := anthropic.NewClient(opts...)
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicBackend{
		model:    model,
		messages: &client.Messages,
	}
}

// Name returns the backend identifier.
func (b *AnthropicBackend) Name() string { return string(types.ProviderAnthropic) }

// Complete sends one system+user exchange and returns the concatenated
// text blocks of the reply.
func (b *AnthropicBackend) Complete(ctx context.Context, system, user string) (string, error) {
	msg, err := b.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   500,
		Temperature: anthropic.Float(0.2),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic returned no text content")
	}
	return sb.String(), nil
}
