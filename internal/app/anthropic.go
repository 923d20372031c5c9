package app

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

type anthropicSender struct {
	client anthropic.Client
	model  string
}

func newAnthropicSender(apiKey, model string) *anthropicSender {
	return &anthropicSender{
		client: anthropic.NewClient(option.WithAPIKey(strings.TrimSpace(apiKey))),
		model:  model,
	}
}

func (s *anthropicSender) SendPrompt(ctx context.Context, prompt string) (string, error) {
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("empty response from anthropic")
	}
	return strings.Join(parts, "\n"), nil
}
