package app

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAISender struct {
	client openai.Client
	model  string
}

func newOpenAISender(apiKey, model string) *openAISender {
	return &openAISender{
		client: openai.NewClient(option.WithAPIKey(strings.TrimSpace(apiKey))),
		model:  model,
	}
}

func (s *openAISender) SendPrompt(ctx context.Context, prompt string) (string, error) {
	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty response from openai")
	}
	return completion.Choices[0].Message.Content, nil
}
