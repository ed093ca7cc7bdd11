package openaicompat

import (
	"context"
	"errors"
	"fmt"

	"lucide-core/pkg/llm"

	"github.com/sashabaranov/go-openai"
)

// ChatProvider implements llm.LLMProvider with the go-openai client.
type ChatProvider struct {
	client *openai.Client
	model  string
}

var _ llm.LLMProvider = (*ChatProvider)(nil)

func NewChatProvider(baseURL, apiKey, model string) *ChatProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &ChatProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *ChatProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{Temperature: 0.7, Model: p.model}
	for _, opt := range opts {
		opt(options)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       options.Model,
		Messages:    fromLLMMessages(history),
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *ChatProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
