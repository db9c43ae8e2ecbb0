package openai

import (
	"context"
	"fmt"

	"github.com/newthinker/invert50/internal/llm"
	"github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o"

// Provider completes prompts with the OpenAI chat API.
type Provider struct {
	client *openai.Client
	model  string
}

// New creates an OpenAI provider. baseURL is optional and also serves
// OpenAI-compatible gateways.
func New(apiKey, model, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	if model == "" {
		model = defaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Provider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   llm.MaxTokens(req.MaxTokens),
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai API returned no choices")
	}

	return &llm.Response{
		Text: resp.Choices[0].Message.Content,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}
