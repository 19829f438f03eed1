package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEngine translates with a chat completion model.
type OpenAIEngine struct {
	client *openai.Client
	model  string
}

func NewOpenAIEngine(endpoint, apiKey, model string) *OpenAIEngine {
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIEngine{client: openai.NewClientWithConfig(cfg), model: model}
}

func (e *OpenAIEngine) Name() string { return EngineOpenAI }

func (e *OpenAIEngine) Translate(ctx context.Context, req Request) (Result, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(req.SourceLang, req.TargetLang, req.Options["glossary"])},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("openai chat completion: no response choices")
	}
	return Result{Text: strings.TrimSpace(resp.Choices[0].Message.Content)}, nil
}
