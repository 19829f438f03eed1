package transcriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/language"
	"github.com/sashabaranov/go-openai"
)

const BackendOpenAI = "openai"

// OpenAIBackend uses the Whisper transcription API. endpoint overrides the
// base URL for compatible servers.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

func NewOpenAIBackend(endpoint, apiKey, model string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg), model: model}
}

func (b *OpenAIBackend) Name() string { return BackendOpenAI }

func (b *OpenAIBackend) Transcribe(ctx context.Context, payload *download.Payload, lang string) (string, error) {
	file := payload.File()
	req := openai.AudioRequest{
		Model:    b.model,
		Reader:   file.Reader,
		FilePath: file.Name,
	}
	if !language.IsAuto(lang) {
		req.Language = language.Normalize(lang)
	}

	resp, err := b.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	return resp.Text, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &BackendError{
			Status:    apiErr.HTTPStatusCode,
			Message:   apiErr.Message,
			Retryable: retryableStatus(apiErr.HTTPStatusCode),
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &BackendError{
			Status:    reqErr.HTTPStatusCode,
			Message:   fmt.Sprintf("%v", reqErr.Err),
			Retryable: retryableStatus(reqErr.HTTPStatusCode),
		}
	}
	return fmt.Errorf("openai transcription: %w", err)
}
