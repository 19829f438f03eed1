package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/language"
)

const BackendInference = "inference"

// InferenceBackend posts the payload as base64 JSON and reads a
// {success, text, error, retryable} envelope back.
type InferenceBackend struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

type inferenceRequest struct {
	Audio    string `json:"audio"`
	MIMEType string `json:"mimeType"`
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

type inferenceResponse struct {
	Success   bool   `json:"success"`
	Text      string `json:"text"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func NewInferenceBackend(endpoint, apiKey, model string, timeout time.Duration) *InferenceBackend {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &InferenceBackend{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

func (b *InferenceBackend) Name() string { return BackendInference }

func (b *InferenceBackend) Transcribe(ctx context.Context, payload *download.Payload, lang string) (string, error) {
	req := inferenceRequest{
		Audio:    payload.Base64(),
		MIMEType: payload.MIME(),
		Model:    b.model,
	}
	if !language.IsAuto(lang) {
		req.Language = language.Normalize(lang)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", &BackendError{Message: fmt.Sprintf("marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &BackendError{Message: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", &BackendError{Message: ctx.Err().Error()}
		}
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out inferenceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &BackendError{
			Status:    resp.StatusCode,
			Message:   strings.TrimSpace(string(raw)),
			Retryable: retryableStatus(resp.StatusCode),
		}
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "inference failed"
		}
		return "", &BackendError{Status: resp.StatusCode, Message: msg, Retryable: out.Retryable}
	}
	return out.Text, nil
}
