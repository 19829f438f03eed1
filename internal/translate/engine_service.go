package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ServiceEngine calls a JSON translation service that hosts several engines
// (google, deepl, yandex, ...). name is passed through as the engine field.
type ServiceEngine struct {
	name     string
	endpoint string
	apiKey   string
	client   *http.Client
}

type serviceRequest struct {
	Text       string            `json:"text"`
	SourceLang string            `json:"sourceLang"`
	TargetLang string            `json:"targetLang"`
	Engine     string            `json:"engine"`
	Options    map[string]string `json:"options,omitempty"`
}

type serviceResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage string `json:"detectedLanguage"`
	Error            string `json:"error"`
}

func NewServiceEngine(name, endpoint, apiKey string, timeout time.Duration) *ServiceEngine {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ServiceEngine{
		name:     name,
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *ServiceEngine) Name() string { return e.name }

func (e *ServiceEngine) Translate(ctx context.Context, req Request) (Result, error) {
	if e.endpoint == "" {
		return Result{}, fmt.Errorf("%s: no service endpoint configured", e.name)
	}

	body, err := json.Marshal(serviceRequest{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Engine:     e.name,
		Options:    req.Options,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var out serviceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, fmt.Errorf("status %d: decode response: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Result{}, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	return Result{Text: out.TranslatedText, DetectedLanguage: out.DetectedLanguage}, nil
}
