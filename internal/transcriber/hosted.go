package transcriber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/logging"
	"go.uber.org/zap"
)

// Backend is one hosted inference API.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, payload *download.Payload, language string) (string, error)
}

type HostedConfig struct {
	APIKey     string
	MaxRetries int
	RetryDelay time.Duration
}

// Hosted calls a Backend and retries retryable failures with a linearly
// growing delay: RetryDelay, 2*RetryDelay, ...
type Hosted struct {
	backend Backend
	cfg     HostedConfig
	log     *zap.SugaredLogger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewHosted(backend Backend, cfg HostedConfig, log *zap.SugaredLogger) *Hosted {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Hosted{
		backend: backend,
		cfg:     cfg,
		log:     logging.OrNop(log).Named(logging.ComponentTranscriber).With("strategy", StrategyHosted, "backend", backend.Name()),
		sleep:   sleepContext,
	}
}

func (h *Hosted) Name() string { return StrategyHosted }

func (h *Hosted) IsSupported() bool {
	return h.cfg.APIKey != ""
}

func (h *Hosted) TranscribeFromBlob(ctx context.Context, payload *download.Payload, languageHint string) (string, error) {
	if !h.IsSupported() {
		return "", &Error{Strategy: StrategyHosted, Err: ErrMissingCredential}
	}

	maxAttempts := h.cfg.MaxRetries + 1
	var lastErr error
	attempt := 1
	for ; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		text, err := h.backend.Transcribe(ctx, payload, languageHint)
		if err == nil {
			text = strings.TrimSpace(text)
			if text == "" {
				return "", &Error{Strategy: StrategyHosted, Attempts: attempt, Err: ErrEmptyTranscript}
			}
			h.log.Infow("transcribed", "bytes", payload.Len(), "attempt", attempt, "duration", time.Since(start))
			return text, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			h.log.Errorw("terminal failure", "attempt", attempt, "error", err)
			break
		}
		if attempt == maxAttempts {
			break
		}

		delay := h.cfg.RetryDelay * time.Duration(attempt)
		h.log.Warnw("retryable failure", "attempt", attempt, "max", maxAttempts, "retry_in", delay, "error", err)
		if err := h.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	if attempt > maxAttempts {
		attempt = maxAttempts
	}
	return "", &Error{Strategy: StrategyHosted, Attempts: attempt, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewBackend returns the hosted backend named by cfg.Backend.
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case BackendOpenAI, "":
		return NewOpenAIBackend(cfg.Endpoint, cfg.APIKey, cfg.Model), nil
	case BackendInference:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("inference backend requires an endpoint")
		}
		return NewInferenceBackend(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported transcription backend: %s", cfg.Backend)
	}
}
