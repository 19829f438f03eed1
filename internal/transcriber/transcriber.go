// Package transcriber turns an audio payload into text. Two strategies are
// available: Local replays the payload through an in-process recognizer under
// silent mode, Hosted posts it to an inference endpoint with bounded retry.
package transcriber

import (
	"context"
	"fmt"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/silent"
	"go.uber.org/zap"
)

const (
	StrategyLocal  = "local"
	StrategyHosted = "hosted"
)

// Strategy is the common transcription contract.
type Strategy interface {
	Name() string
	IsSupported() bool
	TranscribeFromBlob(ctx context.Context, payload *download.Payload, languageHint string) (string, error)
}

// Config selects and configures a strategy.
type Config struct {
	Strategy string // "local" or "hosted"

	// local
	Engine      string // recognizer engine, "whisper-cpp"
	ModelPath   string
	Threads     int
	GracePeriod time.Duration

	// hosted; Timeout also bounds the local recognizer
	Backend    string // "inference" or "openai"
	Endpoint   string
	APIKey     string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Strategy:    StrategyHosted,
		Engine:      EngineWhisperCpp,
		GracePeriod: 500 * time.Millisecond,
		Backend:     BackendOpenAI,
		Model:       "whisper-1",
		MaxRetries:  2,
		RetryDelay:  time.Second,
		Timeout:     60 * time.Second,
	}
}

// New builds the strategy named by cfg.Strategy.
func New(cfg Config, flag *silent.Flag, log *zap.SugaredLogger) (Strategy, error) {
	switch cfg.Strategy {
	case StrategyLocal:
		rec, err := NewRecognizer(cfg)
		if err != nil {
			return nil, err
		}
		return NewLocal(rec, flag, LocalConfig{Grace: cfg.GracePeriod, Timeout: cfg.Timeout}, log), nil
	case StrategyHosted, "":
		backend, err := NewBackend(cfg)
		if err != nil {
			return nil, err
		}
		return NewHosted(backend, HostedConfig{
			APIKey:     cfg.APIKey,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		}, log), nil
	default:
		return nil, fmt.Errorf("unsupported transcription strategy: %s", cfg.Strategy)
	}
}
