package config

import (
	"time"

	"github.com/leonardotrapani/voicebridge/internal/capture"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
	"github.com/leonardotrapani/voicebridge/internal/translate"
)

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	stt := transcriber.DefaultConfig()
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Capture: CaptureConfig{
			Timeout:      capture.DefaultTimeout,
			PollInterval: capture.DefaultPollInterval,
		},
		Transcription: TranscriptionConfig{
			Strategy:    stt.Strategy,
			Language:    "auto",
			Model:       stt.Model,
			Backend:     stt.Backend,
			MaxRetries:  stt.MaxRetries,
			RetryDelay:  stt.RetryDelay,
			Timeout:     stt.Timeout,
			Engine:      stt.Engine,
			GracePeriod: stt.GracePeriod,
		},
		Translation: TranslationConfig{
			Engine:           translate.EngineOpenAI,
			SourceLanguage:   "auto",
			TargetLanguage:   "en",
			FallbackEndpoint: translate.DefaultPublicEndpoint,
			Model:            "gpt-4o-mini",
			Timeout:          15 * time.Second,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Providers: make(map[string]ProviderConfig),
	}
}
