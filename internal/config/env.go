package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/leonardotrapani/voicebridge/internal/provider"
)

// envOverlay lists the variables that override the config file.
type envOverlay struct {
	LogLevel       string        `env:"VOICEBRIDGE_LOG_LEVEL"`
	Strategy       string        `env:"VOICEBRIDGE_STRATEGY"`
	Backend        string        `env:"VOICEBRIDGE_STT_BACKEND"`
	STTEndpoint    string        `env:"VOICEBRIDGE_STT_ENDPOINT"`
	Engine         string        `env:"VOICEBRIDGE_ENGINE"`
	SourceLanguage string        `env:"VOICEBRIDGE_SOURCE_LANG"`
	TargetLanguage string        `env:"VOICEBRIDGE_TARGET_LANG"`
	TranslateURL   string        `env:"VOICEBRIDGE_TRANSLATE_ENDPOINT"`
	CaptureTimeout time.Duration `env:"VOICEBRIDGE_CAPTURE_TIMEOUT"`

	OpenAIKey    string `env:"OPENAI_API_KEY"`
	STTKey       string `env:"VOICEBRIDGE_STT_API_KEY"`
	TranslateKey string `env:"VOICEBRIDGE_TRANSLATE_API_KEY"`
}

// loadDotEnv loads .env from the config directory and the working
// directory. Variables already set in the environment win.
func loadDotEnv(configDir string) error {
	paths := []string{".env"}
	if configDir != "" {
		paths = append([]string{filepath.Join(configDir, ".env")}, paths...)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(configDir string) error {
	if err := loadDotEnv(configDir); err != nil {
		return err
	}

	var o envOverlay
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	setString(&c.General.LogLevel, o.LogLevel)
	setString(&c.Transcription.Strategy, o.Strategy)
	setString(&c.Transcription.Backend, o.Backend)
	setString(&c.Transcription.Endpoint, o.STTEndpoint)
	setString(&c.Translation.Engine, o.Engine)
	setString(&c.Translation.SourceLanguage, o.SourceLanguage)
	setString(&c.Translation.TargetLanguage, o.TargetLanguage)
	setString(&c.Translation.Endpoint, o.TranslateURL)
	if o.CaptureTimeout > 0 {
		c.Capture.Timeout = o.CaptureTimeout
	}

	c.envKeys = map[string]string{
		provider.ProviderOpenAI:    o.OpenAIKey,
		provider.ProviderInference: o.STTKey,
		provider.ProviderTranslate: o.TranslateKey,
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// APIKey returns the key for a provider. Keys from the file take precedence
// over the environment.
func (c *Config) APIKey(name string) string {
	if pc, ok := c.Providers[name]; ok && pc.APIKey != "" {
		return pc.APIKey
	}
	return c.envKeys[name]
}
