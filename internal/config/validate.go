package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/leonardotrapani/voicebridge/internal/language"
	"github.com/leonardotrapani/voicebridge/internal/models/whisper"
	"github.com/leonardotrapani/voicebridge/internal/provider"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
	"github.com/leonardotrapani/voicebridge/internal/translate"
)

var (
	validateOnce sync.Once
	structCheck  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		structCheck = validator.New()
		// report keys the way they appear in config.toml
		structCheck.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structCheck
}

func (c *Config) Validate() error {
	if err := validatorInstance().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return err
	}

	if !language.IsValidCode(c.Transcription.Language) {
		return fmt.Errorf("invalid transcription.language: %s (use auto or ISO-639-1 codes like 'en', 'es', 'fr')", c.Transcription.Language)
	}
	if !language.IsValidCode(c.Translation.SourceLanguage) {
		return fmt.Errorf("invalid translation.source_language: %s (use auto or ISO-639-1 codes like 'en', 'es', 'fr')", c.Translation.SourceLanguage)
	}
	if language.IsAuto(c.Translation.TargetLanguage) || !language.IsValidCode(c.Translation.TargetLanguage) {
		return fmt.Errorf("invalid translation.target_language: %s (must be an ISO-639-1 code, auto is not allowed)", c.Translation.TargetLanguage)
	}

	switch c.Transcription.Strategy {
	case transcriber.StrategyHosted:
		if err := c.validateHosted(); err != nil {
			return err
		}
	case transcriber.StrategyLocal:
		if whisper.GetModel(c.Transcription.Model) == nil {
			return fmt.Errorf("invalid model for whisper-cpp: %s (run voicebridge model list)", c.Transcription.Model)
		}
	}

	switch c.Translation.Engine {
	case translate.EngineOpenAI:
		if c.APIKey(provider.ProviderOpenAI) == "" {
			return fmt.Errorf("OpenAI API key required for translation: not found in config (providers.openai.api_key) or environment variable (OPENAI_API_KEY)")
		}
	default:
		if c.Translation.Endpoint == "" {
			return fmt.Errorf("invalid translation.endpoint: empty (required for engine %s)", c.Translation.Engine)
		}
	}

	return nil
}

func (c *Config) validateHosted() error {
	switch c.Transcription.Backend {
	case transcriber.BackendOpenAI, "":
		if c.APIKey(provider.ProviderOpenAI) == "" {
			return fmt.Errorf("OpenAI API key required: not found in config (providers.openai.api_key) or environment variable (OPENAI_API_KEY)")
		}
	case transcriber.BackendInference:
		if c.Transcription.Endpoint == "" {
			return fmt.Errorf("invalid transcription.endpoint: empty (required for the inference backend)")
		}
		if c.APIKey(provider.ProviderInference) == "" {
			return fmt.Errorf("inference API key required: not found in config (providers.inference.api_key) or environment variable (%s)", provider.EnvInferenceKey)
		}
	}
	return nil
}

// fieldError turns a validator failure into "invalid section.key: value".
func fieldError(fe validator.FieldError) error {
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += " " + fe.Param()
	}
	value := fmt.Sprint(fe.Value())
	if value == "" {
		value = "empty"
	}
	return fmt.Errorf("invalid %s: %s (must satisfy %s)", key, value, rule)
}
