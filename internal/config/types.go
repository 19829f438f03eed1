package config

import (
	"reflect"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/notify"
)

type Config struct {
	General       GeneralConfig             `toml:"general"`
	Capture       CaptureConfig             `toml:"capture"`
	Transcription TranscriptionConfig       `toml:"transcription"`
	Translation   TranslationConfig         `toml:"translation"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Providers     map[string]ProviderConfig `toml:"providers"`

	// keys read from the environment; never written back by Save
	envKeys map[string]string
}

// Clone returns a copy that shares nothing mutable with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for k, v := range c.Providers {
		out.Providers[k] = v
	}
	return &out
}

type GeneralConfig struct {
	LogLevel string `toml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// ProviderConfig holds API key for a provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

type CaptureConfig struct {
	Timeout      time.Duration `toml:"timeout" validate:"gt=0"`
	PollInterval time.Duration `toml:"poll_interval" validate:"gt=0,ltfield=Timeout"`
}

type TranscriptionConfig struct {
	Strategy string `toml:"strategy" validate:"oneof=local hosted"`
	Language string `toml:"language"`
	Model    string `toml:"model" validate:"required"`

	// hosted
	Backend    string        `toml:"backend" validate:"omitempty,oneof=openai inference"`
	Endpoint   string        `toml:"endpoint" validate:"omitempty,url"`
	MaxRetries int           `toml:"max_retries" validate:"gte=0,lte=10"`
	RetryDelay time.Duration `toml:"retry_delay" validate:"gte=0"`
	Timeout    time.Duration `toml:"timeout" validate:"gt=0"`

	// local
	Engine      string        `toml:"engine" validate:"omitempty,oneof=whisper-cpp"`
	Threads     int           `toml:"threads" validate:"gte=0"` // 0 = auto: NumCPU-1
	GracePeriod time.Duration `toml:"grace_period" validate:"gte=0"`
}

type TranslationConfig struct {
	Engine           string        `toml:"engine" validate:"required"`
	SourceLanguage   string        `toml:"source_language"`
	TargetLanguage   string        `toml:"target_language" validate:"required"`
	Endpoint         string        `toml:"endpoint" validate:"omitempty,url"`
	FallbackEndpoint string        `toml:"fallback_endpoint" validate:"omitempty,url"`
	Model            string        `toml:"model"`
	Timeout          time.Duration `toml:"timeout" validate:"gt=0"`
}

type NotificationsConfig struct {
	Enabled  bool           `toml:"enabled"`
	Type     string         `toml:"type" validate:"omitempty,oneof=desktop log none"`
	Messages MessagesConfig `toml:"messages"`
}

type MessageConfig struct {
	Title string `toml:"title"`
	Body  string `toml:"body"`
}

type MessagesConfig struct {
	Translated          MessageConfig `toml:"translated"`
	Capturing           MessageConfig `toml:"capturing"`
	Transcribing        MessageConfig `toml:"transcribing"`
	ConfigReloaded      MessageConfig `toml:"config_reloaded"`
	Busy                MessageConfig `toml:"busy"`
	TriggerNotFound     MessageConfig `toml:"trigger_not_found"`
	CaptureTimeout      MessageConfig `toml:"capture_timeout"`
	TranscriptionFailed MessageConfig `toml:"transcription_failed"`
	TranslationFailed   MessageConfig `toml:"translation_failed"`
}

// Resolve merges user config with defaults from MessageDefs
func (m *MessagesConfig) Resolve() map[notify.MessageType]notify.Message {
	result := make(map[notify.MessageType]notify.Message)

	v := reflect.ValueOf(m).Elem()
	t := v.Type()
	tagToField := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		tagToField[t.Field(i).Tag.Get("toml")] = i
	}

	for _, def := range notify.MessageDefs {
		msg := notify.Message{
			Title:   def.DefaultTitle,
			Body:    def.DefaultBody,
			IsError: def.IsError,
		}
		if idx, ok := tagToField[def.ConfigKey]; ok {
			userMsg := v.Field(idx).Interface().(MessageConfig)
			if userMsg.Title != "" {
				msg.Title = userMsg.Title
			}
			if userMsg.Body != "" {
				msg.Body = userMsg.Body
			}
		}
		result[def.Type] = msg
	}
	return result
}
