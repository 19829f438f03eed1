package config

import (
	"github.com/leonardotrapani/voicebridge/internal/capture"
	"github.com/leonardotrapani/voicebridge/internal/language"
	"github.com/leonardotrapani/voicebridge/internal/models/whisper"
	"github.com/leonardotrapani/voicebridge/internal/notify"
	"github.com/leonardotrapani/voicebridge/internal/pipeline"
	"github.com/leonardotrapani/voicebridge/internal/provider"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
	"github.com/leonardotrapani/voicebridge/internal/translate"
	"go.uber.org/zap"
)

func (c *Config) ToCaptureConfig() capture.Config {
	return capture.Config{
		Timeout:      c.Capture.Timeout,
		PollInterval: c.Capture.PollInterval,
		Selectors:    capture.DefaultSelectors(),
	}
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	config := transcriber.Config{
		Strategy:    c.Transcription.Strategy,
		Engine:      c.Transcription.Engine,
		Threads:     c.Transcription.Threads,
		GracePeriod: c.Transcription.GracePeriod,
		Backend:     c.Transcription.Backend,
		Endpoint:    c.Transcription.Endpoint,
		Model:       c.Transcription.Model,
		MaxRetries:  c.Transcription.MaxRetries,
		RetryDelay:  c.Transcription.RetryDelay,
		Timeout:     c.Transcription.Timeout,
	}

	if c.Transcription.Strategy == transcriber.StrategyLocal {
		config.ModelPath = whisper.GetModelPath(c.Transcription.Model)
	}

	config.APIKey = c.APIKey(provider.ForTranscriptionBackend(c.Transcription.Backend))

	return config
}

// ToTranslateConfig returns the translation config for the configured engine.
func (c *Config) ToTranslateConfig() translate.Config {
	return c.ToTranslateConfigFor(c.Translation.Engine)
}

// ToTranslateConfigFor returns the translation config with engine swapped in,
// resolving the matching provider key.
func (c *Config) ToTranslateConfigFor(engine string) translate.Config {
	config := translate.Config{
		Engine:           engine,
		Endpoint:         c.Translation.Endpoint,
		Model:            c.Translation.Model,
		FallbackEndpoint: c.Translation.FallbackEndpoint,
		Timeout:          c.Translation.Timeout,
	}
	config.APIKey = c.APIKey(provider.ForTranslationEngine(engine))
	if engine == translate.EngineOpenAI {
		// the translation service endpoint does not apply to the chat model
		config.Endpoint = ""
	}
	return config
}

// resolveSourceLanguage returns the source language for the pipeline.
// A fixed transcription.language overrides an auto translation source.
func (c *Config) resolveSourceLanguage() string {
	if language.IsAuto(c.Translation.SourceLanguage) && !language.IsAuto(c.Transcription.Language) {
		return language.Normalize(c.Transcription.Language)
	}
	return language.Normalize(c.Translation.SourceLanguage)
}

func (c *Config) ToSettings() pipeline.Settings {
	return pipeline.Settings{
		SourceLang: c.resolveSourceLanguage(),
		TargetLang: language.Normalize(c.Translation.TargetLanguage),
		Engine:     c.Translation.Engine,
	}
}

// SettingsChange returns the orchestrator update that moves prev to c. ok is
// false when nothing the orchestrator can change live differs.
func (c *Config) SettingsChange(prev *Config) (p pipeline.Partial, ok bool) {
	cur, old := c.ToSettings(), prev.ToSettings()
	if cur.SourceLang != old.SourceLang {
		p.SourceLang = &cur.SourceLang
		ok = true
	}
	if cur.TargetLang != old.TargetLang {
		p.TargetLang = &cur.TargetLang
		ok = true
	}
	if cur.Engine != old.Engine {
		p.Engine = &cur.Engine
		ok = true
	}
	return p, ok
}

// NeedsRestart reports whether a change touches components that are only
// built at startup.
func (c *Config) NeedsRestart(prev *Config) bool {
	if c.Transcription != prev.Transcription || c.Capture != prev.Capture {
		return true
	}
	if c.General.LogLevel != prev.General.LogLevel {
		return true
	}
	t, p := c.Translation, prev.Translation
	return t.Endpoint != p.Endpoint ||
		t.FallbackEndpoint != p.FallbackEndpoint ||
		t.Model != p.Model ||
		t.Timeout != p.Timeout
}

// ToNotifier builds the notifier for the notifications section.
func (c *Config) ToNotifier(log *zap.SugaredLogger) notify.Notifier {
	if !c.Notifications.Enabled {
		return notify.Nop{}
	}
	return notify.New(c.Notifications.Type, c.Notifications.Messages.Resolve(), log)
}
