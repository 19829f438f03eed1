package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/leonardotrapani/voicebridge/internal/deps"
	"github.com/leonardotrapani/voicebridge/internal/models/whisper"
	"github.com/leonardotrapani/voicebridge/internal/provider"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
)

func editTranscription(cfg *config.Config) error {
	t := &cfg.Transcription

	strategy := t.Strategy
	strategyOptions := []huh.Option[string]{
		huh.NewOption("Hosted - send audio to a speech-to-text API", transcriber.StrategyHosted),
	}
	if deps.CheckWhisperCli().Installed {
		strategyOptions = append(strategyOptions,
			huh.NewOption("Local - replay silently into whisper.cpp", transcriber.StrategyLocal))
	} else {
		fmt.Println(StyleSubtle.Render("whisper-cli was not found in PATH, local transcription is unavailable."))
		strategy = transcriber.StrategyHosted
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription strategy").
				Options(strategyOptions...).
				Value(&strategy),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	if strategy != t.Strategy {
		t.Model = ""
	}
	t.Strategy = strategy

	if strategy == transcriber.StrategyHosted {
		if err := editHostedBackend(cfg); err != nil {
			return err
		}
	}

	local := strategy == transcriber.StrategyLocal
	model := t.Model
	if model == "" {
		model = defaultTranscriptionModel(local, t.Backend)
	}
	lang := t.Language
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Options(transcriptionModelOptions(local, t.Backend)...).
				Value(&model),
			huh.NewSelect[string]().
				Title("Spoken language").
				Description("Hint passed to the recognizer").
				Options(languageOptions(lang, true)...).
				Filtering(true).
				Value(&lang),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	t.Model = model
	t.Language = lang

	if local && !whisper.IsInstalled(model) {
		fmt.Println(StyleWarning.Render(fmt.Sprintf("Model %s is not installed. Run: voicebridge model download %s", model, model)))
	}
	return nil
}

func editHostedBackend(cfg *config.Config) error {
	t := &cfg.Transcription
	backend := t.Backend
	if backend == "" {
		backend = transcriber.BackendOpenAI
	}
	endpoint := t.Endpoint

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Speech-to-text backend").
				Options(
					huh.NewOption("OpenAI audio transcriptions", transcriber.BackendOpenAI),
					huh.NewOption("Inference backend (JSON)", transcriber.BackendInference),
				).
				Value(&backend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Endpoint").
				Description("Leave empty for the OpenAI default").
				Value(&endpoint),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	if backend != t.Backend {
		t.Model = ""
	}
	t.Backend = backend
	t.Endpoint = endpoint

	name := provider.ForTranscriptionBackend(backend)
	if cfg.APIKey(name) == "" {
		return configureSingleProvider(cfg, name)
	}
	return nil
}

func defaultTranscriptionModel(local bool, backend string) string {
	name := provider.ForTranscriptionBackend(backend)
	if local {
		name = provider.ProviderWhisperCpp
	}
	if p := provider.GetProvider(name); p != nil {
		return p.DefaultModel(provider.Transcription)
	}
	return ""
}
