package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/leonardotrapani/voicebridge/internal/language"
	"github.com/leonardotrapani/voicebridge/internal/provider"
	"github.com/leonardotrapani/voicebridge/internal/translate"
)

func editTranslation(cfg *config.Config) error {
	t := &cfg.Translation

	engine := t.Engine
	source := t.SourceLanguage
	target := t.TargetLanguage
	if language.IsAuto(target) {
		target = ""
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Translation engine").
				Options(translationEngineOptions()...).
				Value(&engine),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Source language").
				Description("Language of incoming voice messages").
				Options(languageOptions(source, true)...).
				Filtering(true).
				Value(&source),
			huh.NewSelect[string]().
				Title("Target language").
				Description("Language to translate into").
				Options(languageOptions(target, false)...).
				Filtering(true).
				Value(&target),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	t.Engine = engine
	t.SourceLanguage = source
	t.TargetLanguage = target

	if engine == translate.EngineOpenAI {
		if err := selectTranslationModel(cfg); err != nil {
			return err
		}
		if cfg.APIKey(provider.ProviderOpenAI) == "" {
			return configureSingleProvider(cfg, provider.ProviderOpenAI)
		}
		return nil
	}
	return editServiceEndpoints(cfg)
}

func selectTranslationModel(cfg *config.Config) error {
	p := provider.GetProvider(provider.ProviderOpenAI)
	var options []huh.Option[string]
	for _, m := range provider.ModelsOfType(p, provider.Translation) {
		options = append(options, huh.NewOption(m.Name+" - "+m.Description, m.ID))
	}

	model := cfg.Translation.Model
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Chat model").
				Options(options...).
				Value(&model),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Translation.Model = model
	return nil
}

func editServiceEndpoints(cfg *config.Config) error {
	endpoint := cfg.Translation.Endpoint
	fallback := cfg.Translation.FallbackEndpoint

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Translation service endpoint").
				Placeholder("https://translate.example.com/api/translate").
				Validate(func(s string) error {
					return validateURL(s, true)
				}).
				Value(&endpoint),
			huh.NewInput().
				Title("Public fallback endpoint").
				Description("Used when the service fails; empty disables it").
				Validate(func(s string) error {
					return validateURL(s, false)
				}).
				Value(&fallback),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Translation.Endpoint = endpoint
	cfg.Translation.FallbackEndpoint = fallback
	return nil
}
