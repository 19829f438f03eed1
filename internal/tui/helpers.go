package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/leonardotrapani/voicebridge/internal/language"
	"github.com/leonardotrapani/voicebridge/internal/models/whisper"
	"github.com/leonardotrapani/voicebridge/internal/provider"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
)

// providerDisplayNames maps provider IDs to human-readable names.
var providerDisplayNames = map[string]string{
	provider.ProviderOpenAI:     "OpenAI",
	provider.ProviderInference:  "Inference backend",
	provider.ProviderTranslate:  "Translation service",
	provider.ProviderWhisperCpp: "Whisper.cpp (local)",
}

func getProviderDisplayName(name string) string {
	if n, ok := providerDisplayNames[name]; ok {
		return n
	}
	return name
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-4:]
}

// keyProviders lists providers that take an API key, sorted.
func keyProviders() []string {
	var out []string
	for _, name := range provider.ListProviders() {
		if p := provider.GetProvider(name); p != nil && !p.IsLocal() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func getConfiguredProviders(cfg *config.Config) []string {
	providers := make([]string, 0, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			providers = append(providers, name)
		}
	}
	sort.Strings(providers)
	return providers
}

func formatProvidersLabel(cfg *config.Config) string {
	configured := getConfiguredProviders(cfg)
	if len(configured) == 0 {
		return "none configured"
	}
	return strings.Join(configured, ", ")
}

func formatTranscriptionLabel(cfg *config.Config) string {
	t := cfg.Transcription
	if t.Strategy == transcriber.StrategyLocal {
		return fmt.Sprintf("local, %s", t.Model)
	}
	return fmt.Sprintf("hosted, %s/%s", t.Backend, t.Model)
}

func formatTranslationLabel(cfg *config.Config) string {
	t := cfg.Translation
	return fmt.Sprintf("%s, %s -> %s", t.Engine, languageLabel(t.SourceLanguage), languageLabel(t.TargetLanguage))
}

func formatNotificationsLabel(cfg *config.Config) string {
	if !cfg.Notifications.Enabled {
		return "off"
	}
	return cfg.Notifications.Type
}

func formatCaptureLabel(cfg *config.Config) string {
	return fmt.Sprintf("timeout %s", cfg.Capture.Timeout)
}

func languageLabel(code string) string {
	if language.IsAuto(code) {
		return language.Auto.Name
	}
	if l := language.FromCode(code); l.Name != "" {
		return l.Name
	}
	return code
}

// languageOptions returns language choices, auto-detect first when allowed.
func languageOptions(current string, allowAuto bool) []huh.Option[string] {
	var options []huh.Option[string]
	if allowAuto {
		label := "Auto-detect"
		if language.IsAuto(current) {
			label += " (current)"
		}
		options = append(options, huh.NewOption(label, language.AutoCode))
	}
	for _, l := range language.List() {
		label := fmt.Sprintf("%s (%s)", l.Name, l.Code)
		if l.Code == current {
			label += " (current)"
		}
		options = append(options, huh.NewOption(label, l.Code))
	}
	return options
}

// transcriptionModelOptions lists models for a hosted backend, or the
// whisper models when local is set. Installed local models are marked.
func transcriptionModelOptions(local bool, backend string) []huh.Option[string] {
	name := provider.ForTranscriptionBackend(backend)
	if local {
		name = provider.ProviderWhisperCpp
	}
	p := provider.GetProvider(name)
	if p == nil {
		return nil
	}

	var options []huh.Option[string]
	for _, m := range provider.ModelsOfType(p, provider.Transcription) {
		label := m.ID
		if m.Local {
			mark := "[ ]"
			if whisper.IsInstalled(m.ID) {
				mark = "[x]"
			}
			label = mark + " " + label
		}
		if m.Description != "" {
			label += " - " + m.Description
		}
		options = append(options, huh.NewOption(label, m.ID))
	}
	return options
}

// translationEngineOptions lists every translation engine across providers.
func translationEngineOptions() []huh.Option[string] {
	var options []huh.Option[string]
	for _, name := range provider.ListProvidersFor(provider.Translation) {
		p := provider.GetProvider(name)
		if name == provider.ProviderOpenAI {
			options = append(options, huh.NewOption("OpenAI - chat model translation", provider.ProviderOpenAI))
			continue
		}
		for _, m := range provider.ModelsOfType(p, provider.Translation) {
			options = append(options, huh.NewOption(m.Name+" - "+m.Description, m.ID))
		}
	}
	return options
}

func summaryLines(cfg *config.Config) []string {
	lines := []string{
		StyleHighlight.Render("Summary"),
		KeyValue("Transcription", formatTranscriptionLabel(cfg)),
		KeyValue("Translation", formatTranslationLabel(cfg)),
		KeyValue("Providers", formatProvidersLabel(cfg)),
		KeyValue("Notifications", formatNotificationsLabel(cfg)),
		KeyValue("Capture", formatCaptureLabel(cfg)),
	}
	if cfg.Translation.Endpoint != "" {
		lines = append(lines, KeyValue("Service", cfg.Translation.Endpoint))
	}
	return lines
}
