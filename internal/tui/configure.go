// Package tui is the interactive configure flow built on huh forms.
package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/muesli/termenv"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// ConfigSection represents a configuration section
type ConfigSection string

const (
	SectionProviders     ConfigSection = "providers"
	SectionTranscription ConfigSection = "transcription"
	SectionTranslation   ConfigSection = "translation"
	SectionNotifications ConfigSection = "notifications"
	SectionCapture       ConfigSection = "capture"
	SectionSaveExit      ConfigSection = "save_exit"
	SectionDiscardExit   ConfigSection = "discard_exit"
)

// Run starts the configure flow on a copy of existing. With onboarding, or
// when existing carries no user changes, every section is walked in order.
func Run(existing *config.Config, onboarding bool) (*ConfigureResult, error) {
	if existing == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := existing.Clone()

	if onboarding || !hasUserChanges(cfg) {
		return runOnboarding(cfg)
	}
	return runEditExisting(cfg)
}

// hasUserChanges detects if config has user modifications
func hasUserChanges(cfg *config.Config) bool {
	for _, pc := range cfg.Providers {
		if pc.APIKey != "" {
			return true
		}
	}
	d := config.DefaultConfig()
	d.Transcription.Threads = cfg.Transcription.Threads
	return cfg.Transcription != d.Transcription || cfg.Translation != d.Translation
}

func runOnboarding(cfg *config.Config) (*ConfigureResult, error) {
	clearScreen()
	fmt.Println(Logo())
	fmt.Println(StyleMuted.Render("Let's set up voice message translation."))
	fmt.Println()

	steps := []func(*config.Config) error{
		editTranscription,
		editTranslation,
		editProviders,
		editNotifications,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return &ConfigureResult{Cancelled: true}, nil
			}
			return nil, err
		}
	}

	confirmed, err := showSummary(cfg)
	if err != nil || !confirmed {
		return &ConfigureResult{Cancelled: true}, nil
	}
	return &ConfigureResult{Config: cfg}, nil
}

// runEditExisting runs the menu-based edit flow for existing configs
func runEditExisting(cfg *config.Config) (*ConfigureResult, error) {
	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		var editErr error
		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: cfg}, nil
			}
		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil
		case SectionProviders:
			editErr = editProviders(cfg)
		case SectionTranscription:
			editErr = editTranscription(cfg)
		case SectionTranslation:
			editErr = editTranslation(cfg)
		case SectionNotifications:
			editErr = editNotifications(cfg)
		case SectionCapture:
			editErr = editCapture(cfg)
		}
		if editErr != nil && !errors.Is(editErr, huh.ErrUserAborted) {
			return nil, editErr
		}
	}
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	var section ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("What would you like to configure?").
				Options(
					huh.NewOption("Transcription  "+StyleMuted.Render(formatTranscriptionLabel(cfg)), SectionTranscription),
					huh.NewOption("Translation    "+StyleMuted.Render(formatTranslationLabel(cfg)), SectionTranslation),
					huh.NewOption("Providers      "+StyleMuted.Render(formatProvidersLabel(cfg)), SectionProviders),
					huh.NewOption("Notifications  "+StyleMuted.Render(formatNotificationsLabel(cfg)), SectionNotifications),
					huh.NewOption("Capture        "+StyleMuted.Render(formatCaptureLabel(cfg)), SectionCapture),
					huh.NewOption("Save and exit", SectionSaveExit),
					huh.NewOption("Discard changes", SectionDiscardExit),
				).
				Value(&section),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return section, nil
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(Box(summaryLines(cfg)...))
	if err := cfg.Validate(); err != nil {
		fmt.Println(StyleError.Render("Config is not valid yet: ") + err.Error())
	}

	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Back").
				Value(&confirmed),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
