package tui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/leonardotrapani/voicebridge/internal/provider"
)

func editProviders(cfg *config.Config) error {
	for {
		var options []huh.Option[string]
		for _, name := range keyProviders() {
			options = append(options, huh.NewOption(formatProviderOption(cfg, name), name))
		}
		options = append(options, huh.NewOption("Done", ""))

		var selected string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("API keys").
					Description("Keys from the environment are used when none is saved here").
					Options(options...).
					Value(&selected),
			),
		).WithTheme(getTheme())
		if err := form.Run(); err != nil {
			return err
		}
		if selected == "" {
			return nil
		}
		if err := configureSingleProvider(cfg, selected); err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
	}
}

func formatProviderOption(cfg *config.Config, name string) string {
	label := getProviderDisplayName(name)
	if pc, ok := cfg.Providers[name]; ok && pc.APIKey != "" {
		return label + "  " + StyleSuccess.Render(maskAPIKey(pc.APIKey))
	}
	if cfg.APIKey(name) != "" {
		return label + "  " + StyleMuted.Render("from $"+provider.EnvVarForProvider(name))
	}
	return label + "  " + StyleSubtle.Render("not set")
}

func configureSingleProvider(cfg *config.Config, name string) error {
	key, err := inputAPIKey(name)
	if err != nil {
		return err
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}
	if key == "" {
		delete(cfg.Providers, name)
		return nil
	}
	cfg.Providers[name] = config.ProviderConfig{APIKey: key}
	return nil
}

func inputAPIKey(name string) (string, error) {
	p := provider.GetProvider(name)
	var key string

	desc := "Leave empty to remove the saved key"
	if env := provider.EnvVarForProvider(name); env != "" {
		desc += fmt.Sprintf(" (or set $%s)", env)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(getProviderDisplayName(name)+" API key").
				Description(desc).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" || p == nil || p.ValidateAPIKey(s) {
						return nil
					}
					return fmt.Errorf("that does not look like a %s key", getProviderDisplayName(name))
				}).
				Value(&key),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

func validateURL(s string, required bool) error {
	s = strings.TrimSpace(s)
	if s == "" {
		if required {
			return errors.New("endpoint is required")
		}
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}
