package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/voicebridge/internal/config"
)

func editNotifications(cfg *config.Config) error {
	n := &cfg.Notifications
	typ := n.Type
	if !n.Enabled {
		typ = "none"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notifications").
				Description("How translations and failures are reported").
				Options(
					huh.NewOption("Desktop (notify-send)", "desktop"),
					huh.NewOption("Log only", "log"),
					huh.NewOption("None", "none"),
				).
				Value(&typ),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	n.Enabled = typ != "none"
	n.Type = typ
	return nil
}

func editCapture(cfg *config.Config) error {
	timeout := strconv.FormatFloat(cfg.Capture.Timeout.Seconds(), 'f', -1, 64)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Capture timeout (seconds)").
				Description("How long to wait for the player to load the audio").
				Validate(func(s string) error {
					_, err := parseSeconds(s)
					return err
				}).
				Value(&timeout),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	d, _ := parseSeconds(timeout)
	cfg.Capture.Timeout = d
	if cfg.Capture.PollInterval >= d {
		cfg.Capture.PollInterval = d / 10
	}
	return nil
}

func parseSeconds(s string) (time.Duration, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v > 120 {
		return 0, fmt.Errorf("enter a number of seconds between 0 and 120")
	}
	return time.Duration(v * float64(time.Second)), nil
}
