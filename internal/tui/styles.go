package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// hints and descriptions
	StyleSubtle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Italic(true)

	StyleHighlight = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	StyleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(1, 2)
)

const logoASCII = `
             _          _          _     _
__   _____ (_) ___ ___| |__  _ __(_) __| | __ _  ___
\ \ / / _ \| |/ __/ _ \ '_ \| '__| |/ _' |/ _' |/ _ \
 \ V / (_) | | (_|  __/ |_) | |  | | (_| | (_| |  __/
  \_/ \___/|_|\___\___|_.__/|_|  |_|\__,_|\__, |\___|
                                          |___/`

// Logo returns the voicebridge ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}

// KeyValue renders one aligned "key: value" line.
func KeyValue(key, value string) string {
	return fmt.Sprintf("%s %s", StyleLabel.Width(14).Render(key+":"), value)
}

// Box renders lines inside a bordered box.
func Box(lines ...string) string {
	return StyleBox.Render(strings.Join(lines, "\n"))
}
