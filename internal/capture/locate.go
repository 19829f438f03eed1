package capture

import (
	"strings"

	"github.com/leonardotrapani/voicebridge/internal/host"
)

// Selectors configures how the trigger control is found inside a region.
type Selectors struct {
	TestIDs    []string
	AriaLabels []string
	Icons      []string
}

func DefaultSelectors() Selectors {
	return Selectors{
		TestIDs:    []string{"audio-play", "ptt-play", "voice-play"},
		AriaLabels: []string{"play voice message", "play audio", "play"},
		Icons:      []string{"audio-play", "ptt-play", "play"},
	}
}

type locator struct {
	name  string
	match func(c *host.Control) bool
}

// locators returns the strategies in priority order: test attribute, then
// ARIA label, then icon heuristic.
func (s Selectors) locators() []locator {
	return []locator{
		{name: "test-id", match: func(c *host.Control) bool {
			return anyEqualFold(c.TestID, s.TestIDs)
		}},
		{name: "aria-label", match: func(c *host.Control) bool {
			return anyContainsFold(c.AriaLabel, s.AriaLabels)
		}},
		{name: "icon", match: func(c *host.Control) bool {
			return anyContainsFold(c.Icon, s.Icons)
		}},
	}
}

// locate returns the first control matched by the highest priority strategy,
// and that strategy's name.
func (s Selectors) locate(r *host.Region) (*host.Control, string) {
	if r == nil {
		return nil, ""
	}
	controls := r.Controls()
	for _, l := range s.locators() {
		for _, c := range controls {
			if l.match(c) {
				return c, l.name
			}
		}
	}
	return nil, ""
}

func anyEqualFold(v string, candidates []string) bool {
	if v == "" {
		return false
	}
	for _, c := range candidates {
		if strings.EqualFold(v, c) {
			return true
		}
	}
	return false
}

func anyContainsFold(v string, candidates []string) bool {
	if v == "" {
		return false
	}
	v = strings.ToLower(v)
	for _, c := range candidates {
		if c != "" && strings.Contains(v, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
