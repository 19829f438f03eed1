package main

import (
	"fmt"

	"github.com/leonardotrapani/voicebridge/internal/deps"
	"github.com/leonardotrapani/voicebridge/internal/pipeline"
	"github.com/leonardotrapani/voicebridge/internal/tui"
)

func renderResult(res *pipeline.Result) string {
	return tui.Box(
		tui.StyleHighlight.Render(fmt.Sprintf("%s -> %s", res.SourceLang, res.TargetLang))+" "+tui.StyleSubtle.Render("via "+res.Engine),
		"",
		tui.StyleMuted.Render(res.Original),
		"",
		tui.StyleLabel.Render(res.Translated),
	)
}

func renderStatus(st pipeline.Status) string {
	state := tui.StyleSuccess.Render("ready")
	switch {
	case st.Translating:
		state = tui.StyleHighlight.Render(string(st.Stage))
	case !st.Initialized:
		state = tui.StyleMuted.Render("idle (not initialized)")
	case !st.Available:
		state = tui.StyleWarning.Render("strategy unavailable")
	}

	return tui.Box(
		tui.KeyValue("State", state),
		tui.KeyValue("Strategy", st.Strategy),
		tui.KeyValue("Engine", st.Engine),
		tui.KeyValue("Languages", fmt.Sprintf("%s -> %s", st.SourceLang, st.TargetLang)),
		tui.KeyValue("Cached", fmt.Sprintf("%d", st.CacheSize)),
	)
}

func renderDep(s deps.Status) string {
	if !s.Installed {
		return fmt.Sprintf("%s %s %s", tui.StyleError.Render("[ ]"), s.Name, tui.StyleSubtle.Render("missing, needed for "+s.Needed))
	}
	line := fmt.Sprintf("%s %s %s", tui.StyleSuccess.Render("[x]"), s.Name, tui.StyleMuted.Render(s.Path))
	if s.Version != "" {
		line += " " + tui.StyleSubtle.Render(s.Version)
	}
	return line
}
