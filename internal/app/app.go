// Package app assembles the voice message pipeline from a config: the host
// surface, interceptor, capture controller, downloader, transcription
// strategy and orchestrator.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/leonardotrapani/voicebridge/internal/capture"
	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/host"
	"github.com/leonardotrapani/voicebridge/internal/intercept"
	"github.com/leonardotrapani/voicebridge/internal/logging"
	"github.com/leonardotrapani/voicebridge/internal/pipeline"
	"github.com/leonardotrapani/voicebridge/internal/silent"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
	"github.com/leonardotrapani/voicebridge/internal/translate"
	"go.uber.org/zap"
)

// Origin is used to mint blob handles for staged messages.
const Origin = "https://voicebridge.local"

type App struct {
	Surface     *host.Memory
	Flag        *silent.Flag
	Interceptor *intercept.Interceptor
	Capture     *capture.Controller
	Downloader  *download.Downloader
	Strategy    transcriber.Strategy
	Pipeline    *pipeline.Orchestrator

	staged atomic.Int64
}

// New builds every component. current is consulted each time the
// orchestrator switches translation engine, so reloaded keys and endpoints
// apply; nil means cfg.
func New(cfg *config.Config, current func() *config.Config, log *zap.SugaredLogger) (*App, error) {
	log = logging.OrNop(log)
	if current == nil {
		current = func() *config.Config { return cfg }
	}

	a := &App{
		Surface: host.NewMemory(Origin),
		Flag:    &silent.Flag{},
	}

	strategy, err := transcriber.New(cfg.ToTranscriberConfig(), a.Flag, log)
	if err != nil {
		return nil, fmt.Errorf("build transcription strategy: %w", err)
	}
	a.Strategy = strategy

	a.Interceptor = intercept.New(a.Surface, a.Flag, log)
	a.Capture = capture.New(a.Surface, a.Interceptor, a.Flag, cfg.ToCaptureConfig(), log)
	fetcher := download.NewSchemeFetcher(a.Surface, cfg.Transcription.Timeout)
	a.Downloader = download.New(fetcher, log)

	a.Pipeline = pipeline.New(pipeline.Deps{
		Surface:     a.Surface,
		Flag:        a.Flag,
		Interceptor: a.Interceptor,
		Capture:     a.Capture,
		Downloader:  a.Downloader,
		Strategy:    a.Strategy,
		Engines:     Engines(current, log),
	}, cfg.ToSettings(), log)

	return a, nil
}

// Engines builds translators from whatever config current returns.
func Engines(current func() *config.Config, log *zap.SugaredLogger) pipeline.EngineFactory {
	return func(engine string) (*translate.Translator, error) {
		return translate.FromConfig(current().ToTranslateConfigFor(engine), log)
	}
}

// Stage puts data on the surface as a voice message: a region holding an
// empty media element and a play control that, like a chat page, mints a
// blob handle and assigns it when clicked.
func (a *App) Stage(data []byte) *host.Region {
	n := a.staged.Add(1)
	id := fmt.Sprintf("message-%d", n)

	el := host.NewElement(id + "-audio")
	el.SetForeground(true)
	a.Surface.Attach(el)

	region := host.NewRegion(id)
	region.AddElement(el)

	mime := mimetype.Detect(data).String()
	region.AddControl(host.NewControl("audio-play", "Play voice message", "audio-play", func() {
		handle := a.Surface.CreateObjectURL(data, mime)
		_ = a.Surface.Assign(el, host.MemberSrc, handle)
		_ = a.Surface.Play(el)
	}))
	return region
}

// StageFile reads path and stages it.
func (a *App) StageFile(path string) (*host.Region, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read voice message: %w", err)
	}
	return a.Stage(data), nil
}
