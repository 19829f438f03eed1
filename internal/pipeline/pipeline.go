// Package pipeline is the public entry point for voice message translation:
// capture the resource handle, download it, transcribe it under silent mode
// and translate the transcript.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/capture"
	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/host"
	"github.com/leonardotrapani/voicebridge/internal/intercept"
	"github.com/leonardotrapani/voicebridge/internal/language"
	"github.com/leonardotrapani/voicebridge/internal/logging"
	"github.com/leonardotrapani/voicebridge/internal/silent"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
	"github.com/leonardotrapani/voicebridge/internal/translate"
	"go.uber.org/zap"
)

var ErrBusy = errors.New("voice translation already in progress")

type Stage string

const (
	Idle         Stage = "idle"
	Capturing    Stage = "capturing"
	Downloading  Stage = "downloading"
	Transcribing Stage = "transcribing"
	Translating  Stage = "translating"
)

// Result is the outcome of one successful call. It is never modified after
// it is returned.
type Result struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	Engine     string `json:"engine"`
}

// Options are per call.
type Options struct {
	// Trigger is a pre-resolved play control for the capture cycle.
	Trigger *host.Control
	// Handle skips capture entirely: a blob handle, URL or file path.
	Handle string
	// CaptureTimeout overrides the configured capture timeout.
	CaptureTimeout time.Duration
}

// Settings is the live-reconfigurable part of the orchestrator.
type Settings struct {
	SourceLang string
	TargetLang string
	Engine     string
}

// Partial updates Settings; nil fields are left alone.
type Partial struct {
	SourceLang *string
	TargetLang *string
	Engine     *string
}

type Status struct {
	Initialized bool   `json:"initialized"`
	Available   bool   `json:"available"`
	Translating bool   `json:"translating"`
	Stage       Stage  `json:"stage"`
	CacheSize   int    `json:"cacheSize"`
	Strategy    string `json:"strategy"`
	Engine      string `json:"engine"`
	SourceLang  string `json:"sourceLang"`
	TargetLang  string `json:"targetLang"`
}

// EngineFactory builds a translator for the named primary engine.
type EngineFactory func(engine string) (*translate.Translator, error)

type Deps struct {
	// Surface is swept after every call so no element is left suppressed.
	Surface     host.Surface
	Flag        *silent.Flag
	Interceptor *intercept.Interceptor
	Capture     *capture.Controller
	Downloader  *download.Downloader
	Strategy    transcriber.Strategy
	Engines     EngineFactory
}

type Orchestrator struct {
	deps Deps
	log  *zap.SugaredLogger

	translating atomic.Bool
	stage       atomic.Value // Stage

	mu          sync.Mutex
	initialized bool
	settings    Settings
	translator  *translate.Translator
}

func New(deps Deps, settings Settings, log *zap.SugaredLogger) *Orchestrator {
	if deps.Flag == nil {
		deps.Flag = &silent.Flag{}
	}
	o := &Orchestrator{
		deps:     deps,
		settings: settings,
		log:      logging.OrNop(log).Named(logging.ComponentPipeline),
	}
	o.stage.Store(Idle)
	return o
}

// Init installs the interceptor and builds the translator. Calling it again
// is a no-op.
func (o *Orchestrator) Init() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return nil
	}

	if o.deps.Engines != nil {
		tr, err := o.deps.Engines(o.settings.Engine)
		if err != nil {
			return fmt.Errorf("build translator %s: %w", o.settings.Engine, err)
		}
		o.translator = tr
	}
	if o.deps.Interceptor != nil {
		o.deps.Interceptor.Install()
	}
	o.initialized = true
	o.log.Infow("initialized", "strategy", o.strategyName(), "engine", o.settings.Engine,
		"source", o.settings.SourceLang, "target", o.settings.TargetLang)
	return nil
}

// TranslateVoiceMessage runs the whole sequence for the voice message shown in
// region. A call made while another is running fails with ErrBusy.
func (o *Orchestrator) TranslateVoiceMessage(ctx context.Context, region *host.Region, opts Options) (*Result, error) {
	if !o.translating.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer func() {
		o.stopPlayback(region)
		o.setStage(Idle)
		o.translating.Store(false)
	}()

	if err := o.Init(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	settings := o.settings
	tr := o.translator
	o.mu.Unlock()

	start := time.Now()
	handle, err := o.resolveHandle(ctx, region, opts)
	if err != nil {
		return nil, err
	}

	o.setStage(Downloading)
	if o.deps.Downloader == nil {
		return nil, &download.Error{Handle: handle, Err: errors.New("no downloader configured")}
	}
	payload, err := o.deps.Downloader.Fetch(ctx, handle)
	if err != nil {
		return nil, err
	}

	text, err := o.transcribe(ctx, payload, settings.SourceLang)
	if err != nil {
		return nil, err
	}

	o.setStage(Translating)
	if tr == nil {
		return nil, &translate.ServiceError{Engine: settings.Engine, Primary: errors.New("no translator configured")}
	}
	res, err := tr.Translate(ctx, translate.Request{
		Text:       text,
		SourceLang: settings.SourceLang,
		TargetLang: settings.TargetLang,
	})
	if err != nil {
		return nil, err
	}

	source := settings.SourceLang
	if language.IsAuto(source) && res.DetectedLanguage != "" {
		source = language.Normalize(res.DetectedLanguage)
	}

	result := &Result{
		Original:   text,
		Translated: res.Text,
		SourceLang: source,
		TargetLang: settings.TargetLang,
		Engine:     res.Engine,
	}
	o.log.Infow("voice message translated", "engine", result.Engine, "source", result.SourceLang,
		"target", result.TargetLang, "duration", time.Since(start))
	return result, nil
}

// resolveHandle takes the fast path when the handle is already known, and
// runs a capture cycle otherwise.
func (o *Orchestrator) resolveHandle(ctx context.Context, region *host.Region, opts Options) (string, error) {
	if opts.Handle != "" {
		o.log.Debugw("using supplied handle", "handle", opts.Handle)
		return opts.Handle, nil
	}
	if h := loadedHandle(region); h != "" {
		o.log.Debugw("region already exposes a resource handle", "handle", h)
		return h, nil
	}
	if o.deps.Capture == nil {
		return "", fmt.Errorf("no capture controller: %w", capture.ErrTriggerNotFound)
	}

	o.setStage(Capturing)
	h, err := o.deps.Capture.Capture(ctx, region, capture.Options{Trigger: opts.Trigger, Timeout: opts.CaptureTimeout})
	if err != nil {
		return "", err
	}
	return h.ID, nil
}

// transcribe holds silent mode for the whole recognition phase.
func (o *Orchestrator) transcribe(ctx context.Context, payload *download.Payload, source string) (string, error) {
	o.setStage(Transcribing)
	if o.deps.Strategy == nil {
		return "", &transcriber.Error{Strategy: "none", Err: errors.New("no transcription strategy configured")}
	}

	release := o.deps.Flag.Acquire()
	defer release()

	text, err := o.deps.Strategy.TranscribeFromBlob(ctx, payload, source)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &transcriber.Error{Strategy: o.deps.Strategy.Name(), Err: transcriber.ErrEmptyTranscript}
	}
	return text, nil
}

func loadedHandle(region *host.Region) string {
	if region == nil {
		return ""
	}
	for _, el := range region.Elements() {
		if src := el.Src(); intercept.IsResourceHandle(src) {
			return src
		}
	}
	return ""
}

// stopPlayback pauses anything still playing in the region and undoes any
// suppression left on the region or anywhere else in the document. It runs
// after silent mode has been released.
func (o *Orchestrator) stopPlayback(region *host.Region) {
	var els []*host.Element
	if region != nil {
		for _, el := range region.Elements() {
			if !el.Paused() {
				el.Pause()
			}
		}
		els = region.Elements()
	}
	if o.deps.Surface != nil {
		els = append(els, o.deps.Surface.Elements()...)
	}
	if n := intercept.RestoreAll(els); n > 0 {
		o.log.Debugw("restored elements", "count", n)
	}
}

// UpdateConfig applies p to the next call. A call already running keeps the
// settings it started with.
func (o *Orchestrator) UpdateConfig(p Partial) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	next := o.settings
	if p.SourceLang != nil {
		next.SourceLang = *p.SourceLang
	}
	if p.TargetLang != nil {
		next.TargetLang = *p.TargetLang
	}
	if p.Engine != nil {
		next.Engine = *p.Engine
	}

	if next.Engine != o.settings.Engine && o.initialized && o.deps.Engines != nil {
		tr, err := o.deps.Engines(next.Engine)
		if err != nil {
			return fmt.Errorf("switch engine to %s: %w", next.Engine, err)
		}
		o.translator = tr
	}

	o.settings = next
	o.log.Infow("config updated", "engine", next.Engine, "source", next.SourceLang, "target", next.TargetLang)
	return nil
}

func (o *Orchestrator) Settings() Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Status{
		Initialized: o.initialized,
		Translating: o.translating.Load(),
		Stage:       o.stage.Load().(Stage),
		Strategy:    o.strategyName(),
		Engine:      o.settings.Engine,
		SourceLang:  o.settings.SourceLang,
		TargetLang:  o.settings.TargetLang,
	}
	if o.deps.Strategy != nil {
		s.Available = o.initialized && o.deps.Strategy.IsSupported()
	}
	if o.deps.Downloader != nil {
		s.CacheSize = o.deps.Downloader.CacheSize()
	}
	return s
}

// Cleanup uninstalls the interceptor and clears the download cache.
func (o *Orchestrator) Cleanup() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.deps.Interceptor != nil {
		o.deps.Interceptor.Uninstall()
	}
	n := 0
	if o.deps.Downloader != nil {
		n = o.deps.Downloader.ClearCache()
	}
	o.initialized = false
	o.translator = nil
	o.log.Infow("cleaned up", "cache_entries", n)
}

// ClearCache drops downloaded payloads without tearing anything else down.
func (o *Orchestrator) ClearCache() int {
	if o.deps.Downloader == nil {
		return 0
	}
	return o.deps.Downloader.ClearCache()
}

func (o *Orchestrator) setStage(s Stage) {
	o.stage.Store(s)
}

func (o *Orchestrator) strategyName() string {
	if o.deps.Strategy == nil {
		return ""
	}
	return o.deps.Strategy.Name()
}
