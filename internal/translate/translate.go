// Package translate sends transcripts to a primary translation engine and
// falls back to a public endpoint when it fails.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/logging"
	"go.uber.org/zap"
)

const EngineOpenAI = "openai"

type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	Options    map[string]string
}

type Result struct {
	Text             string
	DetectedLanguage string
	Engine           string
}

// Engine is one translation backend.
type Engine interface {
	Name() string
	Translate(ctx context.Context, req Request) (Result, error)
}

// ServiceError is returned once the primary engine and the fallback have both
// failed.
type ServiceError struct {
	Engine   string
	Primary  error
	Fallback error
}

func (e *ServiceError) Error() string {
	if e.Fallback == nil {
		return fmt.Sprintf("translation via %s failed: %v", e.Engine, e.Primary)
	}
	return fmt.Sprintf("translation via %s failed: %v; fallback failed: %v", e.Engine, e.Primary, e.Fallback)
}

func (e *ServiceError) Unwrap() []error {
	var errs []error
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

var ErrEmptyTranslation = errors.New("empty translation")

type Config struct {
	Engine           string
	Endpoint         string
	APIKey           string
	Model            string
	FallbackEndpoint string
	Timeout          time.Duration
}

// NewEngine builds the primary engine named by cfg.Engine. "openai" uses a
// chat model; every other name is forwarded to the translation service.
func NewEngine(cfg Config) (Engine, error) {
	switch cfg.Engine {
	case EngineOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAIEngine(cfg.Endpoint, cfg.APIKey, cfg.Model), nil
	case "":
		return nil, fmt.Errorf("translation engine not set")
	default:
		return NewServiceEngine(cfg.Engine, cfg.Endpoint, cfg.APIKey, cfg.Timeout), nil
	}
}

// Translator pairs a primary engine with the public fallback.
type Translator struct {
	primary  Engine
	fallback Engine
	log      *zap.SugaredLogger
}

// New returns a Translator. Either engine may be nil.
func New(primary, fallback Engine, log *zap.SugaredLogger) *Translator {
	return &Translator{
		primary:  primary,
		fallback: fallback,
		log:      logging.OrNop(log).Named(logging.ComponentTranslate),
	}
}

// FromConfig builds the primary engine and the public fallback from cfg.
func FromConfig(cfg Config, log *zap.SugaredLogger) (*Translator, error) {
	primary, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	var fallback Engine
	if cfg.FallbackEndpoint != "" {
		fallback = NewPublicEndpoint(cfg.FallbackEndpoint, cfg.Timeout)
	}
	return New(primary, fallback, log), nil
}

func (t *Translator) EngineName() string {
	if t.primary == nil {
		return ""
	}
	return t.primary.Name()
}

func (t *Translator) Translate(ctx context.Context, req Request) (Result, error) {
	engine := t.EngineName()

	primaryErr := errors.New("no primary engine configured")
	if t.primary != nil {
		start := time.Now()
		res, err := t.primary.Translate(ctx, req)
		if err == nil && strings.TrimSpace(res.Text) == "" {
			err = ErrEmptyTranslation
		}
		if err == nil {
			res.Engine = engine
			t.log.Infow("translated", "engine", engine, "source", req.SourceLang, "target", req.TargetLang, "duration", time.Since(start))
			return res, nil
		}
		primaryErr = err
	}

	if t.fallback == nil {
		t.log.Errorw("translation failed", "engine", engine, "error", primaryErr)
		return Result{}, &ServiceError{Engine: engine, Primary: primaryErr}
	}

	t.log.Warnw("primary engine failed, using fallback", "engine", engine, "error", primaryErr)
	res, err := t.fallback.Translate(ctx, req)
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = ErrEmptyTranslation
	}
	if err != nil {
		t.log.Errorw("fallback failed", "error", err)
		return Result{}, &ServiceError{Engine: engine, Primary: primaryErr, Fallback: err}
	}
	res.Engine = t.fallback.Name()
	return res, nil
}
