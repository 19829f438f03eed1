// Package capture runs one silent trigger cycle: pause ambient audio, suppress
// output, click the page's play control, wait for the resource handle it
// produces and put everything back.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leonardotrapani/voicebridge/internal/host"
	"github.com/leonardotrapani/voicebridge/internal/intercept"
	"github.com/leonardotrapani/voicebridge/internal/logging"
	"github.com/leonardotrapani/voicebridge/internal/silent"
	"go.uber.org/zap"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

var (
	ErrInProgress      = errors.New("capture already in progress")
	ErrTriggerNotFound = errors.New("trigger control not found")
	ErrTimeout         = errors.New("timed out waiting for resource handle")
)

// Handle is the resource handle captured by one cycle.
type Handle struct {
	ID        string
	Element   *host.Element
	Timestamp time.Time
}

type Config struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Selectors    Selectors
}

// Options are per call.
type Options struct {
	// Trigger skips the locator strategies when set.
	Trigger *host.Control
	// Timeout overrides Config.Timeout when positive.
	Timeout time.Duration
}

type Controller struct {
	surface     host.Surface
	interceptor *intercept.Interceptor
	flag        *silent.Flag
	cfg         Config
	log         *zap.SugaredLogger

	mu       sync.Mutex
	state    State
	onChange func(State)
}

func New(surface host.Surface, interceptor *intercept.Interceptor, flag *silent.Flag, cfg Config, log *zap.SugaredLogger) *Controller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Selectors.TestIDs == nil && cfg.Selectors.AriaLabels == nil && cfg.Selectors.Icons == nil {
		cfg.Selectors = DefaultSelectors()
	}
	return &Controller{
		surface:     surface,
		interceptor: interceptor,
		flag:        flag,
		cfg:         cfg,
		log:         logging.OrNop(log).Named(logging.ComponentCapture),
	}
}

// OnStateChange registers fn to be called on every transition. Used by tests
// and the daemon's debug output.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	fn := c.onChange
	c.mu.Unlock()
	c.log.Debugw("state", "state", s.String())
	if fn != nil {
		fn(s)
	}
}

// Capture runs one cycle against region. Whatever the outcome, silent mode is
// released, suppressed elements are restored and ambient audio resumes before
// it returns.
func (c *Controller) Capture(ctx context.Context, region *host.Region, opts Options) (*Handle, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrInProgress
	}
	// claim the controller before anything observable happens
	c.state = StateSnapshottingAmbient
	c.mu.Unlock()

	cycle := uuid.NewString()[:8]
	log := c.log.With("cycle", cycle)

	trigger, strategy := opts.Trigger, "pre-resolved"
	if trigger == nil {
		trigger, strategy = c.cfg.Selectors.locate(region)
	}
	if trigger == nil {
		c.setState(StateTriggerNotFound)
		c.setState(StateRestoring)
		c.setState(StateIdle)
		log.Warnw("no trigger control in region", "region", regionID(region))
		return nil, fmt.Errorf("region %s: %w", regionID(region), ErrTriggerNotFound)
	}

	c.setState(StateSnapshottingAmbient)
	ambient := snapshotAmbient(c.surface.Elements())
	if ambient != nil {
		log.Infow("paused ambient audio", "element", ambient.el.ID(), "position", ambient.position)
	}

	release := c.flag.Acquire()
	if region != nil {
		region.SetInert(true)
	}
	c.setState(StateSuppressed)

	var captured *Handle
	defer func() {
		c.setState(StateRestoring)
		c.restore(region, captured, release, ambient)
		c.setState(StateIdle)
	}()

	known := c.knownHandles(region)
	events, unsubscribe := c.subscribe()
	defer unsubscribe()

	c.setState(StateTriggering)
	log.Debugw("clicking trigger", "strategy", strategy)
	trigger.Click()

	c.setState(StateAwaitingHandle)
	timeout := c.cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	h, err := c.await(ctx, region, events, known, timeout)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			c.setState(StateTimedOut)
		}
		log.Warnw("capture failed", "error", err)
		return nil, err
	}

	captured = h
	c.setState(StateCaptured)
	log.Infow("captured resource handle", "handle", h.ID, "element", h.Element.ID())
	return h, nil
}

func (c *Controller) subscribe() (<-chan intercept.Event, func()) {
	if c.interceptor == nil {
		return nil, func() {}
	}
	return c.interceptor.Subscribe()
}

// knownHandles lists handles already loaded before the click, so the sweep
// only reports the one the trigger produces.
func (c *Controller) knownHandles(region *host.Region) map[string]bool {
	known := make(map[string]bool)
	for _, el := range c.sweepTargets(region) {
		if src := el.Src(); intercept.IsResourceHandle(src) {
			known[src] = true
		}
	}
	return known
}

func (c *Controller) sweepTargets(region *host.Region) []*host.Element {
	els := c.surface.Elements()
	if region != nil {
		els = append(els, region.Elements()...)
	}
	return els
}

// restore always runs. Order matters: the captured element and any suppressed
// element first, then silent mode, then ambient audio.
func (c *Controller) restore(region *host.Region, captured *Handle, release func(), ambient *ambientSnapshot) {
	if captured != nil {
		captured.Element.Pause()
		captured.Element.Seek(0)
		intercept.Restore(captured.Element)
	}
	n := intercept.RestoreAll(c.sweepTargets(region))
	release()
	if region != nil {
		region.SetInert(false)
	}
	ambient.resume()
	c.log.Debugw("restored", "elements", n, "ambient", ambient != nil)
}

func regionID(r *host.Region) string {
	if r == nil {
		return "<nil>"
	}
	return r.ID()
}
