// Package intercept wraps the host entry points through which a media resource
// handle appears or playback starts.
//
// With silent mode off the wrappers only observe: a resource handle assigned to
// an element is announced to subscribers and the original behaviour runs
// unchanged. With silent mode on they also force volume 0, mute on, autoplay
// off and turn play/resume/connect into no-ops.
package intercept

import (
	"sync"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/host"
	"github.com/leonardotrapani/voicebridge/internal/logging"
	"github.com/leonardotrapani/voicebridge/internal/silent"
	"go.uber.org/zap"
)

// Event announces a resource handle assigned to an element.
type Event struct {
	Handle    string
	Element   *host.Element
	Timestamp time.Time
}

// entry is one row of the interception registry.
type entry struct {
	target   host.Target
	member   host.Member
	wrap     func(orig host.Descriptor) host.Descriptor
	original host.Descriptor
	active   bool
}

// Interceptor owns the registry. Install and Uninstall replay it as a whole.
type Interceptor struct {
	mu          sync.Mutex
	surface     host.Surface
	flag        *silent.Flag
	log         *zap.SugaredLogger
	entries     []*entry
	installed   bool
	stopObserve func()

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int

	now func() time.Time
}

// New builds an interceptor for surface. flag is the shared silent mode switch.
func New(surface host.Surface, flag *silent.Flag, log *zap.SugaredLogger) *Interceptor {
	i := &Interceptor{
		surface: surface,
		flag:    flag,
		log:     logging.OrNop(log).Named(logging.ComponentInterceptor),
		subs:    make(map[int]chan Event),
		now:     time.Now,
	}
	i.entries = i.registry()
	return i
}

// Install wraps every entry point it can. Failures are per entry point: a
// missing or frozen one is logged and skipped. Calling Install twice is a no-op.
func (i *Interceptor) Install() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.installed {
		i.log.Debug("already installed, skipping")
		return
	}

	wrapped := 0
	for _, e := range i.entries {
		orig, err := i.surface.Descriptor(e.target, e.member)
		if err != nil {
			i.log.Warnw("entry point unavailable", "target", e.target, "member", e.member, "error", err)
			continue
		}
		if err := i.surface.Define(e.target, e.member, e.wrap(orig)); err != nil {
			i.log.Warnw("failed to wrap entry point", "target", e.target, "member", e.member, "error", err)
			continue
		}
		e.original = orig
		e.active = true
		wrapped++
		i.log.Debugw("wrapped entry point", "target", e.target, "member", e.member)
	}

	stop, err := i.surface.Observe(i.onAttach)
	if err != nil {
		i.log.Warnw("mutation observation unavailable", "error", err)
	} else {
		i.stopObserve = stop
	}

	i.installed = true
	i.log.Infow("installed", "wrapped", wrapped, "total", len(i.entries))
}

// Uninstall puts back every original descriptor. Safe when not installed.
func (i *Interceptor) Uninstall() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.installed {
		return
	}

	for idx := len(i.entries) - 1; idx >= 0; idx-- {
		e := i.entries[idx]
		if !e.active {
			continue
		}
		if err := i.surface.Define(e.target, e.member, e.original); err != nil {
			i.log.Warnw("failed to restore entry point", "target", e.target, "member", e.member, "error", err)
		}
		e.active = false
		e.original = host.Descriptor{}
	}

	if i.stopObserve != nil {
		i.stopObserve()
		i.stopObserve = nil
	}

	i.installed = false
	i.log.Info("uninstalled")
}

// Installed reports whether Install has run without a matching Uninstall.
func (i *Interceptor) Installed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.installed
}

// Wrapped lists the entry points currently wrapped, as "Target.member".
func (i *Interceptor) Wrapped() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []string
	for _, e := range i.entries {
		if e.active {
			out = append(out, string(e.target)+"."+string(e.member))
		}
	}
	return out
}

// Subscribe returns a channel of capture events and the function that ends the
// subscription. Events are dropped for a subscriber whose buffer is full.
func (i *Interceptor) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	i.subMu.Lock()
	id := i.nextID
	i.nextID++
	i.subs[id] = ch
	i.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			i.subMu.Lock()
			delete(i.subs, id)
			i.subMu.Unlock()
		})
	}
}

func (i *Interceptor) emit(handle string, el *host.Element) {
	ev := Event{Handle: handle, Element: el, Timestamp: i.now()}

	i.subMu.Lock()
	defer i.subMu.Unlock()
	for _, ch := range i.subs {
		select {
		case ch <- ev:
		default:
			i.log.Debugw("subscriber full, dropping capture event", "handle", handle)
		}
	}
	i.log.Debugw("resource handle captured", "handle", handle, "element", el.ID())
}

// onAttach closes the race where an element shows up before any wrapped
// setter ran for it.
func (i *Interceptor) onAttach(el *host.Element) {
	if !i.flag.Active() {
		return
	}
	Suppress(el)
	i.log.Debugw("muted element attached during silent mode", "element", el.ID())
}
