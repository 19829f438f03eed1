package host

import (
	"sync"
	"time"
)

// Element is a media element owned by the host page. The methods below are the
// host-native behaviour; page code goes through the Surface descriptors instead.
type Element struct {
	mu          sync.Mutex
	id          string
	src         string
	attrs       map[string]string
	volume      float64
	muted       bool
	autoplay    bool
	paused      bool
	currentTime time.Duration
	foreground  bool
	annotations map[string]any
}

// NewElement returns a paused element at full volume.
func NewElement(id string) *Element {
	return &Element{
		id:     id,
		volume: 1,
		paused: true,
	}
}

func (e *Element) ID() string { return e.id }

func (e *Element) Src() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

func (e *Element) SetSrc(src string) {
	e.mu.Lock()
	e.src = src
	e.currentTime = 0
	autoplay := e.autoplay
	if autoplay {
		e.paused = false
	}
	e.mu.Unlock()
}

func (e *Element) Attr(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attrs[name]
}

func (e *Element) SetAttr(name, value string) {
	if name == "src" {
		e.SetSrc(value)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetVolume clamps v to [0, 1].
func (e *Element) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.mu.Lock()
	e.volume = v
	e.mu.Unlock()
}

func (e *Element) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Element) SetMuted(m bool) {
	e.mu.Lock()
	e.muted = m
	e.mu.Unlock()
}

func (e *Element) Autoplay() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoplay
}

func (e *Element) SetAutoplay(a bool) {
	e.mu.Lock()
	e.autoplay = a
	e.mu.Unlock()
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) Play() {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
}

func (e *Element) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

func (e *Element) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTime
}

func (e *Element) Seek(t time.Duration) {
	if t < 0 {
		t = 0
	}
	e.mu.Lock()
	e.currentTime = t
	e.mu.Unlock()
}

// Advance moves the playhead forward by d if the element is playing.
func (e *Element) Advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		e.currentTime += d
	}
}

// Foreground reports whether the element belongs to the visible conversation.
func (e *Element) Foreground() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.foreground
}

func (e *Element) SetForeground(f bool) {
	e.mu.Lock()
	e.foreground = f
	e.mu.Unlock()
}

// Annotate attaches a value to the element under key. Annotations live and die
// with the element; nothing else keeps a reference to them.
func (e *Element) Annotate(key string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.annotations == nil {
		e.annotations = make(map[string]any)
	}
	e.annotations[key] = v
}

func (e *Element) Annotation(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.annotations[key]
	return v, ok
}

// TakeAnnotation removes and returns the value stored under key.
func (e *Element) TakeAnnotation(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.annotations[key]
	if ok {
		delete(e.annotations, key)
	}
	return v, ok
}
