package host

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type entryKey struct {
	target Target
	member Member
}

type blob struct {
	data []byte
	mime string
}

// Memory is an in-process Surface. It backs the CLI fast path and the tests;
// page behaviour is driven through Assign, SetAttribute, Play, Resume and
// Connect, which dispatch through the current descriptors.
type Memory struct {
	mu          sync.RWMutex
	origin      string
	descriptors map[entryKey]Descriptor
	frozen      map[entryKey]bool
	noObserve   bool
	observers   map[int]func(*Element)
	nextObs     int
	elements    []*Element
	blobs       map[string]blob
	fetches     map[string]int
}

// NewMemory returns a surface with every entry point present.
// origin is used to mint blob handles, e.g. "https://web.example.org".
func NewMemory(origin string) *Memory {
	if origin == "" {
		origin = "null"
	}
	m := &Memory{
		origin:      strings.TrimSuffix(origin, "/"),
		descriptors: make(map[entryKey]Descriptor),
		frozen:      make(map[entryKey]bool),
		observers:   make(map[int]func(*Element)),
		blobs:       make(map[string]blob),
		fetches:     make(map[string]int),
	}
	m.installDefaults()
	return m
}

func (m *Memory) installDefaults() {
	d := m.descriptors
	d[entryKey{TargetMediaElement, MemberSrc}] = Descriptor{Set: func(el *Element, v any) {
		if s, ok := v.(string); ok {
			el.SetSrc(s)
		}
	}}
	d[entryKey{TargetMediaElement, MemberVolume}] = Descriptor{Set: func(el *Element, v any) {
		if f, ok := v.(float64); ok {
			el.SetVolume(f)
		}
	}}
	d[entryKey{TargetMediaElement, MemberMuted}] = Descriptor{Set: func(el *Element, v any) {
		if b, ok := v.(bool); ok {
			el.SetMuted(b)
		}
	}}
	d[entryKey{TargetMediaElement, MemberAutoplay}] = Descriptor{Set: func(el *Element, v any) {
		if b, ok := v.(bool); ok {
			el.SetAutoplay(b)
		}
	}}
	d[entryKey{TargetMediaElement, MemberPlay}] = Descriptor{Call: func(recv any, _ ...any) error {
		el, ok := recv.(*Element)
		if !ok {
			return fmt.Errorf("play: receiver is %T, not a media element", recv)
		}
		el.Play()
		return nil
	}}
	d[entryKey{TargetElement, MemberSetAttribute}] = Descriptor{Call: func(recv any, args ...any) error {
		el, ok := recv.(*Element)
		if !ok || len(args) != 2 {
			return fmt.Errorf("setAttribute: bad call")
		}
		name, _ := args[0].(string)
		value, _ := args[1].(string)
		el.SetAttr(name, value)
		return nil
	}}
	d[entryKey{TargetAudioContext, MemberResume}] = Descriptor{Call: func(recv any, _ ...any) error {
		ac, ok := recv.(*AudioContext)
		if !ok {
			return fmt.Errorf("resume: receiver is %T, not an audio context", recv)
		}
		ac.setState("running")
		return nil
	}}
	d[entryKey{TargetAudioNode, MemberConnect}] = Descriptor{Call: func(recv any, args ...any) error {
		n, ok := recv.(*AudioNode)
		if !ok || len(args) != 1 {
			return fmt.Errorf("connect: bad call")
		}
		dest, ok := args[0].(*AudioNode)
		if !ok {
			return fmt.Errorf("connect: destination is %T", args[0])
		}
		n.connect(dest)
		return nil
	}}
}

func (m *Memory) Descriptor(t Target, mem Member) (Descriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.descriptors[entryKey{t, mem}]
	if !ok {
		return Descriptor{}, fmt.Errorf("%s.%s: %w", t, mem, ErrMissingAPI)
	}
	return d, nil
}

func (m *Memory) Define(t Target, mem Member, d Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := entryKey{t, mem}
	if m.frozen[k] {
		return fmt.Errorf("%s.%s: %w", t, mem, ErrFrozen)
	}
	m.descriptors[k] = d
	return nil
}

// Remove drops an entry point, as on hosts that never shipped it.
func (m *Memory) Remove(t Target, mem Member) {
	m.mu.Lock()
	delete(m.descriptors, entryKey{t, mem})
	m.mu.Unlock()
}

// Freeze makes later Define calls for the entry point fail.
func (m *Memory) Freeze(t Target, mem Member) {
	m.mu.Lock()
	m.frozen[entryKey{t, mem}] = true
	m.mu.Unlock()
}

// DisableObservation removes the document mutation stream.
func (m *Memory) DisableObservation() {
	m.mu.Lock()
	m.noObserve = true
	m.mu.Unlock()
}

func (m *Memory) Observe(fn func(*Element)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.noObserve {
		return nil, fmt.Errorf("mutation observer: %w", ErrMissingAPI)
	}
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}, nil
}

// Attach adds el to the document and notifies observers.
func (m *Memory) Attach(el *Element) {
	m.mu.Lock()
	m.elements = append(m.elements, el)
	observers := make([]func(*Element), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()

	for _, fn := range observers {
		fn(el)
	}
}

func (m *Memory) Detach(el *Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.elements {
		if e == el {
			m.elements = append(m.elements[:i], m.elements[i+1:]...)
			return
		}
	}
}

func (m *Memory) Elements() []*Element {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Element, len(m.elements))
	copy(out, m.elements)
	return out
}

// Assign sets a media element property the way page code would.
func (m *Memory) Assign(el *Element, mem Member, v any) error {
	d, err := m.Descriptor(TargetMediaElement, mem)
	if err != nil {
		return err
	}
	if d.Set == nil {
		return fmt.Errorf("%s is not a property", mem)
	}
	d.Set(el, v)
	return nil
}

func (m *Memory) SetAttribute(el *Element, name, value string) error {
	return m.call(TargetElement, MemberSetAttribute, el, name, value)
}

func (m *Memory) Play(el *Element) error {
	return m.call(TargetMediaElement, MemberPlay, el)
}

func (m *Memory) Resume(ac *AudioContext) error {
	return m.call(TargetAudioContext, MemberResume, ac)
}

func (m *Memory) Connect(n, dest *AudioNode) error {
	return m.call(TargetAudioNode, MemberConnect, n, dest)
}

func (m *Memory) call(t Target, mem Member, recv any, args ...any) error {
	d, err := m.Descriptor(t, mem)
	if err != nil {
		return err
	}
	if d.Call == nil {
		return fmt.Errorf("%s.%s is not a method", t, mem)
	}
	return d.Call(recv, args...)
}

// CreateObjectURL stores data and returns a fresh blob handle for it.
func (m *Memory) CreateObjectURL(data []byte, mime string) string {
	handle := "blob:" + m.origin + "/" + uuid.NewString()
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.blobs[handle] = blob{data: buf, mime: mime}
	m.mu.Unlock()
	return handle
}

func (m *Memory) RevokeObjectURL(handle string) {
	m.mu.Lock()
	delete(m.blobs, handle)
	m.mu.Unlock()
}

func (m *Memory) Fetch(ctx context.Context, handle string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[handle]++
	b, ok := m.blobs[handle]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", handle, ErrNotFound)
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

// FetchCount reports how many times handle was fetched.
func (m *Memory) FetchCount(handle string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetches[handle]
}
