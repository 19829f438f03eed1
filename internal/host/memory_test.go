package host

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMemory_DefaultDescriptors(t *testing.T) {
	m := NewMemory("https://chat.example.org")
	el := NewElement("a1")
	m.Attach(el)

	if err := m.Assign(el, MemberVolume, 0.4); err != nil {
		t.Fatalf("Assign(volume) error = %v", err)
	}
	if el.Volume() != 0.4 {
		t.Errorf("Volume() = %v, want 0.4", el.Volume())
	}

	if err := m.Assign(el, MemberMuted, true); err != nil {
		t.Fatalf("Assign(muted) error = %v", err)
	}
	if !el.Muted() {
		t.Error("element should be muted")
	}

	if err := m.SetAttribute(el, "src", "blob:x"); err != nil {
		t.Fatalf("SetAttribute() error = %v", err)
	}
	if el.Src() != "blob:x" {
		t.Errorf("Src() = %q, want blob:x", el.Src())
	}

	if err := m.Play(el); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if el.Paused() {
		t.Error("element should be playing")
	}
}

func TestMemory_AutoplayStartsOnSrc(t *testing.T) {
	m := NewMemory("")
	el := NewElement("a1")

	if err := m.Assign(el, MemberAutoplay, true); err != nil {
		t.Fatal(err)
	}
	if err := m.Assign(el, MemberSrc, "blob:null/abc"); err != nil {
		t.Fatal(err)
	}
	if el.Paused() {
		t.Error("autoplay element should start playing when src is assigned")
	}
}

func TestMemory_AudioGraph(t *testing.T) {
	m := NewMemory("")
	ac := NewAudioContext()
	if err := m.Resume(ac); err != nil {
		t.Fatal(err)
	}
	if ac.State() != "running" {
		t.Errorf("State() = %q, want running", ac.State())
	}

	src, dst := NewAudioNode("src"), NewAudioNode("dst")
	if err := m.Connect(src, dst); err != nil {
		t.Fatal(err)
	}
	if len(src.Outputs()) != 1 {
		t.Errorf("Outputs() len = %d, want 1", len(src.Outputs()))
	}
}

func TestMemory_MissingAndFrozen(t *testing.T) {
	m := NewMemory("")

	m.Remove(TargetAudioContext, MemberResume)
	if _, err := m.Descriptor(TargetAudioContext, MemberResume); !errors.Is(err, ErrMissingAPI) {
		t.Errorf("Descriptor() error = %v, want ErrMissingAPI", err)
	}

	m.Freeze(TargetMediaElement, MemberPlay)
	err := m.Define(TargetMediaElement, MemberPlay, Descriptor{})
	if !errors.Is(err, ErrFrozen) {
		t.Errorf("Define() error = %v, want ErrFrozen", err)
	}
}

func TestMemory_Observe(t *testing.T) {
	m := NewMemory("")

	var seen []*Element
	stop, err := m.Observe(func(el *Element) { seen = append(seen, el) })
	if err != nil {
		t.Fatal(err)
	}

	m.Attach(NewElement("a"))
	stop()
	m.Attach(NewElement("b"))

	if len(seen) != 1 || seen[0].ID() != "a" {
		t.Errorf("observer saw %d elements, want only 'a'", len(seen))
	}

	m.DisableObservation()
	if _, err := m.Observe(func(*Element) {}); !errors.Is(err, ErrMissingAPI) {
		t.Errorf("Observe() error = %v, want ErrMissingAPI", err)
	}
}

func TestMemory_ObjectURLs(t *testing.T) {
	m := NewMemory("https://chat.example.org/")
	h := m.CreateObjectURL([]byte{1, 2, 3}, "audio/ogg")

	if !strings.HasPrefix(h, "blob:https://chat.example.org/") {
		t.Errorf("handle = %q, want blob:https://chat.example.org/ prefix", h)
	}

	data, err := m.Fetch(context.Background(), h)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(data) != 3 {
		t.Errorf("Fetch() returned %d bytes, want 3", len(data))
	}
	if m.FetchCount(h) != 1 {
		t.Errorf("FetchCount() = %d, want 1", m.FetchCount(h))
	}

	m.RevokeObjectURL(h)
	if _, err := m.Fetch(context.Background(), h); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() after revoke error = %v, want ErrNotFound", err)
	}
}

func TestElement_Annotations(t *testing.T) {
	el := NewElement("a")
	el.Annotate("k", 42)

	if v, ok := el.Annotation("k"); !ok || v.(int) != 42 {
		t.Errorf("Annotation() = %v, %v", v, ok)
	}
	if _, ok := el.TakeAnnotation("k"); !ok {
		t.Error("TakeAnnotation() should find the value")
	}
	if _, ok := el.Annotation("k"); ok {
		t.Error("annotation should be gone after TakeAnnotation")
	}
}

func TestElement_PlayheadAndVolume(t *testing.T) {
	el := NewElement("a")
	el.Advance(time.Second)
	if el.CurrentTime() != 0 {
		t.Error("paused element should not advance")
	}

	el.Play()
	el.Advance(2 * time.Second)
	if el.CurrentTime() != 2*time.Second {
		t.Errorf("CurrentTime() = %v, want 2s", el.CurrentTime())
	}

	el.SetVolume(3)
	if el.Volume() != 1 {
		t.Errorf("Volume() = %v, want clamp to 1", el.Volume())
	}
}

func TestRegion(t *testing.T) {
	r := NewRegion("msg-1")
	clicked := false
	c := NewControl("audio-play", "Play voice message", "audio-play", func() { clicked = true })
	r.AddControl(c)

	r.SetInert(true)
	if !r.Inert() {
		t.Error("region should be inert")
	}

	r.Controls()[0].Click()
	if !clicked || c.Clicks() != 1 {
		t.Errorf("Click() not dispatched, clicks = %d", c.Clicks())
	}
}
