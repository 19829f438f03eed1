package intercept

import (
	"errors"
	"testing"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/host"
	"github.com/leonardotrapani/voicebridge/internal/silent"
)

func newInstalled(t *testing.T) (*Interceptor, *host.Memory, *silent.Flag) {
	t.Helper()
	mem := host.NewMemory("https://chat.example.org")
	flag := &silent.Flag{}
	i := New(mem, flag, nil)
	i.Install()
	t.Cleanup(i.Uninstall)
	return i, mem, flag
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no capture event")
		return Event{}
	}
}

func TestIsResourceHandle(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"blob:https://chat.example.org/0b8a7f7e-3f0c-4c7e-9d61-5b0f6f2a9e11", true},
		{"blob:null/0b8a7f7e-3f0c-4c7e-9d61-5b0f6f2a9e11", true},
		{"blob:https://chat.example.org/not-a-uuid", false},
		{"https://chat.example.org/0b8a7f7e-3f0c-4c7e-9d61-5b0f6f2a9e11", false},
		{"blob:0b8a7f7e-3f0c-4c7e-9d61-5b0f6f2a9e11", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsResourceHandle(tt.in); got != tt.want {
			t.Errorf("IsResourceHandle(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInstallIdempotent(t *testing.T) {
	i, _, _ := newInstalled(t)
	before := len(i.Wrapped())
	i.Install()
	if got := len(i.Wrapped()); got != before {
		t.Errorf("Wrapped() after second Install = %d entries, want %d", got, before)
	}
	if before != 8 {
		t.Errorf("Wrapped() = %d entries, want 8", before)
	}
}

func TestUninstallRestoresOriginals(t *testing.T) {
	mem := host.NewMemory("https://chat.example.org")
	flag := &silent.Flag{}
	i := New(mem, flag, nil)
	i.Install()
	i.Uninstall()

	if i.Installed() {
		t.Fatal("Installed() = true after Uninstall")
	}

	release := flag.Acquire()
	defer release()

	el := host.NewElement("a")
	el.SetVolume(0.6)
	if err := mem.Assign(el, host.MemberVolume, 0.9); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if el.Volume() != 0.9 {
		t.Errorf("Volume() = %v, want 0.9 (original setter)", el.Volume())
	}
	if err := mem.Play(el); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if el.Paused() {
		t.Error("Paused() = true, want original play to run")
	}

	// a second Uninstall is harmless
	i.Uninstall()
}

func TestSrcAssignmentEmitsEvent(t *testing.T) {
	i, mem, _ := newInstalled(t)
	events, cancel := i.Subscribe()
	defer cancel()

	handle := mem.CreateObjectURL([]byte("audio"), "audio/ogg")
	el := host.NewElement("voice")
	if err := mem.Assign(el, host.MemberSrc, handle); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	ev := recv(t, events)
	if ev.Handle != handle {
		t.Errorf("Event.Handle = %q, want %q", ev.Handle, handle)
	}
	if ev.Element != el {
		t.Error("Event.Element is not the assigned element")
	}
	if el.Src() != handle {
		t.Errorf("Src() = %q, want original setter to run", el.Src())
	}
	if Suppressed(el) {
		t.Error("element suppressed while silent mode is off")
	}
}

func TestSetAttributeEmitsEvent(t *testing.T) {
	i, mem, flag := newInstalled(t)
	events, cancel := i.Subscribe()
	defer cancel()

	release := flag.Acquire()
	defer release()

	handle := mem.CreateObjectURL([]byte("audio"), "audio/ogg")
	el := host.NewElement("voice")
	el.SetVolume(0.7)
	if err := mem.SetAttribute(el, "src", handle); err != nil {
		t.Fatalf("SetAttribute() error = %v", err)
	}

	ev := recv(t, events)
	if ev.Handle != handle {
		t.Errorf("Event.Handle = %q, want %q", ev.Handle, handle)
	}
	if el.Volume() != 0 || !el.Muted() {
		t.Errorf("element volume=%v muted=%v, want 0/true", el.Volume(), el.Muted())
	}
	if n := RestoreAll([]*host.Element{el}); n != 1 {
		t.Fatalf("RestoreAll() = %d, want 1", n)
	}
	if el.Volume() != 0.7 || el.Muted() {
		t.Errorf("restored volume=%v muted=%v, want 0.7/false", el.Volume(), el.Muted())
	}
}

func TestNonHandleSrcIsIgnored(t *testing.T) {
	i, mem, _ := newInstalled(t)
	events, cancel := i.Subscribe()
	defer cancel()

	el := host.NewElement("img")
	_ = mem.Assign(el, host.MemberSrc, "https://cdn.example.org/a.ogg")
	_ = mem.SetAttribute(el, "class", "voice")

	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSilentModeForcesProperties(t *testing.T) {
	_, mem, flag := newInstalled(t)
	el := host.NewElement("voice")
	el.SetVolume(0.5)

	release := flag.Acquire()
	_ = mem.Assign(el, host.MemberVolume, 1.0)
	_ = mem.Assign(el, host.MemberMuted, false)
	_ = mem.Assign(el, host.MemberAutoplay, true)

	if el.Volume() != 0 {
		t.Errorf("Volume() = %v, want 0", el.Volume())
	}
	if !el.Muted() {
		t.Error("Muted() = false, want true")
	}
	if el.Autoplay() {
		t.Error("Autoplay() = true, want false")
	}
	release()

	if !Restore(el) {
		t.Fatal("Restore() = false, want recorded state")
	}
	if el.Volume() != 0.5 {
		t.Errorf("restored Volume() = %v, want 0.5", el.Volume())
	}

	_ = mem.Assign(el, host.MemberVolume, 0.8)
	if el.Volume() != 0.8 {
		t.Errorf("Volume() after release = %v, want 0.8", el.Volume())
	}
}

func TestSilentModeNoOpsPlayback(t *testing.T) {
	_, mem, flag := newInstalled(t)
	el := host.NewElement("voice")
	ac := host.NewAudioContext()
	src, dst := host.NewAudioNode("src"), host.NewAudioNode("dest")

	release := flag.Acquire()
	if err := mem.Play(el); err != nil {
		t.Errorf("Play() error = %v, want resolved no-op", err)
	}
	if err := mem.Resume(ac); err != nil {
		t.Errorf("Resume() error = %v", err)
	}
	if err := mem.Connect(src, dst); err != nil {
		t.Errorf("Connect() error = %v", err)
	}
	if !el.Paused() {
		t.Error("element started playing in silent mode")
	}
	if ac.State() != "suspended" {
		t.Errorf("AudioContext state = %q, want suspended", ac.State())
	}
	if len(src.Outputs()) != 0 {
		t.Error("audio node connected in silent mode")
	}
	release()

	_ = mem.Play(el)
	_ = mem.Resume(ac)
	_ = mem.Connect(src, dst)
	if el.Paused() || ac.State() != "running" || len(src.Outputs()) != 1 {
		t.Error("original behaviour not restored after silent mode ended")
	}
}

func TestPartialHostInstallsRemainingEntries(t *testing.T) {
	mem := host.NewMemory("https://chat.example.org")
	mem.Remove(host.TargetAudioContext, host.MemberResume)
	mem.Freeze(host.TargetAudioNode, host.MemberConnect)
	mem.DisableObservation()

	i := New(mem, &silent.Flag{}, nil)
	i.Install()
	defer i.Uninstall()

	if !i.Installed() {
		t.Fatal("Installed() = false")
	}
	if got := len(i.Wrapped()); got != 6 {
		t.Errorf("Wrapped() = %d entries, want 6", got)
	}

	events, cancel := i.Subscribe()
	defer cancel()
	handle := mem.CreateObjectURL([]byte("x"), "audio/ogg")
	_ = mem.Assign(host.NewElement("v"), host.MemberSrc, handle)
	if ev := recv(t, events); ev.Handle != handle {
		t.Errorf("Event.Handle = %q, want %q", ev.Handle, handle)
	}

	_, err := mem.Descriptor(host.TargetAudioContext, host.MemberResume)
	if !errors.Is(err, host.ErrMissingAPI) {
		t.Errorf("Descriptor(resume) error = %v, want ErrMissingAPI", err)
	}
}

func TestObserverSuppressesAttachedElements(t *testing.T) {
	_, mem, flag := newInstalled(t)

	early := host.NewElement("early")
	early.SetVolume(0.4)
	mem.Attach(early)
	if Suppressed(early) {
		t.Error("element suppressed outside silent mode")
	}

	release := flag.Acquire()
	late := host.NewElement("late")
	late.SetVolume(0.4)
	mem.Attach(late)
	release()

	if !Suppressed(late) || late.Volume() != 0 {
		t.Error("element attached during silent mode was not muted")
	}
	if n := RestoreAll(mem.Elements()); n != 1 {
		t.Errorf("RestoreAll() = %d, want 1", n)
	}
	if late.Volume() != 0.4 {
		t.Errorf("restored Volume() = %v, want 0.4", late.Volume())
	}
}

func TestSubscribeCancel(t *testing.T) {
	i, mem, _ := newInstalled(t)
	events, cancel := i.Subscribe()
	cancel()
	cancel()

	_ = mem.Assign(host.NewElement("v"), host.MemberSrc, mem.CreateObjectURL([]byte("x"), "audio/ogg"))
	select {
	case ev := <-events:
		t.Errorf("event after cancel: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
