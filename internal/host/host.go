// Package host models the media surface of the chat page voicebridge runs
// against: media elements, the audio graph, the document mutation stream and
// the generic resource fetch primitive.
//
// Every entry point the page can use to hand out a resource handle or start
// playback is reached through a Descriptor, so the interceptor can swap it and
// later put the original back. Any entry point may be missing on a given host.
package host

import (
	"context"
	"errors"
)

var (
	ErrMissingAPI = errors.New("host api not available")
	ErrFrozen     = errors.New("host descriptor is frozen")
	ErrNotFound   = errors.New("resource not found")
)

// Target names the object an entry point lives on.
type Target string

const (
	TargetMediaElement Target = "HTMLMediaElement"
	TargetElement      Target = "Element"
	TargetAudioContext Target = "AudioContext"
	TargetAudioNode    Target = "AudioNode"
)

// Member names an entry point on a Target.
type Member string

const (
	MemberSrc          Member = "src"
	MemberSetAttribute Member = "setAttribute"
	MemberPlay         Member = "play"
	MemberVolume       Member = "volume"
	MemberMuted        Member = "muted"
	MemberAutoplay     Member = "autoplay"
	MemberResume       Member = "resume"
	MemberConnect      Member = "connect"
)

// Descriptor is the behaviour behind one entry point. Properties use Set,
// methods use Call. Value types: string for src, float64 for volume, bool for
// muted and autoplay.
type Descriptor struct {
	Set  func(el *Element, v any)
	Call func(recv any, args ...any) error
}

// Surface is everything voicebridge consumes from the host page.
type Surface interface {
	// Descriptor returns the current behaviour of an entry point, or
	// ErrMissingAPI when the host does not expose it.
	Descriptor(t Target, m Member) (Descriptor, error)
	// Define replaces an entry point. Returns ErrFrozen when the host refuses.
	Define(t Target, m Member, d Descriptor) error
	// Observe calls fn for every media element attached to the document
	// until stop is called. Returns ErrMissingAPI without a mutation stream.
	Observe(fn func(*Element)) (stop func(), err error)
	// Elements lists the media elements currently in the document.
	Elements() []*Element
	// Fetch resolves a resource handle to its bytes.
	Fetch(ctx context.Context, handle string) ([]byte, error)
}
