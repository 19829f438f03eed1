package intercept

import "github.com/leonardotrapani/voicebridge/internal/host"

const originalStateKey = "voicebridge.original-state"

// OriginalState is what an element looked like before it was silenced.
type OriginalState struct {
	Volume float64
	Muted  bool
}

// Suppress silences el, remembering its volume and mute flag on the element
// itself. Silencing an already silenced element keeps the first snapshot.
func Suppress(el *host.Element) {
	if _, ok := el.Annotation(originalStateKey); !ok {
		el.Annotate(originalStateKey, OriginalState{Volume: el.Volume(), Muted: el.Muted()})
	}
	el.SetVolume(0)
	el.SetMuted(true)
}

// Restore puts back the state recorded by Suppress. It reports false when el
// was never suppressed.
func Restore(el *host.Element) bool {
	v, ok := el.TakeAnnotation(originalStateKey)
	if !ok {
		return false
	}
	st := v.(OriginalState)
	el.SetVolume(st.Volume)
	el.SetMuted(st.Muted)
	return true
}

// Suppressed reports whether el carries an unrestored snapshot.
func Suppressed(el *host.Element) bool {
	_, ok := el.Annotation(originalStateKey)
	return ok
}

// RestoreAll restores every suppressed element in els and returns how many
// were touched.
func RestoreAll(els []*host.Element) int {
	n := 0
	for _, el := range els {
		if Restore(el) {
			n++
		}
	}
	return n
}
