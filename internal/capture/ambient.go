package capture

import (
	"time"

	"github.com/leonardotrapani/voicebridge/internal/host"
)

// ambientSnapshot records a foreground resource that was playing before the
// capture began. It is consumed once, by resume.
type ambientSnapshot struct {
	el       *host.Element
	position time.Duration
	volume   float64
	muted    bool
}

// snapshotAmbient pauses the first playing foreground element and records it.
// It returns nil when nothing was playing.
func snapshotAmbient(els []*host.Element) *ambientSnapshot {
	for _, el := range els {
		if !el.Foreground() || el.Paused() {
			continue
		}
		snap := &ambientSnapshot{
			el:       el,
			position: el.CurrentTime(),
			volume:   el.Volume(),
			muted:    el.Muted(),
		}
		el.Pause()
		return snap
	}
	return nil
}

// resume seeks back, restores volume and mute, and plays again. It uses the
// element's own methods so nothing installed on the host can swallow it.
func (s *ambientSnapshot) resume() {
	if s == nil {
		return
	}
	s.el.Seek(s.position)
	s.el.SetVolume(s.volume)
	s.el.SetMuted(s.muted)
	s.el.Play()
}
