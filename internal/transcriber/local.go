package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/language"
	"github.com/leonardotrapani/voicebridge/internal/logging"
	"github.com/leonardotrapani/voicebridge/internal/silent"
	"go.uber.org/zap"
)

// Segment is one recognition result. Only final segments make it into the
// transcript.
type Segment struct {
	Text  string
	Final bool
}

// Recognizer is an in-process speech engine.
type Recognizer interface {
	Name() string
	Available() bool
	// Start opens a session for locale, e.g. "es-ES".
	Start(ctx context.Context, locale string) (Session, error)
}

// Session receives 16 kHz mono s16le PCM while the payload replays. Segments
// is closed once the engine has flushed everything after End.
type Session interface {
	Write(pcm []byte) error
	End() error
	Segments() <-chan Segment
	// Err reports an engine failure once Segments is closed.
	Err() error
}

// LocalConfig tunes the wait around a recognizer session.
type LocalConfig struct {
	// Grace is how long trailing segments may arrive after replay ends,
	// before the session is ended.
	Grace time.Duration
	// Timeout bounds the wait for the recognizer to flush after End. Zero
	// waits for as long as ctx allows.
	Timeout time.Duration
}

// Local replays the payload through a Recognizer while silent mode is held.
type Local struct {
	rec  Recognizer
	flag *silent.Flag
	cfg  LocalConfig
	log  *zap.SugaredLogger
	run  sync.Mutex
}

func NewLocal(rec Recognizer, flag *silent.Flag, cfg LocalConfig, log *zap.SugaredLogger) *Local {
	if flag == nil {
		flag = &silent.Flag{}
	}
	return &Local{
		rec:  rec,
		flag: flag,
		cfg:  cfg,
		log:  logging.OrNop(log).Named(logging.ComponentTranscriber).With("strategy", StrategyLocal),
	}
}

func (l *Local) Name() string { return StrategyLocal }

// IsSupported reports whether the recognizer can run. Payloads must also be
// in one of SupportedFormats.
func (l *Local) IsSupported() bool {
	return l.rec != nil && l.rec.Available()
}

func (l *Local) TranscribeFromBlob(ctx context.Context, payload *download.Payload, languageHint string) (string, error) {
	if !l.run.TryLock() {
		return "", l.fail(ErrBusy)
	}
	defer l.run.Unlock()

	if !l.IsSupported() {
		return "", l.fail(fmt.Errorf("recognizer %s not available", l.recName()))
	}

	streamer, format, err := decode(payload)
	if err != nil {
		return "", l.fail(err)
	}
	defer streamer.Close()

	locale := language.LocaleTag(languageHint)
	release := l.flag.Acquire()
	defer release()

	// The session never outlives the call.
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess, err := l.rec.Start(sctx, locale)
	if err != nil {
		return "", l.fail(fmt.Errorf("start recognizer: %w", err))
	}

	collected := make(chan []string, 1)
	go func() {
		var finals []string
		for seg := range sess.Segments() {
			if !seg.Final {
				continue
			}
			if t := strings.TrimSpace(seg.Text); t != "" {
				finals = append(finals, t)
			}
		}
		collected <- finals
	}()

	start := time.Now()
	if err := l.replay(sctx, streamer, format, sess); err != nil {
		return "", l.fail(err)
	}

	finals, flushed := l.settle(sctx, collected)
	if err := sess.End(); err != nil {
		return "", l.fail(fmt.Errorf("end recognizer session: %w", err))
	}
	if !flushed {
		if finals, err = l.await(sctx, collected); err != nil {
			return "", l.fail(err)
		}
	}
	if err := sess.Err(); err != nil {
		return "", l.fail(err)
	}

	text := strings.Join(finals, " ")
	if text == "" {
		return "", l.fail(ErrEmptyTranscript)
	}
	l.log.Infow("transcribed", "bytes", payload.Len(), "locale", locale, "segments", len(finals), "duration", time.Since(start))
	return text, nil
}

// settle gives a streaming recognizer the grace period to emit trailing
// segments. It reports true if the session closed on its own meanwhile.
func (l *Local) settle(ctx context.Context, collected <-chan []string) ([]string, bool) {
	if l.cfg.Grace <= 0 {
		return nil, false
	}
	t := time.NewTimer(l.cfg.Grace)
	defer t.Stop()
	select {
	case finals := <-collected:
		return finals, true
	case <-t.C:
	case <-ctx.Done():
	}
	return nil, false
}

// await waits for the session to close after End.
func (l *Local) await(ctx context.Context, collected <-chan []string) ([]string, error) {
	var deadline <-chan time.Time
	if l.cfg.Timeout > 0 {
		t := time.NewTimer(l.cfg.Timeout)
		defer t.Stop()
		deadline = t.C
	}
	select {
	case finals := <-collected:
		return finals, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-deadline:
		l.log.Warnw("recognizer did not finish", "timeout", l.cfg.Timeout)
		return nil, fmt.Errorf("%w after %v", ErrRecognizerTimeout, l.cfg.Timeout)
	}
}

// replay drains the decoded payload faster than real time, resampled for the
// recognizer. Nothing reaches an output device.
func (l *Local) replay(ctx context.Context, s beep.Streamer, format beep.Format, sess Session) error {
	resampled := beep.Resample(4, format.SampleRate, beep.SampleRate(recognizerSampleRate), s)
	tap := &tapStreamer{Streamer: resampled, sess: sess}

	done := make(chan struct{})
	playback := beep.Seq(tap, beep.Callback(func() { close(done) }))

	buf := make([][2]float64, 512)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			if tap.err != nil {
				return tap.err
			}
			return s.Err()
		default:
		}
		playback.Stream(buf)
	}
}

func (l *Local) recName() string {
	if l.rec == nil {
		return "<none>"
	}
	return l.rec.Name()
}

func (l *Local) fail(err error) error {
	l.log.Errorw("transcription failed", "error", err)
	return &Error{Strategy: StrategyLocal, Attempts: 1, Err: err}
}

// tapStreamer forwards samples to a recognizer session as they pass.
type tapStreamer struct {
	beep.Streamer
	sess Session
	pcm  []byte
	err  error
}

func (t *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Streamer.Stream(samples)
	if n > 0 && t.err == nil {
		t.pcm = samplesToPCM(t.pcm[:0], samples[:n])
		if err := t.sess.Write(t.pcm); err != nil {
			t.err = fmt.Errorf("feed recognizer: %w", err)
			return n, false
		}
	}
	return n, ok
}

// SupportedFormats lists the payload types the local strategy decodes. Ogg
// is read as Vorbis; Opus voice notes need the hosted strategy.
func SupportedFormats() []string {
	return []string{"audio/wav", "audio/x-wav", "audio/wave", "audio/mpeg", "audio/mp3", "audio/ogg", "audio/vorbis", "application/ogg"}
}

func decode(p *download.Payload) (beep.StreamSeekCloser, beep.Format, error) {
	r := bytes.NewReader(p.Bytes())
	switch p.MIME() {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return wav.Decode(r)
	case "audio/mpeg", "audio/mp3":
		return mp3.Decode(io.NopCloser(r))
	case "audio/ogg", "audio/vorbis", "application/ogg":
		s, f, err := vorbis.Decode(io.NopCloser(r))
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("%w: %s is not Vorbis: %v", ErrUnsupportedFormat, p.MIME(), err)
		}
		return s, f, nil
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.MIME())
	}
}
