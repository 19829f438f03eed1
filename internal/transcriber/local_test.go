package transcriber

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/silent"
)

type fakeRecognizer struct {
	mu         sync.Mutex
	available  bool
	locale     string
	written    int
	silentSeen bool
	flag       *silent.Flag
	segments   []Segment
	flushDelay time.Duration
	neverFlush bool
	startBlock chan struct{}
	sessionErr error
	ctx        context.Context
}

func (r *fakeRecognizer) Name() string    { return "fake" }
func (r *fakeRecognizer) Available() bool { return r.available }

func (r *fakeRecognizer) Start(ctx context.Context, locale string) (Session, error) {
	r.mu.Lock()
	r.locale = locale
	r.ctx = ctx
	block := r.startBlock
	r.mu.Unlock()
	if block != nil {
		<-block
	}
	return &fakeSession{rec: r, out: make(chan Segment, len(r.segments)+1)}, nil
}

type fakeSession struct {
	rec *fakeRecognizer
	out chan Segment
}

func (s *fakeSession) Write(pcm []byte) error {
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	s.rec.written += len(pcm)
	if s.rec.flag != nil && s.rec.flag.Active() {
		s.rec.silentSeen = true
	}
	return nil
}

func (s *fakeSession) End() error {
	if s.rec.neverFlush {
		return nil
	}
	go func() {
		time.Sleep(s.rec.flushDelay)
		for _, seg := range s.rec.segments {
			s.out <- seg
		}
		close(s.out)
	}()
	return nil
}

func (s *fakeSession) Segments() <-chan Segment { return s.out }
func (s *fakeSession) Err() error               { return s.rec.sessionErr }

var quick = LocalConfig{Grace: 10 * time.Millisecond, Timeout: 5 * time.Second}

// sineWAV returns d of a 440 Hz tone as 16 kHz mono WAV.
func sineWAV(d time.Duration) *download.Payload {
	n := int(d.Seconds() * recognizerSampleRate)
	samples := make([][2]float64, n)
	for i := range samples {
		v := 0.3 * math.Sin(2*math.Pi*440*float64(i)/recognizerSampleRate)
		samples[i] = [2]float64{v, v}
	}
	return download.NewPayload("voice.wav", pcmToWAV(samplesToPCM(nil, samples)))
}

func TestLocal_FinalSegmentsOnly(t *testing.T) {
	flag := &silent.Flag{}
	rec := &fakeRecognizer{
		available: true,
		flag:      flag,
		segments: []Segment{
			{Text: "ho", Final: false},
			{Text: "hola", Final: true},
			{Text: "qué ta", Final: false},
			{Text: "qué tal", Final: true},
		},
	}
	l := NewLocal(rec, flag, quick, nil)

	got, err := l.TranscribeFromBlob(context.Background(), sineWAV(500*time.Millisecond), "es")
	if err != nil {
		t.Fatalf("TranscribeFromBlob() error = %v", err)
	}
	if got != "hola qué tal" {
		t.Errorf("text = %q, want %q", got, "hola qué tal")
	}
	if rec.locale != "es-ES" {
		t.Errorf("locale = %q, want es-ES", rec.locale)
	}
	if want := 8000 * 2; rec.written < want-64 || rec.written > want+64 {
		t.Errorf("recognizer got %d bytes, want about %d", rec.written, want)
	}
	if !rec.silentSeen {
		t.Error("silent mode was not active during replay")
	}
	if flag.Active() {
		t.Error("silent mode still active after transcription")
	}
}

func TestLocal_DefaultLocale(t *testing.T) {
	rec := &fakeRecognizer{available: true, segments: []Segment{{Text: "hello", Final: true}}}
	l := NewLocal(rec, nil, quick, nil)

	for _, hint := range []string{"auto", "", "tlh"} {
		if _, err := l.TranscribeFromBlob(context.Background(), sineWAV(50*time.Millisecond), hint); err != nil {
			t.Fatalf("hint %q: error = %v", hint, err)
		}
		if rec.locale != "en-US" {
			t.Errorf("hint %q: locale = %q, want en-US", hint, rec.locale)
		}
	}
}

func TestLocal_GraceFlushesTrailingSegments(t *testing.T) {
	rec := &fakeRecognizer{
		available:  true,
		flushDelay: 30 * time.Millisecond,
		segments:   []Segment{{Text: "tarde", Final: true}},
	}
	l := NewLocal(rec, nil, LocalConfig{Grace: 500 * time.Millisecond}, nil)

	got, err := l.TranscribeFromBlob(context.Background(), sineWAV(50*time.Millisecond), "es")
	if err != nil || got != "tarde" {
		t.Errorf("TranscribeFromBlob() = %q, %v", got, err)
	}
}

// Batch engines such as whisper-cli only produce segments once End has run,
// often long after the grace period.
func TestLocal_WaitsForSlowRecognizer(t *testing.T) {
	rec := &fakeRecognizer{
		available:  true,
		flushDelay: 300 * time.Millisecond,
		segments:   []Segment{{Text: "hola", Final: true}},
	}
	l := NewLocal(rec, nil, LocalConfig{Grace: 20 * time.Millisecond, Timeout: 5 * time.Second}, nil)

	got, err := l.TranscribeFromBlob(context.Background(), sineWAV(100*time.Millisecond), "es")
	if err != nil {
		t.Fatalf("TranscribeFromBlob() error = %v", err)
	}
	if got != "hola" {
		t.Errorf("text = %q, want hola", got)
	}
}

func TestLocal_RecognizerTimeout(t *testing.T) {
	rec := &fakeRecognizer{available: true, neverFlush: true}
	l := NewLocal(rec, nil, LocalConfig{Grace: 10 * time.Millisecond, Timeout: 50 * time.Millisecond}, nil)

	_, err := l.TranscribeFromBlob(context.Background(), sineWAV(50*time.Millisecond), "es")
	if !errors.Is(err, ErrRecognizerTimeout) {
		t.Errorf("error = %v, want ErrRecognizerTimeout", err)
	}
	var terr *Error
	if !errors.As(err, &terr) || terr.Strategy != StrategyLocal {
		t.Errorf("error = %#v, want *Error from local", err)
	}
}

func TestLocal_ContextBoundsWait(t *testing.T) {
	rec := &fakeRecognizer{available: true, neverFlush: true}
	flag := &silent.Flag{}
	l := NewLocal(rec, flag, LocalConfig{Grace: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := l.TranscribeFromBlob(ctx, sineWAV(50*time.Millisecond), "es")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
	if flag.Active() {
		t.Error("silent mode left active")
	}
}

func TestLocal_SessionContextCancelledOnReturn(t *testing.T) {
	rec := &fakeRecognizer{available: true, segments: []Segment{{Text: "uno", Final: true}}}
	l := NewLocal(rec, nil, quick, nil)

	if _, err := l.TranscribeFromBlob(context.Background(), sineWAV(10*time.Millisecond), "es"); err != nil {
		t.Fatalf("TranscribeFromBlob() error = %v", err)
	}
	rec.mu.Lock()
	sctx := rec.ctx
	rec.mu.Unlock()
	select {
	case <-sctx.Done():
	case <-time.After(time.Second):
		t.Error("session context still live after the call returned")
	}
}

func TestLocal_OggThatIsNotVorbis(t *testing.T) {
	// An Ogg page carrying an Opus header.
	data := make([]byte, 64)
	copy(data, "OggS")
	copy(data[28:], "OpusHead")
	p := download.NewPayload("voice.ogg", data)

	l := NewLocal(&fakeRecognizer{available: true}, nil, quick, nil)
	_, err := l.TranscribeFromBlob(context.Background(), p, "es")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestSupportedFormats(t *testing.T) {
	want := map[string]bool{"audio/wav": true, "audio/mpeg": true, "audio/ogg": true}
	for _, f := range SupportedFormats() {
		delete(want, f)
	}
	if len(want) != 0 {
		t.Errorf("SupportedFormats() misses %v", want)
	}
}

func TestLocal_OnlyInterimIsEmpty(t *testing.T) {
	rec := &fakeRecognizer{available: true, segments: []Segment{{Text: "ho", Final: false}}}
	l := NewLocal(rec, nil, quick, nil)
	_, err := l.TranscribeFromBlob(context.Background(), sineWAV(50*time.Millisecond), "es")
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("error = %v, want ErrEmptyTranscript", err)
	}
}

func TestLocal_EngineError(t *testing.T) {
	boom := errors.New("model crashed")
	rec := &fakeRecognizer{available: true, sessionErr: boom}
	l := NewLocal(rec, nil, quick, nil)
	_, err := l.TranscribeFromBlob(context.Background(), sineWAV(50*time.Millisecond), "es")
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want engine error", err)
	}
}

func TestLocal_UnsupportedFormat(t *testing.T) {
	flag := &silent.Flag{}
	l := NewLocal(&fakeRecognizer{available: true}, flag, quick, nil)
	_, err := l.TranscribeFromBlob(context.Background(), download.NewPayload("x.bin", []byte{0, 1, 2, 3}), "es")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
	if flag.Active() {
		t.Error("silent mode left active")
	}
}

func TestLocal_NotAvailable(t *testing.T) {
	l := NewLocal(&fakeRecognizer{available: false}, nil, quick, nil)
	if l.IsSupported() {
		t.Error("IsSupported() = true")
	}
	if _, err := l.TranscribeFromBlob(context.Background(), sineWAV(10*time.Millisecond), "es"); err == nil {
		t.Error("TranscribeFromBlob() error = nil")
	}
}

func TestLocal_SingleInstance(t *testing.T) {
	block := make(chan struct{})
	rec := &fakeRecognizer{available: true, startBlock: block, segments: []Segment{{Text: "uno", Final: true}}}
	l := NewLocal(rec, nil, quick, nil)

	done := make(chan error, 1)
	go func() {
		_, err := l.TranscribeFromBlob(context.Background(), sineWAV(10*time.Millisecond), "es")
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for {
		rec.mu.Lock()
		started := rec.locale != ""
		rec.mu.Unlock()
		if started || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	_, err := l.TranscribeFromBlob(context.Background(), sineWAV(10*time.Millisecond), "es")
	if !errors.Is(err, ErrBusy) {
		t.Errorf("second call error = %v, want ErrBusy", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Errorf("first call error = %v", err)
	}
}
