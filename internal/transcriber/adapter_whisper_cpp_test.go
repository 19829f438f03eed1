package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWhisperCppRecognizer_ImplementsRecognizer(t *testing.T) {
	var _ Recognizer = (*WhisperCppRecognizer)(nil)
	var _ Session = (*whisperSession)(nil)
}

func TestWhisperCppRecognizer_MissingBinaryOrModel(t *testing.T) {
	r := NewWhisperCppRecognizer("/nonexistent/path/model.bin", 4)
	r.binary = "voicebridge-no-such-whisper-cli"

	if r.Available() {
		t.Error("Available() = true without binary")
	}
	_, err := r.Start(context.Background(), "en-US")
	if err == nil || !strings.Contains(err.Error(), "whisper-cli not found") {
		t.Errorf("Start() error = %v, want whisper-cli not found", err)
	}
}

func TestNewRecognizer(t *testing.T) {
	r, err := NewRecognizer(Config{Engine: EngineWhisperCpp, ModelPath: "/m.bin", Threads: 8})
	if err != nil {
		t.Fatalf("NewRecognizer() error = %v", err)
	}
	w := r.(*WhisperCppRecognizer)
	if w.threads != 8 || w.modelPath != "/m.bin" {
		t.Errorf("recognizer = %+v", w)
	}

	if _, err := NewRecognizer(Config{Engine: "vosk"}); err == nil {
		t.Error("NewRecognizer(vosk) error = nil, want unsupported")
	}
}

func TestWhisperSession_WriteAfterEnd(t *testing.T) {
	s := &whisperSession{ctx: context.Background(), path: "/bin/false", segments: make(chan Segment, 1)}
	if err := s.Write([]byte{1, 2}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	for range s.Segments() {
	}
	if err := s.Write([]byte{3}); err == nil {
		t.Error("Write() after End error = nil")
	}
	if s.Err() == nil {
		t.Error("Err() = nil, want whisper-cli failure")
	}
}

func TestPCMToWAV(t *testing.T) {
	pcm := make([]byte, 3200)
	wav := pcmToWAV(pcm)
	if len(wav) != 44+len(pcm) {
		t.Errorf("len(pcmToWAV()) = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Error("pcmToWAV() header malformed")
	}
}

func TestSamplesToPCM(t *testing.T) {
	got := samplesToPCM(nil, [][2]float64{{1, 1}, {-2, -2}, {0, 0}})
	if len(got) != 6 {
		t.Fatalf("len = %d, want 6", len(got))
	}
	if got[0] != 0xff || got[1] != 0x7f {
		t.Errorf("max sample = %x %x, want ff 7f", got[0], got[1])
	}
	if got[4] != 0 || got[5] != 0 {
		t.Errorf("zero sample = %x %x", got[4], got[5])
	}
}

// fakeWhisperCli puts a whisper-cli on PATH that sleeps before answering.
func fakeWhisperCli(t *testing.T, delay, output string) (modelPath string) {
	t.Helper()
	dir := t.TempDir()
	script := "#!/bin/sh\nsleep " + delay + "\necho " + output + "\n"
	if err := os.WriteFile(filepath.Join(dir, "whisper-cli"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	modelPath = filepath.Join(dir, "ggml-base.bin")
	if err := os.WriteFile(modelPath, []byte("model"), 0644); err != nil {
		t.Fatal(err)
	}
	return modelPath
}

func TestLocal_WhisperCliSlowerThanGrace(t *testing.T) {
	model := fakeWhisperCli(t, "0.5", "hola")

	cfg := DefaultConfig()
	cfg.Strategy = StrategyLocal
	cfg.ModelPath = model
	cfg.GracePeriod = 20 * time.Millisecond
	s, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !s.IsSupported() {
		t.Fatal("IsSupported() = false with whisper-cli and model present")
	}

	got, err := s.TranscribeFromBlob(context.Background(), sineWAV(time.Second), "es")
	if err != nil {
		t.Fatalf("TranscribeFromBlob() error = %v", err)
	}
	if got != "hola" {
		t.Errorf("text = %q, want hola", got)
	}
}

func TestLocal_WhisperCliTimeout(t *testing.T) {
	model := fakeWhisperCli(t, "5", "hola")

	cfg := DefaultConfig()
	cfg.Strategy = StrategyLocal
	cfg.ModelPath = model
	cfg.GracePeriod = 10 * time.Millisecond
	cfg.Timeout = 100 * time.Millisecond
	s, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	start := time.Now()
	_, err = s.TranscribeFromBlob(context.Background(), sineWAV(100*time.Millisecond), "es")
	if !errors.Is(err, ErrRecognizerTimeout) {
		t.Errorf("error = %v, want recognizer timeout", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("call waited for whisper-cli past the timeout")
	}
}
