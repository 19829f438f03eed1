// Package testutil holds fixtures shared by package tests: configs, audio,
// fake inference and translation services, and a scripted strategy.
package testutil

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/config"
	"github.com/leonardotrapani/voicebridge/internal/download"
	"github.com/leonardotrapani/voicebridge/internal/provider"
	"github.com/leonardotrapani/voicebridge/internal/silent"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
)

// TestConfig returns a valid config wired to the inference backend at sttURL
// and the translation service engine "deepl" at translateURL.
func TestConfig(sttURL, translateURL string) *config.Config {
	c := config.DefaultConfig()
	c.Capture.Timeout = 2 * time.Second
	c.Capture.PollInterval = 20 * time.Millisecond
	c.Transcription.Backend = transcriber.BackendInference
	c.Transcription.Endpoint = sttURL
	c.Transcription.Model = "whisper-large-v3"
	c.Transcription.RetryDelay = time.Millisecond
	c.Transcription.Threads = 1
	c.Translation.Engine = "deepl"
	c.Translation.Endpoint = translateURL
	c.Translation.FallbackEndpoint = ""
	c.Translation.TargetLanguage = "en"
	c.Notifications.Type = "log"
	c.Providers[provider.ProviderInference] = config.ProviderConfig{APIKey: "test-stt-key"}
	c.Providers[provider.ProviderOpenAI] = config.ProviderConfig{APIKey: "sk-test"}
	return c
}

// WAV returns d of a 440 Hz tone as 16 kHz mono 16-bit PCM WAV.
func WAV(d time.Duration) []byte {
	const rate = 16000
	n := int(d.Seconds() * rate)
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(math.Sin(2*math.Pi*440*float64(i)/rate) * 8000)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// InferenceRequest is what the fake inference server received.
type InferenceRequest struct {
	Audio    string `json:"audio"`
	MIMEType string `json:"mimeType"`
	Model    string `json:"model"`
	Language string `json:"language"`
	Auth     string `json:"-"`
}

// InferenceServer answers the JSON inference protocol with Text.
type InferenceServer struct {
	*httptest.Server

	mu       sync.Mutex
	text     string
	failures int
	status   int
	requests []InferenceRequest
}

func NewInferenceServer(t *testing.T, text string) *InferenceServer {
	t.Helper()
	s := &InferenceServer{text: text}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// FailNext makes the next n requests fail with status.
func (s *InferenceServer) FailNext(n, status int) {
	s.mu.Lock()
	s.failures, s.status = n, status
	s.mu.Unlock()
}

func (s *InferenceServer) Requests() []InferenceRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]InferenceRequest(nil), s.requests...)
}

func (s *InferenceServer) serve(w http.ResponseWriter, r *http.Request) {
	var req InferenceRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	req.Auth = r.Header.Get("Authorization")

	s.mu.Lock()
	s.requests = append(s.requests, req)
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	status, text := s.status, s.text
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "injected failure", "retryable": status >= 500})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"success": true, "text": text})
}

// TranslationRequest is what the fake translation service received.
type TranslationRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	Engine     string `json:"engine"`
}

// TranslationServer answers with Reply, or prefixes the text with the
// target language when Reply is nil.
type TranslationServer struct {
	*httptest.Server

	mu       sync.Mutex
	reply    func(TranslationRequest) (string, int)
	requests []TranslationRequest
}

func NewTranslationServer(t *testing.T, reply func(TranslationRequest) (string, int)) *TranslationServer {
	t.Helper()
	s := &TranslationServer{reply: reply}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *TranslationServer) Requests() []TranslationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TranslationRequest(nil), s.requests...)
}

func (s *TranslationServer) serve(w http.ResponseWriter, r *http.Request) {
	var req TranslationRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	s.requests = append(s.requests, req)
	reply := s.reply
	s.mu.Unlock()

	text, status := "["+req.TargetLang+"] "+req.Text, http.StatusOK
	if reply != nil {
		text, status = reply(req)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK {
		json.NewEncoder(w).Encode(map[string]string{"error": text})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"translatedText": text, "detectedLanguage": "es"})
}

// MockStrategy is a scripted transcription strategy. It records whether
// silent mode was active while it ran.
type MockStrategy struct {
	Text      string
	Err       error
	Delay     time.Duration
	Flag      *silent.Flag
	Calls     atomic.Int32
	SawSilent atomic.Bool
}

func (m *MockStrategy) Name() string      { return "mock" }
func (m *MockStrategy) IsSupported() bool { return true }

func (m *MockStrategy) TranscribeFromBlob(ctx context.Context, payload *download.Payload, hint string) (string, error) {
	m.Calls.Add(1)
	if m.Flag != nil && m.Flag.Active() {
		m.SawSilent.Store(true)
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.Text, m.Err
}

// TestContext returns a context that expires after five seconds.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition polls condition until it holds or timeout passes.
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
