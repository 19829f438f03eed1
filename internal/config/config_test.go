package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/voicebridge/internal/notify"
	"github.com/leonardotrapani/voicebridge/internal/provider"
	"github.com/leonardotrapani/voicebridge/internal/transcriber"
	"github.com/leonardotrapani/voicebridge/internal/translate"
)

// createTestConfig returns a valid configuration for testing
func createTestConfig() *Config {
	c := DefaultConfig()
	c.Providers[provider.ProviderOpenAI] = ProviderConfig{APIKey: "test-api-key"}
	return c
}

// clearEnv unsets keys for the duration of the test. godotenv never
// overrides a variable that exists, even when it is empty.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, prev) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestGetConfigPath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	expectedPath := filepath.Join(tempDir, "voicebridge", "config.toml")
	if path != expectedPath {
		t.Errorf("GetConfigPath() = %s, want %s", path, expectedPath)
	}
	if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
		t.Errorf("GetConfigPath() did not create config directory")
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadFile() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadFile_ParseError(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[capture\ntimeout = ")
	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("LoadFile() error = %v, want parse error", err)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	clearEnv(t, "VOICEBRIDGE_ENGINE", "VOICEBRIDGE_TARGET_LANG", "VOICEBRIDGE_CAPTURE_TIMEOUT", "OPENAI_API_KEY")

	path := writeConfig(t, t.TempDir(), `[capture]
timeout = "8s"

[transcription]
max_retries = 0

[translation]
engine = "deepl"
target_language = "es"
endpoint = "http://localhost:5000/translate"

[providers.openai]
api_key = "file-key"
`)

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	def := DefaultConfig()
	if c.Capture.Timeout != 8*time.Second {
		t.Errorf("capture.timeout = %v, want 8s", c.Capture.Timeout)
	}
	if c.Capture.PollInterval != def.Capture.PollInterval {
		t.Errorf("capture.poll_interval = %v, want default %v", c.Capture.PollInterval, def.Capture.PollInterval)
	}
	if c.Transcription.MaxRetries != 0 {
		t.Errorf("explicit max_retries = 0 should survive, got %d", c.Transcription.MaxRetries)
	}
	if c.Transcription.Threads < 1 {
		t.Errorf("threads default not applied: %d", c.Transcription.Threads)
	}
	if c.Translation.Engine != "deepl" || c.Translation.TargetLanguage != "es" {
		t.Errorf("translation = %+v", c.Translation)
	}
	if c.APIKey(provider.ProviderOpenAI) != "file-key" {
		t.Errorf("APIKey(openai) = %q", c.APIKey(provider.ProviderOpenAI))
	}
	if err := c.Validate(); err != nil {
		t.Errorf("loaded config is invalid: %v", err)
	}
}

func TestEnvOverlay(t *testing.T) {
	clearEnv(t, "VOICEBRIDGE_TARGET_LANG", "VOICEBRIDGE_STT_API_KEY")
	t.Setenv("VOICEBRIDGE_ENGINE", "yandex")
	t.Setenv("VOICEBRIDGE_CAPTURE_TIMEOUT", "3s")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("VOICEBRIDGE_TRANSLATE_API_KEY", "translate-key")

	path := writeConfig(t, t.TempDir(), `[translation]
engine = "deepl"

[providers.openai]
api_key = "file-key"
`)

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if c.Translation.Engine != "yandex" {
		t.Errorf("engine = %q, want env override yandex", c.Translation.Engine)
	}
	if c.Capture.Timeout != 3*time.Second {
		t.Errorf("capture.timeout = %v, want 3s", c.Capture.Timeout)
	}
	if got := c.APIKey(provider.ProviderOpenAI); got != "file-key" {
		t.Errorf("file key should win over env, got %q", got)
	}
	if got := c.APIKey(provider.ProviderTranslate); got != "translate-key" {
		t.Errorf("APIKey(translate) = %q, want env key", got)
	}
	if got := c.APIKey(provider.ProviderInference); got != "" {
		t.Errorf("APIKey(inference) = %q, want empty", got)
	}
}

func TestEnvOverlay_DotEnv(t *testing.T) {
	clearEnv(t, "VOICEBRIDGE_TARGET_LANG", "VOICEBRIDGE_STT_API_KEY")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VOICEBRIDGE_TARGET_LANG=de\nVOICEBRIDGE_STT_API_KEY=dot-key\n"), 0600); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, dir, "")

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if c.Translation.TargetLanguage != "de" {
		t.Errorf("target_language = %q, want de from .env", c.Translation.TargetLanguage)
	}
	if c.APIKey(provider.ProviderInference) != "dot-key" {
		t.Errorf("APIKey(inference) = %q, want dot-key", c.APIKey(provider.ProviderInference))
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "default with key", mutate: func(c *Config) {}},
		{
			name:    "zero capture timeout",
			mutate:  func(c *Config) { c.Capture.Timeout = 0 },
			wantErr: "invalid capture.timeout",
		},
		{
			name:    "poll interval not below timeout",
			mutate:  func(c *Config) { c.Capture.PollInterval = c.Capture.Timeout },
			wantErr: "invalid capture.poll_interval",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Transcription.Strategy = "cloud" },
			wantErr: "invalid transcription.strategy: cloud",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Transcription.MaxRetries = -1 },
			wantErr: "invalid transcription.max_retries",
		},
		{
			name:    "bad endpoint url",
			mutate:  func(c *Config) { c.Translation.Endpoint = "not a url" },
			wantErr: "invalid translation.endpoint",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.General.LogLevel = "trace" },
			wantErr: "invalid general.log_level",
		},
		{
			name:    "bad notification type",
			mutate:  func(c *Config) { c.Notifications.Type = "email" },
			wantErr: "invalid notifications.type",
		},
		{
			name:    "auto target",
			mutate:  func(c *Config) { c.Translation.TargetLanguage = "auto" },
			wantErr: "invalid translation.target_language",
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Translation.SourceLanguage = "xx" },
			wantErr: "invalid translation.source_language",
		},
		{
			name:    "unknown transcription language",
			mutate:  func(c *Config) { c.Transcription.Language = "klingon" },
			wantErr: "invalid transcription.language",
		},
		{
			name:    "missing openai key",
			mutate:  func(c *Config) { delete(c.Providers, provider.ProviderOpenAI) },
			wantErr: "OpenAI API key required",
		},
		{
			name: "inference without endpoint",
			mutate: func(c *Config) {
				c.Transcription.Backend = transcriber.BackendInference
				c.Providers[provider.ProviderInference] = ProviderConfig{APIKey: "k"}
			},
			wantErr: "invalid transcription.endpoint: empty",
		},
		{
			name: "inference without key",
			mutate: func(c *Config) {
				c.Transcription.Backend = transcriber.BackendInference
				c.Transcription.Endpoint = "https://stt.example.com/v1"
			},
			wantErr: "inference API key required",
		},
		{
			name: "local with whisper model",
			mutate: func(c *Config) {
				c.Transcription.Strategy = transcriber.StrategyLocal
				c.Transcription.Model = "base"
			},
		},
		{
			name: "local with hosted model",
			mutate: func(c *Config) {
				c.Transcription.Strategy = transcriber.StrategyLocal
				c.Transcription.Model = "whisper-1"
			},
			wantErr: "invalid model for whisper-cpp: whisper-1",
		},
		{
			name:    "service engine without endpoint",
			mutate:  func(c *Config) { c.Translation.Engine = "google" },
			wantErr: "invalid translation.endpoint: empty",
		},
		{
			name: "service engine with endpoint",
			mutate: func(c *Config) {
				c.Translation.Engine = "google"
				c.Translation.Endpoint = "http://localhost:5000/translate"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSave_DoesNotPersistEnvKeys(t *testing.T) {
	clearEnv(t, "VOICEBRIDGE_ENGINE", "VOICEBRIDGE_TARGET_LANG", "VOICEBRIDGE_CAPTURE_TIMEOUT")
	t.Setenv("OPENAI_API_KEY", "secret-from-env")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	c, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults() error = %v", err)
	}
	c.Translation.TargetLanguage = "fr"
	if err := Save(c, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "secret-from-env") {
		t.Error("Save() wrote an environment key to disk")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Translation.TargetLanguage != "fr" {
		t.Errorf("target_language = %q, want fr", loaded.Translation.TargetLanguage)
	}
	if loaded.Capture != c.Capture {
		t.Errorf("capture = %+v, want %+v", loaded.Capture, c.Capture)
	}
}

func TestMessagesConfig_Resolve(t *testing.T) {
	var m MessagesConfig
	m.Translated.Title = "Translated"
	m.CaptureTimeout.Body = "Too slow"

	got := m.Resolve()
	if len(got) != len(notify.MessageDefs) {
		t.Fatalf("Resolve() returned %d messages, want %d", len(got), len(notify.MessageDefs))
	}
	if got[notify.MsgTranslated].Title != "Translated" {
		t.Errorf("title override lost: %+v", got[notify.MsgTranslated])
	}
	if got[notify.MsgCaptureTimeout].Body != "Too slow" || !got[notify.MsgCaptureTimeout].IsError {
		t.Errorf("body override lost: %+v", got[notify.MsgCaptureTimeout])
	}
	if got[notify.MsgBusy].Body == "" {
		t.Error("unset message should keep its default")
	}
}

func TestConfig_ToTranscriberConfig(t *testing.T) {
	c := createTestConfig()
	tc := c.ToTranscriberConfig()
	if tc.Strategy != transcriber.StrategyHosted || tc.APIKey != "test-api-key" {
		t.Errorf("hosted config = %+v", tc)
	}
	if tc.ModelPath != "" {
		t.Errorf("hosted config should not carry a model path, got %q", tc.ModelPath)
	}

	c.Transcription.Backend = transcriber.BackendInference
	c.Providers[provider.ProviderInference] = ProviderConfig{APIKey: "stt-key"}
	if got := c.ToTranscriberConfig().APIKey; got != "stt-key" {
		t.Errorf("inference key = %q, want stt-key", got)
	}

	t.Setenv("HOME", t.TempDir())
	c.Transcription.Strategy = transcriber.StrategyLocal
	c.Transcription.Model = "small"
	tc = c.ToTranscriberConfig()
	if !strings.HasSuffix(tc.ModelPath, "ggml-small.bin") {
		t.Errorf("ModelPath = %q", tc.ModelPath)
	}
	if tc.Threads != c.Transcription.Threads || tc.GracePeriod != c.Transcription.GracePeriod {
		t.Errorf("local fields not carried over: %+v", tc)
	}
}

func TestConfig_ToTranslateConfigFor(t *testing.T) {
	c := createTestConfig()
	c.Translation.Endpoint = "http://localhost:5000/translate"
	c.Providers[provider.ProviderTranslate] = ProviderConfig{APIKey: "svc-key"}

	oc := c.ToTranslateConfigFor(translate.EngineOpenAI)
	if oc.APIKey != "test-api-key" || oc.Endpoint != "" {
		t.Errorf("openai config = %+v", oc)
	}
	if oc.FallbackEndpoint != translate.DefaultPublicEndpoint {
		t.Errorf("fallback = %q", oc.FallbackEndpoint)
	}

	sc := c.ToTranslateConfigFor("deepl")
	if sc.Engine != "deepl" || sc.APIKey != "svc-key" || sc.Endpoint != c.Translation.Endpoint {
		t.Errorf("service config = %+v", sc)
	}
}

func TestConfig_ToSettings(t *testing.T) {
	c := createTestConfig()
	c.Translation.SourceLanguage = "auto"
	c.Translation.TargetLanguage = "PT-br"
	c.Transcription.Language = "es"

	s := c.ToSettings()
	if s.SourceLang != "es" {
		t.Errorf("SourceLang = %q, want transcription language es", s.SourceLang)
	}
	if s.TargetLang != "pt" {
		t.Errorf("TargetLang = %q, want pt", s.TargetLang)
	}

	c.Translation.SourceLanguage = "fr"
	if got := c.ToSettings().SourceLang; got != "fr" {
		t.Errorf("explicit source should win, got %q", got)
	}
}

func TestConfig_SettingsChange(t *testing.T) {
	prev := createTestConfig()
	next := createTestConfig()

	if _, ok := next.SettingsChange(prev); ok {
		t.Error("identical configs should report no change")
	}

	next.Translation.TargetLanguage = "de"
	next.Translation.Engine = "google"
	p, ok := next.SettingsChange(prev)
	if !ok {
		t.Fatal("expected a change")
	}
	if p.SourceLang != nil {
		t.Errorf("SourceLang should be untouched, got %q", *p.SourceLang)
	}
	if p.TargetLang == nil || *p.TargetLang != "de" {
		t.Errorf("TargetLang = %v", p.TargetLang)
	}
	if p.Engine == nil || *p.Engine != "google" {
		t.Errorf("Engine = %v", p.Engine)
	}
	if next.NeedsRestart(prev) {
		t.Error("language and engine changes apply live")
	}

	next.Transcription.MaxRetries = 5
	if !next.NeedsRestart(prev) {
		t.Error("transcription changes need a restart")
	}
}

func TestManager_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	m, err := NewManager(filepath.Join(t.TempDir(), "config.toml"), nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.GetConfig().Capture.Timeout != DefaultConfig().Capture.Timeout {
		t.Errorf("expected default capture timeout")
	}
}

func TestManager_Reload(t *testing.T) {
	clearEnv(t, "VOICEBRIDGE_ENGINE", "VOICEBRIDGE_TARGET_LANG", "VOICEBRIDGE_CAPTURE_TIMEOUT")
	t.Setenv("OPENAI_API_KEY", "k")

	dir := t.TempDir()
	path := writeConfig(t, dir, "[translation]\ntarget_language = \"es\"\n")
	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	changes := make(chan [2]string, 4)
	m.OnChange(func(prev, next *Config) {
		changes <- [2]string{prev.Translation.TargetLanguage, next.Translation.TargetLanguage}
	})

	// invalid content keeps the current config
	writeConfig(t, dir, "[translation]\ntarget_language = \"auto\"\n")
	if m.Reload() {
		t.Error("Reload() accepted an invalid config")
	}
	if got := m.GetConfig().Translation.TargetLanguage; got != "es" {
		t.Errorf("target after rejected reload = %q, want es", got)
	}

	writeConfig(t, dir, "[translation]\ntarget_language = \"it\"\n")
	if !m.Reload() {
		t.Fatal("Reload() rejected a valid config")
	}
	select {
	case c := <-changes:
		if c[0] != "es" || c[1] != "it" {
			t.Errorf("change = %v, want [es it]", c)
		}
	default:
		t.Error("listener was not called")
	}
}

func TestManager_Watch(t *testing.T) {
	clearEnv(t, "VOICEBRIDGE_ENGINE", "VOICEBRIDGE_TARGET_LANG", "VOICEBRIDGE_CAPTURE_TIMEOUT")
	t.Setenv("OPENAI_API_KEY", "k")

	dir := t.TempDir()
	path := writeConfig(t, dir, "[translation]\ntarget_language = \"es\"\n")
	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	reloaded := make(chan string, 8)
	m.OnChange(func(_, next *Config) { reloaded <- next.Translation.TargetLanguage })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.StartWatching(ctx); err != nil {
		t.Fatalf("StartWatching() error = %v", err)
	}
	defer m.Stop()

	writeConfig(t, dir, "[translation]\ntarget_language = \"ja\"\n")

	deadline := time.After(3 * time.Second)
	for {
		select {
		case lang := <-reloaded:
			if lang == "ja" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not picked up")
		}
	}
}
