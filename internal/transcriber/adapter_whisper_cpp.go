package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const EngineWhisperCpp = "whisper-cpp"

// NewRecognizer returns the in-process engine named by cfg.Engine.
func NewRecognizer(cfg Config) (Recognizer, error) {
	switch cfg.Engine {
	case EngineWhisperCpp, "":
		return NewWhisperCppRecognizer(cfg.ModelPath, cfg.Threads), nil
	default:
		return nil, fmt.Errorf("unsupported recognizer engine: %s", cfg.Engine)
	}
}

// WhisperCppRecognizer buffers the replayed PCM and runs whisper-cli once the
// stream ends. Every non-empty output line is a final segment.
type WhisperCppRecognizer struct {
	modelPath string
	threads   int
	binary    string
}

// modelPath: full path to a ggml model file
// threads: CPU threads, 0 for whisper-cli's default
func NewWhisperCppRecognizer(modelPath string, threads int) *WhisperCppRecognizer {
	return &WhisperCppRecognizer{modelPath: modelPath, threads: threads, binary: "whisper-cli"}
}

func (r *WhisperCppRecognizer) Name() string { return EngineWhisperCpp }

func (r *WhisperCppRecognizer) Available() bool {
	if _, err := exec.LookPath(r.binary); err != nil {
		return false
	}
	_, err := os.Stat(r.modelPath)
	return err == nil
}

func (r *WhisperCppRecognizer) Start(ctx context.Context, locale string) (Session, error) {
	whisperPath, err := exec.LookPath(r.binary)
	if err != nil {
		return nil, fmt.Errorf("whisper-cli not found: install whisper.cpp first")
	}
	if _, err := os.Stat(r.modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", r.modelPath)
	}
	lang, _, _ := strings.Cut(locale, "-")
	return &whisperSession{
		ctx:      ctx,
		path:     whisperPath,
		model:    r.modelPath,
		threads:  r.threads,
		lang:     lang,
		segments: make(chan Segment, 16),
	}, nil
}

type whisperSession struct {
	ctx      context.Context
	path     string
	model    string
	threads  int
	lang     string
	mu       sync.Mutex
	pcm      []byte
	ended    bool
	err      error
	segments chan Segment
}

func (s *whisperSession) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return fmt.Errorf("session ended")
	}
	s.pcm = append(s.pcm, pcm...)
	return nil
}

func (s *whisperSession) Segments() <-chan Segment { return s.segments }

func (s *whisperSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// End runs whisper-cli in the background; Segments closes when it is done.
func (s *whisperSession) End() error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	s.ended = true
	pcm := s.pcm
	s.mu.Unlock()

	tmpFile := filepath.Join(os.TempDir(), "voicebridge-"+uuid.NewString()+".wav")
	if err := os.WriteFile(tmpFile, pcmToWAV(pcm), 0600); err != nil {
		close(s.segments)
		return fmt.Errorf("write temp file: %w", err)
	}

	go func() {
		defer close(s.segments)
		defer os.Remove(tmpFile)

		text, err := s.run(tmpFile)
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				s.segments <- Segment{Text: line, Final: true}
			}
		}
	}()
	return nil
}

func (s *whisperSession) run(wavPath string) (string, error) {
	args := []string{
		"-m", s.model,
		"-l", s.lang,
		"-nt", // no timestamps
		"-np", // no progress
		"-f", wavPath,
	}
	if s.threads > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", s.threads))
	}

	cmd := exec.CommandContext(s.ctx, s.path, args...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if s.ctx.Err() != nil {
			return "", s.ctx.Err()
		}
		return "", fmt.Errorf("whisper-cli failed after %v: %w: %s", time.Since(start), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
