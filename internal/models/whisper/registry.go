package whisper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressFunc is called during download with bytes downloaded and total
type ProgressFunc func(downloaded, total int64)

// Store manages model files in one directory.
type Store struct {
	Dir     string
	BaseURL string
	Client  *http.Client
}

// DefaultStore uses GetModelsDir and huggingface.
func DefaultStore() (*Store, error) {
	dir, err := GetModelsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get models directory: %w", err)
	}
	return &Store{Dir: dir, BaseURL: baseDownloadURL, Client: http.DefaultClient}, nil
}

// Path returns where modelID lives in the store, or "" for an unknown model.
func (s *Store) Path(modelID string) string {
	info := GetModel(modelID)
	if info == nil {
		return ""
	}
	return filepath.Join(s.Dir, info.Filename)
}

func (s *Store) IsInstalled(modelID string) bool {
	path := s.Path(modelID)
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func (s *Store) ListInstalled() []string {
	var installed []string
	for _, m := range models {
		if s.IsInstalled(m.ID) {
			installed = append(installed, m.ID)
		}
	}
	return installed
}

// Download fetches a model into the store. The file only appears under its
// final name once fully written. Progress callback is optional.
func (s *Store) Download(ctx context.Context, modelID string, onProgress ProgressFunc) error {
	info := GetModel(modelID)
	if info == nil {
		return fmt.Errorf("unknown model: %s", modelID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	destPath := filepath.Join(s.Dir, info.Filename)
	tempPath := destPath + ".downloading"

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		out.Close()
		os.Remove(tempPath) // clean up temp file on error
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/"+info.Filename, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	total := resp.ContentLength
	if total < 0 {
		total = info.SizeBytes // fall back to expected size
	}

	pw := &progressWriter{w: out, total: total, fn: onProgress}
	if _, err := io.CopyBuffer(pw, contextReader{ctx: ctx, r: resp.Body}, make([]byte, 32*1024)); err != nil {
		return fmt.Errorf("failed to download %s: %w", modelID, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	return nil
}

// Remove deletes a downloaded model
func (s *Store) Remove(modelID string) error {
	if GetModel(modelID) == nil {
		return fmt.Errorf("unknown model: %s", modelID)
	}
	if !s.IsInstalled(modelID) {
		return fmt.Errorf("model not installed: %s", modelID)
	}
	if err := os.Remove(s.Path(modelID)); err != nil {
		return fmt.Errorf("failed to remove model: %w", err)
	}
	return nil
}

// InstalledPath returns the path to an installed model, or error if not installed
func (s *Store) InstalledPath(modelID string) (string, error) {
	if !s.IsInstalled(modelID) {
		return "", fmt.Errorf("model not installed: %s", modelID)
	}
	return s.Path(modelID), nil
}

type progressWriter struct {
	w          io.Writer
	total, got int64
	fn         ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.got += int64(n)
	if p.fn != nil && n > 0 {
		p.fn(p.got, p.total)
	}
	return n, err
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}

// IsInstalled reports whether modelID is in the default store.
func IsInstalled(modelID string) bool {
	s, err := DefaultStore()
	return err == nil && s.IsInstalled(modelID)
}

func ListInstalled() []string {
	s, err := DefaultStore()
	if err != nil {
		return nil
	}
	return s.ListInstalled()
}

func Download(ctx context.Context, modelID string, onProgress ProgressFunc) error {
	s, err := DefaultStore()
	if err != nil {
		return err
	}
	return s.Download(ctx, modelID, onProgress)
}

func Remove(modelID string) error {
	s, err := DefaultStore()
	if err != nil {
		return err
	}
	return s.Remove(modelID)
}

func GetInstalledPath(modelID string) (string, error) {
	s, err := DefaultStore()
	if err != nil {
		return "", err
	}
	return s.InstalledPath(modelID)
}
