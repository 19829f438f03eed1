package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

var ErrNoBlobSource = errors.New("no blob source configured")

// SchemeFetcher dispatches on the handle scheme: blob: handles go to Blob,
// http(s) URLs to HTTP, file: URLs and plain paths to the filesystem.
type SchemeFetcher struct {
	Blob   Fetcher
	Client *http.Client
}

func NewSchemeFetcher(blob Fetcher, timeout time.Duration) *SchemeFetcher {
	return &SchemeFetcher{
		Blob:   blob,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *SchemeFetcher) Fetch(ctx context.Context, handle string) ([]byte, error) {
	switch {
	case strings.HasPrefix(handle, "blob:"):
		if s.Blob == nil {
			return nil, ErrNoBlobSource
		}
		return s.Blob.Fetch(ctx, handle)
	case strings.HasPrefix(handle, "http://"), strings.HasPrefix(handle, "https://"):
		return s.fetchHTTP(ctx, handle)
	case strings.HasPrefix(handle, "file://"):
		u, err := url.Parse(handle)
		if err != nil {
			return nil, fmt.Errorf("parse file url: %w", err)
		}
		return os.ReadFile(u.Path)
	default:
		return os.ReadFile(handle)
	}
}

func (s *SchemeFetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
