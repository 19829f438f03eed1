// Package download resolves resource handles to bytes and caches the result
// for the life of the process.
package download

import (
	"context"
	"fmt"
	"sync"

	"github.com/leonardotrapani/voicebridge/internal/logging"
	"go.uber.org/zap"
)

// Fetcher is the generic resource fetch primitive.
type Fetcher interface {
	Fetch(ctx context.Context, handle string) ([]byte, error)
}

// Error is returned when the underlying fetch fails. It is never retried here.
type Error struct {
	Handle string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("download %s: %v", e.Handle, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type inflight struct {
	done    chan struct{}
	payload *Payload
	err     error
}

// Downloader caches payloads by handle. Concurrent fetches of the same handle
// share one transfer.
type Downloader struct {
	fetcher Fetcher
	log     *zap.SugaredLogger

	mu       sync.Mutex
	cache    map[string]*Payload
	inflight map[string]*inflight
	seq      int
}

func New(fetcher Fetcher, log *zap.SugaredLogger) *Downloader {
	return &Downloader{
		fetcher:  fetcher,
		log:      logging.OrNop(log).Named(logging.ComponentDownloader),
		cache:    make(map[string]*Payload),
		inflight: make(map[string]*inflight),
	}
}

// Fetch returns the payload behind handle, from cache when possible.
func (d *Downloader) Fetch(ctx context.Context, handle string) (*Payload, error) {
	d.mu.Lock()
	if p, ok := d.cache[handle]; ok {
		d.mu.Unlock()
		d.log.Debugw("cache hit", "handle", handle, "bytes", p.Len())
		return p, nil
	}
	if f, ok := d.inflight[handle]; ok {
		d.mu.Unlock()
		select {
		case <-f.done:
			return f.payload, f.err
		case <-ctx.Done():
			return nil, &Error{Handle: handle, Err: ctx.Err()}
		}
	}
	f := &inflight{done: make(chan struct{})}
	d.inflight[handle] = f
	d.mu.Unlock()

	data, err := d.fetcher.Fetch(ctx, handle)

	d.mu.Lock()
	delete(d.inflight, handle)
	if err != nil {
		f.err = &Error{Handle: handle, Err: err}
	} else {
		d.seq++
		f.payload = newPayload(handle, data, d.seq)
		d.cache[handle] = f.payload
	}
	d.mu.Unlock()
	close(f.done)

	if f.err != nil {
		d.log.Errorw("fetch failed", "handle", handle, "error", err)
		return nil, f.err
	}
	d.log.Infow("fetched", "handle", handle, "bytes", f.payload.Len(), "mime", f.payload.MIME())
	return f.payload, nil
}

// ClearCache drops every cached payload and returns how many were dropped.
func (d *Downloader) ClearCache() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.cache)
	d.cache = make(map[string]*Payload)
	d.log.Debugw("cache cleared", "entries", n)
	return n
}

func (d *Downloader) CacheSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cache)
}
