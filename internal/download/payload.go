package download

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// Payload is the fetched binary behind a handle. It is immutable; every
// representation is derived from the same bytes.
type Payload struct {
	handle string
	data   []byte
	mime   string
	name   string
}

// File is a named, file-like view of a payload for multipart uploads.
type File struct {
	Name string
	MIME string
	io.Reader
}

func newPayload(handle string, data []byte, seq int) *Payload {
	mt := mimetype.Detect(data)
	ext := mt.Extension()
	if ext == "" {
		ext = ".bin"
	}
	return &Payload{
		handle: handle,
		data:   data,
		mime:   mt.String(),
		name:   fmt.Sprintf("voice-%d%s", seq, ext),
	}
}

// NewPayload wraps bytes that did not come through a Downloader, e.g. a file
// read by the CLI.
func NewPayload(name string, data []byte) *Payload {
	p := newPayload(name, data, 0)
	p.name = name
	return p
}

func (p *Payload) Handle() string { return p.handle }

// Bytes returns a copy of the payload.
func (p *Payload) Bytes() []byte {
	out := make([]byte, len(p.data))
	copy(out, p.data)
	return out
}

func (p *Payload) Len() int { return len(p.data) }

// MIME is the sniffed media type, e.g. "audio/ogg".
func (p *Payload) MIME() string { return p.mime }

// Name is the file name used for uploads: voice-<n>.<ext>.
func (p *Payload) Name() string { return p.name }

func (p *Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.data)
}

// File returns a fresh reader over the payload each call.
func (p *Payload) File() File {
	return File{Name: p.name, MIME: p.mime, Reader: bytes.NewReader(p.data)}
}

// DataURI returns a self-contained data: URI.
func (p *Payload) DataURI() string {
	return "data:" + p.mime + ";base64," + p.Base64()
}
