package provider

// ModelType represents the type of a model
type ModelType int

const (
	Transcription ModelType = iota
	Translation
)

func (t ModelType) String() string {
	switch t {
	case Transcription:
		return "transcription"
	case Translation:
		return "translation"
	}
	return "unknown"
}

// Model represents a model with full metadata
type Model struct {
	ID          string          // unique identifier (e.g., "whisper-1", "deepl")
	Name        string          // display name
	Description string          // short description
	Type        ModelType       // transcription or translation
	Local       bool            // runs locally (no API call)
	Endpoint    *EndpointConfig // nil for local models and user-supplied endpoints
	LocalInfo   *LocalModelInfo // nil for cloud models
}

// EndpointConfig holds HTTP endpoint configuration
type EndpointConfig struct {
	BaseURL string // e.g., "https://api.openai.com"
	Path    string // e.g., "/v1/audio/transcriptions"
}

func (e *EndpointConfig) URL() string {
	return e.BaseURL + e.Path
}

// LocalModelInfo holds metadata for downloadable local models
type LocalModelInfo struct {
	Filename    string // e.g., "ggml-base.bin"
	Size        string // human readable size (e.g., "142MB")
	DownloadURL string // full URL to download from
}

// NeedsDownload returns true if this is a local model that requires downloading
func (m *Model) NeedsDownload() bool {
	return m.LocalInfo != nil
}
