package whisper

import (
	"os"
	"path/filepath"
)

// DefaultModel is what the local strategy uses until configured otherwise.
const DefaultModel = "base"

// ModelInfo describes a ggml whisper model. Voice messages arrive in any
// language, so only multilingual models are offered.
type ModelInfo struct {
	ID          string
	Name        string
	Filename    string
	Size        string
	SizeBytes   int64 // expected size, for download progress
	Description string
}

var models = []ModelInfo{
	{ID: "tiny", Name: "Tiny", Filename: "ggml-tiny.bin", Size: "75MB", SizeBytes: 75_000_000,
		Description: "Fastest, low accuracy; fine for short clear messages"},
	{ID: "base", Name: "Base", Filename: "ggml-base.bin", Size: "142MB", SizeBytes: 142_000_000,
		Description: "Balanced speed and accuracy, recommended start"},
	{ID: "small", Name: "Small", Filename: "ggml-small.bin", Size: "466MB", SizeBytes: 466_000_000,
		Description: "Better accuracy on accents and noise, needs a decent CPU"},
	{ID: "medium", Name: "Medium", Filename: "ggml-medium.bin", Size: "1.5GB", SizeBytes: 1_500_000_000,
		Description: "High accuracy, slow on CPU"},
	{ID: "large-v3-turbo", Name: "Large V3 Turbo", Filename: "ggml-large-v3-turbo.bin", Size: "1.6GB", SizeBytes: 1_620_000_000,
		Description: "Best accuracy offered, needs strong hardware"},
}

const baseDownloadURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// GetModelsDir returns $VOICEBRIDGE_MODELS_DIR, else
// $XDG_DATA_HOME/voicebridge/models/whisper, else
// ~/.local/share/voicebridge/models/whisper.
func GetModelsDir() (string, error) {
	if dir := os.Getenv("VOICEBRIDGE_MODELS_DIR"); dir != "" {
		return dir, nil
	}
	if data := os.Getenv("XDG_DATA_HOME"); data != "" {
		return filepath.Join(data, "voicebridge", "models", "whisper"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "voicebridge", "models", "whisper"), nil
}

// GetModel returns nil for an unknown ID.
func GetModel(id string) *ModelInfo {
	for i := range models {
		if models[i].ID == id {
			m := models[i]
			return &m
		}
	}
	return nil
}

// GetModelPath is "" for an unknown model or when no models dir can be found.
func GetModelPath(id string) string {
	m := GetModel(id)
	if m == nil {
		return ""
	}
	dir, err := GetModelsDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, m.Filename)
}

func GetDownloadURL(id string) string {
	if m := GetModel(id); m != nil {
		return baseDownloadURL + "/" + m.Filename
	}
	return ""
}

// ListModels returns the table, smallest first.
func ListModels() []ModelInfo {
	return append([]ModelInfo(nil), models...)
}
