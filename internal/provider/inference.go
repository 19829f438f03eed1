package provider

// InferenceProvider is a self-hosted or third-party speech-to-text endpoint
// speaking the JSON inference protocol. The endpoint comes from config.
type InferenceProvider struct{}

func (p *InferenceProvider) Name() string         { return ProviderInference }
func (p *InferenceProvider) RequiresAPIKey() bool { return true }
func (p *InferenceProvider) IsLocal() bool        { return false }

func (p *InferenceProvider) ValidateAPIKey(key string) bool {
	return len(key) >= 8
}

func (p *InferenceProvider) Models() []Model {
	return []Model{
		{ID: "whisper-large-v3", Name: "Whisper Large V3", Description: "Served by the inference endpoint", Type: Transcription},
		{ID: "whisper-large-v3-turbo", Name: "Whisper Large V3 Turbo", Description: "Faster variant, served by the inference endpoint", Type: Transcription},
	}
}

func (p *InferenceProvider) DefaultModel(t ModelType) string {
	if t == Transcription {
		return "whisper-large-v3"
	}
	return ""
}
