package provider

import "strings"

// OpenAIProvider implements Provider for OpenAI services
type OpenAIProvider struct{}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

func (p *OpenAIProvider) RequiresAPIKey() bool {
	return true
}

func (p *OpenAIProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

func (p *OpenAIProvider) IsLocal() bool {
	return false
}

func (p *OpenAIProvider) Models() []Model {
	transcriptions := &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/audio/transcriptions"}
	chat := &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/chat/completions"}

	return []Model{
		// transcription models
		{ID: "whisper-1", Name: "Whisper 1", Description: "OpenAI's production speech-to-text model", Type: Transcription, Endpoint: transcriptions},
		{ID: "gpt-4o-transcribe", Name: "GPT-4o Transcribe", Description: "Higher accuracy, higher cost", Type: Transcription, Endpoint: transcriptions},
		{ID: "gpt-4o-mini-transcribe", Name: "GPT-4o Mini Transcribe", Description: "Fast and affordable", Type: Transcription, Endpoint: transcriptions},
		// translation models
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Fast and affordable GPT-4 variant", Type: Translation, Endpoint: chat},
		{ID: "gpt-4o", Name: "GPT-4o", Description: "Most capable GPT-4 model", Type: Translation, Endpoint: chat},
	}
}

func (p *OpenAIProvider) DefaultModel(t ModelType) string {
	switch t {
	case Transcription:
		return "whisper-1"
	case Translation:
		return "gpt-4o-mini"
	}
	return ""
}
