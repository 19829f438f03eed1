package provider

// Provider name constants for config ([providers.<name>]) and registry
const (
	ProviderOpenAI     = "openai"
	ProviderInference  = "inference"
	ProviderTranslate  = "translate"
	ProviderWhisperCpp = "whisper-cpp"
)

// Environment variable names for API keys
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvInferenceKey = "VOICEBRIDGE_STT_API_KEY"
	EnvTranslateKey = "VOICEBRIDGE_TRANSLATE_API_KEY"
)

// EnvVarForProvider returns the environment variable name for a provider's API key
func EnvVarForProvider(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return EnvOpenAIKey
	case ProviderInference:
		return EnvInferenceKey
	case ProviderTranslate:
		return EnvTranslateKey
	default:
		return ""
	}
}

// ForTranslationEngine returns the provider whose key a translation engine uses.
func ForTranslationEngine(engine string) string {
	if engine == ProviderOpenAI {
		return ProviderOpenAI
	}
	return ProviderTranslate
}

// ForTranscriptionBackend returns the provider whose key a hosted backend uses.
func ForTranscriptionBackend(backend string) string {
	if backend == ProviderInference {
		return ProviderInference
	}
	return ProviderOpenAI
}
