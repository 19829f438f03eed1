package provider

// TranslateServiceProvider is the translation service that fronts several
// engines. Each engine appears as a Translation model; the ID is the engine
// name sent on the wire.
type TranslateServiceProvider struct{}

func (p *TranslateServiceProvider) Name() string         { return ProviderTranslate }
func (p *TranslateServiceProvider) RequiresAPIKey() bool { return false }
func (p *TranslateServiceProvider) IsLocal() bool        { return false }

func (p *TranslateServiceProvider) ValidateAPIKey(key string) bool {
	return true // optional
}

func (p *TranslateServiceProvider) Models() []Model {
	return []Model{
		{ID: "google", Name: "Google", Description: "Google Translate through the service", Type: Translation},
		{ID: "deepl", Name: "DeepL", Description: "DeepL through the service", Type: Translation},
		{ID: "yandex", Name: "Yandex", Description: "Yandex Translate through the service", Type: Translation},
		{ID: "libre", Name: "LibreTranslate", Description: "Self-hosted LibreTranslate", Type: Translation},
	}
}

func (p *TranslateServiceProvider) DefaultModel(t ModelType) string {
	if t == Translation {
		return "google"
	}
	return ""
}
