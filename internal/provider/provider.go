// Package provider lists the services voicebridge can talk to and the models
// each one offers.
package provider

import "sort"

// Provider defines a transcription or translation service.
type Provider interface {
	Name() string
	RequiresAPIKey() bool
	ValidateAPIKey(key string) bool
	IsLocal() bool
	Models() []Model
	DefaultModel(t ModelType) string
}

var registry = make(map[string]Provider)

func init() {
	Register(&OpenAIProvider{})
	Register(&InferenceProvider{})
	Register(&TranslateServiceProvider{})
	Register(&WhisperCppProvider{})
}

// Register adds a provider to the registry
func Register(p Provider) {
	registry[p.Name()] = p
}

// GetProvider returns a provider by name, or nil if not found
func GetProvider(name string) Provider {
	return registry[name]
}

// ListProviders returns all registered provider names, sorted.
func ListProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListProvidersFor returns the providers offering at least one model of type t.
func ListProvidersFor(t ModelType) []string {
	var names []string
	for _, name := range ListProviders() {
		if len(ModelsOfType(registry[name], t)) > 0 {
			names = append(names, name)
		}
	}
	return names
}

// ModelsOfType filters p's models by type.
func ModelsOfType(p Provider, t ModelType) []Model {
	var out []Model
	for _, m := range p.Models() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// FindModelByID searches every provider for id.
func FindModelByID(id string) (*Model, Provider, error) {
	for _, name := range ListProviders() {
		p := registry[name]
		for _, m := range p.Models() {
			if m.ID == id {
				return &m, p, nil
			}
		}
	}
	return nil, nil, &UnknownModelError{ID: id}
}

type UnknownModelError struct {
	ID string
}

func (e *UnknownModelError) Error() string { return "unknown model: " + e.ID }
