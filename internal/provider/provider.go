package provider

import "sort"

// Provider describes a speech-to-text backend and the models it offers
type Provider interface {
	Name() string
	DisplayName() string
	RequiresAPIKey() bool
	ValidateAPIKey(key string) bool
	APIKeyURL() string
	EnvVar() string
	IsLocal() bool
	Models() []Model
	DefaultModel() string
}

var registry = make(map[string]Provider)

func init() {
	Register(&OpenAIProvider{})
	Register(&GroqProvider{})
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

// ListProviders returns all registered provider names, sorted
func ListProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindModel returns the model of a provider, or nil
func FindModel(providerName, modelID string) *Model {
	p := GetProvider(providerName)
	if p == nil {
		return nil
	}
	for _, m := range p.Models() {
		if m.ID == modelID {
			return &m
		}
	}
	return nil
}

// ModelIDs lists the model identifiers of a provider
func ModelIDs(providerName string) []string {
	p := GetProvider(providerName)
	if p == nil {
		return nil
	}
	models := p.Models()
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	return ids
}

// EnvVarForProvider returns the environment variable name for a provider's API key
func EnvVarForProvider(name string) string {
	if p := GetProvider(name); p != nil {
		return p.EnvVar()
	}
	return ""
}
