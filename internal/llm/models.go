package llm

import "github.com/mj1618/desktop-pilot/internal/config"

// Info describes a selectable model.
type Info struct {
	Name     string `json:"name" yaml:"name"`
	Provider string `json:"provider" yaml:"provider"`
	Default  bool   `json:"default,omitempty" yaml:"default,omitempty"`
	// Vision is false for models that cannot accept a screenshot.
	Vision bool `json:"vision" yaml:"vision"`
}

var catalog = []Info{
	{Name: "gemini-2.0-flash-exp", Provider: config.ProviderGemini, Default: true, Vision: true},
	{Name: "gemini-2.0-flash-thinking-exp-1219", Provider: config.ProviderGemini, Vision: true},
	{Name: "gemini-1.5-pro", Provider: config.ProviderGemini, Vision: true},
	{Name: "gemini-1.5-flash", Provider: config.ProviderGemini, Vision: true},
	{Name: "gemini-1.5-flash-8b", Provider: config.ProviderGemini, Vision: true},
	{Name: "text-embedding-004", Provider: config.ProviderGemini},
	{Name: "gpt-4o", Provider: config.ProviderOpenAI, Default: true, Vision: true},
	{Name: "gpt-4o-mini", Provider: config.ProviderOpenAI, Vision: true},
	{Name: "gpt-4.1", Provider: config.ProviderOpenAI, Vision: true},
	{Name: "gpt-4.1-mini", Provider: config.ProviderOpenAI, Vision: true},
}

// Catalog lists the known models for provider, or all of them when
// provider is empty.
func Catalog(provider string) []Info {
	var out []Info
	for _, m := range catalog {
		if provider == "" || m.Provider == provider {
			out = append(out, m)
		}
	}
	return out
}

// Known reports whether name is listed for provider. OpenAI-compatible
// gateways accept arbitrary names, so an unknown model is not an error.
func Known(provider, name string) bool {
	for _, m := range catalog {
		if m.Provider == provider && m.Name == name {
			return true
		}
	}
	return false
}
