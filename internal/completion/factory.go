package completion

import "strings"

const (
	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
)

// Preset is the default model and endpoint for a provider.
// An empty BaseURL means the SDK default endpoint.
type Preset struct {
	Model   string
	BaseURL string
}

// presets of known providers, keyed by configuration value.
var presets = map[string]Preset{
	ProviderDeepSeek: {Model: "deepseek-chat", BaseURL: "https://api.deepseek.com/v1"},
	ProviderOpenAI:   {Model: "gpt-4o"},
}

// ResolvePreset returns the canonical provider name and its preset.
// Unrecognized providers fall back to openai.
func ResolvePreset(provider string) (string, Preset) {
	name := strings.ToLower(strings.TrimSpace(provider))
	if p, ok := presets[name]; ok {
		return name, p
	}
	return ProviderOpenAI, presets[ProviderOpenAI]
}
