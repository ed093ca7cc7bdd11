package capabilities

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

var embeddedProviders = []string{"openai", "ollama", "openrouter"}

// Registry answers capability questions for configured models.
type Registry struct {
	providers map[string]*ProviderCapabilities
	mu        sync.RWMutex
}

func NewRegistry() (*Registry, error) {
	r := &Registry{providers: make(map[string]*ProviderCapabilities)}
	for _, p := range embeddedProviders {
		data, err := configFiles.ReadFile(fmt.Sprintf("config/%s.yaml", p))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s capabilities: %w", p, err)
		}
		if err := r.Load(p, data); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Load parses a provider YAML document and registers it under provider.
func (r *Registry) Load(provider string, data []byte) error {
	var caps ProviderCapabilities
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return fmt.Errorf("failed to unmarshal %s capabilities: %w", provider, err)
	}

	r.mu.Lock()
	r.providers[provider] = &caps
	r.mu.Unlock()
	return nil
}

func (r *Registry) GetModelCapabilities(provider, model string) (*ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	for i := range caps.Models {
		if caps.Models[i].ID == model {
			return &caps.Models[i], nil
		}
	}
	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}

// SupportsVision reports whether images may be attached for this model,
// with a human readable reason.
func (r *Registry) SupportsVision(provider, model string) (bool, string) {
	if m, err := r.GetModelCapabilities(provider, model); err == nil {
		if m.SupportsVision {
			return true, fmt.Sprintf("%s supports image input", model)
		}
		return false, fmt.Sprintf("%s does not support image input", model)
	}

	r.mu.RLock()
	caps, ok := r.providers[provider]
	r.mu.RUnlock()
	if !ok {
		return false, fmt.Sprintf("unknown provider %s", provider)
	}

	lower := strings.ToLower(model)
	for _, p := range caps.VisionPatterns {
		if strings.Contains(lower, p) {
			return true, fmt.Sprintf("%s matches vision model pattern %q", model, p)
		}
	}
	return false, fmt.Sprintf("%s is not a known vision model", model)
}

// MaxOutput returns the output token limit, or 0 when unknown.
func (r *Registry) MaxOutput(provider, model string) int {
	m, err := r.GetModelCapabilities(provider, model)
	if err != nil {
		return 0
	}
	return m.MaxOutput
}

func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	return caps.Models, nil
}
