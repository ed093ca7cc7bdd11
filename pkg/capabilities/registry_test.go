package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_LoadsEmbeddedProviders(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	models, err := r.ListProviderModels("openai")
	require.NoError(t, err)
	require.NotEmpty(t, models)
	assert.Equal(t, "gpt-4o", models[0].ID, "YAML order is preserved")
}

func TestSupportsVision(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		name     string
		provider string
		model    string
		want     bool
	}{
		{"listed vision model", "openai", "gpt-4o", true},
		{"listed text model", "openai", "gpt-3.5-turbo", false},
		{"unlisted but matches pattern", "ollama", "llava:13b", true},
		{"unlisted text model", "ollama", "phi3", false},
		{"unknown provider", "acme", "gpt-4o", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := r.SupportsVision(tt.provider, tt.model)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestMaxOutput(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, 4096, r.MaxOutput("openai", "gpt-3.5-turbo"))
	assert.Equal(t, 0, r.MaxOutput("openai", "not-a-model"))
}

func TestLoad_Override(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	err = r.Load("local", []byte("provider: local\nmodels:\n  tiny:\n    supports_vision: true\n    max_output: 512\n"))
	require.NoError(t, err)

	ok, _ := r.SupportsVision("local", "tiny")
	assert.True(t, ok)
	assert.Equal(t, 512, r.MaxOutput("local", "tiny"))
}
