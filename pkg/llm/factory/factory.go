package factory

import (
	"fmt"
	"strings"

	"lucide-core/pkg/llm"
	"lucide-core/pkg/llm/ollama"
	"lucide-core/pkg/llm/openaicompat"
)

// NewLLMProvider builds the non-streaming provider used for side tasks.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		// The native chat endpoint lives beside the OpenAI-compatible /v1.
		baseURL = strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1")
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai", "openrouter", "lmstudio":
		return openaicompat.NewChatProvider(baseURL, apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

// NewStreamClient builds the streaming client for the ask pipeline.
func NewStreamClient(providerType, baseURL, apiKey, modelName string) (llm.StreamClient, error) {
	switch providerType {
	case "ollama", "openai", "openrouter", "lmstudio":
		return openaicompat.NewStreamClient(providerType, baseURL, apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
