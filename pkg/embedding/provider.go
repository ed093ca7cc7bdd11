package embedding

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Dimensions is the vector size stored by every vector store.
const Dimensions = 768

// TaskType tells providers whether the text is stored or searched for.
type TaskType string

const (
	TaskDocument TaskType = "RETRIEVAL_DOCUMENT"
	TaskQuery    TaskType = "RETRIEVAL_QUERY"
)

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType TaskType) (*EmbeddingResponse, error)
}

var httpClient = &http.Client{Timeout: 60 * time.Second}

// NewProvider builds the provider named by EMBEDDING_PROVIDER.
func NewProvider(name, baseURL, apiKey, model string) (EmbeddingProvider, error) {
	switch name {
	case "", "ollama":
		return NewOllamaProvider(baseURL, model), nil
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini embeddings need an api key")
		}
		return NewGeminiProvider(apiKey), nil
	case "jina":
		if apiKey == "" {
			return nil, fmt.Errorf("jina embeddings need an api key")
		}
		return NewJinaProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", name)
	}
}

// normalizeVector normalizes a vector to unit length (magnitude = 1)
// This is REQUIRED for accurate cosine similarity calculation
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
