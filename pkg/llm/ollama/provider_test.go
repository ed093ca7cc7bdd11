package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lucide-core/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Chat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaMessage{Role: "assistant", Content: "Quarterly review"}, Done: true})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "llama3.2")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "title"},
		{Role: "model", Content: "earlier"},
	}, llm.WithMaxTokens(16), llm.WithTemperature(0.2))

	require.NoError(t, err)
	assert.Equal(t, "Quarterly review", out)
	assert.Equal(t, "llama3.2", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, 16, got.Options.NumPredict)
	assert.InDelta(t, 0.2, got.Options.Temperature, 1e-9)
}

func TestOllamaProvider_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "nope").Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `model "nope" not found`)
}
