package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lucide-core/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamChat_SendsMultimodalAndReturnsBody(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewStreamClient("openai", srv.URL+"/v1", "sk-test", "gpt-4o")
	resp, err := c.StreamChat(context.Background(), &llm.StreamRequest{
		MaxTokens: 100,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: "be nice"},
			{Role: llm.RoleUser, Parts: []llm.ContentPart{
				{Type: llm.PartText, Text: "what is this?"},
				{Type: llm.PartImage, ImageData: []byte{0xFF, 0xD8}, MimeType: "image/jpeg"},
			}},
		},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "[DONE]")

	assert.Equal(t, "gpt-4o", received["model"])
	assert.Equal(t, true, received["stream"])
	msgs := received["messages"].([]interface{})
	user := msgs[1].(map[string]interface{})
	parts := user["content"].([]interface{})
	require.Len(t, parts, 2)
	img := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(img["url"].(string), "data:image/jpeg;base64,"))
}

func TestStreamChat_NonOKIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"unsupported image_url"}}`)
	}))
	defer srv.Close()

	c := NewStreamClient("openai", srv.URL, "k", "gpt-3.5-turbo")
	_, err := c.StreamChat(context.Background(), &llm.StreamRequest{})

	var apiErr *llm.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "unsupported image_url")
}

func TestConfigured(t *testing.T) {
	assert.Error(t, NewStreamClient("openai", "https://api.openai.com/v1", "", "gpt-4o").Configured())
	assert.NoError(t, NewStreamClient("ollama", "http://localhost:11434/v1", "", "llama3").Configured())
	assert.Error(t, NewStreamClient("ollama", "http://localhost:11434/v1", "", "").Configured())
}
