package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lucide-core/pkg/llm"

	"github.com/sashabaranov/go-openai"
)

// keyless providers serve the OpenAI wire format without authentication.
var keyless = map[string]bool{"ollama": true, "lmstudio": true}

// StreamClient talks to any OpenAI-compatible /chat/completions endpoint
// and returns the raw event stream.
type StreamClient struct {
	provider   string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ llm.StreamClient = (*StreamClient)(nil)

// NewStreamClient builds a client. The HTTP client has no timeout: a
// stream ends by completion or by cancelling its context.
func NewStreamClient(provider, baseURL, apiKey, model string) *StreamClient {
	return &StreamClient{
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

func (c *StreamClient) Provider() string { return c.provider }

func (c *StreamClient) Model() string { return c.model }

func (c *StreamClient) Configured() error {
	if c.model == "" {
		return errors.New("no model configured")
	}
	if c.baseURL == "" {
		return errors.New("no API base URL configured")
	}
	if c.apiKey == "" && !keyless[c.provider] {
		return fmt.Errorf("missing API key for provider %s", c.provider)
	}
	return nil
}

func (c *StreamClient) StreamChat(ctx context.Context, req *llm.StreamRequest) (*llm.StreamResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	payload := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &llm.APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return &llm.StreamResponse{Body: resp.Body}, nil
}
