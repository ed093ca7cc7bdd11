package llm

import (
	"context"
	"fmt"
	"io"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// ContentPart is one block of a multimodal message.
type ContentPart struct {
	Type      PartType `json:"type"`
	Text      string   `json:"text,omitempty"`
	ImageData []byte   `json:"-"`
	MimeType  string   `json:"mime_type,omitempty"`
}

// ChatMessage is a streaming request message. When Parts is non-empty it
// replaces Content.
type ChatMessage struct {
	Role    string
	Content string
	Parts   []ContentPart
}

func (m ChatMessage) HasImage() bool {
	for _, p := range m.Parts {
		if p.Type == PartImage {
			return true
		}
	}
	return false
}

// TextOnly returns a copy of m with image parts dropped.
func (m ChatMessage) TextOnly() ChatMessage {
	if len(m.Parts) == 0 {
		return m
	}
	out := ChatMessage{Role: m.Role, Content: m.Content}
	for _, p := range m.Parts {
		if p.Type == PartText {
			if out.Content != "" {
				out.Content += "\n"
			}
			out.Content += p.Text
		}
	}
	return out
}

type StreamRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
}

// StreamResponse hands the raw event stream to the caller, who owns Body.
type StreamResponse struct {
	Body io.ReadCloser
}

// StreamClient opens chat-completion event streams.
type StreamClient interface {
	StreamChat(ctx context.Context, req *StreamRequest) (*StreamResponse, error)
	Provider() string
	Model() string
	// Configured reports why the client cannot be used, e.g. a missing key.
	Configured() error
}

// APIError is a non-2xx answer from the model endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm request failed: status %d: %s", e.StatusCode, e.Body)
}
