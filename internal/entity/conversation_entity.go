package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionType string

const (
	SessionTypeAsk    SessionType = "ask"
	SessionTypeListen SessionType = "listen"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type ConversationSession struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Type         SessionType
	Title        string
	AgentProfile string
	MessageCount int
	StartedAt    time.Time
	EndedAt      *time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

func (s *ConversationSession) IsActive() bool {
	return s.EndedAt == nil && !s.IsDeleted
}

// ContentBlock describes one part of a multimodal message. Image bytes
// are never stored; only the fact that an image was sent.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// ConversationMessage is append-only.
type ConversationMessage struct {
	Id            uuid.UUID
	SessionId     uuid.UUID
	Role          MessageRole
	Content       string
	ContentBlocks []ContentBlock
	Model         string
	TokenCount    int
	CreatedAt     time.Time
}
