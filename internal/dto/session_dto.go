package dto

import (
	"time"

	"github.com/google/uuid"
)

type SessionResponse struct {
	Id           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	AgentProfile string     `json:"agent_profile"`
	MessageCount int        `json:"message_count"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type MessageResponse struct {
	Id         uuid.UUID  `json:"id"`
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	HasImage   bool       `json:"has_image"`
	Model      string     `json:"model,omitempty"`
	TokenCount int        `json:"token_count"`
	Citations  []Citation `json:"citations,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type Citation struct {
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	PageNumber int       `json:"page_number,omitempty"`
	Score      float64   `json:"score"`
	Snippet    string    `json:"snippet"`
}

type UsageResponse struct {
	Since        time.Time `json:"since"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	Requests     int64     `json:"requests"`
	Estimated    bool      `json:"estimated"`
}

type ProfileResponse struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

type SetProfileRequest struct {
	Profile string `json:"profile" validate:"required"`
}
