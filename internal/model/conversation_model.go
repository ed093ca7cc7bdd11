package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConversationSession struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type         string         `gorm:"type:varchar(16);not null;default:'ask'"`
	Title        string         `gorm:"type:text;not null;default:''"`
	AgentProfile string         `gorm:"type:varchar(64)"`
	MessageCount int            `gorm:"not null;default:0"`
	StartedAt    time.Time      `gorm:"not null"`
	EndedAt      *time.Time     `gorm:"index"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (ConversationSession) TableName() string {
	return "conversation_sessions"
}

// ConversationMessage has no UpdatedAt: rows are never rewritten.
type ConversationMessage struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role          string         `gorm:"type:varchar(16);not null"`
	Content       string         `gorm:"type:text;not null"`
	ContentBlocks datatypes.JSON `gorm:"type:jsonb"`
	Model         string         `gorm:"type:varchar(128)"`
	TokenCount    int            `gorm:"not null;default:0"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index"`
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}
