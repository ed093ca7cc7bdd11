package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title       string         `gorm:"type:text;not null"`
	Filename    string         `gorm:"type:text;not null"`
	FileType    string         `gorm:"type:varchar(10);not null"`
	FileSize    int64          `gorm:"not null"`
	Content     string         `gorm:"type:text"`
	Tags        datatypes.JSON `gorm:"type:jsonb"`
	Description string         `gorm:"type:text"`
	ChunkCount  int            `gorm:"not null;default:0"`
	PageCount   int            `gorm:"not null;default:0"`
	Indexed     bool           `gorm:"not null;default:false;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}

// DocumentChunk rows also hold conversation and screenshot chunks, so
// document_id carries no foreign key.
type DocumentChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserId         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkIndex     int             `gorm:"not null;default:0"`
	Title          string          `gorm:"type:text"`
	Content        string          `gorm:"type:text;not null"`
	PageNumber     int             `gorm:"not null;default:0"`
	Source         string          `gorm:"type:varchar(16);not null;default:'document'"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

type MessageCitation struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId  uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index"`
	ChunkId    uuid.UUID `gorm:"type:uuid"`
	Title      string    `gorm:"type:text"`
	PageNumber int       `gorm:"not null;default:0"`
	Score      float64   `gorm:"not null"`
	Snippet    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (MessageCitation) TableName() string {
	return "message_citations"
}

type TokenUsage struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	SessionId    uuid.UUID `gorm:"type:uuid;index"`
	Provider     string    `gorm:"type:varchar(32);not null"`
	Model        string    `gorm:"type:varchar(128);not null"`
	InputTokens  int       `gorm:"not null"`
	OutputTokens int       `gorm:"not null"`
	Estimated    bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
}

func (TokenUsage) TableName() string {
	return "token_usages"
}
