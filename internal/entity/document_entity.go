package entity

import (
	"time"

	"lucide-core/pkg/document"

	"github.com/google/uuid"
)

type Document struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Title       string
	Filename    string
	FileType    document.FileType
	FileSize    int64
	Content     string
	Tags        []string
	Description string
	ChunkCount  int
	PageCount   int
	Indexed     bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool

	// PageBreaks and PageBreakMethod are handed to the indexer and never
	// persisted.
	PageBreaks      []document.PageBreak
	PageBreakMethod document.PageBreakMethod
}

type DocumentChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	UserId     uuid.UUID
	ChunkIndex int
	Title      string
	Content    string
	PageNumber int
	Source     string
	Embedding  []float32
	CreatedAt  time.Time
}

type MessageCitation struct {
	Id         uuid.UUID
	MessageId  uuid.UUID
	DocumentId uuid.UUID
	ChunkId    uuid.UUID
	Title      string
	PageNumber int
	Score      float64
	Snippet    string
	CreatedAt  time.Time
}

type TokenUsage struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	SessionId    uuid.UUID
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	Estimated    bool
	CreatedAt    time.Time
}
