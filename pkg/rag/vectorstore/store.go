package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// Source tells what produced a chunk.
type Source string

const (
	SourceDocument     Source = "document"
	SourceConversation Source = "conversation"
	SourceScreenshot   Source = "screenshot"
)

type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	UserID     uuid.UUID
	Index      int
	Title      string
	Content    string
	PageNumber int
	Source     Source
	Embedding  []float32
}

type Match struct {
	Chunk Chunk
	Score float64
}

// Store keeps chunk embeddings per user. Replace swaps every chunk of
// a document at once so a re-index never leaves a mix of old and new.
type Store interface {
	Replace(ctx context.Context, userID, documentID uuid.UUID, chunks []Chunk) error
	Search(ctx context.Context, userID uuid.UUID, query []float32, limit int, minScore float64) ([]Match, error)
	DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}
