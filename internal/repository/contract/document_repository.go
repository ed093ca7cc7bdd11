package contract

import (
	"context"
	"time"

	"lucide-core/internal/entity"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	ListByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Document, error)
	CountByUser(ctx context.Context, userId uuid.UUID) (total int64, indexed int64, err error)
	MarkIndexed(ctx context.Context, id uuid.UUID, chunkCount int) error
}

// ScoredDocumentChunk wraps DocumentChunk with its similarity score
type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	CountByUser(ctx context.Context, userId uuid.UUID) (int64, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*ScoredDocumentChunk, error)
}

type MessageCitationRepository interface {
	CreateBulk(ctx context.Context, citations []*entity.MessageCitation) error
	ListByMessage(ctx context.Context, messageId uuid.UUID) ([]*entity.MessageCitation, error)
}

type UsageTotals struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	Requests     int64 `json:"requests"`
}

type TokenUsageRepository interface {
	Create(ctx context.Context, usage *entity.TokenUsage) error
	SumByUser(ctx context.Context, userId uuid.UUID, since time.Time) (*UsageTotals, error)
}
