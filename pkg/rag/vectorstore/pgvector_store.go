package vectorstore

import (
	"context"
	"fmt"

	"lucide-core/internal/entity"
	"lucide-core/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// PgvectorStore keeps chunks in the document_chunks table.
type PgvectorStore struct {
	factory unitofwork.RepositoryFactory
}

func NewPgvectorStore(factory unitofwork.RepositoryFactory) *PgvectorStore {
	return &PgvectorStore{factory: factory}
}

func (s *PgvectorStore) Replace(ctx context.Context, userID, documentID uuid.UUID, chunks []Chunk) error {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			uow.Rollback()
			panic(r)
		}
	}()

	repo := uow.DocumentChunkRepository()
	if err := repo.DeleteByDocumentId(ctx, documentID); err != nil {
		uow.Rollback()
		return fmt.Errorf("delete previous chunks: %w", err)
	}

	rows := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		id := c.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		rows[i] = &entity.DocumentChunk{
			Id:         id,
			DocumentId: documentID,
			UserId:     userID,
			ChunkIndex: c.Index,
			Title:      c.Title,
			Content:    c.Content,
			PageNumber: c.PageNumber,
			Source:     string(c.Source),
			Embedding:  c.Embedding,
		}
	}
	if err := repo.CreateBulk(ctx, rows); err != nil {
		uow.Rollback()
		return fmt.Errorf("insert chunks: %w", err)
	}
	return uow.Commit()
}

func (s *PgvectorStore) Search(ctx context.Context, userID uuid.UUID, query []float32, limit int, minScore float64) ([]Match, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilarWithScore(ctx, query, limit, userID, minScore)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(scored))
	for i, sc := range scored {
		c := sc.Chunk
		matches[i] = Match{
			Chunk: Chunk{
				ID:         c.Id,
				DocumentID: c.DocumentId,
				UserID:     c.UserId,
				Index:      c.ChunkIndex,
				Title:      c.Title,
				Content:    c.Content,
				PageNumber: c.PageNumber,
				Source:     Source(c.Source),
			},
			Score: sc.Similarity,
		}
	}
	return matches, nil
}

func (s *PgvectorStore) DeleteDocument(ctx context.Context, _ uuid.UUID, documentID uuid.UUID) error {
	return s.factory.NewUnitOfWork(ctx).DocumentChunkRepository().DeleteByDocumentId(ctx, documentID)
}

func (s *PgvectorStore) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.factory.NewUnitOfWork(ctx).DocumentChunkRepository().CountByUser(ctx, userID)
	return int(n), err
}
