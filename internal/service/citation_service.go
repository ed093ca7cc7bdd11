package service

import (
	"context"
	"time"

	"lucide-core/internal/entity"
	"lucide-core/internal/repository/unitofwork"
	"lucide-core/pkg/rag"

	"github.com/google/uuid"
)

type ICitationService interface {
	Track(ctx context.Context, messageId uuid.UUID, sources []rag.Source) error
}

type citationService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewCitationService(uowFactory unitofwork.RepositoryFactory) ICitationService {
	return &citationService{uowFactory: uowFactory}
}

func (s *citationService) Track(ctx context.Context, messageId uuid.UUID, sources []rag.Source) error {
	if len(sources) == 0 {
		return nil
	}
	now := time.Now()
	citations := make([]*entity.MessageCitation, 0, len(sources))
	for _, src := range sources {
		citations = append(citations, &entity.MessageCitation{
			Id:         uuid.New(),
			MessageId:  messageId,
			DocumentId: src.DocumentID,
			ChunkId:    src.ChunkID,
			Title:      src.Title,
			PageNumber: src.PageNumber,
			Score:      src.Score,
			Snippet:    src.Snippet,
			CreatedAt:  now,
		})
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.MessageCitationRepository().CreateBulk(ctx, citations)
}
