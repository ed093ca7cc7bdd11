package service

import (
	"context"
	"time"

	"lucide-core/internal/dto"
	"lucide-core/internal/entity"
	"lucide-core/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// UsageRecord is one request's token count. Streaming transports do not
// report usage, so records are always estimates.
type UsageRecord struct {
	UserId       uuid.UUID
	SessionId    uuid.UUID
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
}

type IUsageService interface {
	Record(ctx context.Context, rec UsageRecord) error
	Summary(ctx context.Context, userId uuid.UUID, since time.Time) (*dto.UsageResponse, error)
}

type usageService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewUsageService(uowFactory unitofwork.RepositoryFactory) IUsageService {
	return &usageService{uowFactory: uowFactory}
}

func (s *usageService) Record(ctx context.Context, rec UsageRecord) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.TokenUsageRepository().Create(ctx, &entity.TokenUsage{
		Id:           uuid.New(),
		UserId:       rec.UserId,
		SessionId:    rec.SessionId,
		Provider:     rec.Provider,
		Model:        rec.Model,
		InputTokens:  rec.InputTokens,
		OutputTokens: rec.OutputTokens,
		Estimated:    true,
		CreatedAt:    time.Now(),
	})
}

func (s *usageService) Summary(ctx context.Context, userId uuid.UUID, since time.Time) (*dto.UsageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	totals, err := uow.TokenUsageRepository().SumByUser(ctx, userId, since)
	if err != nil {
		return nil, err
	}
	return &dto.UsageResponse{
		Since:        since,
		InputTokens:  totals.InputTokens,
		OutputTokens: totals.OutputTokens,
		Requests:     totals.Requests,
		Estimated:    true,
	}, nil
}
