package unitofwork

import (
	"context"

	"lucide-core/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationSessionRepository() contract.ConversationSessionRepository
	ConversationMessageRepository() contract.ConversationMessageRepository
	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	MessageCitationRepository() contract.MessageCitationRepository
	TokenUsageRepository() contract.TokenUsageRepository
}
