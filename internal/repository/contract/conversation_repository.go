package contract

import (
	"context"

	"lucide-core/internal/entity"

	"github.com/google/uuid"
)

type ConversationSessionRepository interface {
	Create(ctx context.Context, session *entity.ConversationSession) error
	Update(ctx context.Context, session *entity.ConversationSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, error)
	FindActiveByUser(ctx context.Context, userId uuid.UUID) (*entity.ConversationSession, error)
	ListByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.ConversationSession, error)
}

// ConversationMessageRepository is append-only.
type ConversationMessageRepository interface {
	Create(ctx context.Context, message *entity.ConversationMessage) error
	// ListBySession returns the newest limit messages in insertion order.
	// A limit of zero returns all of them.
	ListBySession(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error)
	CountBySession(ctx context.Context, sessionId uuid.UUID) (int64, error)
	DeleteBySession(ctx context.Context, sessionId uuid.UUID) error
}
