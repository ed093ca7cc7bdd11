package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lucide-core/internal/dto"
	"lucide-core/internal/entity"
	"lucide-core/internal/repository/unitofwork"
	"lucide-core/pkg/rag"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// ChunkRemover drops the indexed chunks stored under an owner id.
type ChunkRemover interface {
	DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) error
}

type ISessionService interface {
	GetOrCreateActive(ctx context.Context, userId uuid.UUID, sessionType entity.SessionType) (*entity.ConversationSession, error)
	End(ctx context.Context, userId, id uuid.UUID) error
	AppendMessage(ctx context.Context, message *entity.ConversationMessage) error
	ListRecentMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error)
	UpdateMetadata(ctx context.Context, sessionId uuid.UUID, profile string) (int, error)
	SetTitle(ctx context.Context, sessionId uuid.UUID, title string) error
	List(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*dto.SessionResponse, error)
	Messages(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.MessageResponse, error)
	Delete(ctx context.Context, userId, id uuid.UUID) error
	Transcript(ctx context.Context, sessionId uuid.UUID) (*rag.Transcript, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	chunks     ChunkRemover
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory, chunks ChunkRemover) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		chunks:     chunks,
	}
}

// GetOrCreateActive returns the unended session of the user. A listen
// request promotes an active ask session; an ask request reuses an active
// listen session as is.
func (s *sessionService) GetOrCreateActive(ctx context.Context, userId uuid.UUID, sessionType entity.SessionType) (*entity.ConversationSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ConversationSessionRepository()

	active, err := repo.FindActiveByUser(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}

	if active != nil {
		if sessionType == entity.SessionTypeListen && active.Type == entity.SessionTypeAsk {
			now := time.Now()
			active.Type = entity.SessionTypeListen
			active.UpdatedAt = &now
			if err := repo.Update(ctx, active); err != nil {
				return nil, fmt.Errorf("promote session: %w", err)
			}
		}
		return active, nil
	}

	now := time.Now()
	session := &entity.ConversationSession{
		Id:        uuid.New(),
		UserId:    userId,
		Type:      sessionType,
		StartedAt: now,
		UpdatedAt: &now,
	}
	if err := repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *sessionService) owned(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID) (*entity.ConversationSession, error) {
	session, err := uow.ConversationSessionRepository().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserId != userId {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) End(ctx context.Context, userId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := s.owned(ctx, uow, userId, id)
	if err != nil {
		return err
	}
	if session.EndedAt != nil {
		return nil
	}
	now := time.Now()
	session.EndedAt = &now
	session.UpdatedAt = &now
	return uow.ConversationSessionRepository().Update(ctx, session)
}

func (s *sessionService) AppendMessage(ctx context.Context, message *entity.ConversationMessage) error {
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationMessageRepository().Create(ctx, message)
}

func (s *sessionService) ListRecentMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationMessageRepository().ListBySession(ctx, sessionId, limit)
}

// UpdateMetadata stores the profile and the current message count and
// returns that count.
func (s *sessionService) UpdateMetadata(ctx context.Context, sessionId uuid.UUID, profile string) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	session, err := uow.ConversationSessionRepository().FindByID(ctx, sessionId)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, ErrSessionNotFound
	}
	count, err := uow.ConversationMessageRepository().CountBySession(ctx, sessionId)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	session.AgentProfile = profile
	session.MessageCount = int(count)
	session.UpdatedAt = &now
	if err := uow.ConversationSessionRepository().Update(ctx, session); err != nil {
		return 0, err
	}
	if err := uow.Commit(); err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *sessionService) SetTitle(ctx context.Context, sessionId uuid.UUID, title string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ConversationSessionRepository().FindByID(ctx, sessionId)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	session.Title = strings.TrimSpace(title)
	return uow.ConversationSessionRepository().Update(ctx, session)
}

func (s *sessionService) List(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ConversationSessionRepository().ListByUser(ctx, userId, limit, offset)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, &dto.SessionResponse{
			Id:           session.Id,
			Type:         string(session.Type),
			Title:        session.Title,
			AgentProfile: session.AgentProfile,
			MessageCount: session.MessageCount,
			StartedAt:    session.StartedAt,
			EndedAt:      session.EndedAt,
			UpdatedAt:    session.UpdatedAt,
		})
	}
	return res, nil
}

func (s *sessionService) Messages(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.owned(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.ConversationMessageRepository().ListBySession(ctx, sessionId, 0)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		item := &dto.MessageResponse{
			Id:         m.Id,
			Role:       string(m.Role),
			Content:    m.Content,
			Model:      m.Model,
			TokenCount: m.TokenCount,
			CreatedAt:  m.CreatedAt,
		}
		for _, b := range m.ContentBlocks {
			if b.Type == "image" {
				item.HasImage = true
			}
		}
		if m.Role == entity.RoleAssistant {
			citations, err := uow.MessageCitationRepository().ListByMessage(ctx, m.Id)
			if err != nil {
				return nil, err
			}
			for _, c := range citations {
				item.Citations = append(item.Citations, dto.Citation{
					DocumentId: c.DocumentId,
					Title:      c.Title,
					PageNumber: c.PageNumber,
					Score:      c.Score,
					Snippet:    c.Snippet,
				})
			}
		}
		res = append(res, item)
	}
	return res, nil
}

// Delete removes the session, its messages and its indexed transcript.
func (s *sessionService) Delete(ctx context.Context, userId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.owned(ctx, uow, userId, id); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ConversationMessageRepository().DeleteBySession(ctx, id); err != nil {
		return err
	}
	if err := uow.ConversationSessionRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if s.chunks != nil {
		if err := s.chunks.DeleteDocument(ctx, userId, id); err != nil {
			return fmt.Errorf("delete transcript chunks: %w", err)
		}
	}
	return nil
}

// Transcript renders the session as plain text for the conversation
// indexer. Image blocks are noted but never inlined.
func (s *sessionService) Transcript(ctx context.Context, sessionId uuid.UUID) (*rag.Transcript, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ConversationSessionRepository().FindByID(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	messages, err := uow.ConversationMessageRepository().ListBySession(ctx, sessionId, 0)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, m := range messages {
		speaker := "User"
		if m.Role == entity.RoleAssistant {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", speaker, strings.TrimSpace(m.Content))
	}

	title := session.Title
	if title == "" {
		title = "Conversation " + session.StartedAt.Format("2006-01-02 15:04")
	}
	return &rag.Transcript{
		Title:        title,
		Text:         strings.TrimSpace(b.String()),
		MessageCount: len(messages),
	}, nil
}
