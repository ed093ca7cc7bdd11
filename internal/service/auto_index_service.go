package service

import (
	"context"
	"sync"
	"time"

	"lucide-core/internal/pkg/logger"

	"github.com/google/uuid"
)

const autoIndexTimeout = 2 * time.Minute

// ConversationIndexer is the part of the rag indexer used after each turn.
type ConversationIndexer interface {
	IndexConversation(ctx context.Context, userId, sessionId uuid.UUID) (int, error)
	IndexScreenshot(ctx context.Context, userId, sessionId uuid.UUID, image []byte, mimeType string) (int, error)
}

type IAutoIndexService interface {
	// Trigger returns immediately. At most one run per session is in
	// flight, and a session whose message count has not changed since
	// its last run is skipped.
	Trigger(userId, sessionId uuid.UUID, messageCount int) bool
	TriggerScreenshot(userId, sessionId uuid.UUID, image []byte, mimeType string)
	Wait()
}

type autoIndexService struct {
	indexer ConversationIndexer
	logger  logger.ILogger

	mu          sync.Mutex
	inFlight    map[uuid.UUID]bool
	lastSession uuid.UUID
	lastCount   int
	wg          sync.WaitGroup
}

func NewAutoIndexService(indexer ConversationIndexer, log logger.ILogger) IAutoIndexService {
	return &autoIndexService{
		indexer:  indexer,
		logger:   log,
		inFlight: make(map[uuid.UUID]bool),
	}
}

func (s *autoIndexService) Trigger(userId, sessionId uuid.UUID, messageCount int) bool {
	s.mu.Lock()
	if s.inFlight[sessionId] || (s.lastSession == sessionId && s.lastCount == messageCount) {
		s.mu.Unlock()
		return false
	}
	s.inFlight[sessionId] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, sessionId)
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), autoIndexTimeout)
		defer cancel()

		chunks, err := s.indexer.IndexConversation(ctx, userId, sessionId)
		if err != nil {
			s.logger.Warn("AUTO_INDEX", "Conversation indexing failed", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      err.Error(),
			})
			return
		}

		s.mu.Lock()
		s.lastSession = sessionId
		s.lastCount = messageCount
		s.mu.Unlock()

		s.logger.Debug("AUTO_INDEX", "Conversation indexed", map[string]interface{}{
			"session_id": sessionId.String(),
			"chunks":     chunks,
		})
	}()
	return true
}

func (s *autoIndexService) TriggerScreenshot(userId, sessionId uuid.UUID, image []byte, mimeType string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), autoIndexTimeout)
		defer cancel()

		if _, err := s.indexer.IndexScreenshot(ctx, userId, sessionId, image, mimeType); err != nil {
			s.logger.Warn("AUTO_INDEX", "Screenshot indexing failed", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      err.Error(),
			})
		}
	}()
}

// Wait blocks until background runs finish. Used on shutdown.
func (s *autoIndexService) Wait() {
	s.wg.Wait()
}
