package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"lucide-core/internal/entity"
	"lucide-core/internal/pkg/logger"
	"lucide-core/internal/repository/contract"
	"lucide-core/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// memStore backs an in-memory unit of work. Transactions are not
// isolated; Commit and Rollback only track state.
type memStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*entity.ConversationSession
	messages  []*entity.ConversationMessage
	documents map[uuid.UUID]*entity.Document
	citations []*entity.MessageCitation
	usages    []*entity.TokenUsage
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  make(map[uuid.UUID]*entity.ConversationSession),
		documents: make(map[uuid.UUID]*entity.Document),
	}
}

func (m *memStore) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return &memUoW{s: m} }

type memUoW struct {
	s     *memStore
	began bool
}

func (u *memUoW) Begin(context.Context) error { u.began = true; return nil }
func (u *memUoW) Commit() error               { u.began = false; return nil }
func (u *memUoW) Rollback() error             { u.began = false; return nil }

func (u *memUoW) ConversationSessionRepository() contract.ConversationSessionRepository {
	return memSessions{u.s}
}
func (u *memUoW) ConversationMessageRepository() contract.ConversationMessageRepository {
	return memMessages{u.s}
}
func (u *memUoW) DocumentRepository() contract.DocumentRepository { return memDocuments{u.s} }
func (u *memUoW) DocumentChunkRepository() contract.DocumentChunkRepository {
	panic("document chunks are not used by services")
}
func (u *memUoW) MessageCitationRepository() contract.MessageCitationRepository {
	return memCitations{u.s}
}
func (u *memUoW) TokenUsageRepository() contract.TokenUsageRepository { return memUsages{u.s} }

type memSessions struct{ s *memStore }

func (r memSessions) Create(_ context.Context, session *entity.ConversationSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *session
	r.s.sessions[session.Id] = &cp
	return nil
}

func (r memSessions) Update(ctx context.Context, session *entity.ConversationSession) error {
	return r.Create(ctx, session)
}

func (r memSessions) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r memSessions) FindByID(_ context.Context, id uuid.UUID) (*entity.ConversationSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if s, ok := r.s.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r memSessions) FindActiveByUser(_ context.Context, userId uuid.UUID) (*entity.ConversationSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *entity.ConversationSession
	for _, s := range r.s.sessions {
		if s.UserId == userId && s.IsActive() && (found == nil || s.StartedAt.After(found.StartedAt)) {
			found = s
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (r memSessions) ListByUser(_ context.Context, userId uuid.UUID, limit, offset int) ([]*entity.ConversationSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ConversationSession
	for _, s := range r.s.sessions {
		if s.UserId == userId {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type memMessages struct{ s *memStore }

func (r memMessages) Create(_ context.Context, m *entity.ConversationMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.messages = append(r.s.messages, &cp)
	return nil
}

func (r memMessages) ListBySession(_ context.Context, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ConversationMessage
	for _, m := range r.s.messages {
		if m.SessionId == sessionId {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r memMessages) CountBySession(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	list, _ := r.ListBySession(ctx, sessionId, 0)
	return int64(len(list)), nil
}

func (r memMessages) DeleteBySession(_ context.Context, sessionId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.SessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

type memDocuments struct{ s *memStore }

func (r memDocuments) Create(_ context.Context, doc *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *doc
	cp.PageBreaks = nil
	r.s.documents[doc.Id] = &cp
	return nil
}

func (r memDocuments) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.documents, id)
	return nil
}

func (r memDocuments) FindByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.documents[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r memDocuments) ListByUser(_ context.Context, userId uuid.UUID, _, _ int) ([]*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.s.documents {
		if d.UserId == userId {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memDocuments) CountByUser(_ context.Context, userId uuid.UUID) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total, indexed int64
	for _, d := range r.s.documents {
		if d.UserId == userId {
			total++
			if d.Indexed {
				indexed++
			}
		}
	}
	return total, indexed, nil
}

func (r memDocuments) MarkIndexed(_ context.Context, id uuid.UUID, chunkCount int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.documents[id]; ok {
		d.Indexed = true
		d.ChunkCount = chunkCount
	}
	return nil
}

type memCitations struct{ s *memStore }

func (r memCitations) CreateBulk(_ context.Context, citations []*entity.MessageCitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.citations = append(r.s.citations, citations...)
	return nil
}

func (r memCitations) ListByMessage(_ context.Context, messageId uuid.UUID) ([]*entity.MessageCitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.MessageCitation
	for _, c := range r.s.citations {
		if c.MessageId == messageId {
			out = append(out, c)
		}
	}
	return out, nil
}

type memUsages struct{ s *memStore }

func (r memUsages) Create(_ context.Context, u *entity.TokenUsage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.usages = append(r.s.usages, u)
	return nil
}

func (r memUsages) SumByUser(_ context.Context, userId uuid.UUID, since time.Time) (*contract.UsageTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := &contract.UsageTotals{}
	for _, u := range r.s.usages {
		if u.UserId == userId && !u.CreatedAt.Before(since) {
			totals.InputTokens += int64(u.InputTokens)
			totals.OutputTokens += int64(u.OutputTokens)
			totals.Requests++
		}
	}
	return totals, nil
}

type recordingRemover struct {
	mu      sync.Mutex
	removed []uuid.UUID
}

func (r *recordingRemover) DeleteDocument(_ context.Context, _, documentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, documentID)
	return nil
}

var testLogger = logger.NewNopLogger()
