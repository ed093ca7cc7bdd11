package implementation

import (
	"context"
	"errors"

	"lucide-core/internal/entity"
	"lucide-core/internal/mapper"
	"lucide-core/internal/model"
	"lucide-core/internal/repository/contract"
	"lucide-core/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationSessionRepository(db *gorm.DB) contract.ConversationSessionRepository {
	return &ConversationSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationSessionRepositoryImpl) Create(ctx context.Context, session *entity.ConversationSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *ConversationSessionRepositoryImpl) Update(ctx context.Context, session *entity.ConversationSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *ConversationSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ConversationSession{}, id).Error
}

func (r *ConversationSessionRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationSession, error) {
	var m model.ConversationSession
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *ConversationSessionRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.ConversationSession, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *ConversationSessionRepositoryImpl) FindActiveByUser(ctx context.Context, userId uuid.UUID) (*entity.ConversationSession, error) {
	return r.findOne(ctx,
		specification.ByUserID{UserID: userId},
		specification.ActiveSession{},
		specification.OrderBy{Field: "started_at", Desc: true},
	)
}

func (r *ConversationSessionRepositoryImpl) ListByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.ConversationSession, error) {
	var models []*model.ConversationSession
	query := applySpecifications(r.db.WithContext(ctx),
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "started_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.ConversationSession, len(models))
	for i, m := range models {
		out[i] = r.mapper.SessionToEntity(m)
	}
	return out, nil
}

type ConversationMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationMessageRepository(db *gorm.DB) contract.ConversationMessageRepository {
	return &ConversationMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationMessageRepositoryImpl) Create(ctx context.Context, message *entity.ConversationMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *ConversationMessageRepositoryImpl) ListBySession(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error) {
	var models []*model.ConversationMessage
	specs := []specification.Specification{
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: limit > 0},
	}
	if limit > 0 {
		specs = append(specs, specification.Pagination{Limit: limit})
	}
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*entity.ConversationMessage, len(models))
	for i, m := range models {
		out[i] = r.mapper.MessageToEntity(m)
	}
	// The limited query reads newest first.
	if limit > 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (r *ConversationMessageRepositoryImpl) CountBySession(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	var count int64
	err := applySpecifications(r.db.WithContext(ctx), specification.BySessionID{SessionID: sessionId}).
		Model(&model.ConversationMessage{}).
		Count(&count).Error
	return count, err
}

func (r *ConversationMessageRepositoryImpl) DeleteBySession(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.ConversationMessage{}).Error
}
