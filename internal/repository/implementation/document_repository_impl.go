package implementation

import (
	"context"
	"errors"
	"time"

	"lucide-core/internal/entity"
	"lucide-core/internal/mapper"
	"lucide-core/internal/model"
	"lucide-core/internal/repository/contract"
	"lucide-core/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *entity.Document) error {
	pageBreaks := doc.PageBreaks
	m := r.mapper.ToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.ToEntity(m)
	doc.PageBreaks = pageBreaks
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Document{}, id).Error
}

func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var m model.Document
	if err := applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id}).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) ListByUser(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Document, error) {
	var models []*model.Document
	query := applySpecifications(r.db.WithContext(ctx),
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Document, len(models))
	for i, m := range models {
		out[i] = r.mapper.ToEntity(m)
	}
	return out, nil
}

func (r *DocumentRepositoryImpl) CountByUser(ctx context.Context, userId uuid.UUID) (int64, int64, error) {
	var total, indexed int64
	byUser := specification.ByUserID{UserID: userId}
	if err := applySpecifications(r.db.WithContext(ctx), byUser).Model(&model.Document{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := applySpecifications(r.db.WithContext(ctx), byUser, specification.IndexedOnly{}).Model(&model.Document{}).Count(&indexed).Error; err != nil {
		return 0, 0, err
	}
	return total, indexed, nil
}

func (r *DocumentRepositoryImpl) MarkIndexed(ctx context.Context, id uuid.UUID, chunkCount int) error {
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"chunk_count": chunkCount, "indexed": true}).Error
}

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ChunkToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ChunkToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return applySpecifications(r.db.WithContext(ctx), specification.ByDocumentID{DocumentID: documentId}).
		Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) CountByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	err := applySpecifications(r.db.WithContext(ctx), specification.ByUserID{UserID: userId}).
		Model(&model.DocumentChunk{}).
		Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns the closest chunks of the user with
// their cosine similarity, which pgvector exposes as 1 - distance.
func (r *DocumentChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*contract.ScoredDocumentChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.DocumentChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("document_chunks.user_id = ?", userId).
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocumentChunk, len(results))
	for i := range results {
		scored[i] = &contract.ScoredDocumentChunk{
			Chunk:      r.mapper.ChunkToEntity(&results[i].DocumentChunk),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}

type MessageCitationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewMessageCitationRepository(db *gorm.DB) contract.MessageCitationRepository {
	return &MessageCitationRepositoryImpl{db: db, mapper: mapper.NewDocumentMapper()}
}

func (r *MessageCitationRepositoryImpl) CreateBulk(ctx context.Context, citations []*entity.MessageCitation) error {
	if len(citations) == 0 {
		return nil
	}
	models := make([]*model.MessageCitation, len(citations))
	for i, c := range citations {
		models[i] = r.mapper.CitationToModel(c)
	}
	return r.db.WithContext(ctx).Create(models).Error
}

func (r *MessageCitationRepositoryImpl) ListByMessage(ctx context.Context, messageId uuid.UUID) ([]*entity.MessageCitation, error) {
	var models []*model.MessageCitation
	query := applySpecifications(r.db.WithContext(ctx),
		specification.ByMessageID{MessageID: messageId},
		specification.OrderBy{Field: "score", Desc: true},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.MessageCitation, len(models))
	for i, m := range models {
		out[i] = r.mapper.CitationToEntity(m)
	}
	return out, nil
}

type TokenUsageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewTokenUsageRepository(db *gorm.DB) contract.TokenUsageRepository {
	return &TokenUsageRepositoryImpl{db: db, mapper: mapper.NewDocumentMapper()}
}

func (r *TokenUsageRepositoryImpl) Create(ctx context.Context, usage *entity.TokenUsage) error {
	return r.db.WithContext(ctx).Create(r.mapper.UsageToModel(usage)).Error
}

func (r *TokenUsageRepositoryImpl) SumByUser(ctx context.Context, userId uuid.UUID, since time.Time) (*contract.UsageTotals, error) {
	var totals contract.UsageTotals
	err := applySpecifications(r.db.WithContext(ctx),
		specification.ByUserID{UserID: userId},
		specification.CreatedSince{Since: since},
	).
		Model(&model.TokenUsage{}).
		Select("COALESCE(SUM(input_tokens), 0) AS input_tokens, COALESCE(SUM(output_tokens), 0) AS output_tokens, COUNT(*) AS requests").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
