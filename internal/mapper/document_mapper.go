package mapper

import (
	"encoding/json"
	"time"

	"lucide-core/internal/entity"
	"lucide-core/internal/model"
	"lucide-core/pkg/document"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var tags []string
	if len(d.Tags) > 0 {
		_ = json.Unmarshal(d.Tags, &tags)
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:          d.Id,
		UserId:      d.UserId,
		Title:       d.Title,
		Filename:    d.Filename,
		FileType:    document.FileType(d.FileType),
		FileSize:    d.FileSize,
		Content:     d.Content,
		Tags:        tags,
		Description: d.Description,
		ChunkCount:  d.ChunkCount,
		PageCount:   d.PageCount,
		Indexed:     d.Indexed,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	tags := datatypes.JSON("[]")
	if len(d.Tags) > 0 {
		if raw, err := json.Marshal(d.Tags); err == nil {
			tags = datatypes.JSON(raw)
		}
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:          d.Id,
		UserId:      d.UserId,
		Title:       d.Title,
		Filename:    d.Filename,
		FileType:    string(d.FileType),
		FileSize:    d.FileSize,
		Content:     d.Content,
		Tags:        tags,
		Description: d.Description,
		ChunkCount:  d.ChunkCount,
		PageCount:   d.PageCount,
		Indexed:     d.Indexed,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *DocumentMapper) ChunkToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}
	return &entity.DocumentChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		UserId:     c.UserId,
		ChunkIndex: c.ChunkIndex,
		Title:      c.Title,
		Content:    c.Content,
		PageNumber: c.PageNumber,
		Source:     c.Source,
		Embedding:  c.EmbeddingValue.Slice(),
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentMapper) ChunkToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}
	return &model.DocumentChunk{
		Id:             c.Id,
		DocumentId:     c.DocumentId,
		UserId:         c.UserId,
		ChunkIndex:     c.ChunkIndex,
		Title:          c.Title,
		Content:        c.Content,
		PageNumber:     c.PageNumber,
		Source:         c.Source,
		EmbeddingValue: pgvector.NewVector(c.Embedding),
		CreatedAt:      c.CreatedAt,
	}
}

func (m *DocumentMapper) CitationToModel(c *entity.MessageCitation) *model.MessageCitation {
	return &model.MessageCitation{
		Id:         c.Id,
		MessageId:  c.MessageId,
		DocumentId: c.DocumentId,
		ChunkId:    c.ChunkId,
		Title:      c.Title,
		PageNumber: c.PageNumber,
		Score:      c.Score,
		Snippet:    c.Snippet,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentMapper) CitationToEntity(c *model.MessageCitation) *entity.MessageCitation {
	return &entity.MessageCitation{
		Id:         c.Id,
		MessageId:  c.MessageId,
		DocumentId: c.DocumentId,
		ChunkId:    c.ChunkId,
		Title:      c.Title,
		PageNumber: c.PageNumber,
		Score:      c.Score,
		Snippet:    c.Snippet,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentMapper) UsageToModel(u *entity.TokenUsage) *model.TokenUsage {
	return &model.TokenUsage{
		Id:           u.Id,
		UserId:       u.UserId,
		SessionId:    u.SessionId,
		Provider:     u.Provider,
		Model:        u.Model,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		Estimated:    u.Estimated,
		CreatedAt:    u.CreatedAt,
	}
}
