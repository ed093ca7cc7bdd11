package mapper

import (
	"encoding/json"
	"time"

	"lucide-core/internal/entity"
	"lucide-core/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) SessionToEntity(s *model.ConversationSession) *entity.ConversationSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ConversationSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Type:         entity.SessionType(s.Type),
		Title:        s.Title,
		AgentProfile: s.AgentProfile,
		MessageCount: s.MessageCount,
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    s.DeletedAt.Valid,
	}
}

func (m *ConversationMapper) SessionToModel(s *entity.ConversationSession) *model.ConversationSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ConversationSession{
		Id:           s.Id,
		UserId:       s.UserId,
		Type:         string(s.Type),
		Title:        s.Title,
		AgentProfile: s.AgentProfile,
		MessageCount: s.MessageCount,
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *ConversationMapper) MessageToEntity(msg *model.ConversationMessage) *entity.ConversationMessage {
	if msg == nil {
		return nil
	}

	var blocks []entity.ContentBlock
	if len(msg.ContentBlocks) > 0 {
		// A malformed column only loses the block metadata, never the text.
		_ = json.Unmarshal(msg.ContentBlocks, &blocks)
	}

	return &entity.ConversationMessage{
		Id:            msg.Id,
		SessionId:     msg.SessionId,
		Role:          entity.MessageRole(msg.Role),
		Content:       msg.Content,
		ContentBlocks: blocks,
		Model:         msg.Model,
		TokenCount:    msg.TokenCount,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ConversationMapper) MessageToModel(msg *entity.ConversationMessage) *model.ConversationMessage {
	if msg == nil {
		return nil
	}

	var blocks datatypes.JSON
	if len(msg.ContentBlocks) > 0 {
		if raw, err := json.Marshal(msg.ContentBlocks); err == nil {
			blocks = datatypes.JSON(raw)
		}
	}

	return &model.ConversationMessage{
		Id:            msg.Id,
		SessionId:     msg.SessionId,
		Role:          string(msg.Role),
		Content:       msg.Content,
		ContentBlocks: blocks,
		Model:         msg.Model,
		TokenCount:    msg.TokenCount,
		CreatedAt:     msg.CreatedAt,
	}
}
