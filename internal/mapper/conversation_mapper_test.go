package mapper

import (
	"testing"
	"time"

	"lucide-core/internal/entity"
	"lucide-core/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageMapping_KeepsContentBlocks(t *testing.T) {
	m := NewConversationMapper()
	msg := &entity.ConversationMessage{
		Id:        uuid.New(),
		SessionId: uuid.New(),
		Role:      entity.RoleUser,
		Content:   "what is on my screen?",
		ContentBlocks: []entity.ContentBlock{
			{Type: "text", Text: "what is on my screen?"},
			{Type: "image", MimeType: "image/jpeg", Width: 1920, Height: 1080},
		},
	}

	back := m.MessageToEntity(m.MessageToModel(msg))
	require.Len(t, back.ContentBlocks, 2)
	assert.Equal(t, msg.ContentBlocks, back.ContentBlocks)
	assert.Equal(t, entity.RoleUser, back.Role)
}

func TestMessageMapping_MalformedBlocksKeepText(t *testing.T) {
	got := NewConversationMapper().MessageToEntity(&model.ConversationMessage{
		Content:       "hello",
		ContentBlocks: []byte("{broken"),
	})
	assert.Equal(t, "hello", got.Content)
	assert.Empty(t, got.ContentBlocks)
}

func TestSessionMapping_EndedAndDeleted(t *testing.T) {
	m := NewConversationMapper()
	ended := time.Now()
	s := &entity.ConversationSession{Id: uuid.New(), Type: entity.SessionTypeListen, EndedAt: &ended, IsDeleted: true}

	mod := m.SessionToModel(s)
	assert.True(t, mod.DeletedAt.Valid)
	assert.Equal(t, "listen", mod.Type)

	back := m.SessionToEntity(mod)
	assert.False(t, back.IsActive())
	assert.Equal(t, entity.SessionTypeListen, back.Type)
}

func TestDocumentMapping_Tags(t *testing.T) {
	m := NewDocumentMapper()
	mod := m.ToModel(&entity.Document{Title: "x"})
	assert.Equal(t, "[]", string(mod.Tags))

	back := m.ToEntity(m.ToModel(&entity.Document{Tags: []string{"finance", "q3"}}))
	assert.Equal(t, []string{"finance", "q3"}, back.Tags)
}
