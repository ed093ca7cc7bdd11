package service

import (
	"context"
	"testing"
	"time"

	"lucide-core/internal/entity"
	"lucide-core/pkg/rag"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionFixture() (*memStore, *recordingRemover, ISessionService) {
	store := newMemStore()
	remover := &recordingRemover{}
	return store, remover, NewSessionService(store, remover)
}

func TestGetOrCreateActive_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newSessionFixture()
	userId := uuid.New()

	first, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)
	second, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, entity.SessionTypeAsk, second.Type)
}

func TestGetOrCreateActive_ListenPromotesAsk(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newSessionFixture()
	userId := uuid.New()

	ask, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)

	listen, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeListen)
	require.NoError(t, err)
	assert.Equal(t, ask.Id, listen.Id)
	assert.Equal(t, entity.SessionTypeListen, listen.Type)
	assert.Equal(t, entity.SessionTypeListen, store.sessions[ask.Id].Type)
}

func TestGetOrCreateActive_AskReusesListen(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newSessionFixture()
	userId := uuid.New()

	listen, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeListen)
	require.NoError(t, err)

	ask, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)
	assert.Equal(t, listen.Id, ask.Id)
	assert.Equal(t, entity.SessionTypeListen, ask.Type)
}

func TestEnd_StartsNewSessionAfterwards(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newSessionFixture()
	userId := uuid.New()

	first, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)
	require.NoError(t, svc.End(ctx, userId, first.Id))

	second, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)
	assert.NotEqual(t, first.Id, second.Id)
}

func TestEnd_OtherUsersSessionIsNotFound(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newSessionFixture()

	session, err := svc.GetOrCreateActive(ctx, uuid.New(), entity.SessionTypeAsk)
	require.NoError(t, err)

	err = svc.End(ctx, uuid.New(), session.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateMetadata_CountsMessages(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newSessionFixture()
	userId := uuid.New()

	session, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)
	for _, role := range []entity.MessageRole{entity.RoleUser, entity.RoleAssistant} {
		require.NoError(t, svc.AppendMessage(ctx, &entity.ConversationMessage{SessionId: session.Id, Role: role, Content: "hi"}))
	}

	count, err := svc.UpdateMetadata(ctx, session.Id, "research")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "research", store.sessions[session.Id].AgentProfile)
	assert.Equal(t, 2, store.sessions[session.Id].MessageCount)

	_, err = svc.UpdateMetadata(ctx, uuid.New(), "research")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAppendMessage_FillsIdentity(t *testing.T) {
	_, _, svc := newSessionFixture()
	msg := &entity.ConversationMessage{SessionId: uuid.New(), Role: entity.RoleUser, Content: "q"}

	require.NoError(t, svc.AppendMessage(context.Background(), msg))
	assert.NotEqual(t, uuid.Nil, msg.Id)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestMessages_CitationsAndImages(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newSessionFixture()
	userId := uuid.New()
	session, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)

	question := &entity.ConversationMessage{
		SessionId: session.Id,
		Role:      entity.RoleUser,
		Content:   "what is on screen?",
		ContentBlocks: []entity.ContentBlock{
			{Type: "text", Text: "what is on screen?"},
			{Type: "image", MimeType: "image/png"},
		},
	}
	answer := &entity.ConversationMessage{SessionId: session.Id, Role: entity.RoleAssistant, Content: "a chart"}
	require.NoError(t, svc.AppendMessage(ctx, question))
	require.NoError(t, svc.AppendMessage(ctx, answer))

	docId := uuid.New()
	require.NoError(t, NewCitationService(store).Track(ctx, answer.Id, []rag.Source{
		{DocumentID: docId, Title: "report", PageNumber: 2, Score: 0.8, Snippet: "revenue grew"},
	}))

	messages, err := svc.Messages(ctx, userId, session.Id)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].HasImage)
	assert.Empty(t, messages[0].Citations)
	require.Len(t, messages[1].Citations, 1)
	assert.Equal(t, docId, messages[1].Citations[0].DocumentId)
	assert.Equal(t, 2, messages[1].Citations[0].PageNumber)
}

func TestDelete_RemovesMessagesAndTranscriptChunks(t *testing.T) {
	ctx := context.Background()
	store, remover, svc := newSessionFixture()
	userId := uuid.New()
	session, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)
	require.NoError(t, svc.AppendMessage(ctx, &entity.ConversationMessage{SessionId: session.Id, Role: entity.RoleUser, Content: "q"}))

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), session.Id), ErrSessionNotFound)

	require.NoError(t, svc.Delete(ctx, userId, session.Id))
	assert.Empty(t, store.sessions)
	assert.Empty(t, store.messages)
	assert.Equal(t, []uuid.UUID{session.Id}, remover.removed)
}

func TestTranscript(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newSessionFixture()
	userId := uuid.New()
	session, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)

	started := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	store.sessions[session.Id].StartedAt = started

	require.NoError(t, svc.AppendMessage(ctx, &entity.ConversationMessage{SessionId: session.Id, Role: entity.RoleUser, Content: " How do I reset it? "}))
	require.NoError(t, svc.AppendMessage(ctx, &entity.ConversationMessage{SessionId: session.Id, Role: entity.RoleAssistant, Content: "Hold the button."}))

	tr, err := svc.Transcript(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, "Conversation 2026-03-04 09:30", tr.Title)
	assert.Equal(t, "User: How do I reset it?\n\nAssistant: Hold the button.", tr.Text)
	assert.Equal(t, 2, tr.MessageCount)

	require.NoError(t, svc.SetTitle(ctx, session.Id, "  Device reset "))
	tr, err = svc.Transcript(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, "Device reset", tr.Title)
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newSessionFixture()
	userId := uuid.New()

	old, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)
	require.NoError(t, svc.End(ctx, userId, old.Id))
	store.sessions[old.Id].StartedAt = time.Now().Add(-time.Hour)

	current, err := svc.GetOrCreateActive(ctx, userId, entity.SessionTypeAsk)
	require.NoError(t, err)

	list, err := svc.List(ctx, userId, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, current.Id, list[0].Id)
	assert.NotNil(t, list[1].EndedAt)
}
