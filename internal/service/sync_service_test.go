package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lucide-core/pkg/events"
	pktNats "lucide-core/pkg/nats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSubscriber struct {
	subject string
	durable string
	handler pktNats.EventHandler
	err     error
}

func (c *captureSubscriber) Subscribe(subject, durable string, handler pktNats.EventHandler) error {
	c.subject, c.durable, c.handler = subject, durable, handler
	return c.err
}

type sinkEvent struct {
	userId  uuid.UUID
	name    string
	payload interface{}
}

type recordingSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (r *recordingSink) OnEvent(userId uuid.UUID, name string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sinkEvent{userId, name, payload})
}

func TestSyncService_RelaysToOwner(t *testing.T) {
	sub := &captureSubscriber{}
	sink := &recordingSink{}
	svc := NewSyncService(sub, sink, "", testLogger)
	require.NoError(t, svc.Start())

	assert.Equal(t, "events.>", sub.subject)
	assert.Equal(t, "lucide-sync-worker", sub.durable)

	owner := uuid.New()
	ev := events.New(events.TypeDocumentIndexed, owner.String(), map[string]interface{}{"document_id": "d1"})
	ev.Type = "events." + ev.Type
	require.NoError(t, sub.handler(context.Background(), ev))

	require.Len(t, sink.events, 1)
	assert.Equal(t, owner, sink.events[0].userId)
	assert.Equal(t, "sync:document_indexed", sink.events[0].name)
	assert.Equal(t, "d1", sink.events[0].payload.(map[string]interface{})["document_id"])
}

func TestSyncService_DropsEventWithoutUser(t *testing.T) {
	sub := &captureSubscriber{}
	sink := &recordingSink{}
	require.NoError(t, NewSyncService(sub, sink, "custom", testLogger).Start())
	assert.Equal(t, "custom", sub.durable)

	ev := events.BaseEvent{Type: "events.ASK_COMPLETED", Data: map[string]interface{}{}, OccurredAt: time.Now()}
	assert.NoError(t, sub.handler(context.Background(), ev))
	assert.Empty(t, sink.events)
}

func TestSyncService_StartFailure(t *testing.T) {
	sub := &captureSubscriber{err: errors.New("no stream")}
	assert.Error(t, NewSyncService(sub, &recordingSink{}, "", testLogger).Start())
}
