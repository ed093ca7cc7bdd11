package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type blockingIndexer struct {
	release     chan struct{}
	runs        atomic.Int32
	screenshots atomic.Int32
	err         error
	mu          sync.Mutex
	mimeTypes   []string
}

func (b *blockingIndexer) IndexConversation(ctx context.Context, _, _ uuid.UUID) (int, error) {
	b.runs.Add(1)
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 2, b.err
}

func (b *blockingIndexer) IndexScreenshot(_ context.Context, _, _ uuid.UUID, _ []byte, mimeType string) (int, error) {
	b.screenshots.Add(1)
	b.mu.Lock()
	b.mimeTypes = append(b.mimeTypes, mimeType)
	b.mu.Unlock()
	return 1, nil
}

func TestTrigger_OneRunInFlightPerSession(t *testing.T) {
	indexer := &blockingIndexer{release: make(chan struct{})}
	svc := NewAutoIndexService(indexer, testLogger)
	userId, sessionId := uuid.New(), uuid.New()

	assert.True(t, svc.Trigger(userId, sessionId, 2))
	assert.False(t, svc.Trigger(userId, sessionId, 4))

	// Other sessions are independent.
	assert.True(t, svc.Trigger(userId, uuid.New(), 2))

	close(indexer.release)
	svc.Wait()
	assert.Equal(t, int32(2), indexer.runs.Load())
}

func TestTrigger_SkipsUnchangedCount(t *testing.T) {
	indexer := &blockingIndexer{}
	svc := NewAutoIndexService(indexer, testLogger)
	userId, sessionId := uuid.New(), uuid.New()

	assert.True(t, svc.Trigger(userId, sessionId, 2))
	svc.Wait()

	assert.False(t, svc.Trigger(userId, sessionId, 2))
	assert.True(t, svc.Trigger(userId, sessionId, 4))
	svc.Wait()
	assert.Equal(t, int32(2), indexer.runs.Load())
}

func TestTrigger_FailedRunIsRetried(t *testing.T) {
	indexer := &blockingIndexer{err: errors.New("embedding down")}
	svc := NewAutoIndexService(indexer, testLogger)
	userId, sessionId := uuid.New(), uuid.New()

	assert.True(t, svc.Trigger(userId, sessionId, 2))
	svc.Wait()

	assert.True(t, svc.Trigger(userId, sessionId, 2))
	svc.Wait()
	assert.Equal(t, int32(2), indexer.runs.Load())
}

func TestTriggerScreenshot(t *testing.T) {
	indexer := &blockingIndexer{}
	svc := NewAutoIndexService(indexer, testLogger)

	svc.TriggerScreenshot(uuid.New(), uuid.New(), []byte{1, 2, 3}, "image/png")
	svc.Wait()

	assert.Equal(t, int32(1), indexer.screenshots.Load())
	assert.Equal(t, []string{"image/png"}, indexer.mimeTypes)
}
