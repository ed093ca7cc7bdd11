package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"lucide-core/internal/dto"
	"lucide-core/pkg/document"
	"lucide-core/pkg/events"
	"lucide-core/pkg/rag"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndexable struct {
	doc *rag.IndexableDocument
	err error
}

func (f fakeIndexable) Indexable(context.Context, uuid.UUID) (*rag.IndexableDocument, error) {
	if f.doc == nil {
		return nil, f.err
	}
	cp := *f.doc
	return &cp, f.err
}

type fakeDocIndexer struct {
	mu     sync.Mutex
	err    error
	chunks int
	got    []rag.IndexableDocument
	done   chan struct{}
}

func (f *fakeDocIndexer) IndexDocument(_ context.Context, doc rag.IndexableDocument) (int, error) {
	f.mu.Lock()
	f.got = append(f.got, doc)
	f.mu.Unlock()
	if f.done != nil {
		defer close(f.done)
	}
	return f.chunks, f.err
}

func indexMessage(t *testing.T, payload dto.PublishIndexDocumentMessage) *message.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), raw)
}

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func nacked(msg *message.Message) bool {
	select {
	case <-msg.Nacked():
		return true
	default:
		return false
	}
}

func TestProcessMessage_Outcomes(t *testing.T) {
	doc := &rag.IndexableDocument{ID: uuid.New(), UserID: uuid.New(), Title: "report", Content: "text"}
	breaks := []document.PageBreak{{PageNumber: 1, CharStart: 0, CharEnd: 4}}

	tests := []struct {
		name      string
		source    fakeIndexable
		indexErr  error
		wantAck   bool
		wantIndex bool
		wantEvent bool
	}{
		{name: "indexed", source: fakeIndexable{doc: doc}, wantAck: true, wantIndex: true, wantEvent: true},
		{name: "document gone", source: fakeIndexable{}, wantAck: true},
		{name: "load failure retries", source: fakeIndexable{err: errors.New("db down")}},
		{name: "transient index failure retries", source: fakeIndexable{doc: doc}, indexErr: errors.New("embedding timeout"), wantIndex: true},
		{name: "missing codec is permanent", source: fakeIndexable{doc: doc}, indexErr: &document.UnavailableCodecError{Format: document.FileTypePDF}, wantAck: true, wantIndex: true},
		{name: "cancellation is permanent", source: fakeIndexable{doc: doc}, indexErr: context.Canceled, wantAck: true, wantIndex: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indexer := &fakeDocIndexer{err: tt.indexErr, chunks: 3}
			publisher := &recordingPublisher{}
			cs := NewConsumerService(nil, "index", tt.source, indexer, publisher, testLogger).(*consumerService)

			msg := indexMessage(t, dto.PublishIndexDocumentMessage{DocumentId: doc.ID, PageBreaks: breaks})
			cs.processMessage(context.Background(), msg)

			assert.Equal(t, tt.wantAck, acked(msg))
			assert.Equal(t, !tt.wantAck, nacked(msg))
			if tt.wantIndex {
				require.Len(t, indexer.got, 1)
				assert.Equal(t, breaks, indexer.got[0].PageBreaks)
			} else {
				assert.Empty(t, indexer.got)
			}
			if tt.wantEvent {
				assert.Equal(t, []string{events.TypeDocumentIndexed}, publisher.types())
			} else {
				assert.Empty(t, publisher.types())
			}
		})
	}
}

func TestProcessMessage_BadPayloadIsDropped(t *testing.T) {
	indexer := &fakeDocIndexer{}
	cs := NewConsumerService(nil, "index", fakeIndexable{}, indexer, nil, testLogger).(*consumerService)

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	cs.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Empty(t, indexer.got)
}

func TestPublishAndConsume_OverGoChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	doc := &rag.IndexableDocument{ID: uuid.New(), UserID: uuid.New(), Title: "notes", Content: "hello"}
	indexer := &fakeDocIndexer{chunks: 1, done: make(chan struct{})}
	consumer := NewConsumerService(pubSub, "document.index", fakeIndexable{doc: doc}, indexer, nil, testLogger)
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(pubSub, "document.index")
	require.NoError(t, publisher.EnqueueDocument(ctx, dto.PublishIndexDocumentMessage{DocumentId: doc.ID}))

	select {
	case <-indexer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("document was not indexed")
	}
	indexer.mu.Lock()
	defer indexer.mu.Unlock()
	require.Len(t, indexer.got, 1)
	assert.Equal(t, doc.ID, indexer.got[0].ID)
}
