package service

import (
	"context"
	"encoding/json"
	"errors"

	"lucide-core/internal/dto"
	"lucide-core/internal/pkg/logger"
	"lucide-core/pkg/document"
	"lucide-core/pkg/events"
	"lucide-core/pkg/rag"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// DocumentIndexer is the part of the rag indexer the consumer drives.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, doc rag.IndexableDocument) (int, error)
}

type IndexableSource interface {
	Indexable(ctx context.Context, id uuid.UUID) (*rag.IndexableDocument, error)
}

// consumerService indexes uploaded documents in the background.
type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	documents      IndexableSource
	indexer        DocumentIndexer
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	documents IndexableSource,
	indexer DocumentIndexer,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		documents:      documents,
		indexer:        indexer,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("INDEX_CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	doc, err := cs.documents.Indexable(ctx, payload.DocumentId)
	if err != nil {
		cs.logger.Error("INDEX_CONSUMER", "Failed to load document", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}
	if doc == nil {
		// Deleted before we got to it.
		msg.Ack()
		return
	}
	doc.PageBreaks = payload.PageBreaks

	chunks, err := cs.indexer.IndexDocument(ctx, *doc)
	if err != nil {
		if isPermanentIndexError(err) {
			cs.logger.Error("INDEX_CONSUMER", "Document cannot be indexed", map[string]interface{}{
				"document_id": doc.ID.String(),
				"error":       err.Error(),
			})
			msg.Ack()
			return
		}
		cs.logger.Warn("INDEX_CONSUMER", "Indexing failed, will retry", map[string]interface{}{
			"document_id": doc.ID.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("INDEX_CONSUMER", "Document indexed", map[string]interface{}{
		"document_id": doc.ID.String(),
		"chunks":      chunks,
	})
	if cs.eventPublisher != nil {
		evt := events.New(events.TypeDocumentIndexed, doc.UserID.String(), map[string]interface{}{
			"document_id": doc.ID.String(),
			"chunks":      chunks,
		})
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("INDEX_CONSUMER", "Failed to publish event", map[string]interface{}{"error": err.Error()})
		}
	}
	msg.Ack()
}

// isPermanentIndexError reports failures a retry cannot fix.
func isPermanentIndexError(err error) bool {
	var unavailable *document.UnavailableCodecError
	return errors.Is(err, context.Canceled) || errors.As(err, &unavailable)
}
