package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"lucide-core/internal/pkg/logger"
	"lucide-core/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event. A returned error redelivers it.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber listens for events on durable JetStream consumers.
type Subscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.ILogger

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
}

func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// Subscribe registers a handler for a subject pattern on a durable
// consumer so events survive restarts.
func (s *Subscriber) Subscribe(subject string, durableName string, handler EventHandler) error {
	ctx := context.Background()
	if err := ensureStream(ctx, s.js); err != nil {
		s.logger.Warn("NATS", "Failed to ensure stream", map[string]interface{}{"stream": StreamName, "error": err.Error()})
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := decode(msg)
		if err != nil {
			s.logger.Error("NATS", "Error unmarshalling event data", map[string]interface{}{"subject": msg.Subject(), "error": err.Error()})
			// Malformed data never parses; do not redeliver it.
			_ = msg.Term()
			return
		}

		if err := handler(context.Background(), event); err != nil {
			s.logger.Warn("NATS", "Handler failed for event", map[string]interface{}{"subject": msg.Subject(), "error": err.Error()})
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.mu.Lock()
	s.consumes = append(s.consumes, cc)
	s.mu.Unlock()

	s.logger.Info("NATS", "Subscribed", map[string]interface{}{"subject": subject, "durable": durableName})
	return nil
}

func decode(msg jetstream.Msg) (events.BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Data(), &payload); err != nil {
		return events.BaseEvent{}, err
	}

	eventType := msg.Headers().Get(typeHeader)
	if eventType == "" {
		eventType = strings.TrimPrefix(msg.Subject(), "events.")
	}

	occurred := time.Now()
	if meta, err := msg.Metadata(); err == nil {
		occurred = meta.Timestamp
	}
	return events.BaseEvent{Type: eventType, Data: payload, OccurredAt: occurred}, nil
}

func (s *Subscriber) Close() {
	s.mu.Lock()
	for _, cc := range s.consumes {
		cc.Stop()
	}
	s.consumes = nil
	s.mu.Unlock()

	if s.nc != nil {
		s.nc.Close()
	}
}
