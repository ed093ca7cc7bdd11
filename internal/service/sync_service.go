package service

import (
	"context"
	"strings"

	"lucide-core/internal/pkg/logger"
	"lucide-core/pkg/events"
	pktNats "lucide-core/pkg/nats"

	"github.com/google/uuid"
)

// SyncEventPrefix prefixes bus events relayed to the window.
const SyncEventPrefix = "sync:"

// EventSubscriber is the durable side of the event bus.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

// EventSink receives relayed events. Typically the websocket hub.
type EventSink interface {
	OnEvent(userId uuid.UUID, name string, payload interface{})
}

type ISyncService interface {
	Start() error
}

// syncService relays bus events to the owning user's windows so other
// open windows refresh document lists, profiles and history.
type syncService struct {
	subscriber EventSubscriber
	sink       EventSink
	durable    string
	logger     logger.ILogger
}

func NewSyncService(sub EventSubscriber, sink EventSink, durable string, log logger.ILogger) ISyncService {
	if durable == "" {
		durable = "lucide-sync-worker"
	}
	return &syncService{
		subscriber: sub,
		sink:       sink,
		durable:    durable,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *syncService) Start() error {
	if err := s.subscriber.Subscribe("events.>", s.durable, s.handleEvent); err != nil {
		s.logger.Error("SYNC", "Failed to start sync subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("SYNC", "Sync service started, listening to events.>", nil)
	return nil
}

func (s *syncService) handleEvent(ctx context.Context, event events.Event) error {
	// The subject carries the stream prefix.
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	userId, err := uuid.Parse(events.UserID(event))
	if err != nil {
		// Unroutable; acking keeps it from being redelivered forever.
		s.logger.Warn("SYNC", "Event without user_id dropped", map[string]interface{}{"type": typeCode})
		return nil
	}

	s.sink.OnEvent(userId, SyncEventPrefix+strings.ToLower(typeCode), event.Payload())
	return nil
}
