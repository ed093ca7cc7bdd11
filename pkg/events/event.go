package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_UPLOADED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeDocumentUploaded = "DOCUMENT_UPLOADED"
	TypeDocumentIndexed  = "DOCUMENT_INDEXED"
	TypeDocumentDeleted  = "DOCUMENT_DELETED"
	TypeAskCompleted     = "ASK_COMPLETED"
	TypeProfileSwitched  = "PROFILE_SWITCHED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New stamps an event with the current time. The owning user travels in
// the payload so subscribers can route it.
func New(eventType, userId string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["user_id"] = userId
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

// UserID reads the owning user of an event, empty when absent.
func UserID(e Event) string {
	if id, ok := e.Payload()["user_id"].(string); ok {
		return id
	}
	return ""
}
