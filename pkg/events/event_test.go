package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCarriesUser(t *testing.T) {
	e := New(TypeDocumentUploaded, "u-1", map[string]interface{}{"title": "Report"})

	assert.Equal(t, TypeDocumentUploaded, e.EventType())
	assert.Equal(t, "u-1", UserID(e))
	assert.Equal(t, "Report", e.Payload()["title"])
	assert.False(t, e.Timestamp().IsZero())
}

func TestUserIDMissing(t *testing.T) {
	assert.Equal(t, "", UserID(BaseEvent{Type: "X"}))
	assert.Equal(t, "u", UserID(New("X", "u", nil)))
}
