package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"lucide-core/internal/pkg/logger"
	"lucide-core/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, chan uuid.UUID) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	gone := make(chan uuid.UUID, 4)
	hub.OnLastDisconnect(func(id uuid.UUID) { gone <- id })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, gone
}

func attach(hub *Hub, userID uuid.UUID, buffer int) *Client {
	c := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, buffer)}
	hub.register <- c
	return c
}

func receive(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return Frame{}
	}
}

func TestHub_StateFramesReachEveryWindowOfTheUser(t *testing.T) {
	hub, _ := startHub(t)
	user := uuid.New()
	a := attach(hub, user, 8)
	b := attach(hub, user, 8)
	other := attach(hub, uuid.New(), 8)
	require.Equal(t, 2, hub.Connected(user))

	sessionID := uuid.New()
	hub.OnStateChange(user, service.RequestState{IsLoading: true, CurrentQuestion: "hi", SessionId: &sessionID})

	for _, c := range []*Client{a, b} {
		f := receive(t, c)
		assert.Equal(t, service.EventState, f.Type)
		var state service.RequestState
		require.NoError(t, json.Unmarshal(f.Data, &state))
		assert.True(t, state.IsLoading)
		assert.Equal(t, "hi", state.CurrentQuestion)
		assert.Equal(t, sessionID, *state.SessionId)
	}
	assert.Empty(t, other.Send)
}

func TestHub_EventWithoutPayload(t *testing.T) {
	hub, _ := startHub(t)
	user := uuid.New()
	c := attach(hub, user, 8)

	hub.OnEvent(user, service.EventShowAsk, nil)

	f := receive(t, c)
	assert.Equal(t, service.EventShowAsk, f.Type)
	assert.Empty(t, f.Data)
}

func TestHub_LastDisconnectCallback(t *testing.T) {
	hub, gone := startHub(t)
	user := uuid.New()
	a := attach(hub, user, 1)
	b := attach(hub, user, 1)

	hub.unregister <- a
	select {
	case <-gone:
		t.Fatal("callback fired while a window is still open")
	case <-time.After(50 * time.Millisecond):
	}

	hub.unregister <- b
	select {
	case id := <-gone:
		assert.Equal(t, user, id)
	case <-time.After(time.Second):
		t.Fatal("callback not fired")
	}
	assert.Equal(t, 0, hub.Connected(user))
}

func TestHub_FullBufferDropsWindowWithoutDisconnectCallback(t *testing.T) {
	hub, gone := startHub(t)
	user := uuid.New()
	slow := attach(hub, user, 0)

	hub.OnEvent(user, service.EventError, map[string]string{"error": "boom"})

	require.Eventually(t, func() bool { return hub.Connected(user) == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-slow.Send
	assert.False(t, ok, "dropped window keeps its send channel open")

	// The socket shutting down afterwards is not a window close either.
	hub.unregister <- slow
	select {
	case <-gone:
		t.Fatal("dropping a slow window fired the last-disconnect callback")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_InboundFramesReachCallback(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	got := make(chan Frame, 1)
	hub.OnFrame(func(_ uuid.UUID, f Frame) { got <- f })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	hub.inbound <- inboundFrame{userID: uuid.New(), frame: Frame{Type: "ask:cancel"}}
	select {
	case f := <-got:
		assert.Equal(t, "ask:cancel", f.Type)
	case <-time.After(time.Second):
		t.Fatal("frame not dispatched")
	}
}

func TestHub_SendAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		for i := 0; i < outboundBuffer+10; i++ {
			hub.OnEvent(uuid.New(), service.EventError, nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked after hub stopped")
	}
}
