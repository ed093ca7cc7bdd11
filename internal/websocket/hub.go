package websocket

import (
	"context"
	"encoding/json"

	"lucide-core/internal/pkg/logger"
	"lucide-core/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	clusterChannel = "lucide_window_events"
	outboundBuffer = 1024
)

// Frame is the envelope of every message exchanged with a window.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type delivery struct {
	userID uuid.UUID
	data   []byte
}

type inboundFrame struct {
	userID uuid.UUID
	frame  Frame
}

type countRequest struct {
	userID uuid.UUID
	reply  chan int
}

// Hub fans ask state and window events out to the sockets of a user. It
// implements service.StateObserver and actions.Notifier. All client map
// access happens on the Run goroutine.
type Hub struct {
	// UserID -> sockets, one per open window
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	outbound   chan delivery
	inbound    chan inboundFrame
	countReq   chan countRequest
	done       chan struct{}

	// Redis connection for cross-instance delivery, optional
	rdb        *redis.Client
	instanceID string

	logger logger.ILogger

	onLastDisconnect func(userID uuid.UUID)
	onFrame          func(userID uuid.UUID, frame Frame)
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan delivery, outboundBuffer),
		inbound:    make(chan inboundFrame, 64),
		countReq:   make(chan countRequest),
		done:       make(chan struct{}),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// OnLastDisconnect is called when the last window of a user closes. Set it
// before Run.
func (h *Hub) OnLastDisconnect(fn func(userID uuid.UUID)) {
	h.onLastDisconnect = fn
}

// OnFrame receives frames sent by windows. Set it before Run.
func (h *Hub) OnFrame(fn func(userID uuid.UUID, frame Frame)) {
	h.onFrame = fn
}

// Run owns the client map until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for _, c := range clients {
					close(c.Send)
				}
			}
			h.clients = make(map[uuid.UUID][]*Client)
			return

		case client := <-h.register:
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.logger.Info("HUB", "Window connected", map[string]interface{}{
				"user_id": client.UserID.String(),
				"windows": len(h.clients[client.UserID]),
			})

		case client := <-h.unregister:
			h.remove(client, true)

		case d := <-h.outbound:
			h.deliver(d)

		case msg := <-h.inbound:
			// Callbacks may emit frames, which need this goroutine.
			if h.onFrame != nil {
				go h.onFrame(msg.userID, msg.frame)
			}

		case req := <-h.countReq:
			req.reply <- len(h.clients[req.userID])
		}
	}
}

// remove detaches a window. notify is false when the hub drops a slow
// window itself, which must not read as the user closing it.
func (h *Hub) remove(client *Client, notify bool) {
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	found := false
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			found = true
			break
		}
	}
	if !found {
		return
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		if !notify {
			return
		}
		h.logger.Info("HUB", "Last window closed", map[string]interface{}{"user_id": client.UserID.String()})
		if h.onLastDisconnect != nil {
			go h.onLastDisconnect(client.UserID)
		}
	}
}

// deliver drops a window whose buffer is full rather than stalling the
// ask stream. The active request keeps running; the window reconnects.
func (h *Hub) deliver(d delivery) {
	for _, client := range append([]*Client(nil), h.clients[d.userID]...) {
		select {
		case client.Send <- d.data:
		default:
			h.logger.Warn("HUB", "Window send buffer full, dropping window", map[string]interface{}{"user_id": d.userID.String()})
			h.remove(client, false)
		}
	}
}

// Connected returns the number of open windows of a user on this instance.
func (h *Hub) Connected(userID uuid.UUID) int {
	reply := make(chan int, 1)
	select {
	case h.countReq <- countRequest{userID: userID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// OnStateChange pushes an ask state snapshot.
func (h *Hub) OnStateChange(userID uuid.UUID, state service.RequestState) {
	h.send(userID, service.EventState, state)
}

// OnEvent pushes a named window event.
func (h *Hub) OnEvent(userID uuid.UUID, name string, payload interface{}) {
	h.send(userID, name, payload)
}

func (h *Hub) send(userID uuid.UUID, name string, payload interface{}) {
	frame := Frame{Type: name}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			h.logger.Error("HUB", "Failed to encode frame", map[string]interface{}{"type": name, "error": err.Error()})
			return
		}
		frame.Data = raw
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.enqueue(delivery{userID: userID, data: data})

	if h.rdb != nil {
		msg, _ := json.Marshal(map[string]interface{}{
			"origin":         h.instanceID,
			"target_user_id": userID.String(),
			"message":        json.RawMessage(data),
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, msg).Err(); err != nil {
			h.logger.Warn("HUB", "Failed to publish frame to redis", map[string]interface{}{"error": err.Error()})
		}
	}
}

// enqueue is a no-op once Run has returned.
func (h *Hub) enqueue(d delivery) {
	select {
	case h.outbound <- d:
	case <-h.done:
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	go func() {
		<-ctx.Done()
		pubsub.Close()
	}()

	for msg := range pubsub.Channel() {
		var payload struct {
			Origin       string          `json:"origin"`
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("HUB", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceID {
			continue
		}
		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}
		h.enqueue(delivery{userID: uid, data: payload.Message})
	}
}
