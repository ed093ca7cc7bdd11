package websocket

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is a middleman between one window socket and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	UserID uuid.UUID

	// Buffered channel of outbound frames.
	Send chan []byte
}

func (c *Client) leave() {
	select {
	case c.Hub.unregister <- c:
	case <-c.Hub.done:
	}
}

// readPump forwards frames sent by the window to the hub.
func (c *Client) readPump() {
	defer func() {
		c.leave()
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("HUB", "Window closed unexpectedly", map[string]interface{}{
					"user_id": c.UserID.String(),
					"error":   err.Error(),
				})
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Type == "" {
			c.Hub.logger.Debug("HUB", "Ignoring malformed frame", map[string]interface{}{"user_id": c.UserID.String()})
			continue
		}
		select {
		case c.Hub.inbound <- inboundFrame{userID: c.UserID, frame: frame}:
		case <-c.Hub.done:
			return
		}
	}
}

// writePump pumps frames from the hub to the socket, one frame per
// websocket message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
