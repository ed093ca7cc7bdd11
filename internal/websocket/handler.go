package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a window socket to the hub and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, UserID: userID, Send: make(chan []byte, sendBuffer)}
	select {
	case hub.register <- client:
	case <-hub.done:
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
