package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection and blocks until the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, subject string) {
	client := NewClient(hub, c, subject)
	hub.Register(client)

	go client.writePump()
	client.readPump()
}
