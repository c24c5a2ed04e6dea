package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quickchat/backend/internal/chathub"
	"quickchat/backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Lock down in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and registers a new session with
// the hub. The user identifier comes from the userId query parameter; a
// session without one is admitted but cannot join rooms. Every connection
// gets a fresh session identifier, so reconnects never collide.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID := c.Query("userId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &chathub.WebSocketClient{
		Hub:       h.Hub,
		SessionID: uuid.New().String(),
		UserID:    userID,
		Conn:      conn,
		Send:      make(chan models.Event, 256),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
