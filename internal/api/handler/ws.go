package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roomrelay/backend/internal/chathub"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.origins.checkOrigin,
	}
}

// ServeWebSocket upgrades the request and hands the connection to the hub
// under a freshly allocated connection id.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Debugf("websocket upgrade from %s failed: %v", c.ClientIP(), err)
		return
	}

	connID := uuid.NewString()
	client := chathub.NewWebSocketClient(connID, conn, h.Hub, h.Limiter, h.Config.MaxMessageSize, h.Config.SendBufferSize)

	if !h.Hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}
	h.log.Debugf("connection %s opened from %s", connID, c.ClientIP())
	client.Run()
}
