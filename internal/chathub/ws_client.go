package chathub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"

	"roomrelay/backend/internal/models"
	"roomrelay/backend/internal/ratelimit"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	limiterWait  = 500 * time.Millisecond
	defaultLimit = 64 * 1024
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	ConnID         string
	Conn           *websocket.Conn
	Hub            *ManagerService
	Send           chan models.Envelope
	Limiter        ratelimit.Limiter
	MaxMessageSize int64
	Log            logging.LeveledLogger

	closeOnce sync.Once
}

// NewWebSocketClient wires a connection to the hub. sendBuffer bounds the
// number of outbound frames queued before the hub starts dropping.
func NewWebSocketClient(connID string, conn *websocket.Conn, hub *ManagerService, limiter ratelimit.Limiter, maxMessageSize int64, sendBuffer int) *WebSocketClient {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	if maxMessageSize <= 0 {
		maxMessageSize = defaultLimit
	}
	return &WebSocketClient{
		ConnID:         connID,
		Conn:           conn,
		Hub:            hub,
		Send:           make(chan models.Envelope, sendBuffer),
		Limiter:        limiter,
		MaxMessageSize: maxMessageSize,
		Log:            hub.Logger("ws"),
	}
}

// --- Client interface ---

func (c *WebSocketClient) GetConnID() string                      { return c.ConnID }
func (c *WebSocketClient) GetSendChannel() chan<- models.Envelope { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which makes writePump send a close frame and exit.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// --- Pumps ---

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Limiter.Forget(context.Background(), c.ConnID)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.Log.Warnf("read from %s: %v", c.ConnID, err)
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			c.Log.Debugf("malformed frame from %s skipped", c.ConnID)
			continue
		}
		if !c.allow() {
			c.Log.Debugf("rate limit: %s from %s dropped", env.Event, c.ConnID)
			continue
		}

		if !c.Hub.Submit(Inbound{ConnID: c.ConnID, Envelope: env}) {
			return
		}
	}
}

// allow fails open: a limiter backend error lets the event through.
func (c *WebSocketClient) allow() bool {
	ctx, cancel := context.WithTimeout(context.Background(), limiterWait)
	defer cancel()

	ok, err := c.Limiter.Allow(ctx, c.ConnID)
	if err != nil {
		c.Log.Warnf("rate limiter unavailable for %s: %v", c.ConnID, err)
		return true
	}
	return ok
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteJSON(env); err != nil {
				c.Log.Debugf("write to %s: %v", c.ConnID, err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
