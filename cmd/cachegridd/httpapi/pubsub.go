package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/R3E-Network/cachegrid/internal/engine"
)

var pubsubUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The control surface is meant for trusted operators/SDKs behind the
	// node's own ingress, not arbitrary browser origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pubsubFrame is one WebSocket-delivered message (spec §4.1's publish
// fan-out surfaced over HTTP instead of a RESP connection).
type pubsubFrame struct {
	Channel   string    `json:"channel"`
	Pattern   string    `json:"pattern,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// handlePubSub serves GET /cache/pubsub?namespace=...&channel=...[&pattern=1],
// upgrading to a WebSocket and streaming every matching publish as a JSON
// frame until the client disconnects.
func (s *Service) handlePubSub(c *gin.Context) {
	namespace := c.DefaultQuery("namespace", "default")
	channel := c.Query("channel")
	if channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel is required"})
		return
	}
	eng := s.cfg.Provisioning.EngineForNamespace(namespace)
	if eng == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "namespace not found"})
		return
	}

	conn, err := pubsubUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn(context.Background(), "websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	frames := make(chan pubsubFrame, 64)
	isPattern := c.Query("pattern") != ""
	forward := func(msg engine.Message) {
		select {
		case frames <- pubsubFrame{Channel: msg.Channel, Pattern: msg.Pattern, Message: string(msg.Payload), Timestamp: msg.Timestamp}:
		default:
			// Slow reader: drop rather than block the publisher (spec §4.1).
		}
	}

	var handle engine.SubscriptionHandle
	if isPattern {
		handle = eng.PSubscribe(channel, forward)
	} else {
		handle = eng.Subscribe(channel, forward)
	}
	defer handle.Unsubscribe()

	// Detect client-initiated close without blocking the frame loop.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case frame := <-frames:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
