package http

import (
	"context"
	"sync"
	"time"

	"buildmarket/internal/shared/eventbus"
	"buildmarket/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 64
)

// wsClient is one connected subscriber. kindFilter narrows the stream to a
// single collection when set.
type wsClient struct {
	id         string
	send       chan eventbus.ChangeEvent
	kindFilter string
}

// WSHandler streams entity change events to WebSocket subscribers. It
// subscribes to the bus once and fans events out to connected clients;
// a client too slow to drain its buffer loses events rather than
// backpressuring the write path.
type WSHandler struct {
	bus layerBus
	log logger.Logger

	mu      sync.RWMutex
	clients map[string]*wsClient
}

type layerBus interface {
	Subscribe(eventType string, handler eventbus.Handler)
}

// NewWSHandler creates the handler and wires it to the bus.
func NewWSHandler(bus layerBus, log logger.Logger) *WSHandler {
	h := &WSHandler{
		bus:     bus,
		log:     log.WithComponent("ws"),
		clients: make(map[string]*wsClient),
	}

	for _, eventType := range []string{
		eventbus.EventTypeEntityCreated,
		eventbus.EventTypeEntityUpdated,
		eventbus.EventTypeEntityDeleted,
	} {
		h.bus.Subscribe(eventType, h.broadcast)
	}
	return h
}

// RegisterRoutes registers the event stream endpoint.
func (h *WSHandler) RegisterRoutes(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws/events", websocket.New(h.handleConnection))
}

func (h *WSHandler) broadcast(ctx context.Context, event eventbus.ChangeEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.kindFilter != "" && client.kindFilter != event.Collection {
			continue
		}
		select {
		case client.send <- event:
		default:
			h.log.Warnf("Dropping event for slow subscriber %s", client.id)
		}
	}
	return nil
}

func (h *WSHandler) handleConnection(conn *websocket.Conn) {
	client := &wsClient{
		id:         uuid.New().String(),
		send:       make(chan eventbus.ChangeEvent, wsSendBuffer),
		kindFilter: conn.Query("collection"),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	h.log.Infof("WebSocket subscriber connected: %s", client.id)

	defer func() {
		h.mu.Lock()
		delete(h.clients, client.id)
		h.mu.Unlock()
		conn.Close()
		h.log.Infof("WebSocket subscriber disconnected: %s", client.id)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-client.send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// SubscriberCount reports connected clients, for the health endpoint.
func (h *WSHandler) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
