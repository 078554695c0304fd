// Package feed streams ledger events to connected UIs over websockets so
// they can refresh without polling.
package feed

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/logger"
)

var log = logger.NewSublogger("feed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans ledger events out to every connected websocket.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// Run consumes the bus until the subscription is cancelled. Run it in its
// own goroutine.
func (h *Hub) Run(bus *events.Bus) func() {
	ch, cancel := bus.Subscribe()
	go func() {
		for evt := range ch {
			h.broadcast(evt)
		}
	}()
	return cancel
}

func (h *Hub) broadcast(evt events.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if err := c.WriteJSON(evt); err != nil {
			log.WithError(err).Debug("write to websocket failed")
		}
	}
}

func (h *Hub) register(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// EventsWS - GET /events/ws, upgrades and streams events until the client
// goes away.
func (h *Hub) EventsWS(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	h.register(conn)
	log.WithField("identity", uid).Debug("feed client connected")

	go func() {
		defer func() {
			h.unregister(conn)
			_ = conn.Close()
		}()
		// drain control frames; the feed is write-only
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}
