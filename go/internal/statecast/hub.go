package statecast

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// HubConfig holds configuration for display connections
type HubConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultHubConfig returns default websocket configuration
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBuffer:      64,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Hub fans snapshots out to every connected display. A display that
// connects is sent the latest snapshot first.
type Hub struct {
	upgrader websocket.Upgrader
	config   HubConfig

	mu          sync.RWMutex
	connections map[*Connection]bool
	latest      []byte
	broadcasts  int
}

// Connection is one connected display
type Connection struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	ConnectedAt time.Time

	hub *Hub
}

// NewHub creates a hub with no connections
func NewHub(config HubConfig) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		connections: make(map[*Connection]bool),
	}
}

// Run blocks until ctx is cancelled, then disconnects every display
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("statecast hub started")
	<-ctx.Done()

	h.mu.Lock()
	for conn := range h.connections {
		h.unregisterLocked(conn)
	}
	h.mu.Unlock()
	log.Info().Msg("statecast hub stopped")
}

// ServeWS upgrades the request and registers the display
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	c := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, h.config.SendBuffer),
		ConnectedAt: time.Now(),
		hub:         h,
	}
	h.register(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("display connected")
}

// register adds the connection and queues the latest snapshot under the
// same lock as Broadcast, so a display never misses or repeats a frame.
func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[c] = true
	if h.latest != nil {
		c.Send <- h.latest
	}

	log.Debug().
		Str("connection_id", c.ID).
		Int("total_connections", len(h.connections)).
		Msg("connection registered")
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *Connection) {
	if _, ok := h.connections[c]; !ok {
		return
	}
	delete(h.connections, c)
	close(c.Send)

	log.Info().
		Str("connection_id", c.ID).
		Dur("connected_for", time.Since(c.ConnectedAt)).
		Msg("display disconnected")
}

// Broadcast records raw as the latest snapshot and queues it for every
// display. Displays whose send buffer is full are dropped.
func (h *Hub) Broadcast(raw []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = raw
	h.broadcasts++

	for c := range h.connections {
		select {
		case c.Send <- raw:
		default:
			log.Warn().Str("connection_id", c.ID).Msg("connection send buffer full, closing connection")
			h.unregisterLocked(c)
		}
	}

	log.Debug().Int("connections", len(h.connections)).Msg("snapshot broadcast")
}

// Latest returns the most recent snapshot, or nil before the first broadcast
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// HubStats describes the hub's current state
type HubStats struct {
	Connections int `json:"connections"`
	Broadcasts  int `json:"broadcasts"`
}

// Stats returns connection and broadcast counts
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{Connections: len(h.connections), Broadcasts: h.broadcasts}
}

// writePump sends queued snapshots and keepalive pings
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.hub.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write snapshot")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump drains control frames; displays never send data
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close error")
			}
			return
		}
		log.Debug().
			Str("connection_id", c.ID).
			Str("message", fmt.Sprintf("%.64s", message)).
			Msg("ignoring message from display")
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}
