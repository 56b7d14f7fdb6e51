package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/racewall/go/internal/display/connection"
	"github.com/rs/zerolog/log"
)

// WebSocketConfig holds configuration for websocket sessions
type WebSocketConfig struct {
	HandshakeTimeout time.Duration
	// ReadTimeout drops a session that stays silent this long; zero disables it
	ReadTimeout     time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultWebSocketConfig returns default websocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      0,
		MaxMessageSize:   64 * 1024, // snapshots carry the whole leaderboard
		ReadBufferSize:   4096,
		WriteBufferSize:  1024,
	}
}

// WebSocket opens receive-only websocket sessions
type WebSocket struct {
	config WebSocketConfig
	dialer *websocket.Dialer
}

var _ connection.Transport = (*WebSocket)(nil)

// NewWebSocket creates a websocket transport
func NewWebSocket(config WebSocketConfig) *WebSocket {
	return &WebSocket{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
		},
	}
}

// Open starts dialing endpoint in the background and returns immediately
func (w *WebSocket) Open(ctx context.Context, endpoint string, handler connection.SessionHandler) (connection.Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &wsSession{cancel: cancel}
	go w.run(ctx, s, endpoint, handler)
	return s, nil
}

func (w *WebSocket) run(ctx context.Context, s *wsSession, endpoint string, handler connection.SessionHandler) {
	conn, _, err := w.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		handler.OnError(fmt.Errorf("dial %s: %w", endpoint, err))
		handler.OnClose()
		return
	}

	if !s.attach(conn) {
		// Closed while the handshake was in flight.
		conn.Close()
		handler.OnClose()
		return
	}
	handler.OnOpen()

	conn.SetReadLimit(w.config.MaxMessageSize)
	w.extendDeadline(conn)
	conn.SetPingHandler(func(data string) error {
		w.extendDeadline(conn)
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(string) error {
		w.extendDeadline(conn)
		return nil
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if !s.isClosed() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				handler.OnError(fmt.Errorf("read: %w", err))
			}
			break
		}
		w.extendDeadline(conn)

		if messageType != websocket.TextMessage {
			log.Debug().Int("message_type", messageType).Msg("ignoring non-text frame")
			continue
		}
		handler.OnMessage(data)
	}

	conn.Close()
	handler.OnClose()
}

func (w *WebSocket) extendDeadline(conn *websocket.Conn) {
	if w.config.ReadTimeout <= 0 {
		return
	}
	conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
}

type wsSession struct {
	cancel context.CancelFunc

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (s *wsSession) attach(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	return true
}

func (s *wsSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close ends the session. The read loop observes it and reports OnClose.
func (s *wsSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()

	if s.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}
