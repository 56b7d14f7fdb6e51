package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mcdev12/racewall/go/internal/display/connection"
	"github.com/nats-io/nats.go"
)

// NATSConfig holds configuration for NATS sessions
type NATSConfig struct {
	// Subject is used when the endpoint URL has no path
	Subject        string
	ClientName     string
	ConnectTimeout time.Duration
}

// DefaultNATSConfig returns default NATS configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Subject:        "race.state",
		ClientName:     "racewall",
		ConnectTimeout: 5 * time.Second,
	}
}

// NATS receives snapshots published on a subject. The client library's own
// reconnect logic is disabled so the connection manager alone owns retries.
type NATS struct {
	config NATSConfig
}

var _ connection.Transport = (*NATS)(nil)

// NewNATS creates a NATS transport
func NewNATS(config NATSConfig) *NATS {
	return &NATS{config: config}
}

// splitNATSEndpoint turns nats://host:port/subject into a server URL and subject
func (n *NATS) splitNATSEndpoint(endpoint string) (string, string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", fmt.Errorf("parse endpoint: %w", err)
	}
	subject := strings.Trim(u.Path, "/")
	if subject == "" {
		subject = n.config.Subject
	}
	if subject == "" {
		return "", "", fmt.Errorf("endpoint %q has no subject", endpoint)
	}
	u.Path = ""
	return u.String(), subject, nil
}

// Open connects and subscribes in the background and returns immediately
func (n *NATS) Open(ctx context.Context, endpoint string, handler connection.SessionHandler) (connection.Session, error) {
	serverURL, subject, err := n.splitNATSEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	s := &natsSession{done: make(chan struct{})}
	go n.run(ctx, s, serverURL, subject, handler)
	return s, nil
}

func (n *NATS) run(ctx context.Context, s *natsSession, serverURL, subject string, handler connection.SessionHandler) {
	connClosed := make(chan struct{})
	opts := []nats.Option{
		nats.NoReconnect(),
		nats.Name(n.config.ClientName),
		nats.Timeout(n.config.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				handler.OnError(fmt.Errorf("nats disconnected: %w", err))
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			handler.OnClose()
			close(connClosed)
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			handler.OnError(fmt.Errorf("nats: %w", err))
		}),
	}

	nc, err := nats.Connect(serverURL, opts...)
	if err != nil {
		handler.OnError(fmt.Errorf("connect to NATS: %w", err))
		handler.OnClose()
		return
	}

	if _, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		handler.OnMessage(msg.Data)
	}); err != nil {
		handler.OnError(fmt.Errorf("subscribe %s: %w", subject, err))
		nc.Close()
		return
	}

	if !s.attach(nc) {
		nc.Close()
		return
	}
	handler.OnOpen()

	select {
	case <-ctx.Done():
		s.Close()
	case <-s.done:
	case <-connClosed:
	}
}

type natsSession struct {
	done chan struct{}

	mu     sync.Mutex
	nc     *nats.Conn
	closed bool
}

func (s *natsSession) attach(nc *nats.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.nc = nc
	return true
}

// Close ends the session; the NATS closed callback reports OnClose
func (s *natsSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	if s.nc != nil {
		s.nc.Close()
	}
	return nil
}
