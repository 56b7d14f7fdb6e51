package statecast

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSMirrorConfig holds configuration for republishing snapshots to NATS
type NATSMirrorConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSMirrorConfig returns default NATS mirror configuration
func DefaultNATSMirrorConfig() NATSMirrorConfig {
	return NATSMirrorConfig{
		URL:           nats.DefaultURL,
		Subject:       "race.state",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSMirror republishes every snapshot on a NATS subject, so displays can
// subscribe instead of holding a websocket.
type NATSMirror struct {
	nc      *nats.Conn
	subject string
}

// NewNATSMirror connects to NATS
func NewNATSMirror(config NATSMirrorConfig) (*NATSMirror, error) {
	opts := []nats.Option{
		nats.Name("statecast"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().Str("url", config.URL).Str("subject", config.Subject).Msg("mirroring snapshots to NATS")
	return &NATSMirror{nc: nc, subject: config.Subject}, nil
}

// Broadcast publishes raw on the mirror subject
func (m *NATSMirror) Broadcast(raw []byte) {
	if err := m.nc.Publish(m.subject, raw); err != nil {
		log.Error().Err(err).Str("subject", m.subject).Msg("failed to publish snapshot to NATS")
	}
}

// Close drains pending publishes and closes the connection
func (m *NATSMirror) Close() error {
	return m.nc.Drain()
}
