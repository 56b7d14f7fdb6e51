package transport

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/mcdev12/racewall/go/internal/display/connection"
)

// ErrUnsupportedScheme is returned for endpoints no transport can serve
var ErrUnsupportedScheme = errors.New("unsupported endpoint scheme")

// Config holds configuration for every transport kind
type Config struct {
	WebSocket WebSocketConfig
	NATS      NATSConfig
}

// DefaultConfig returns default transport configuration
func DefaultConfig() Config {
	return Config{
		WebSocket: DefaultWebSocketConfig(),
		NATS:      DefaultNATSConfig(),
	}
}

// ForEndpoint picks the transport matching the endpoint's URL scheme
func ForEndpoint(endpoint string, config Config) (connection.Transport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}

	switch u.Scheme {
	case "ws", "wss":
		return NewWebSocket(config.WebSocket), nil
	case "nats", "tls":
		return NewNATS(config.NATS), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
