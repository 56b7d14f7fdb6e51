package connection

import (
	"context"

	"github.com/mcdev12/racewall/go/internal/display/snapshot"
)

// SessionHandler receives the events of one transport session.
// Transports must call it from their own goroutines, never from inside Open or Close.
type SessionHandler interface {
	OnOpen()
	OnMessage(raw []byte)
	OnError(err error)
	OnClose()
}

// Session is a live transport session
type Session interface {
	Close() error
}

// Transport opens sessions to an endpoint. Open must not block on the
// network: connection progress is reported through the handler.
type Transport interface {
	Open(ctx context.Context, endpoint string, handler SessionHandler) (Session, error)
}

// Sink consumes decoded snapshots in arrival order
type Sink interface {
	Apply(s snapshot.StateSnapshot)
}

// ConnectionState is the lifecycle state of the manager's session
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
