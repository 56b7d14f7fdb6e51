package connection

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racewall/go/internal/display/snapshot"
	"github.com/rs/zerolog/log"
)

// DefaultReconnectInterval is the fixed delay between reconnection attempts
const DefaultReconnectInterval = 3 * time.Second

// Config holds configuration for the connection manager
type Config struct {
	Endpoint          string
	ReconnectInterval time.Duration
}

// Stats counts what the manager has done since it was created
type Stats struct {
	Attempts          int
	SessionsOpened    int
	MessagesApplied   int
	MessagesDiscarded int
}

// Option customizes a Manager
type Option func(*Manager)

// WithClock replaces the real clock, for tests
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// Manager keeps one live session to the state server and retries forever
// at a fixed interval when it is lost. All session callbacks and timer ticks
// are serialized, so snapshots reach the sink one at a time in arrival order.
type Manager struct {
	endpoint  string
	interval  time.Duration
	transport Transport
	sink      Sink
	clock     clockwork.Clock

	mu  sync.Mutex
	ctx context.Context
	// state is written under mu and read without it
	state     atomic.Int32
	sessionID uuid.UUID
	session   Session
	reconnect *reconnectTimer
	stopped   bool
	stats     Stats
}

type reconnectTimer struct {
	ticker clockwork.Ticker
	done   chan struct{}
}

// NewManager creates a manager in the Disconnected state
func NewManager(config Config, transport Transport, sink Sink, opts ...Option) *Manager {
	interval := config.ReconnectInterval
	if interval <= 0 {
		interval = DefaultReconnectInterval
	}

	m := &Manager{
		endpoint:  config.Endpoint,
		interval:  interval,
		transport: transport,
		sink:      sink,
		clock:     clockwork.NewRealClock(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the manager and blocks until ctx is cancelled, then stops it
func (m *Manager) Run(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	log.Info().Str("endpoint", m.endpoint).Dur("reconnect_interval", m.interval).Msg("connection manager started")
	m.Start()

	<-ctx.Done()

	m.Stop()
	log.Info().Msg("connection manager stopped")
}

// Start opens a session unless one is already connecting or connected
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startLocked()
}

func (m *Manager) startLocked() {
	if m.stopped {
		return
	}
	if m.State() != Disconnected {
		log.Debug().Str("state", m.State().String()).Msg("start ignored, session already in progress")
		return
	}

	id := uuid.New()
	m.setStateLocked(Connecting)
	m.sessionID = id
	m.stats.Attempts++

	log.Info().
		Str("session_id", id.String()).
		Str("endpoint", m.endpoint).
		Int("attempt", m.stats.Attempts).
		Msg("opening session")

	session, err := m.transport.Open(m.ctx, m.endpoint, &sessionHandler{manager: m, id: id})
	if err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Msg("failed to open session")
		m.setStateLocked(Disconnected)
		m.armReconnectLocked()
		return
	}
	m.session = session
}

// Stop closes the live session and disarms reconnection. Events that
// arrive afterwards are ignored.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	m.stopped = true
	m.disarmReconnectLocked()

	if m.session != nil {
		if err := m.session.Close(); err != nil {
			log.Warn().Err(err).Str("session_id", m.sessionID.String()).Msg("failed to close session")
		}
		m.session = nil
	}
	m.setStateLocked(Disconnected)
}

// State returns the current connection state
func (m *Manager) State() ConnectionState {
	return ConnectionState(m.state.Load())
}

func (m *Manager) setStateLocked(state ConnectionState) {
	m.state.Store(int32(state))
}

// Stats returns a copy of the manager counters
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// current reports whether id belongs to the live session; callers hold mu
func (m *Manager) current(id uuid.UUID, event string) bool {
	if m.stopped {
		log.Debug().Str("session_id", id.String()).Str("event", event).Msg("event after stop ignored")
		return false
	}
	if id != m.sessionID {
		log.Debug().Str("session_id", id.String()).Str("event", event).Msg("stale session event ignored")
		return false
	}
	return true
}

func (m *Manager) onSessionOpened(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current(id, "open") {
		return
	}

	m.setStateLocked(Connected)
	m.stats.SessionsOpened++
	m.disarmReconnectLocked()

	log.Info().Str("session_id", id.String()).Str("endpoint", m.endpoint).Msg("connected to state server")
}

func (m *Manager) onMessage(id uuid.UUID, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current(id, "message") {
		return
	}

	s, err := snapshot.Decode(raw)
	if err != nil {
		m.stats.MessagesDiscarded++
		log.Warn().Err(err).Str("session_id", id.String()).Int("bytes", len(raw)).Msg("discarding malformed snapshot")
		return
	}

	log.Debug().
		Str("session_id", id.String()).
		Str("display_mode", string(s.DisplayMode)).
		Int("progress", s.Progress).
		Int("teams", len(s.Leaderboard)).
		Msg("snapshot received")

	m.sink.Apply(s)
	m.stats.MessagesApplied++
}

// onSessionError only logs: the close event that follows drives reconnection
func (m *Manager) onSessionError(id uuid.UUID, err error) {
	log.Error().Err(err).Str("session_id", id.String()).Msg("session error")
}

func (m *Manager) onSessionClosed(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current(id, "close") {
		return
	}

	m.setStateLocked(Disconnected)
	m.session = nil
	m.armReconnectLocked()

	log.Info().
		Str("session_id", id.String()).
		Dur("retry_in", m.interval).
		Msg("disconnected, attempting to reconnect")
}

// armReconnectLocked replaces any armed timer with a fresh one
func (m *Manager) armReconnectLocked() {
	m.disarmReconnectLocked()

	t := &reconnectTimer{
		ticker: m.clock.NewTicker(m.interval),
		done:   make(chan struct{}),
	}
	m.reconnect = t
	go m.runReconnect(t)
}

func (m *Manager) disarmReconnectLocked() {
	if m.reconnect == nil {
		return
	}
	m.reconnect.ticker.Stop()
	close(m.reconnect.done)
	m.reconnect = nil
}

func (m *Manager) reconnectArmed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnect != nil
}

func (m *Manager) runReconnect(t *reconnectTimer) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.Chan():
			m.mu.Lock()
			// A tick can race with a disarm; only the armed timer may act.
			if m.reconnect == t {
				log.Info().Str("endpoint", m.endpoint).Msg("reconnecting")
				m.startLocked()
			}
			m.mu.Unlock()
		}
	}
}

// sessionHandler binds transport callbacks to the session they belong to
type sessionHandler struct {
	manager *Manager
	id      uuid.UUID
}

func (h *sessionHandler) OnOpen()              { h.manager.onSessionOpened(h.id) }
func (h *sessionHandler) OnMessage(raw []byte) { h.manager.onMessage(h.id, raw) }
func (h *sessionHandler) OnError(err error)    { h.manager.onSessionError(h.id, err) }
func (h *sessionHandler) OnClose()             { h.manager.onSessionClosed(h.id) }
