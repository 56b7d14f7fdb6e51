package statecast

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcdev12/racewall/go/internal/display/snapshot"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const maxStateBody = 64 << 10

// Broadcaster receives every accepted snapshot
type Broadcaster interface {
	Broadcast(raw []byte)
}

// Server accepts snapshots over HTTP or from a script and fans them out to
// the hub and any mirrors.
type Server struct {
	hub     *Hub
	mirrors []Broadcaster
}

// NewServer creates a server around hub
func NewServer(hub *Hub, mirrors ...Broadcaster) *Server {
	return &Server{hub: hub, mirrors: mirrors}
}

// Publish validates raw and broadcasts it
func (s *Server) Publish(raw []byte) error {
	snap, err := snapshot.Decode(raw)
	if err != nil {
		return err
	}

	s.hub.Broadcast(raw)
	for _, m := range s.mirrors {
		m.Broadcast(raw)
	}

	log.Info().
		Str("display_mode", string(snap.DisplayMode)).
		Int("progress", snap.Progress).
		Int("teams", len(snap.Leaderboard)).
		Msg("snapshot published")
	return nil
}

// PublishFrame is Publish for callers that only log failures
func (s *Server) PublishFrame(raw []byte) {
	if err := s.Publish(raw); err != nil {
		log.Warn().Err(err).Msg("dropping invalid snapshot")
	}
}

// Handler returns the HTTP routes wrapped with CORS
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.HandleFunc("POST /state", s.handlePostState)
	mux.HandleFunc("GET /state", s.handleGetState)
	mux.HandleFunc("GET /health", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

func (s *Server) handlePostState(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStateBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := s.Publish(raw); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, snapshot.ErrMalformed) {
			status = http.StatusBadRequest
		}
		log.Warn().Err(err).Msg("rejected posted snapshot")
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	latest := s.hub.Latest()
	if latest == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(latest)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
		HubStats
	}{Status: "ok", HubStats: s.hub.Stats()}); err != nil {
		log.Error().Err(err).Msg("failed to encode health response")
	}
}
