package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned when a payload cannot be decoded into a StateSnapshot
var ErrMalformed = errors.New("malformed state snapshot")

// DisplayMode represents the top-level view the server wants shown
type DisplayMode string

const (
	ModeDefault     DisplayMode = "default"
	ModeRace        DisplayMode = "race"
	ModePaused      DisplayMode = "paused"
	ModeLeaderboard DisplayMode = "leaderboard"
	ModeCustom      DisplayMode = "custom"
)

// Modes lists every known display mode in panel order
var Modes = []DisplayMode{ModeDefault, ModeRace, ModePaused, ModeLeaderboard, ModeCustom}

// Known reports whether m is one of the fixed display modes
func (m DisplayMode) Known() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// TeamEntry represents one ranked row of the leaderboard
type TeamEntry struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// StateSnapshot is one complete state update broadcast by the server.
// Optional fields are empty when the server did not send them.
type StateSnapshot struct {
	Leaderboard   []TeamEntry `json:"leaderboard"`
	Timer         string      `json:"timer"`
	TimerRunning  bool        `json:"timer_running"`
	Progress      int         `json:"progress"`
	CompletedTime string      `json:"completed_time,omitempty"`
	CurrentTeam   string      `json:"current_team,omitempty"`
	CustomMessage string      `json:"custom_message,omitempty"`
	DisplayMode   DisplayMode `json:"display_mode"`
}

// HasCompletedTime reports whether the run has finished
func (s StateSnapshot) HasCompletedTime() bool { return s.CompletedTime != "" }

// HasCurrentTeam reports whether a team is actively racing
func (s StateSnapshot) HasCurrentTeam() bool { return s.CurrentTeam != "" }

// HasCustomMessage reports whether the operator supplied text
func (s StateSnapshot) HasCustomMessage() bool { return s.CustomMessage != "" }

// wireSnapshot mirrors StateSnapshot with pointers so missing fields can be told apart from zero values
type wireSnapshot struct {
	Leaderboard   *[]TeamEntry `json:"leaderboard"`
	Timer         *string      `json:"timer"`
	TimerRunning  *bool        `json:"timer_running"`
	Progress      *int         `json:"progress"`
	CompletedTime *string      `json:"completed_time"`
	CurrentTeam   *string      `json:"current_team"`
	CustomMessage *string      `json:"custom_message"`
	DisplayMode   *DisplayMode `json:"display_mode"`
}

// Decode parses a raw text payload into a StateSnapshot.
// Any error wraps ErrMalformed.
func Decode(raw []byte) (StateSnapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(raw, &w); err != nil {
		return StateSnapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if w.Leaderboard == nil || *w.Leaderboard == nil {
		return StateSnapshot{}, fmt.Errorf("%w: missing leaderboard", ErrMalformed)
	}
	if w.Progress == nil {
		return StateSnapshot{}, fmt.Errorf("%w: missing progress", ErrMalformed)
	}
	if *w.Progress < 0 || *w.Progress > 100 {
		return StateSnapshot{}, fmt.Errorf("%w: progress %d out of range", ErrMalformed, *w.Progress)
	}
	if w.DisplayMode == nil {
		return StateSnapshot{}, fmt.Errorf("%w: missing display_mode", ErrMalformed)
	}

	s := StateSnapshot{
		Leaderboard: append([]TeamEntry(nil), (*w.Leaderboard)...),
		Progress:    *w.Progress,
		DisplayMode: *w.DisplayMode,
	}
	if s.Leaderboard == nil {
		s.Leaderboard = []TeamEntry{}
	}
	if w.Timer != nil {
		s.Timer = *w.Timer
	}
	if w.TimerRunning != nil {
		s.TimerRunning = *w.TimerRunning
	}
	if w.CompletedTime != nil {
		s.CompletedTime = *w.CompletedTime
	}
	if w.CurrentTeam != nil {
		s.CurrentTeam = *w.CurrentTeam
	}
	if w.CustomMessage != nil {
		s.CustomMessage = *w.CustomMessage
	}

	return s, nil
}

// Encode serializes a snapshot using the wire field names
func Encode(s StateSnapshot) ([]byte, error) {
	if s.Leaderboard == nil {
		s.Leaderboard = []TeamEntry{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}
