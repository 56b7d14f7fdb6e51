package projector

import (
	"sync"

	"github.com/mcdev12/racewall/go/internal/display/snapshot"
	"github.com/rs/zerolog/log"
)

// Renderer receives rendering instructions as plain data.
// Implementations are assumed synchronous and non-failing.
type Renderer interface {
	SetLeaderboardEmpty(empty bool)
	ClearLeaderboard()
	AppendLeaderboardRow(row LeaderboardRow)
	SetTimer(text string, status TimerStatus)
	SetProgress(percent int, label string)
	SetCheckpoint(cp Checkpoint)
	SetCheckpointLine(line CheckpointLine)
	SetCompletedTime(text string, visible bool)
	SetCurrentTeam(text string)
	SetCustomMessage(text string)
	SetViewActive(mode snapshot.DisplayMode, active bool)
}

// ViewModel is the state currently shown on the display
type ViewModel struct {
	LeaderboardEmpty bool
	Leaderboard      []LeaderboardRow
	Timer            string
	TimerStatus      TimerStatus
	Progress         int
	ProgressLabel    string
	Checkpoints      CheckpointState
	CompletedVisible bool
	CompletedText    string
	TeamText         string
	CustomMessage    string
	// ActiveMode is empty when the last mode received was not a known one
	ActiveMode snapshot.DisplayMode
}

// InitialView is what the display shows before any snapshot arrives
func InitialView() ViewModel {
	return ViewModel{
		LeaderboardEmpty: true,
		Leaderboard:      []LeaderboardRow{},
		TimerStatus:      TimerPaused,
		ProgressLabel:    ProgressLabel(0),
		Checkpoints:      Checkpoints(0),
		ActiveMode:       snapshot.ModeDefault,
	}
}

// Project derives the next view model from the previous one and a snapshot.
// Every field is replaced except the team and custom-message texts, which
// only change when the snapshot carries a value for them.
func Project(prev ViewModel, s snapshot.StateSnapshot) ViewModel {
	next := ViewModel{
		LeaderboardEmpty: len(s.Leaderboard) == 0,
		Leaderboard:      LeaderboardRows(s.Leaderboard),
		Timer:            s.Timer,
		TimerStatus:      TimerStatusFor(s.TimerRunning),
		Progress:         s.Progress,
		ProgressLabel:    ProgressLabel(s.Progress),
		Checkpoints:      Checkpoints(s.Progress),
		CompletedVisible: s.HasCompletedTime(),
		CompletedText:    prev.CompletedText,
		TeamText:         prev.TeamText,
		CustomMessage:    prev.CustomMessage,
	}
	if s.HasCompletedTime() {
		next.CompletedText = CompletedLabel(s.CompletedTime)
	}
	if s.HasCurrentTeam() {
		next.TeamText = TeamRacingLabel(s.CurrentTeam)
	}
	if s.HasCustomMessage() {
		next.CustomMessage = s.CustomMessage
	}
	if s.DisplayMode.Known() {
		next.ActiveMode = s.DisplayMode
	}
	return next
}

// Projector turns snapshots into renderer instructions
type Projector struct {
	renderer Renderer
	mu       sync.Mutex
	view     ViewModel
}

// NewProjector creates a projector bound to a renderer
func NewProjector(renderer Renderer) *Projector {
	return &Projector{
		renderer: renderer,
		view:     InitialView(),
	}
}

// Init renders the startup state: the default view active and nothing else
func (p *Projector) Init() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.emitViews(p.view.ActiveMode)
}

// View returns a copy of the current view model
func (p *Projector) View() ViewModel {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.view
	v.Leaderboard = append([]LeaderboardRow(nil), p.view.Leaderboard...)
	return v
}

// Apply renders one snapshot. It runs to completion before returning.
func (p *Projector) Apply(s snapshot.StateSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := Project(p.view, s)
	r := p.renderer

	r.SetLeaderboardEmpty(next.LeaderboardEmpty)
	r.ClearLeaderboard()
	for _, row := range next.Leaderboard {
		r.AppendLeaderboardRow(row)
	}

	r.SetTimer(next.Timer, next.TimerStatus)

	p.emitProgress(next.Progress)

	// When hidden the banner keeps whatever text it had.
	r.SetCompletedTime(next.CompletedText, next.CompletedVisible)

	if s.HasCurrentTeam() {
		r.SetCurrentTeam(next.TeamText)
	}
	if s.HasCustomMessage() {
		r.SetCustomMessage(next.CustomMessage)
	}

	p.emitViews(s.DisplayMode)
	if next.ActiveMode == "" {
		log.Debug().Str("display_mode", string(s.DisplayMode)).Msg("unknown display mode, no view active")
	}

	p.view = next
}

// ApplyProgress renders a progress change that did not arrive as part of a full snapshot
func (p *Projector) ApplyProgress(progress int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	progress = ClampProgress(progress)
	p.emitProgress(progress)

	p.view.Progress = progress
	p.view.ProgressLabel = ProgressLabel(progress)
	p.view.Checkpoints = Checkpoints(progress)
}

func (p *Projector) emitProgress(progress int) {
	p.renderer.SetProgress(progress, ProgressLabel(progress))

	cs := Checkpoints(progress)
	for _, cp := range cs.Checkpoints {
		p.renderer.SetCheckpoint(cp)
	}
	for _, line := range cs.Lines {
		p.renderer.SetCheckpointLine(line)
	}
}

func (p *Projector) emitViews(mode snapshot.DisplayMode) {
	for _, m := range snapshot.Modes {
		p.renderer.SetViewActive(m, m == mode)
	}
}
