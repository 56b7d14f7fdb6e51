package render

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mcdev12/racewall/go/internal/display/projector"
	"github.com/mcdev12/racewall/go/internal/display/snapshot"
)

// Sender delivers messages into a running bubbletea program
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramRenderer forwards every instruction to the dashboard's event loop.
// Send blocks until the program accepts the message, so instruction order is
// preserved.
type ProgramRenderer struct {
	program Sender
}

var _ projector.Renderer = (*ProgramRenderer)(nil)

// NewProgramRenderer creates a renderer feeding the given program
func NewProgramRenderer(program Sender) *ProgramRenderer {
	return &ProgramRenderer{program: program}
}

func (r *ProgramRenderer) SetLeaderboardEmpty(empty bool) {
	r.program.Send(Instruction{Op: OpLeaderboardEmpty, Flag: empty})
}

func (r *ProgramRenderer) ClearLeaderboard() {
	r.program.Send(Instruction{Op: OpClearLeaderboard})
}

func (r *ProgramRenderer) AppendLeaderboardRow(row projector.LeaderboardRow) {
	r.program.Send(Instruction{Op: OpLeaderboardRow, Row: row})
}

func (r *ProgramRenderer) SetTimer(text string, status projector.TimerStatus) {
	r.program.Send(Instruction{Op: OpTimer, Text: text, Status: status})
}

func (r *ProgramRenderer) SetProgress(percent int, label string) {
	r.program.Send(Instruction{Op: OpProgress, Percent: percent, Text: label})
}

func (r *ProgramRenderer) SetCheckpoint(cp projector.Checkpoint) {
	r.program.Send(Instruction{Op: OpCheckpoint, Checkpoint: cp})
}

func (r *ProgramRenderer) SetCheckpointLine(line projector.CheckpointLine) {
	r.program.Send(Instruction{Op: OpCheckpointLine, Line: line})
}

func (r *ProgramRenderer) SetCompletedTime(text string, visible bool) {
	r.program.Send(Instruction{Op: OpCompletedTime, Text: text, Flag: visible})
}

func (r *ProgramRenderer) SetCurrentTeam(text string) {
	r.program.Send(Instruction{Op: OpCurrentTeam, Text: text})
}

func (r *ProgramRenderer) SetCustomMessage(text string) {
	r.program.Send(Instruction{Op: OpCustomMessage, Text: text})
}

func (r *ProgramRenderer) SetViewActive(mode snapshot.DisplayMode, active bool) {
	r.program.Send(Instruction{Op: OpViewActive, Mode: mode, Flag: active})
}
