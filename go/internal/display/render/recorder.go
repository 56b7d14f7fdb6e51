package render

import (
	"sync"

	"github.com/mcdev12/racewall/go/internal/display/projector"
	"github.com/mcdev12/racewall/go/internal/display/snapshot"
)

// Op names a renderer instruction
type Op string

const (
	OpLeaderboardEmpty Op = "leaderboard_empty"
	OpClearLeaderboard Op = "clear_leaderboard"
	OpLeaderboardRow   Op = "leaderboard_row"
	OpTimer            Op = "timer"
	OpProgress         Op = "progress"
	OpCheckpoint       Op = "checkpoint"
	OpCheckpointLine   Op = "checkpoint_line"
	OpCompletedTime    Op = "completed_time"
	OpCurrentTeam      Op = "current_team"
	OpCustomMessage    Op = "custom_message"
	OpViewActive       Op = "view_active"
)

// Instruction is one recorded renderer call
type Instruction struct {
	Op         Op
	Flag       bool
	Percent    int
	Text       string
	Row        projector.LeaderboardRow
	Status     projector.TimerStatus
	Checkpoint projector.Checkpoint
	Line       projector.CheckpointLine
	Mode       snapshot.DisplayMode
}

// Recorder keeps every instruction it receives, in order
type Recorder struct {
	mu           sync.Mutex
	instructions []Instruction
}

var _ projector.Renderer = (*Recorder)(nil)

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Instructions returns a copy of everything recorded so far
func (r *Recorder) Instructions() []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Instruction(nil), r.instructions...)
}

// Len returns the number of recorded instructions
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instructions)
}

// Reset forgets all recorded instructions
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instructions = nil
}

// Filter returns the recorded instructions with the given op
func (r *Recorder) Filter(op Op) []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Instruction
	for _, in := range r.instructions {
		if in.Op == op {
			out = append(out, in)
		}
	}
	return out
}

func (r *Recorder) record(in Instruction) {
	r.mu.Lock()
	r.instructions = append(r.instructions, in)
	r.mu.Unlock()
}

func (r *Recorder) SetLeaderboardEmpty(empty bool) {
	r.record(Instruction{Op: OpLeaderboardEmpty, Flag: empty})
}

func (r *Recorder) ClearLeaderboard() {
	r.record(Instruction{Op: OpClearLeaderboard})
}

func (r *Recorder) AppendLeaderboardRow(row projector.LeaderboardRow) {
	r.record(Instruction{Op: OpLeaderboardRow, Row: row})
}

func (r *Recorder) SetTimer(text string, status projector.TimerStatus) {
	r.record(Instruction{Op: OpTimer, Text: text, Status: status})
}

func (r *Recorder) SetProgress(percent int, label string) {
	r.record(Instruction{Op: OpProgress, Percent: percent, Text: label})
}

func (r *Recorder) SetCheckpoint(cp projector.Checkpoint) {
	r.record(Instruction{Op: OpCheckpoint, Checkpoint: cp})
}

func (r *Recorder) SetCheckpointLine(line projector.CheckpointLine) {
	r.record(Instruction{Op: OpCheckpointLine, Line: line})
}

func (r *Recorder) SetCompletedTime(text string, visible bool) {
	r.record(Instruction{Op: OpCompletedTime, Text: text, Flag: visible})
}

func (r *Recorder) SetCurrentTeam(text string) {
	r.record(Instruction{Op: OpCurrentTeam, Text: text})
}

func (r *Recorder) SetCustomMessage(text string) {
	r.record(Instruction{Op: OpCustomMessage, Text: text})
}

func (r *Recorder) SetViewActive(mode snapshot.DisplayMode, active bool) {
	r.record(Instruction{Op: OpViewActive, Mode: mode, Flag: active})
}
