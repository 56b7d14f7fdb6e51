package render

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mcdev12/racewall/go/internal/display/projector"
	"github.com/mcdev12/racewall/go/internal/display/snapshot"
)

const (
	statusRefresh = 500 * time.Millisecond
	barWidth      = 40
	minPanelWidth = 44
)

// StatusFunc reports the connection state shown in the header
type StatusFunc func() string

type statusTickMsg struct{}

// Dashboard is the terminal display. It only changes in response to
// Instruction messages; it never derives state on its own.
type Dashboard struct {
	theme  theme
	status StatusFunc

	width  int
	height int

	leaderboardEmpty bool
	rows             []projector.LeaderboardRow
	timer            string
	timerStatus      projector.TimerStatus
	progress         int
	progressLabel    string
	checkpoints      [4]projector.Checkpoint
	lines            [3]projector.CheckpointLine
	completedText    string
	completedVisible bool
	teamText         string
	customMessage    string
	views            map[snapshot.DisplayMode]bool
	connStatus       string
}

// NewDashboard creates a dashboard showing the startup state
func NewDashboard(status StatusFunc) *Dashboard {
	initial := projector.InitialView()
	d := &Dashboard{
		theme:            newTheme(),
		status:           status,
		leaderboardEmpty: true,
		timerStatus:      initial.TimerStatus,
		progressLabel:    initial.ProgressLabel,
		checkpoints:      initial.Checkpoints.Checkpoints,
		lines:            initial.Checkpoints.Lines,
		views:            make(map[snapshot.DisplayMode]bool, len(snapshot.Modes)),
		connStatus:       "disconnected",
	}
	return d
}

func (d *Dashboard) Init() tea.Cmd {
	return refreshStatus()
}

func refreshStatus() tea.Cmd {
	return tea.Tick(statusRefresh, func(time.Time) tea.Msg { return statusTickMsg{} })
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return d, tea.Quit
		}
	case statusTickMsg:
		if d.status != nil {
			d.connStatus = d.status()
		}
		return d, refreshStatus()
	case Instruction:
		d.Apply(msg)
	}
	return d, nil
}

// Apply updates the panel state for one instruction
func (d *Dashboard) Apply(in Instruction) {
	switch in.Op {
	case OpLeaderboardEmpty:
		d.leaderboardEmpty = in.Flag
	case OpClearLeaderboard:
		d.rows = d.rows[:0]
	case OpLeaderboardRow:
		d.rows = append(d.rows, in.Row)
	case OpTimer:
		d.timer = in.Text
		d.timerStatus = in.Status
	case OpProgress:
		d.progress = in.Percent
		d.progressLabel = in.Text
	case OpCheckpoint:
		if i := in.Checkpoint.Index - 1; i >= 0 && i < len(d.checkpoints) {
			d.checkpoints[i] = in.Checkpoint
		}
	case OpCheckpointLine:
		if i := in.Line.Index - 1; i >= 0 && i < len(d.lines) {
			d.lines[i] = in.Line
		}
	case OpCompletedTime:
		d.completedVisible = in.Flag
		if in.Flag {
			d.completedText = in.Text
		}
	case OpCurrentTeam:
		d.teamText = in.Text
	case OpCustomMessage:
		d.customMessage = in.Text
	case OpViewActive:
		d.views[in.Mode] = in.Flag
	}
}

// ActiveView returns the active display mode, or "" if none is active
func (d *Dashboard) ActiveView() snapshot.DisplayMode {
	for _, m := range snapshot.Modes {
		if d.views[m] {
			return m
		}
	}
	return ""
}

func (d *Dashboard) View() string {
	var body string
	switch d.ActiveView() {
	case snapshot.ModeDefault:
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			d.leaderboardPanel(),
			lipgloss.JoinVertical(lipgloss.Left, d.timerPanel(), d.progressPanel()),
		)
	case snapshot.ModeRace:
		body = lipgloss.JoinVertical(lipgloss.Left, d.teamLine(), d.timerPanel(), d.progressPanel())
	case snapshot.ModePaused:
		body = lipgloss.JoinVertical(lipgloss.Left, d.theme.paused.Render("RACE PAUSED"), d.timerPanel())
	case snapshot.ModeLeaderboard:
		body = d.leaderboardPanel()
	case snapshot.ModeCustom:
		body = d.panel("Announcement", d.theme.message.Render(d.customMessage))
	}

	sections := []string{d.header()}
	if d.completedVisible {
		sections = append(sections, d.theme.banner.Render(d.completedText))
	}
	if body != "" {
		sections = append(sections, body)
	}
	sections = append(sections, d.theme.muted.Render("q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (d *Dashboard) header() string {
	style := d.theme.statusWarn
	switch d.connStatus {
	case "connected":
		style = d.theme.statusOK
	case "disconnected":
		style = d.theme.statusError
	}
	return d.theme.title.Render("RACEWALL") + "  " + style.Render("● "+d.connStatus)
}

func (d *Dashboard) panel(title, content string) string {
	return d.theme.panel.Width(minPanelWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, d.theme.panelTitle.Render(title), content),
	)
}

func (d *Dashboard) leaderboardPanel() string {
	if d.leaderboardEmpty || len(d.rows) == 0 {
		return d.panel("Leaderboard", d.theme.muted.Render("No times recorded yet"))
	}

	lines := make([]string, 0, len(d.rows))
	for _, row := range d.rows {
		badge := d.theme.badge(row.Tier).Render(fmt.Sprintf("%d", row.Rank))
		lines = append(lines, fmt.Sprintf("%s %-24s %s", badge, d.theme.text.Render(row.Name), d.theme.muted.Render(row.Time)))
	}
	return d.panel("Leaderboard", strings.Join(lines, "\n"))
}

func (d *Dashboard) timerPanel() string {
	status := d.theme.paused.Render(string(d.timerStatus))
	if d.timerStatus == projector.TimerRunning {
		status = d.theme.running.Render(string(d.timerStatus))
	}
	timer := d.timer
	if timer == "" {
		timer = "--:--"
	}
	return d.panel("Timer", d.theme.timer.Render(timer)+"  "+status)
}

func (d *Dashboard) progressPanel() string {
	filled := barWidth * projector.ClampProgress(d.progress) / 100
	bar := d.theme.barFilled.Render(strings.Repeat("█", filled)) +
		d.theme.barEmpty.Render(strings.Repeat("░", barWidth-filled))

	return d.panel("Progress", lipgloss.JoinVertical(lipgloss.Left,
		bar,
		d.theme.text.Render(d.progressLabel),
		d.checkpointTrack(),
	))
}

func (d *Dashboard) checkpointTrack() string {
	var b strings.Builder
	for i, cp := range d.checkpoints {
		marker := d.theme.unreached.Render(fmt.Sprintf("○ %d%%", cp.Threshold))
		if cp.Reached {
			marker = d.theme.reached.Render(fmt.Sprintf("● %d%%", cp.Threshold))
		}
		b.WriteString(marker)
		if i < len(d.lines) {
			segment := d.theme.unreached.Render(" ┄┄ ")
			if d.lines[i].Completed {
				segment = d.theme.reached.Render(" ━━ ")
			}
			b.WriteString(segment)
		}
	}
	return b.String()
}

func (d *Dashboard) teamLine() string {
	if d.teamText == "" {
		return d.theme.muted.Render("Waiting for the next team")
	}
	return d.theme.message.Render(d.teamText)
}
