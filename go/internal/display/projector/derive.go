package projector

import (
	"fmt"

	"github.com/mcdev12/racewall/go/internal/display/snapshot"
)

// Tier classifies a leaderboard row by its rank
type Tier string

const (
	TierTop1  Tier = "top1"
	TierTop2  Tier = "top2"
	TierTop3  Tier = "top3"
	TierOther Tier = "other"
)

// TimerStatus is the running/paused indicator shown next to the timer
type TimerStatus string

const (
	TimerRunning TimerStatus = "Running"
	TimerPaused  TimerStatus = "Paused"
)

// CheckpointThresholds are the progress percentages that mark each checkpoint
var CheckpointThresholds = [4]int{25, 50, 75, 100}

// LeaderboardRow is one rendered leaderboard entry
type LeaderboardRow struct {
	Rank int
	Tier Tier
	Name string
	Time string
}

// Checkpoint is a milestone marker on the progress track
type Checkpoint struct {
	Index     int // 1-based
	Threshold int
	Reached   bool
}

// CheckpointLine is the segment joining checkpoint Index and Index+1
type CheckpointLine struct {
	Index     int // 1-based
	Completed bool
}

// CheckpointState is fully derived from a progress value
type CheckpointState struct {
	Checkpoints [4]Checkpoint
	Lines       [3]CheckpointLine
}

// RankTier returns the tier for a 1-based rank
func RankTier(rank int) Tier {
	switch rank {
	case 1:
		return TierTop1
	case 2:
		return TierTop2
	case 3:
		return TierTop3
	default:
		return TierOther
	}
}

// LeaderboardRows ranks entries in input order
func LeaderboardRows(entries []snapshot.TeamEntry) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		rank := i + 1
		rows = append(rows, LeaderboardRow{
			Rank: rank,
			Tier: RankTier(rank),
			Name: e.Name,
			Time: e.Time,
		})
	}
	return rows
}

// TimerStatusFor maps the running flag to its status label
func TimerStatusFor(running bool) TimerStatus {
	if running {
		return TimerRunning
	}
	return TimerPaused
}

// ProgressLabel formats the progress caption
func ProgressLabel(progress int) string {
	return fmt.Sprintf("%d%% Complete", progress)
}

// CompletedLabel formats the completed-time banner text
func CompletedLabel(completedTime string) string {
	return "Completed: " + completedTime
}

// TeamRacingLabel formats the current-team caption
func TeamRacingLabel(team string) string {
	return team + "'s team is racing"
}

// ClampProgress bounds p to 0..100
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Checkpoints derives checkpoint and segment state from progress alone.
// A segment is completed once the checkpoint closing it is reached.
func Checkpoints(progress int) CheckpointState {
	var cs CheckpointState
	for i, threshold := range CheckpointThresholds {
		cs.Checkpoints[i] = Checkpoint{
			Index:     i + 1,
			Threshold: threshold,
			Reached:   progress >= threshold,
		}
	}
	for i := range cs.Lines {
		cs.Lines[i] = CheckpointLine{
			Index:     i + 1,
			Completed: progress >= CheckpointThresholds[i+1],
		}
	}
	return cs
}

// ActiveViews returns the active flag for each known mode.
// An unknown mode leaves every view inactive.
func ActiveViews(mode snapshot.DisplayMode) map[snapshot.DisplayMode]bool {
	views := make(map[snapshot.DisplayMode]bool, len(snapshot.Modes))
	for _, m := range snapshot.Modes {
		views[m] = m == mode
	}
	return views
}
