package render

import (
	"github.com/mcdev12/racewall/go/internal/display/projector"
	"github.com/mcdev12/racewall/go/internal/display/snapshot"
	"github.com/rs/zerolog"
)

// LogRenderer writes each instruction as a structured log event. Used when
// the display runs headless.
type LogRenderer struct {
	logger zerolog.Logger
}

var _ projector.Renderer = (*LogRenderer)(nil)

// NewLogRenderer creates a renderer that logs to the given logger
func NewLogRenderer(logger zerolog.Logger) *LogRenderer {
	return &LogRenderer{logger: logger.With().Str("component", "renderer").Logger()}
}

func (r *LogRenderer) event(op Op) *zerolog.Event {
	return r.logger.Info().Str("op", string(op))
}

func (r *LogRenderer) SetLeaderboardEmpty(empty bool) {
	r.event(OpLeaderboardEmpty).Bool("empty", empty).Send()
}

func (r *LogRenderer) ClearLeaderboard() {
	r.logger.Debug().Str("op", string(OpClearLeaderboard)).Send()
}

func (r *LogRenderer) AppendLeaderboardRow(row projector.LeaderboardRow) {
	r.event(OpLeaderboardRow).
		Int("rank", row.Rank).
		Str("tier", string(row.Tier)).
		Str("name", row.Name).
		Str("time", row.Time).
		Send()
}

func (r *LogRenderer) SetTimer(text string, status projector.TimerStatus) {
	r.event(OpTimer).Str("timer", text).Str("status", string(status)).Send()
}

func (r *LogRenderer) SetProgress(percent int, label string) {
	r.event(OpProgress).Int("percent", percent).Str("label", label).Send()
}

func (r *LogRenderer) SetCheckpoint(cp projector.Checkpoint) {
	r.logger.Debug().
		Str("op", string(OpCheckpoint)).
		Int("index", cp.Index).
		Int("threshold", cp.Threshold).
		Bool("reached", cp.Reached).
		Send()
}

func (r *LogRenderer) SetCheckpointLine(line projector.CheckpointLine) {
	r.logger.Debug().
		Str("op", string(OpCheckpointLine)).
		Int("index", line.Index).
		Bool("completed", line.Completed).
		Send()
}

func (r *LogRenderer) SetCompletedTime(text string, visible bool) {
	r.event(OpCompletedTime).Str("text", text).Bool("visible", visible).Send()
}

func (r *LogRenderer) SetCurrentTeam(text string) {
	r.event(OpCurrentTeam).Str("text", text).Send()
}

func (r *LogRenderer) SetCustomMessage(text string) {
	r.event(OpCustomMessage).Str("text", text).Send()
}

func (r *LogRenderer) SetViewActive(mode snapshot.DisplayMode, active bool) {
	if !active {
		return
	}
	r.event(OpViewActive).Str("mode", string(mode)).Send()
}
