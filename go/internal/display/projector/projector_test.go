package projector_test

import (
	"reflect"
	"testing"

	"github.com/mcdev12/racewall/go/internal/display/projector"
	"github.com/mcdev12/racewall/go/internal/display/render"
	"github.com/mcdev12/racewall/go/internal/display/snapshot"
)

func raceSnapshot() snapshot.StateSnapshot {
	return snapshot.StateSnapshot{
		Leaderboard:  []snapshot.TeamEntry{{Name: "Alpha", Time: "1:23"}},
		Timer:        "5:00",
		TimerRunning: true,
		Progress:     50,
		DisplayMode:  snapshot.ModeRace,
	}
}

func TestApplyRaceScenario(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)

	p.Apply(raceSnapshot())

	rows := rec.Filter(render.OpLeaderboardRow)
	if len(rows) != 1 {
		t.Fatalf("leaderboard rows = %d, want 1", len(rows))
	}
	if rows[0].Row != (projector.LeaderboardRow{Rank: 1, Tier: projector.TierTop1, Name: "Alpha", Time: "1:23"}) {
		t.Errorf("row = %+v", rows[0].Row)
	}
	if empty := rec.Filter(render.OpLeaderboardEmpty); len(empty) != 1 || empty[0].Flag {
		t.Errorf("leaderboard empty instructions = %+v, want one false", empty)
	}

	timer := rec.Filter(render.OpTimer)
	if len(timer) != 1 || timer[0].Text != "5:00" || timer[0].Status != projector.TimerRunning {
		t.Errorf("timer = %+v", timer)
	}

	progress := rec.Filter(render.OpProgress)
	if len(progress) != 1 || progress[0].Percent != 50 || progress[0].Text != "50% Complete" {
		t.Errorf("progress = %+v", progress)
	}

	wantReached := []bool{true, true, false, false}
	cps := rec.Filter(render.OpCheckpoint)
	if len(cps) != 4 {
		t.Fatalf("checkpoint instructions = %d, want 4", len(cps))
	}
	for i, cp := range cps {
		if cp.Checkpoint.Reached != wantReached[i] {
			t.Errorf("checkpoint %d reached = %v, want %v", i+1, cp.Checkpoint.Reached, wantReached[i])
		}
	}
	if lines := rec.Filter(render.OpCheckpointLine); len(lines) != 3 {
		t.Errorf("checkpoint line instructions = %d, want 3", len(lines))
	}

	views := rec.Filter(render.OpViewActive)
	if len(views) != len(snapshot.Modes) {
		t.Fatalf("view instructions = %d, want %d", len(views), len(snapshot.Modes))
	}
	for _, v := range views {
		if v.Flag != (v.Mode == snapshot.ModeRace) {
			t.Errorf("view %q active = %v", v.Mode, v.Flag)
		}
	}

	if got := p.View().ActiveMode; got != snapshot.ModeRace {
		t.Errorf("ActiveMode = %q, want race", got)
	}
}

func TestApplyEmptyLeaderboard(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)

	s := raceSnapshot()
	s.Leaderboard = []snapshot.TeamEntry{}
	s.CurrentTeam = "Alpha"
	p.Apply(s)

	empty := rec.Filter(render.OpLeaderboardEmpty)
	if len(empty) != 1 || !empty[0].Flag {
		t.Fatalf("leaderboard empty = %+v, want shown", empty)
	}
	if clears := rec.Filter(render.OpClearLeaderboard); len(clears) != 1 {
		t.Fatalf("clear instructions = %d, want 1", len(clears))
	}
	if rows := rec.Filter(render.OpLeaderboardRow); len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
	if !p.View().LeaderboardEmpty {
		t.Errorf("view not marked empty")
	}
}

func TestApplyEmitsOneRowPerEntryInOrder(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)

	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"}
	s := raceSnapshot()
	s.Leaderboard = nil
	for _, n := range names {
		s.Leaderboard = append(s.Leaderboard, snapshot.TeamEntry{Name: n, Time: "1:00"})
	}
	p.Apply(s)

	ins := rec.Instructions()
	// Clear must precede the rows.
	clearAt, firstRowAt := -1, -1
	for i, in := range ins {
		if in.Op == render.OpClearLeaderboard && clearAt < 0 {
			clearAt = i
		}
		if in.Op == render.OpLeaderboardRow && firstRowAt < 0 {
			firstRowAt = i
		}
	}
	if clearAt < 0 || firstRowAt < clearAt {
		t.Fatalf("clear at %d, first row at %d", clearAt, firstRowAt)
	}

	rows := rec.Filter(render.OpLeaderboardRow)
	if len(rows) != len(names) {
		t.Fatalf("rows = %d, want %d", len(rows), len(names))
	}
	wantTiers := []projector.Tier{projector.TierTop1, projector.TierTop2, projector.TierTop3, projector.TierOther, projector.TierOther, projector.TierOther}
	for i, r := range rows {
		if r.Row.Rank != i+1 || r.Row.Name != names[i] || r.Row.Tier != wantTiers[i] {
			t.Errorf("row %d = %+v", i, r.Row)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)

	s := raceSnapshot()
	s.CompletedTime = "4:59"
	s.CurrentTeam = "Alpha"
	s.CustomMessage = "Final lap"

	p.Apply(s)
	first := rec.Instructions()
	firstView := p.View()

	rec.Reset()
	p.Apply(s)
	second := rec.Instructions()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second apply differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if !reflect.DeepEqual(firstView, p.View()) {
		t.Fatalf("view changed on re-apply")
	}
}

func TestApplyCarriesForwardTeamAndMessage(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)

	s := raceSnapshot()
	s.CurrentTeam = "Alpha"
	s.CustomMessage = "Go go go"
	p.Apply(s)

	teams := rec.Filter(render.OpCurrentTeam)
	if len(teams) != 1 || teams[0].Text != "Alpha's team is racing" {
		t.Fatalf("team instructions = %+v", teams)
	}

	rec.Reset()
	p.Apply(raceSnapshot())

	if got := rec.Filter(render.OpCurrentTeam); len(got) != 0 {
		t.Errorf("absent current_team emitted %+v", got)
	}
	if got := rec.Filter(render.OpCustomMessage); len(got) != 0 {
		t.Errorf("absent custom_message emitted %+v", got)
	}

	v := p.View()
	if v.TeamText != "Alpha's team is racing" || v.CustomMessage != "Go go go" {
		t.Errorf("view lost carried text: %+v", v)
	}
}

func TestApplyCompletedBanner(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)

	s := raceSnapshot()
	s.CompletedTime = "4:32"
	p.Apply(s)

	banner := rec.Filter(render.OpCompletedTime)
	if len(banner) != 1 || !banner[0].Flag || banner[0].Text != "Completed: 4:32" {
		t.Fatalf("banner = %+v", banner)
	}

	rec.Reset()
	p.Apply(raceSnapshot())
	banner = rec.Filter(render.OpCompletedTime)
	if len(banner) != 1 || banner[0].Flag {
		t.Fatalf("banner after absent completed_time = %+v, want hidden", banner)
	}
}

func TestApplyTimerPaused(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)

	s := raceSnapshot()
	s.TimerRunning = false
	p.Apply(s)

	timer := rec.Filter(render.OpTimer)
	if len(timer) != 1 || timer[0].Status != projector.TimerPaused {
		t.Fatalf("timer = %+v, want paused", timer)
	}
}

func TestApplyUnknownDisplayMode(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)

	s := raceSnapshot()
	s.DisplayMode = "unknown"
	p.Apply(s)

	for _, v := range rec.Filter(render.OpViewActive) {
		if v.Flag {
			t.Errorf("view %q marked active for unknown mode", v.Mode)
		}
	}
	if got := p.View().ActiveMode; got != "" {
		t.Errorf("ActiveMode = %q, want none", got)
	}
}

func TestInitActivatesDefaultView(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)
	p.Init()

	views := rec.Filter(render.OpViewActive)
	if len(views) != len(snapshot.Modes) {
		t.Fatalf("view instructions = %d", len(views))
	}
	for _, v := range views {
		if v.Flag != (v.Mode == snapshot.ModeDefault) {
			t.Errorf("view %q active = %v", v.Mode, v.Flag)
		}
	}
}

func TestApplyProgressOutOfBand(t *testing.T) {
	rec := render.NewRecorder()
	p := projector.NewProjector(rec)
	p.Apply(raceSnapshot())
	rec.Reset()

	p.ApplyProgress(80)

	progress := rec.Filter(render.OpProgress)
	if len(progress) != 1 || progress[0].Percent != 80 || progress[0].Text != "80% Complete" {
		t.Fatalf("progress = %+v", progress)
	}
	cps := rec.Filter(render.OpCheckpoint)
	if len(cps) != 4 || !cps[2].Checkpoint.Reached || cps[3].Checkpoint.Reached {
		t.Fatalf("checkpoints = %+v", cps)
	}
	if rows := rec.Filter(render.OpLeaderboardRow); len(rows) != 0 {
		t.Errorf("progress change re-rendered leaderboard")
	}

	first := rec.Instructions()
	rec.Reset()
	p.ApplyProgress(80)
	if !reflect.DeepEqual(first, rec.Instructions()) {
		t.Errorf("re-applying progress changed instructions")
	}

	rec.Reset()
	p.ApplyProgress(140)
	if got := rec.Filter(render.OpProgress); got[0].Percent != 100 {
		t.Errorf("clamped progress = %d, want 100", got[0].Percent)
	}
	if got := p.View().Progress; got != 100 {
		t.Errorf("view progress = %d", got)
	}
}
