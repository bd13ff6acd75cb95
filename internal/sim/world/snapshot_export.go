package world

import (
	"kickoff.ai/internal/persistence/snapshot"
)

// ExportSnapshot captures the match after nowTick has been applied.
// Snapshot must be called from the world loop goroutine.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	players := make([]snapshot.PlayerV1, 0, len(w.players))
	for _, p := range w.players {
		players = append(players, snapshot.PlayerV1{
			Team:     int(p.Team),
			Index:    p.Index,
			Role:     string(p.Role),
			Pos:      arr(p.Pos),
			StartPos: arr(p.start),
			HasBall:  p.HasBall,
		})
	}

	g := w.rules.Field
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			MatchID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:               w.cfg.Seed,
		TickRate:           w.cfg.TickRateHz,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		Rules: snapshot.RulesV1{
			Length:          g.Length,
			Width:           g.Width,
			GoalWidth:       g.GoalWidth,
			GoalInset:       g.GoalInset,
			MouthMinY:       g.MouthMinY,
			MouthMaxY:       g.MouthMaxY,
			CenterCircleR:   g.CenterCircleR,
			StepSize:        w.rules.StepSize,
			ContactRange:    w.rules.ContactRange,
			KickRange:       w.rules.KickRange,
			PossessionRange: w.rules.PossessionRange,
			KickDistance:    w.rules.KickDistance,
			MoveOffset:      w.rules.MoveOffset,
			ShotTarget:      string(w.rules.ShotTarget),
		},
		Players:  players,
		Ball:     arr(w.ball),
		Score:    w.score,
		Kickoffs: w.kickoffs,
	}
}
