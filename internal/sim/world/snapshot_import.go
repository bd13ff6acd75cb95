package world

import (
	"fmt"

	"kickoff.ai/internal/persistence/snapshot"
	"kickoff.ai/internal/sim/field"
)

// RulesFromSnapshot rebuilds the rule set a snapshot was taken under.
func RulesFromSnapshot(s snapshot.SnapshotV1) Rules {
	r := s.Rules
	return Rules{
		Field: field.Geometry{
			Length:        r.Length,
			Width:         r.Width,
			GoalWidth:     r.GoalWidth,
			GoalInset:     r.GoalInset,
			MouthMinY:     r.MouthMinY,
			MouthMaxY:     r.MouthMaxY,
			CenterCircleR: r.CenterCircleR,
		},
		StepSize:        r.StepSize,
		ContactRange:    r.ContactRange,
		KickRange:       r.KickRange,
		PossessionRange: r.PossessionRange,
		KickDistance:    r.KickDistance,
		MoveOffset:      r.MoveOffset,
		ShotTarget:      ShotTarget(r.ShotTarget),
	}
}

// ImportSnapshot replaces the match state. The world must not be running.
// The next step executes tick Header.Tick+1.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}
	rules := RulesFromSnapshot(s)
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("snapshot rules: %w", err)
	}
	if len(s.Players) != RosterSize {
		return fmt.Errorf("snapshot has %d players, want %d", len(s.Players), RosterSize)
	}

	players := make([]*Player, RosterSize)
	for _, ps := range s.Players {
		slot := Slot{Team: Team(ps.Team), Index: ps.Index}
		if !slot.Valid() {
			return fmt.Errorf("snapshot player %s: invalid slot", slot)
		}
		i := slot.order()
		if players[i] != nil {
			return fmt.Errorf("snapshot player %s: duplicate slot", slot)
		}
		p := NewPlayer(&w.rules, ps.Index, Team(ps.Team), Role(ps.Role), pt(ps.StartPos))
		p.Pos = pt(ps.Pos)
		p.HasBall = ps.HasBall
		players[i] = p
	}

	// Nothing is committed until the roster has been validated. Players point
	// at w.rules, so they pick up the new rules with the assignment below.
	w.rules = rules
	w.cfg.Rules = rules
	if s.Header.MatchID != "" {
		w.cfg.ID = s.Header.MatchID
	}
	w.cfg.Seed = s.Seed
	if s.TickRate > 0 {
		w.cfg.TickRateHz = s.TickRate
	}
	if s.SnapshotEveryTicks > 0 {
		w.cfg.SnapshotEveryTicks = s.SnapshotEveryTicks
	}
	w.players = players
	w.ball = pt(s.Ball)
	w.score = s.Score
	w.kickoffs = s.Kickoffs
	w.tick.Store(s.Header.Tick + 1)
	w.publishFrame(s.Header.Tick+1, nil, nil)
	return nil
}
