package world

import (
	"fmt"
	"time"

	"kickoff.ai/internal/protocol"
)

func (w *World) stepInternal(joins []JoinRequest, leaves []string, actions []ActionEnvelope) error {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	w.events = w.events[:0]

	// Apply leaves and joins deterministically at tick boundary.
	for _, id := range leaves {
		w.handleLeave(id)
	}
	for _, req := range joins {
		resp := w.handleJoin(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}

	// Latest ACT per slot wins. Session traffic is resolved through the
	// session table; envelopes without a session (replay) name the slot directly.
	override := map[Slot]protocol.Action{}
	fromSession := map[Slot]bool{}
	for _, env := range actions {
		s := env.Slot
		if env.SessionID != "" {
			var ok bool
			if s, ok = w.sessionSlot(env.SessionID); !ok {
				continue
			}
			if env.Act.Tick < nowTick {
				w.staleActs++
				continue
			}
			if !env.Act.Action.Valid() {
				continue
			}
			fromSession[s] = true
		}
		if !s.Valid() {
			continue
		}
		override[s] = env.Act.Action
	}

	recorded := make([]RecordedAction, 0, len(w.players))
	var goal *GoalEvent
	for _, p := range w.players {
		if p.CheckWhoHasBall(w.ball) {
			w.emit(nowTick, "POSSESSION", "team", int(p.Team), "index", p.Index)
		}

		s := p.Slot()
		act, ok := override[s]
		if !ok {
			if w.policy == nil {
				return fmt.Errorf("tick %d %s: no action and no policy", nowTick, s)
			}
			var err error
			if act, err = w.policy.Decide(w.decisionFor(p, nowTick)); err != nil {
				return fmt.Errorf("tick %d %s: policy: %w", nowTick, s, err)
			}
		}
		if err := Dispatch(p, act, &w.ball, w.players); err != nil {
			return fmt.Errorf("tick %d: %w", nowTick, err)
		}
		recorded = append(recorded, RecordedAction{Team: int(p.Team), Index: p.Index, Action: act, Remote: fromSession[s]})

		// A goal ends the tick; the remaining players do not act.
		if w.rules.CheckGoal(w.ball) {
			goal = w.scoreGoal(nowTick, p)
			break
		}
	}

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Actions: recorded, Goal: goal, Digest: digest})
	}

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 {
		every := uint64(w.cfg.SnapshotEveryTicks)
		if nowTick%every == 0 {
			snap := w.ExportSnapshot(nowTick)
			select {
			case w.snapshotSink <- snap:
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)

	// Observer stream (read-only). Frames carry the post-step counter so a
	// fresh world (0) and its first step (1) never share a tick.
	w.publishFrame(nextTick, recorded, goal)

	// OBS carries the tick the client should answer for.
	w.sendObs(nextTick)

	w.metrics.Store(WorldMetrics{
		Tick:      nextTick,
		Clients:   len(w.clients),
		Observers: len(w.observers),
		Score:     w.score,
		Goals:     w.goals,
		Kickoffs:  w.kickoffs,
		StaleActs: w.staleActs,
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS: stepMS,
	})
	return nil
}

func (w *World) scoreGoal(tick uint64, scorer *Player) *GoalEvent {
	team := w.rules.ScoringTeam(w.ball)
	w.score[int(team)-1]++
	w.goals++

	g := &GoalEvent{
		Tick:        tick,
		ScoringTeam: int(team),
		ScorerTeam:  int(scorer.Team),
		ScorerIndex: scorer.Index,
		OwnGoal:     scorer.Team != team,
		Ball:        arr(w.ball),
		Score:       w.score,
	}
	w.emit(tick, "GOAL",
		"scoring_team", g.ScoringTeam,
		"scorer_team", g.ScorerTeam,
		"scorer_index", g.ScorerIndex,
		"own_goal", g.OwnGoal,
		"score", g.Score,
	)

	w.Reset()
	w.emit(tick, "RESET", "kickoffs", w.kickoffs)
	return g
}
