package world

import (
	"encoding/json"

	"kickoff.ai/internal/observerproto"
	"kickoff.ai/internal/protocol"
)

// ObserverJoinRequest registers a read-only observer session that receives a
// FRAME message every tick on FrameOut.
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	FrameOut  chan []byte
	WantState bool
}

type observerState struct {
	id        string
	frameOut  chan []byte
	wantState bool
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if w == nil || req.SessionID == "" || req.FrameOut == nil {
		return
	}
	if old := w.observers[req.SessionID]; old != nil {
		close(old.frameOut)
	}
	w.observers[req.SessionID] = &observerState{
		id:        req.SessionID,
		frameOut:  req.FrameOut,
		wantState: req.WantState,
	}
	// Send the last published frame so a fresh viewer has something to draw.
	if f, ok := w.frame.Load().(observerproto.FrameMsg); ok {
		if !req.WantState {
			f.State = nil
		}
		if b, err := json.Marshal(f); err == nil {
			sendLatest(req.FrameOut, b)
		}
	}
}

func (w *World) handleObserverLeave(id string) {
	if o := w.observers[id]; o != nil {
		close(o.frameOut)
		delete(w.observers, id)
	}
}

func (w *World) buildFrame(tick uint64, actions []RecordedAction, goal *GoalEvent) observerproto.FrameMsg {
	players := make([]observerproto.PlayerState, 0, len(w.players))
	state := make([][2]float64, 0, len(w.players)+1)
	for _, p := range w.players {
		_, connected := w.clients[p.Slot()]
		players = append(players, observerproto.PlayerState{
			Team:      int(p.Team),
			Index:     p.Index,
			Role:      string(p.Role),
			Pos:       arr(p.Pos),
			HasBall:   p.HasBall,
			Connected: connected,
		})
		state = append(state, arr(p.Pos))
	}
	state = append(state, arr(w.ball))

	var acts []observerproto.RecordedAction
	for _, a := range actions {
		acts = append(acts, observerproto.RecordedAction{Team: a.Team, Index: a.Index, Action: a.Action})
	}

	f := observerproto.FrameMsg{
		Type:            observerproto.TypeFrame,
		ProtocolVersion: observerproto.Version,
		Tick:            tick,
		Players:         players,
		Ball:            arr(w.ball),
		Score:           w.score,
		Kickoffs:        w.kickoffs,
		Actions:         acts,
		Events:          append([]protocol.Event(nil), w.events...),
		State:           state,
	}
	if goal != nil {
		f.Goal = &observerproto.GoalInfo{
			ScoringTeam: goal.ScoringTeam,
			ScorerTeam:  goal.ScorerTeam,
			ScorerIndex: goal.ScorerIndex,
			OwnGoal:     goal.OwnGoal,
		}
	}
	return f
}

// publishFrame stores the current frame for readers outside the loop and
// fans it out to observers.
func (w *World) publishFrame(tick uint64, actions []RecordedAction, goal *GoalEvent) {
	f := w.buildFrame(tick, actions, goal)
	w.frame.Store(f)
	if len(w.observers) == 0 {
		return
	}

	full, err := json.Marshal(f)
	if err != nil {
		return
	}
	var lite []byte
	for _, o := range w.observers {
		if o.wantState {
			sendLatest(o.frameOut, full)
			continue
		}
		if lite == nil {
			f.State = nil
			lite, err = json.Marshal(f)
			if err != nil {
				return
			}
		}
		sendLatest(o.frameOut, lite)
	}
}

// Frame returns the most recently published frame. Safe for concurrent use.
func (w *World) Frame() observerproto.FrameMsg {
	if w == nil {
		return observerproto.FrameMsg{}
	}
	f, _ := w.frame.Load().(observerproto.FrameMsg)
	return f
}

// Bootstrap describes the static pitch and the current match position for a
// viewer that is about to subscribe. Safe for concurrent use.
func (w *World) Bootstrap() observerproto.BootstrapResponse {
	g := w.cfg.Rules.Field
	f := w.Frame()
	return observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		MatchID:         w.cfg.ID,
		Tick:            f.Tick,
		Score:           f.Score,
		FieldParams: observerproto.FieldParams{
			TickRateHz:    w.cfg.TickRateHz,
			Seed:          w.cfg.Seed,
			Length:        g.Length,
			Width:         g.Width,
			GoalWidth:     g.GoalWidth,
			GoalInset:     g.GoalInset,
			MouthMinY:     g.MouthMinY,
			MouthMaxY:     g.MouthMaxY,
			CenterCircleR: g.CenterCircleR,
		},
		Markings: []observerproto.Marking{
			{Kind: "LINE", Name: "touchline_bottom", From: [2]float64{0, 0}, To: [2]float64{g.Length, 0}},
			{Kind: "LINE", Name: "touchline_top", From: [2]float64{0, g.Width}, To: [2]float64{g.Length, g.Width}},
			{Kind: "LINE", Name: "halfway", From: [2]float64{g.Length / 2, 0}, To: [2]float64{g.Length / 2, g.Width}},
			{Kind: "CIRCLE", Name: "centre_circle", From: [2]float64{g.Length / 2, g.Width / 2}, Radius: g.CenterCircleR},
			{Kind: "LINE", Name: "goal_line_left", From: [2]float64{g.GoalInset, 0}, To: [2]float64{g.GoalInset, g.Width}},
			{Kind: "LINE", Name: "goal_line_right", From: [2]float64{g.Length - g.GoalInset, 0}, To: [2]float64{g.Length - g.GoalInset, g.Width}},
			{Kind: "LINE", Name: "goal_mouth_left", From: [2]float64{g.GoalWidth, g.MouthMinY}, To: [2]float64{g.GoalWidth, g.MouthMaxY}},
			{Kind: "LINE", Name: "goal_mouth_right", From: [2]float64{g.Length - g.GoalWidth, g.MouthMinY}, To: [2]float64{g.Length - g.GoalWidth, g.MouthMaxY}},
		},
	}
}
