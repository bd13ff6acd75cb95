package world

import (
	"encoding/json"

	"github.com/google/uuid"

	"kickoff.ai/internal/protocol"
)

func (w *World) handleJoin(req JoinRequest) JoinResponse {
	if !req.Slot.Valid() {
		return JoinResponse{Code: protocol.ErrBadSlot}
	}
	if _, taken := w.clients[req.Slot]; taken {
		return JoinResponse{Code: protocol.ErrSlotTaken}
	}
	sessionID := uuid.NewString()
	w.clients[req.Slot] = &clientState{SessionID: sessionID, Name: req.Name, Out: req.Out}

	role := ""
	if p := w.Player(req.Slot); p != nil {
		role = string(p.Role)
	}
	g := w.rules.Field
	return JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		MatchID:         w.cfg.ID,
		Team:            int(req.Slot.Team),
		Index:           req.Slot.Index,
		Role:            role,
		FieldParams: protocol.FieldParams{
			TickRateHz: w.cfg.TickRateHz,
			Length:     g.Length,
			Width:      g.Width,
			GoalWidth:  g.GoalWidth,
			GoalInset:  g.GoalInset,
			MouthMinY:  g.MouthMinY,
			MouthMaxY:  g.MouthMaxY,
		},
		ActionSpace: append([]protocol.Action(nil), protocol.Actions...),
	}}
}

// handleLeave detaches the session; its slot falls back to the policy.
func (w *World) handleLeave(sessionID string) bool {
	for s, c := range w.clients {
		if c.SessionID == sessionID {
			delete(w.clients, s)
			return true
		}
	}
	return false
}

// sessionSlot resolves a session to its slot, trusting the session rather
// than anything the client claims.
func (w *World) sessionSlot(sessionID string) (Slot, bool) {
	for s, c := range w.clients {
		if c.SessionID == sessionID {
			return s, true
		}
	}
	return Slot{}, false
}

func (w *World) buildObs(p *Player, tick uint64) protocol.ObsMsg {
	players := make([]protocol.PlayerObs, 0, len(w.players))
	state := make([][2]float64, 0, len(w.players)+1)
	for _, q := range w.players {
		players = append(players, playerObs(q))
		state = append(state, arr(q.Pos))
	}
	state = append(state, arr(w.ball))

	events := w.events
	if events == nil {
		events = []protocol.Event{}
	}
	return protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Team:            int(p.Team),
		Index:           p.Index,
		Self:            playerObs(p),
		Players:         players,
		Ball:            arr(w.ball),
		HasBall:         p.HasBall,
		Score:           w.score,
		State:           state,
		Events:          events,
	}
}

func playerObs(p *Player) protocol.PlayerObs {
	return protocol.PlayerObs{
		Team:    int(p.Team),
		Index:   p.Index,
		Role:    string(p.Role),
		Pos:     arr(p.Pos),
		HasBall: p.HasBall,
	}
}

// sendObs pushes one OBS per attached slot. tick is the tick the client
// should answer for.
func (w *World) sendObs(tick uint64) {
	for s, cl := range w.clients {
		if cl.Out == nil {
			continue
		}
		p := w.Player(s)
		if p == nil {
			continue
		}
		b, err := json.Marshal(w.buildObs(p, tick))
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}
}
