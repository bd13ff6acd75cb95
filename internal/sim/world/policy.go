package world

import (
	"github.com/paulmach/orb"

	"kickoff.ai/internal/protocol"
)

// Policy chooses the action for one player. It is consulted once per player
// per tick, in roster order, from the world loop goroutine.
type Policy interface {
	Decide(d Decision) (protocol.Action, error)
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(d Decision) (protocol.Action, error)

func (f PolicyFunc) Decide(d Decision) (protocol.Action, error) { return f(d) }

// Decision is everything a policy may look at. Views are copies; mutating them
// has no effect on the match.
type Decision struct {
	Tick    uint64
	Self    PlayerView
	Roster  []PlayerView
	Ball    orb.Point
	HasBall bool
	Score   [2]int

	// State is every player position in roster order followed by the ball.
	State [][2]float64
}

type PlayerView struct {
	Slot    Slot
	Role    Role
	Pos     orb.Point
	HasBall bool
}

func viewOf(p *Player) PlayerView {
	return PlayerView{Slot: p.Slot(), Role: p.Role, Pos: p.Pos, HasBall: p.HasBall}
}

func (w *World) decisionFor(p *Player, tick uint64) Decision {
	roster := make([]PlayerView, len(w.players))
	state := make([][2]float64, 0, len(w.players)+1)
	for i, q := range w.players {
		roster[i] = viewOf(q)
		state = append(state, arr(q.Pos))
	}
	state = append(state, arr(w.ball))
	return Decision{
		Tick:    tick,
		Self:    viewOf(p),
		Roster:  roster,
		Ball:    w.ball,
		HasBall: p.HasBall,
		Score:   w.score,
		State:   state,
	}
}
