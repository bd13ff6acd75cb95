package world

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"kickoff.ai/internal/sim/field"
)

// Player is one agent on the pitch. Pos always lies inside the rules' play
// bounds after any operation; HasBall is recomputed every tick and carries no
// intent.
type Player struct {
	Index   int
	Team    Team
	Role    Role
	Pos     orb.Point
	HasBall bool

	start orb.Point
	rules *Rules
}

func NewPlayer(rules *Rules, index int, team Team, role Role, pos orb.Point) *Player {
	return &Player{
		Index: index,
		Team:  team,
		Role:  role,
		Pos:   pos,
		start: pos,
		rules: rules,
	}
}

func (p *Player) Slot() Slot { return Slot{Team: p.Team, Index: p.Index} }

// StartPos is the kickoff position the player was created with.
func (p *Player) StartPos() orb.Point { return p.start }

// Move steps one unit toward target, then keeps the player inside the play
// bounds. A ball left within contact range is nudged toward the player, and the
// ball is finally pulled back inside the goal-line insets unless it sits in a goal.
func (p *Player) Move(target orb.Point, ball *orb.Point) {
	r := p.rules
	if next, ok := towards(p.Pos, target, r.StepSize); ok {
		p.Pos = field.Clamp(next, r.Field.PlayBounds())
	}

	if planar.Distance(p.Pos, *ball) < r.ContactRange {
		if nudged, ok := towards(*ball, p.Pos, 1); ok {
			*ball = nudged
		}
	}
	p.CheckOutBall(ball)
}

// PassBall kicks the ball toward the player nearest to it (self excluded).
// Ties go to the first such player in roster order. Out of reach, or with the
// target sitting exactly on the ball, the ball is returned unchanged.
func (p *Player) PassBall(ball orb.Point, roster []*Player) orb.Point {
	r := p.rules
	if planar.Distance(p.Pos, ball) >= r.KickRange {
		return ball
	}
	target := p.nearestTo(ball, roster)
	if target == nil {
		return ball
	}
	next, ok := towards(ball, target.Pos, r.KickDistance)
	if !ok {
		return ball
	}
	return field.Clamp(next, r.Field.Bounds())
}

// Shoot kicks the ball along the line from the player to the goal target.
func (p *Player) Shoot(ball orb.Point) orb.Point {
	r := p.rules
	if planar.Distance(p.Pos, ball) >= r.KickRange {
		return ball
	}
	// Direction comes from the shooter's position, not the ball's.
	from := p.Pos
	to, ok := towards(from, r.shotTargetFor(p.Team), r.KickDistance)
	if !ok {
		return ball
	}
	next := orb.Point{ball[0] + (to[0] - from[0]), ball[1] + (to[1] - from[1])}
	return field.Clamp(next, r.Field.Bounds())
}

// CheckOutBall pulls a ball that reached a goal line or touch line back one
// unit inside. A ball in the goal is left alone so the goal can register.
func (p *Player) CheckOutBall(ball *orb.Point) {
	checkOutBall(p.rules, ball)
}

// CheckWhoHasBall recomputes the possession flag from the distance to the ball.
func (p *Player) CheckWhoHasBall(ball orb.Point) bool {
	p.HasBall = planar.Distance(p.Pos, ball) < p.rules.PossessionRange
	return p.HasBall
}

func (p *Player) nearestTo(ball orb.Point, roster []*Player) *Player {
	var best *Player
	bestD := 0.0
	for _, q := range roster {
		if q == nil || q == p {
			continue
		}
		d := planar.Distance(q.Pos, ball)
		if best == nil || d < bestD {
			best, bestD = q, d
		}
	}
	return best
}
