package world

import (
	"github.com/paulmach/orb"

	"kickoff.ai/internal/sim/field"
)

type formationSpot struct {
	Role Role
	X, Y float64
}

// homeFormation is the kickoff layout for the home team on the default
// 120x80 pitch. The away team mirrors it across the halfway line.
var homeFormation = [TeamSize]formationSpot{
	{RoleGoalkeeper, 15, 40},
	{RoleDefender, 30, 25},
	{RoleDefender, 30, 55},
	{RoleDefender, 25, 40},
	{RoleStriker, 50, 50},
	{RoleStriker, 50, 30},
}

// kickoffRoster builds the twelve players in roster order, scaled to g and
// clamped into the play bounds, since the goal inset does not scale.
func kickoffRoster(rules *Rules) []*Player {
	g := rules.Field
	sx := g.Length / field.DefaultLength
	sy := g.Width / field.DefaultWidth
	play := g.PlayBounds()

	out := make([]*Player, 0, RosterSize)
	for i, s := range homeFormation {
		pos := field.Clamp(orb.Point{s.X * sx, s.Y * sy}, play)
		out = append(out, NewPlayer(rules, i, TeamHome, s.Role, pos))
	}
	for i, s := range homeFormation {
		pos := field.Clamp(orb.Point{g.Length - s.X*sx, s.Y * sy}, play)
		out = append(out, NewPlayer(rules, i, TeamAway, s.Role, pos))
	}
	return out
}
