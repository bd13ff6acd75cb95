package world

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// towards moves from by dist along the unit vector pointing at to.
// ok is false (and from is returned) when the two points coincide.
func towards(from, to orb.Point, dist float64) (orb.Point, bool) {
	d := planar.Distance(from, to)
	if d == 0 {
		return from, false
	}
	return orb.Point{
		from[0] + (to[0]-from[0])/d*dist,
		from[1] + (to[1]-from[1])/d*dist,
	}, true
}

func checkOutBall(r *Rules, ball *orb.Point) {
	if r.CheckGoal(*ball) {
		return
	}
	g := r.Field

	if ball[0] <= g.GoalInset {
		ball[0] = g.GoalInset + 1
	}
	if ball[0] >= g.Length-g.GoalInset {
		ball[0] = g.Length - g.GoalInset - 1
	}

	if ball[1] <= 0 {
		ball[1] = 1
	}
	if ball[1] >= g.Width {
		ball[1] = g.Width - 1
	}
}
