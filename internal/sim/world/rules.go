package world

import (
	"fmt"

	"github.com/paulmach/orb"

	"kickoff.ai/internal/sim/field"
)

// ShotTarget selects where SHOOT aims.
type ShotTarget string

const (
	// ShotFixed always aims at the right-hand goal mouth, whatever the shooter's team.
	ShotFixed ShotTarget = "fixed"
	// ShotOpponent aims at the goal defended by the other team.
	ShotOpponent ShotTarget = "opponent"
)

// Rules holds the geometry and the kinematic thresholds every player operation uses.
type Rules struct {
	Field field.Geometry

	StepSize        float64 // distance covered by one move
	ContactRange    float64 // ball closer than this after a move gets nudged
	KickRange       float64 // pass/shoot reach
	PossessionRange float64 // possession flag threshold
	KickDistance    float64 // ball travel for pass/shoot
	MoveOffset      float64 // length of the directional action target vector

	ShotTarget ShotTarget
}

func DefaultRules() Rules {
	return Rules{
		Field:           field.Default(),
		StepSize:        1,
		ContactRange:    1,
		KickRange:       2,
		PossessionRange: 3,
		KickDistance:    10,
		MoveOffset:      10,
		ShotTarget:      ShotFixed,
	}
}

func (r Rules) Validate() error {
	if err := r.Field.Validate(); err != nil {
		return err
	}
	if r.StepSize <= 0 || r.KickDistance <= 0 || r.MoveOffset <= 0 {
		return fmt.Errorf("rules: step_size, kick_distance and move_offset must be > 0")
	}
	if r.ContactRange < 0 || r.KickRange < 0 || r.PossessionRange < 0 {
		return fmt.Errorf("rules: ranges must be >= 0")
	}
	switch r.ShotTarget {
	case ShotFixed, ShotOpponent:
	default:
		return fmt.Errorf("rules: unknown shot_target %q", r.ShotTarget)
	}
	return nil
}

// CheckGoal reports whether ball sits past either goal line inside the mouth span.
func (r Rules) CheckGoal(ball orb.Point) bool {
	g := r.Field
	if !g.InMouth(ball[1]) {
		return false
	}
	return ball[0] <= g.GoalWidth || ball[0] >= g.Length-g.GoalWidth
}

// ScoringTeam returns the team credited for a ball in the goal. Only meaningful
// when CheckGoal(ball) holds.
func (r Rules) ScoringTeam(ball orb.Point) Team {
	if ball[0] <= r.Field.GoalWidth {
		// Home defends the left goal.
		return TeamAway
	}
	return TeamHome
}

func (r Rules) shotTargetFor(t Team) orb.Point {
	if r.ShotTarget == ShotOpponent && t == TeamAway {
		return r.Field.GoalCenter(true)
	}
	return r.Field.GoalCenter(false)
}
