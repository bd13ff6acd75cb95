// Package policy holds the built-in action selectors a match can run with.
package policy

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"kickoff.ai/internal/protocol"
	"kickoff.ai/internal/sim/world"
)

// Random picks uniformly from the action space. Not safe for concurrent use;
// the world loop calls it from a single goroutine.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Decide(world.Decision) (protocol.Action, error) {
	return protocol.Actions[r.rng.Intn(len(protocol.Actions))], nil
}

// Fixed always answers the same action.
type Fixed protocol.Action

func (f Fixed) Decide(world.Decision) (protocol.Action, error) { return protocol.Action(f), nil }

// Chase runs at the ball and shoots once it is within KickRange
// (2 when unset).
type Chase struct {
	KickRange float64
}

func (c Chase) Decide(d world.Decision) (protocol.Action, error) {
	reach := c.KickRange
	if reach <= 0 {
		reach = 2
	}
	dx := d.Ball[0] - d.Self.Pos[0]
	dy := d.Ball[1] - d.Self.Pos[1]
	if d.HasBall && math.Hypot(dx, dy) < reach {
		return protocol.ActionShoot, nil
	}
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return protocol.ActionForward, nil
		}
		return protocol.ActionReverse, nil
	}
	if dy > 0 {
		return protocol.ActionLeft, nil
	}
	return protocol.ActionRight, nil
}

// Teams routes each decision to the policy of the deciding player's team.
type Teams struct {
	Home world.Policy
	Away world.Policy
}

func (t Teams) Decide(d world.Decision) (protocol.Action, error) {
	p := t.Home
	if d.Self.Slot.Team == world.TeamAway {
		p = t.Away
	}
	if p == nil {
		return "", fmt.Errorf("no policy for team %d", d.Self.Slot.Team)
	}
	return p.Decide(d)
}

// ByName builds a policy from its configuration name: random, chase, or
// fixed:<ACTION>. seed only matters for random.
func ByName(name string, seed int64) (world.Policy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "" || n == "random":
		return NewRandom(seed), nil
	case n == "chase":
		return Chase{}, nil
	case strings.HasPrefix(n, "fixed:"):
		a, err := protocol.ParseAction(n[len("fixed:"):])
		if err != nil {
			return nil, err
		}
		return Fixed(a), nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}
