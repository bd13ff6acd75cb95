package policy

import (
	"testing"

	"github.com/paulmach/orb"

	"kickoff.ai/internal/protocol"
	"kickoff.ai/internal/sim/world"
)

func decision(team world.Team, self, ball orb.Point, hasBall bool) world.Decision {
	return world.Decision{
		Self:    world.PlayerView{Slot: world.Slot{Team: team, Index: 0}, Pos: self, HasBall: hasBall},
		Ball:    ball,
		HasBall: hasBall,
	}
}

func TestRandom_SeededAndValid(t *testing.T) {
	a, b := NewRandom(3), NewRandom(3)
	seen := map[protocol.Action]bool{}
	for i := 0; i < 600; i++ {
		x, _ := a.Decide(world.Decision{})
		y, _ := b.Decide(world.Decision{})
		if x != y {
			t.Fatalf("draw %d: %s vs %s", i, x, y)
		}
		if !x.Valid() {
			t.Fatalf("invalid action %q", x)
		}
		seen[x] = true
	}
	if len(seen) != len(protocol.Actions) {
		t.Fatalf("only saw %d distinct actions", len(seen))
	}
}

func TestChase(t *testing.T) {
	var c Chase
	cases := []struct {
		self, ball orb.Point
		has        bool
		want       protocol.Action
	}{
		{orb.Point{30, 40}, orb.Point{60, 40}, false, protocol.ActionForward},
		{orb.Point{80, 40}, orb.Point{60, 40}, false, protocol.ActionReverse},
		{orb.Point{60, 20}, orb.Point{60, 40}, false, protocol.ActionLeft},
		{orb.Point{60, 60}, orb.Point{60, 40}, false, protocol.ActionRight},
		{orb.Point{59, 40}, orb.Point{60, 40}, true, protocol.ActionShoot},
		// Possession but out of kick reach: keep closing in.
		{orb.Point{57.5, 40}, orb.Point{60, 40}, true, protocol.ActionForward},
	}
	for _, tc := range cases {
		got, err := c.Decide(decision(world.TeamHome, tc.self, tc.ball, tc.has))
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		if got != tc.want {
			t.Fatalf("self=%v ball=%v has=%v: got %s want %s", tc.self, tc.ball, tc.has, got, tc.want)
		}
	}
}

func TestTeams_Routes(t *testing.T) {
	p := Teams{Home: Fixed(protocol.ActionLeft), Away: Fixed(protocol.ActionRight)}
	if a, _ := p.Decide(decision(world.TeamHome, orb.Point{}, orb.Point{}, false)); a != protocol.ActionLeft {
		t.Fatalf("home got %s", a)
	}
	if a, _ := p.Decide(decision(world.TeamAway, orb.Point{}, orb.Point{}, false)); a != protocol.ActionRight {
		t.Fatalf("away got %s", a)
	}
	if _, err := (Teams{Home: Chase{}}).Decide(decision(world.TeamAway, orb.Point{}, orb.Point{}, false)); err == nil {
		t.Fatalf("expected error for missing away policy")
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "random", "chase", "Fixed:shoot", "fixed:PASS"} {
		if _, err := ByName(name, 1); err != nil {
			t.Fatalf("%q: %v", name, err)
		}
	}
	p, _ := ByName("fixed:left", 1)
	if a, _ := p.Decide(world.Decision{}); a != protocol.ActionLeft {
		t.Fatalf("fixed:left got %s", a)
	}
	for _, name := range []string{"fixed:jump", "genius"} {
		if _, err := ByName(name, 1); err == nil {
			t.Fatalf("%q: expected error", name)
		}
	}
}

func TestMatchWithChaseScores(t *testing.T) {
	w, err := world.New(world.WorldConfig{ID: "chase", TickRateHz: 10, Rules: world.DefaultRules()},
		Teams{Home: Chase{}, Away: Fixed(protocol.ActionReverse)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 5000; i++ {
		if _, _, err := w.StepOnce(nil); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if s := w.Score(); s[0]+s[1] == 0 {
		t.Fatalf("no goals in 5000 ticks")
	}
}
