package world

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestMove_UnitStepTowardTarget(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 14, 40)
	ball := orb.Point{60, 40}

	p.Move(orb.Point{24, 40}, &ball)

	if !nearPt(p.Pos, orb.Point{15, 40}) {
		t.Fatalf("pos=%v want (15,40)", p.Pos)
	}
	if !nearPt(ball, orb.Point{60, 40}) {
		t.Fatalf("ball moved: %v", ball)
	}
}

func TestMove_ClampsToPlayBounds(t *testing.T) {
	r := DefaultRules()
	cases := []struct {
		start, target, want orb.Point
	}{
		{orb.Point{10, 40}, orb.Point{0, 40}, orb.Point{10, 40}},
		{orb.Point{110, 40}, orb.Point{120, 40}, orb.Point{110, 40}},
		{orb.Point{50, 0}, orb.Point{50, -10}, orb.Point{50, 0}},
		{orb.Point{50, 80}, orb.Point{50, 90}, orb.Point{50, 80}},
	}
	for _, c := range cases {
		p := testPlayer(&r, TeamHome, 0, c.start[0], c.start[1])
		ball := orb.Point{60, 40}
		p.Move(c.target, &ball)
		if !nearPt(p.Pos, c.want) {
			t.Fatalf("start=%v target=%v: pos=%v want %v", c.start, c.target, p.Pos, c.want)
		}
	}
}

func TestMove_ZeroLengthTargetIsNoop(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 30, 40)
	ball := orb.Point{60, 40}
	p.Move(orb.Point{30, 40}, &ball)
	if !nearPt(p.Pos, orb.Point{30, 40}) {
		t.Fatalf("pos=%v", p.Pos)
	}
}

func TestMove_DribbleNudgesBallTowardPlayer(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 30, 40)
	ball := orb.Point{31.5, 40}

	p.Move(orb.Point{40, 40}, &ball)

	if !nearPt(p.Pos, orb.Point{31, 40}) {
		t.Fatalf("pos=%v", p.Pos)
	}
	if !nearPt(ball, orb.Point{30.5, 40}) {
		t.Fatalf("ball=%v want (30.5,40)", ball)
	}
}

func TestMove_CoincidentBallNotNudged(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 30, 40)
	ball := orb.Point{31, 40}

	p.Move(orb.Point{40, 40}, &ball)

	if !nearPt(ball, orb.Point{31, 40}) {
		t.Fatalf("ball=%v want unchanged", ball)
	}
}

func TestShoot_CoincidentBall(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 20, 40)
	got := p.Shoot(orb.Point{20, 40})
	if !nearPt(got, orb.Point{30, 40}) {
		t.Fatalf("ball=%v want (30,40)", got)
	}
}

func TestShoot_OutOfRangeUnchanged(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 20, 40)
	ball := orb.Point{22, 40} // exactly at kick range
	if got := p.Shoot(ball); !nearPt(got, ball) {
		t.Fatalf("ball=%v want unchanged", got)
	}
}

func TestShoot_FixedTargetIgnoresTeam(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamAway, 0, 100, 40)
	got := p.Shoot(orb.Point{100, 40})
	if !nearPt(got, orb.Point{110, 40}) {
		t.Fatalf("ball=%v want (110,40)", got)
	}
}

func TestShoot_OpponentTarget(t *testing.T) {
	r := DefaultRules()
	r.ShotTarget = ShotOpponent
	away := testPlayer(&r, TeamAway, 0, 100, 40)
	if got := away.Shoot(orb.Point{100, 40}); !nearPt(got, orb.Point{90, 40}) {
		t.Fatalf("away ball=%v want (90,40)", got)
	}
	home := testPlayer(&r, TeamHome, 0, 20, 40)
	if got := home.Shoot(orb.Point{20, 40}); !nearPt(got, orb.Point{30, 40}) {
		t.Fatalf("home ball=%v want (30,40)", got)
	}
}

func TestPassBall_TowardNearestOther(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 50, 40)
	far := testPlayer(&r, TeamHome, 1, 51, 55)    // 15 from ball
	closer := testPlayer(&r, TeamAway, 0, 51, 45) // 5 from ball
	roster := []*Player{p, far, closer}

	got := p.PassBall(orb.Point{51, 40}, roster)

	// Full kick distance, not stopped at the receiver.
	if !nearPt(got, orb.Point{51, 50}) {
		t.Fatalf("ball=%v want (51,50)", got)
	}
}

func TestPassBall_ExcludesSelfByIdentity(t *testing.T) {
	r := DefaultRules()
	other := testPlayer(&r, TeamHome, 0, 51, 45)
	p := testPlayer(&r, TeamHome, 3, 50, 40) // nearest to the ball, not first in roster
	roster := []*Player{other, p}

	got := p.PassBall(orb.Point{51, 40}, roster)
	if !nearPt(got, orb.Point{51, 50}) {
		t.Fatalf("ball=%v want (51,50)", got)
	}
}

func TestPassBall_TieGoesToFirstInRoster(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 50, 40)
	below := testPlayer(&r, TeamHome, 1, 51, 35)
	above := testPlayer(&r, TeamHome, 2, 51, 45)

	got := p.PassBall(orb.Point{51, 40}, []*Player{p, below, above})
	if !nearPt(got, orb.Point{51, 30}) {
		t.Fatalf("ball=%v want (51,30)", got)
	}
}

func TestPassBall_ClampsToFieldBounds(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 60, 1)
	target := testPlayer(&r, TeamHome, 1, 62, 0)

	got := p.PassBall(orb.Point{60, 0.5}, []*Player{p, target})
	if got[1] != 0 {
		t.Fatalf("ball y=%v want 0", got[1])
	}
	if got[0] <= 60 || got[0] > r.Field.Length {
		t.Fatalf("ball x=%v", got[0])
	}
}

func TestPassBall_OutOfRangeOrAlone(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 50, 40)
	other := testPlayer(&r, TeamHome, 1, 70, 40)

	ball := orb.Point{55, 40}
	if got := p.PassBall(ball, []*Player{p, other}); !nearPt(got, ball) {
		t.Fatalf("out of range moved ball: %v", got)
	}
	ball = orb.Point{51, 40}
	if got := p.PassBall(ball, []*Player{p}); !nearPt(got, ball) {
		t.Fatalf("no receiver moved ball: %v", got)
	}
}

func TestCheckOutBall(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 50, 40)
	cases := []struct {
		in, want orb.Point
	}{
		{orb.Point{5, 60}, orb.Point{11, 60}},
		{orb.Point{10, 20}, orb.Point{11, 20}},
		{orb.Point{115, 85}, orb.Point{109, 79}},
		{orb.Point{60, -1}, orb.Point{60, 1}},
		{orb.Point{60, 0}, orb.Point{60, 1}},
		{orb.Point{60, 40}, orb.Point{60, 40}},
		// In the goal: left alone.
		{orb.Point{5, 40}, orb.Point{5, 40}},
		{orb.Point{110, 30}, orb.Point{110, 30}},
	}
	for _, c := range cases {
		b := c.in
		p.CheckOutBall(&b)
		if !nearPt(b, c.want) {
			t.Fatalf("in=%v got=%v want %v", c.in, b, c.want)
		}
	}
}

func TestCheckWhoHasBall_Idempotent(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 50, 40)
	ball := orb.Point{52, 40}
	for i := 0; i < 3; i++ {
		if !p.CheckWhoHasBall(ball) || !p.HasBall {
			t.Fatalf("call %d: expected possession", i)
		}
	}
	// Threshold is strict.
	if p.CheckWhoHasBall(orb.Point{53, 40}) {
		t.Fatalf("expected no possession at distance 3")
	}
	if p.CheckWhoHasBall(orb.Point{53, 40}) {
		t.Fatalf("expected no possession on repeat")
	}
}
