package world

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"kickoff.ai/internal/protocol"
)

func TestDispatch_Directions(t *testing.T) {
	cases := []struct {
		act  protocol.Action
		want orb.Point
	}{
		{protocol.ActionForward, orb.Point{31, 40}},
		{protocol.ActionReverse, orb.Point{29, 40}},
		{protocol.ActionRight, orb.Point{30, 39}},
		{protocol.ActionLeft, orb.Point{30, 41}},
	}
	for _, c := range cases {
		r := DefaultRules()
		p := testPlayer(&r, TeamHome, 0, 30, 40)
		ball := orb.Point{60, 40}
		if err := Dispatch(p, c.act, &ball, []*Player{p}); err != nil {
			t.Fatalf("%s: %v", c.act, err)
		}
		if !nearPt(p.Pos, c.want) {
			t.Fatalf("%s: pos=%v want %v", c.act, p.Pos, c.want)
		}
	}
}

func TestDispatch_ShootWritesBall(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 20, 40)
	ball := orb.Point{20, 40}
	if err := Dispatch(p, protocol.ActionShoot, &ball, []*Player{p}); err != nil {
		t.Fatalf("shoot: %v", err)
	}
	if !nearPt(ball, orb.Point{30, 40}) {
		t.Fatalf("ball=%v", ball)
	}
}

func TestDispatch_PassWritesBall(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 50, 40)
	q := testPlayer(&r, TeamHome, 1, 51, 45)
	ball := orb.Point{51, 40}
	if err := Dispatch(p, protocol.ActionPass, &ball, []*Player{p, q}); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if !nearPt(ball, orb.Point{51, 50}) {
		t.Fatalf("ball=%v", ball)
	}
}

func TestDispatch_InvalidAction(t *testing.T) {
	r := DefaultRules()
	p := testPlayer(&r, TeamHome, 0, 30, 40)
	ball := orb.Point{60, 40}
	err := Dispatch(p, protocol.Action("JUMP"), &ball, []*Player{p})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("err=%v want ErrInvalidAction", err)
	}
	if !nearPt(p.Pos, orb.Point{30, 40}) || !nearPt(ball, orb.Point{60, 40}) {
		t.Fatalf("invalid action mutated state")
	}
}
