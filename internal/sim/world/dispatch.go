package world

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"kickoff.ai/internal/protocol"
)

// ErrInvalidAction is returned when an action outside the closed action set
// reaches the dispatcher. It is a contract violation by the policy.
var ErrInvalidAction = errors.New("invalid action")

// Dispatch applies act for p against the shared ball and roster.
func Dispatch(p *Player, act protocol.Action, ball *orb.Point, roster []*Player) error {
	off := p.rules.MoveOffset
	switch act {
	case protocol.ActionForward:
		p.Move(orb.Point{p.Pos[0] + off, p.Pos[1]}, ball)
	case protocol.ActionReverse:
		p.Move(orb.Point{p.Pos[0] - off, p.Pos[1]}, ball)
	case protocol.ActionRight:
		p.Move(orb.Point{p.Pos[0], p.Pos[1] - off}, ball)
	case protocol.ActionLeft:
		p.Move(orb.Point{p.Pos[0], p.Pos[1] + off}, ball)
	case protocol.ActionPass:
		*ball = p.PassBall(*ball, roster)
	case protocol.ActionShoot:
		*ball = p.Shoot(*ball)
	default:
		return fmt.Errorf("%s: %w %q", p.Slot(), ErrInvalidAction, string(act))
	}
	return nil
}
