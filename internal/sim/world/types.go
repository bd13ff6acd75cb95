package world

import (
	"fmt"

	"github.com/paulmach/orb"
)

type Team int

const (
	TeamHome Team = 1
	TeamAway Team = 2
)

func (t Team) Valid() bool { return t == TeamHome || t == TeamAway }

func (t Team) Opponent() Team {
	if t == TeamHome {
		return TeamAway
	}
	return TeamHome
}

type Role string

const (
	RoleGoalkeeper Role = "GOALKEEPER"
	RoleDefender   Role = "DEFENDER"
	RoleStriker    Role = "STRIKER"
)

const (
	TeamSize   = 6
	RosterSize = 2 * TeamSize
)

// Slot identifies a roster position: team plus zero-based index within the team.
type Slot struct {
	Team  Team `json:"team"`
	Index int  `json:"index"`
}

func (s Slot) Valid() bool { return s.Team.Valid() && s.Index >= 0 && s.Index < TeamSize }

func (s Slot) String() string { return fmt.Sprintf("T%d/P%d", int(s.Team), s.Index+1) }

// order is the slot's position in the fixed roster order.
func (s Slot) order() int { return (int(s.Team)-1)*TeamSize + s.Index }

func pt(v [2]float64) orb.Point  { return orb.Point{v[0], v[1]} }
func arr(p orb.Point) [2]float64 { return [2]float64{p[0], p[1]} }
