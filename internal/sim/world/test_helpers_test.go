package world

import (
	"testing"

	"github.com/paulmach/orb"

	"kickoff.ai/internal/protocol"
)

func newTestWorld(t *testing.T, policy Policy) *World {
	t.Helper()
	w, err := New(WorldConfig{ID: "test", TickRateHz: 10, Seed: 42, Rules: DefaultRules()}, policy)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func fixedPolicy(a protocol.Action) Policy {
	return PolicyFunc(func(Decision) (protocol.Action, error) { return a, nil })
}

func testPlayer(r *Rules, team Team, index int, x, y float64) *Player {
	return NewPlayer(r, index, team, RoleDefender, orb.Point{x, y})
}

type memTickLog struct {
	entries []TickLogEntry
}

func (m *memTickLog) WriteTick(e TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func nearPt(a, b orb.Point) bool { return near(a[0], b[0]) && near(a[1], b[1]) }
