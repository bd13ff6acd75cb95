package worldtest

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"

	"kickoff.ai/internal/persistence/snapshot"
	"kickoff.ai/internal/protocol"
	world "kickoff.ai/internal/sim/world"
)

// Harness drives a world through its exported APIs only:
// - Join()/Leave() go through StepSessions at a tick boundary
// - Act() submits one ACT for a session and steps
// - per-session Out channels carry OBS JSON
//
// Tests built on it live outside the world package.
type Harness struct {
	T *testing.T
	W *world.World

	sessions map[string]*session
}

type session struct {
	ID      string
	Slot    world.Slot
	Out     chan []byte
	lastObs protocol.ObsMsg
}

// Config is a small deterministic match config with default rules.
func Config() world.WorldConfig {
	return world.WorldConfig{
		ID:         "test",
		TickRateHz: 10,
		Seed:       42,
		Rules:      world.DefaultRules(),
	}
}

func NewHarness(t *testing.T, cfg world.WorldConfig, p world.Policy) *Harness {
	t.Helper()
	w, err := world.New(cfg, p)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w)
}

// NewHarnessWithWorld wraps an existing world, e.g. one that just imported a snapshot.
func NewHarnessWithWorld(t *testing.T, w *world.World) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}
	return &Harness{T: t, W: w, sessions: map[string]*session{}}
}

// TryJoin attaches a session to slot and returns the raw response.
func (h *Harness) TryJoin(slot world.Slot, name string) world.JoinResponse {
	h.T.Helper()
	out := make(chan []byte, 16)
	resp := make(chan world.JoinResponse, 1)
	h.step([]world.JoinRequest{{Name: name, Slot: slot, Out: out, Resp: resp}}, nil, nil)
	jr := <-resp
	if jr.Code == "" {
		h.sessions[jr.Welcome.SessionID] = &session{ID: jr.Welcome.SessionID, Slot: slot, Out: out}
		h.drainAllObs()
	}
	return jr
}

// Join attaches a session to slot and fails the test if it was refused.
func (h *Harness) Join(slot world.Slot) string {
	h.T.Helper()
	jr := h.TryJoin(slot, "bot")
	if jr.Code != "" {
		h.T.Fatalf("join %s refused: %s", slot, jr.Code)
	}
	if jr.Welcome.SessionID == "" {
		h.T.Fatalf("join returned empty session id")
	}
	return jr.Welcome.SessionID
}

func (h *Harness) Leave(sessionID string) {
	h.T.Helper()
	h.step(nil, []string{sessionID}, nil)
	delete(h.sessions, sessionID)
}

// Act submits action for the current tick and steps once.
func (h *Harness) Act(sessionID string, action protocol.Action) string {
	return h.ActAt(sessionID, h.W.CurrentTick(), action)
}

func (h *Harness) ActAt(sessionID string, tick uint64, action protocol.Action) string {
	h.T.Helper()
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Action:          action,
	}
	d := h.step(nil, nil, []world.ActionEnvelope{{SessionID: sessionID, Act: act}})
	h.drainAllObs()
	return d
}

func (h *Harness) StepNoop() string {
	h.T.Helper()
	d := h.step(nil, nil, nil)
	h.drainAllObs()
	return d
}

func (h *Harness) StepN(n int) string {
	h.T.Helper()
	var d string
	for i := 0; i < n; i++ {
		d = h.StepNoop()
	}
	return d
}

// Snapshot exports at currentTick-1 so that importing it resumes at currentTick.
func (h *Harness) Snapshot() (tick uint64, snap snapshot.SnapshotV1) {
	h.T.Helper()
	cur := h.W.CurrentTick()
	if cur == 0 {
		return 0, h.W.ExportSnapshot(0)
	}
	tick = cur - 1
	return tick, h.W.ExportSnapshot(tick)
}

func (h *Harness) LastObs(sessionID string) protocol.ObsMsg {
	h.T.Helper()
	s := h.sessions[sessionID]
	if s == nil {
		h.T.Fatalf("unknown session: %q", sessionID)
	}
	return s.lastObs
}

func (h *Harness) Pos(slot world.Slot) orb.Point {
	h.T.Helper()
	p := h.W.Player(slot)
	if p == nil {
		h.T.Fatalf("no player at %s", slot)
	}
	return p.Pos
}

func (h *Harness) step(joins []world.JoinRequest, leaves []string, actions []world.ActionEnvelope) string {
	h.T.Helper()
	_, d, err := h.W.StepSessions(joins, leaves, actions)
	if err != nil {
		h.T.Fatalf("step: %v", err)
	}
	return d
}

func (h *Harness) drainAllObs() {
	h.T.Helper()
	for _, s := range h.sessions {
		h.drainOneObs(s)
	}
}

func (h *Harness) drainOneObs(s *session) {
	h.T.Helper()
	for {
		select {
		case b := <-s.Out:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(b, &obs); err != nil {
				h.T.Fatalf("unmarshal obs: %v", err)
			}
			s.lastObs = obs
		default:
			return
		}
	}
}
