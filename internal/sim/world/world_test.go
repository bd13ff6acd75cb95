package world

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"kickoff.ai/internal/persistence/snapshot"
	"kickoff.ai/internal/protocol"
)

func TestReset_CanonicalKickoff(t *testing.T) {
	w := newTestWorld(t, fixedPolicy(protocol.ActionForward))

	// Disturb everything, then reset.
	for _, p := range w.players {
		p.Pos = orb.Point{33, 33}
	}
	w.SetBall(orb.Point{1, 1})
	w.Reset()

	want := []struct {
		team Team
		role Role
		pos  orb.Point
	}{
		{TeamHome, RoleGoalkeeper, orb.Point{15, 40}},
		{TeamHome, RoleDefender, orb.Point{30, 25}},
		{TeamHome, RoleDefender, orb.Point{30, 55}},
		{TeamHome, RoleDefender, orb.Point{25, 40}},
		{TeamHome, RoleStriker, orb.Point{50, 50}},
		{TeamHome, RoleStriker, orb.Point{50, 30}},
		{TeamAway, RoleGoalkeeper, orb.Point{105, 40}},
		{TeamAway, RoleDefender, orb.Point{90, 25}},
		{TeamAway, RoleDefender, orb.Point{90, 55}},
		{TeamAway, RoleDefender, orb.Point{95, 40}},
		{TeamAway, RoleStriker, orb.Point{70, 50}},
		{TeamAway, RoleStriker, orb.Point{70, 30}},
	}
	players := w.Players()
	if len(players) != RosterSize {
		t.Fatalf("players=%d want %d", len(players), RosterSize)
	}
	for i, p := range players {
		if p.Team != want[i].team || p.Role != want[i].role || !nearPt(p.Pos, want[i].pos) {
			t.Fatalf("player %d: team=%d role=%s pos=%v want %+v", i, p.Team, p.Role, p.Pos, want[i])
		}
		if p.Index != i%TeamSize {
			t.Fatalf("player %d: index=%d", i, p.Index)
		}
	}
	if !nearPt(w.Ball(), orb.Point{60, 40}) {
		t.Fatalf("ball=%v want (60,40)", w.Ball())
	}
}

func TestReset_SmallPitchKickoffInsidePlayBounds(t *testing.T) {
	rules := DefaultRules()
	rules.Field.Length = 60
	rules.Field.Width = 40
	rules.Field.GoalWidth = 5
	rules.Field.MouthMinY = 15
	rules.Field.MouthMaxY = 25
	w, err := New(WorldConfig{ID: "small", TickRateHz: 10, Rules: rules}, fixedPolicy(protocol.ActionForward))
	if err != nil {
		t.Fatalf("world: %v", err)
	}

	play := rules.Field.PlayBounds()
	for _, p := range w.Players() {
		if !play.Contains(p.Pos) {
			t.Fatalf("%s kicks off outside play bounds: %v", p.Slot(), p.Pos)
		}
	}
	home := w.Player(Slot{Team: TeamHome, Index: 0}).Pos
	away := w.Player(Slot{Team: TeamAway, Index: 0}).Pos
	if !nearPt(home, orb.Point{10, 20}) || !nearPt(away, orb.Point{50, 20}) {
		t.Fatalf("keepers at %v and %v", home, away)
	}
}

func TestStep_PlayersStayInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w := newTestWorld(t, PolicyFunc(func(Decision) (protocol.Action, error) {
		return protocol.Actions[rng.Intn(len(protocol.Actions))], nil
	}))
	pb := w.rules.Field.PlayBounds()
	fb := w.rules.Field.Bounds()
	for i := 0; i < 2000; i++ {
		if _, _, err := w.StepOnce(nil); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		for _, p := range w.Players() {
			if !pb.Contains(p.Pos) {
				t.Fatalf("tick %d: %s at %v outside play bounds", i, p.Slot(), p.Pos)
			}
		}
		if !fb.Contains(w.Ball()) {
			t.Fatalf("tick %d: ball %v outside field", i, w.Ball())
		}
	}
}

func TestStep_GoalResetsAndAbortsTick(t *testing.T) {
	calls := 0
	w := newTestWorld(t, PolicyFunc(func(d Decision) (protocol.Action, error) {
		calls++
		if d.Self.Slot == (Slot{Team: TeamHome, Index: 0}) {
			return protocol.ActionShoot, nil
		}
		return protocol.ActionForward, nil
	}))
	log := &memTickLog{}
	w.SetTickLogger(log)

	w.players[0].Pos = orb.Point{100, 40}
	w.SetBall(orb.Point{100, 40})

	if _, _, err := w.StepOnce(nil); err != nil {
		t.Fatalf("step: %v", err)
	}
	if calls != 1 {
		t.Fatalf("policy calls=%d want 1", calls)
	}
	if w.Score() != [2]int{1, 0} {
		t.Fatalf("score=%v", w.Score())
	}
	if w.Kickoffs() != 2 {
		t.Fatalf("kickoffs=%d want 2", w.Kickoffs())
	}
	if !nearPt(w.Ball(), orb.Point{60, 40}) || !nearPt(w.players[0].Pos, orb.Point{15, 40}) {
		t.Fatalf("not reset: ball=%v gk=%v", w.Ball(), w.players[0].Pos)
	}

	if len(log.entries) != 1 {
		t.Fatalf("log entries=%d", len(log.entries))
	}
	e := log.entries[0]
	if e.Goal == nil || e.Goal.ScoringTeam != 1 || e.Goal.OwnGoal || len(e.Actions) != 1 {
		t.Fatalf("unexpected entry: %+v goal=%+v", e, e.Goal)
	}

	var sawGoal, sawReset bool
	for _, ev := range w.Frame().Events {
		switch ev["type"] {
		case "GOAL":
			sawGoal = true
		case "RESET":
			sawReset = true
		}
	}
	if !sawGoal || !sawReset {
		t.Fatalf("events=%v", w.Frame().Events)
	}
	if w.Frame().Goal == nil {
		t.Fatalf("frame missing goal")
	}
}

func TestStep_OwnGoalCreditsOpponent(t *testing.T) {
	w := newTestWorld(t, fixedPolicy(protocol.ActionPass))
	log := &memTickLog{}
	w.SetTickLogger(log)

	w.players[0].Pos = orb.Point{12, 40}
	w.players[1].Pos = orb.Point{2, 40}
	w.SetBall(orb.Point{12, 40})

	if _, _, err := w.StepOnce(nil); err != nil {
		t.Fatalf("step: %v", err)
	}
	if w.Score() != [2]int{0, 1} {
		t.Fatalf("score=%v", w.Score())
	}
	g := log.entries[0].Goal
	if g == nil || !g.OwnGoal || g.ScoringTeam != int(TeamAway) || g.ScorerTeam != int(TeamHome) {
		t.Fatalf("goal=%+v", g)
	}
}

func TestStep_PossessionEvent(t *testing.T) {
	w := newTestWorld(t, fixedPolicy(protocol.ActionRight))
	w.SetBall(orb.Point{16, 40}) // next to the home keeper

	if _, _, err := w.StepOnce(nil); err != nil {
		t.Fatalf("step: %v", err)
	}
	found := false
	for _, ev := range w.Frame().Events {
		if ev["type"] == "POSSESSION" && ev["team"] == 1 && ev["index"] == 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("no possession event: %v", w.Frame().Events)
	}
}

func TestStep_InvalidActionFailsFast(t *testing.T) {
	w := newTestWorld(t, fixedPolicy(protocol.Action("JUMP")))
	_, _, err := w.StepOnce(nil)
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("err=%v want ErrInvalidAction", err)
	}
	if w.CurrentTick() != 0 {
		t.Fatalf("tick advanced to %d", w.CurrentTick())
	}
}

func TestStep_NoPolicyNoActions(t *testing.T) {
	w := newTestWorld(t, nil)
	if _, _, err := w.StepOnce(nil); err == nil {
		t.Fatalf("expected error without policy or actions")
	}
}

func seededPolicy(seed int64) Policy {
	rng := rand.New(rand.NewSource(seed))
	return PolicyFunc(func(Decision) (protocol.Action, error) {
		return protocol.Actions[rng.Intn(len(protocol.Actions))], nil
	})
}

func TestDeterminism_SameSeedSameDigest(t *testing.T) {
	w1 := newTestWorld(t, seededPolicy(99))
	w2 := newTestWorld(t, seededPolicy(99))
	for i := 0; i < 500; i++ {
		t1, d1, err := w1.StepOnce(nil)
		if err != nil {
			t.Fatalf("w1 step: %v", err)
		}
		t2, d2, err := w2.StepOnce(nil)
		if err != nil {
			t.Fatalf("w2 step: %v", err)
		}
		if t1 != t2 || d1 != d2 {
			t.Fatalf("tick %d diverged: %s vs %s", t1, d1, d2)
		}
	}
}

func TestReplay_RecordedActionsReproduceDigests(t *testing.T) {
	w1 := newTestWorld(t, seededPolicy(5))
	log := &memTickLog{}
	w1.SetTickLogger(log)
	for i := 0; i < 300; i++ {
		if _, _, err := w1.StepOnce(nil); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	w2 := newTestWorld(t, nil)
	for _, e := range log.entries {
		envs := make([]ActionEnvelope, 0, len(e.Actions))
		for _, a := range e.Actions {
			envs = append(envs, ActionEnvelope{
				Slot: Slot{Team: Team(a.Team), Index: a.Index},
				Act:  protocol.ActMsg{Type: protocol.TypeAct, Tick: e.Tick, Action: a.Action},
			})
		}
		// Ticks cut short by a goal carry fewer actions; the replay stops at
		// the same player.
		tick, digest, err := w2.StepOnce(envs)
		if err != nil {
			t.Fatalf("replay tick %d: %v", e.Tick, err)
		}
		if tick != e.Tick || digest != e.Digest {
			t.Fatalf("tick %d: digest %s want %s", tick, digest, e.Digest)
		}
	}
}

func TestSnapshotExportImport_RoundTripDigest(t *testing.T) {
	w1 := newTestWorld(t, seededPolicy(11))
	for i := 0; i < 40; i++ {
		if _, _, err := w1.StepOnce(nil); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	snapTick := w1.CurrentTick() - 1
	d1 := w1.stateDigest(snapTick)
	snap := w1.ExportSnapshot(snapTick)

	w2 := newTestWorld(t, nil)
	if err := w2.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if d2 := w2.stateDigest(snapTick); d2 != d1 {
		t.Fatalf("digest mismatch after import: %s vs %s", d2, d1)
	}
	if w2.CurrentTick() != snapTick+1 {
		t.Fatalf("tick=%d want %d", w2.CurrentTick(), snapTick+1)
	}

	// Both continue identically under the same policy stream.
	w1.SetPolicy(fixedPolicy(protocol.ActionForward))
	w2.SetPolicy(fixedPolicy(protocol.ActionForward))
	for i := 0; i < 10; i++ {
		_, a, err1 := w1.StepOnce(nil)
		_, b, err2 := w2.StepOnce(nil)
		if err1 != nil || err2 != nil {
			t.Fatalf("step: %v %v", err1, err2)
		}
		if a != b {
			t.Fatalf("diverged after import at step %d", i)
		}
	}
}

func TestImportSnapshot_Rejects(t *testing.T) {
	w := newTestWorld(t, nil)
	snap := w.ExportSnapshot(0)

	bad := snap
	bad.Header.Version = 9
	if err := w.ImportSnapshot(bad); err == nil {
		t.Fatalf("expected version error")
	}
	bad = snap
	bad.Players = bad.Players[:5]
	if err := w.ImportSnapshot(bad); err == nil {
		t.Fatalf("expected roster size error")
	}
}

func TestImportSnapshot_FailedImportLeavesWorldUntouched(t *testing.T) {
	w := newTestWorld(t, nil)
	snap := w.ExportSnapshot(0)
	before := w.stateDigest(0)

	bad := snap
	bad.Header.MatchID = "other"
	bad.Rules.KickDistance = 99
	bad.Players = append([]snapshot.PlayerV1(nil), snap.Players...)
	bad.Players[1] = bad.Players[0]
	if err := w.ImportSnapshot(bad); err == nil {
		t.Fatalf("expected duplicate slot error")
	}
	if w.Rules().KickDistance != DefaultRules().KickDistance || w.ID() != "test" {
		t.Fatalf("rules or config changed by a failed import: kick=%v id=%s", w.Rules().KickDistance, w.ID())
	}
	if w.stateDigest(0) != before {
		t.Fatalf("state changed by a failed import")
	}

	// A shot by the home keeper still travels the default distance.
	keeper := w.Player(Slot{Team: TeamHome, Index: 0})
	ball := orb.Point{keeper.Pos[0], keeper.Pos[1]}
	got := keeper.Shoot(ball)
	if got[0]-ball[0] > DefaultRules().KickDistance+1e-9 {
		t.Fatalf("shot used foreign rules: %v -> %v", ball, got)
	}
}

func TestJoin_RemoteActionOverridesPolicy(t *testing.T) {
	w := newTestWorld(t, fixedPolicy(protocol.ActionForward))
	log := &memTickLog{}
	w.SetTickLogger(log)

	out := make(chan []byte, 4)
	slot := Slot{Team: TeamAway, Index: 2}
	resp := w.handleJoin(JoinRequest{Name: "bot", Slot: slot, Out: out})
	if resp.Code != "" {
		t.Fatalf("join refused: %s", resp.Code)
	}
	if resp.Welcome.SessionID == "" || resp.Welcome.Role != string(RoleDefender) || len(resp.Welcome.ActionSpace) != 6 {
		t.Fatalf("welcome=%+v", resp.Welcome)
	}

	if r := w.handleJoin(JoinRequest{Name: "dup", Slot: slot}); r.Code != protocol.ErrSlotTaken {
		t.Fatalf("dup join code=%q", r.Code)
	}
	if r := w.handleJoin(JoinRequest{Name: "bad", Slot: Slot{Team: 3, Index: 0}}); r.Code != protocol.ErrBadSlot {
		t.Fatalf("bad slot code=%q", r.Code)
	}

	act := ActionEnvelope{
		SessionID: resp.Welcome.SessionID,
		// A client-claimed slot is ignored in favour of the session's.
		Slot: Slot{Team: TeamHome, Index: 0},
		Act:  protocol.ActMsg{Type: protocol.TypeAct, Tick: 0, Action: protocol.ActionLeft},
	}
	if _, _, err := w.StepOnce([]ActionEnvelope{act}); err != nil {
		t.Fatalf("step: %v", err)
	}
	for _, a := range log.entries[0].Actions {
		s := Slot{Team: Team(a.Team), Index: a.Index}
		if s == slot {
			if a.Action != protocol.ActionLeft || !a.Remote {
				t.Fatalf("remote slot action=%+v", a)
			}
		} else if a.Action != protocol.ActionForward || a.Remote {
			t.Fatalf("slot %s action=%+v", s, a)
		}
	}

	select {
	case b := <-out:
		if len(b) == 0 {
			t.Fatalf("empty obs")
		}
	default:
		t.Fatalf("no OBS sent")
	}

	// Same ACT is now stale.
	if _, _, err := w.StepOnce([]ActionEnvelope{act}); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := w.Metrics().StaleActs; got != 1 {
		t.Fatalf("stale=%d want 1", got)
	}
	if a := log.entries[1].Actions[int(TeamAway-1)*TeamSize+2]; a.Action != protocol.ActionForward {
		t.Fatalf("stale ACT applied: %+v", a)
	}

	if !w.handleLeave(resp.Welcome.SessionID) {
		t.Fatalf("leave failed")
	}
	if r := w.handleJoin(JoinRequest{Name: "again", Slot: slot}); r.Code != "" {
		t.Fatalf("rejoin refused: %s", r.Code)
	}
}

func TestAdminSnapshot(t *testing.T) {
	w := newTestWorld(t, fixedPolicy(protocol.ActionForward))

	resp := make(chan adminSnapshotResp, 1)
	w.handleAdminSnapshotRequests([]adminSnapshotReq{{Resp: resp}})
	if r := <-resp; !errors.Is(r.Err, ErrSnapshotNoSink) {
		t.Fatalf("err=%v want no sink", r.Err)
	}

	sink := make(chan snapshot.SnapshotV1, 1)
	w.SetSnapshotSink(sink)
	for i := 0; i < 3; i++ {
		if _, _, err := w.StepOnce(nil); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	w.handleAdminSnapshotRequests([]adminSnapshotReq{{Resp: resp}})
	r := <-resp
	if r.Err != nil || r.Tick != 2 {
		t.Fatalf("resp=%+v", r)
	}
	if s := <-sink; s.Header.Tick != 2 || len(s.Players) != RosterSize {
		t.Fatalf("snapshot header=%+v players=%d", s.Header, len(s.Players))
	}
}

func TestRun_StopsAtMaxTicks(t *testing.T) {
	w, err := New(WorldConfig{ID: "run", TickRateHz: 1000, Rules: DefaultRules(), MaxTicks: 5}, fixedPolicy(protocol.ActionForward))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if w.CurrentTick() != 5 {
		t.Fatalf("tick=%d want 5", w.CurrentTick())
	}
	if m := w.Metrics(); m.Tick != 5 {
		t.Fatalf("metrics tick=%d", m.Tick)
	}
}

func TestObserverReceivesFrames(t *testing.T) {
	w := newTestWorld(t, fixedPolicy(protocol.ActionForward))
	out := make(chan []byte, 2)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "obs", FrameOut: out})
	<-out // initial frame

	if _, _, err := w.StepOnce(nil); err != nil {
		t.Fatalf("step: %v", err)
	}
	select {
	case <-out:
	default:
		t.Fatalf("no frame after step")
	}
	w.handleObserverLeave("obs")
	if _, ok := <-out; ok {
		t.Fatalf("expected closed channel")
	}

	b := w.Bootstrap()
	if b.FieldParams.Length != 120 || len(b.Markings) == 0 {
		t.Fatalf("bootstrap=%+v", b)
	}
}

func TestObserverFrameTicksStrictlyIncrease(t *testing.T) {
	w := newTestWorld(t, fixedPolicy(protocol.ActionForward))
	out := make(chan []byte, 1)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "obs", FrameOut: out})

	readTick := func() (uint64, [2]float64) {
		t.Helper()
		var f struct {
			Tick    uint64 `json:"tick"`
			Players []struct {
				Pos [2]float64 `json:"pos"`
			} `json:"players"`
		}
		select {
		case b := <-out:
			if err := json.Unmarshal(b, &f); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
		default:
			t.Fatalf("no frame")
		}
		return f.Tick, f.Players[0].Pos
	}

	last, lastPos := readTick()
	if last != 0 {
		t.Fatalf("initial frame tick=%d", last)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := w.StepOnce(nil); err != nil {
			t.Fatalf("step: %v", err)
		}
		tick, pos := readTick()
		if tick <= last {
			t.Fatalf("frame tick %d after %d", tick, last)
		}
		if pos == lastPos {
			t.Fatalf("frame %d shows unmoved keeper %v", tick, pos)
		}
		last, lastPos = tick, pos
	}
	if last != w.CurrentTick() {
		t.Fatalf("frame tick=%d counter=%d", last, w.CurrentTick())
	}

	w2 := newTestWorld(t, nil)
	if err := w2.ImportSnapshot(w.ExportSnapshot(w.CurrentTick() - 1)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if f := w2.Frame(); f.Tick != w.CurrentTick() {
		t.Fatalf("imported frame tick=%d want %d", f.Tick, w.CurrentTick())
	}
}
