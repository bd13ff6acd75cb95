package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"kickoff.ai/internal/observerproto"
	"kickoff.ai/internal/protocol"
	"kickoff.ai/internal/sim/world"
)

func newWorld(t *testing.T) *world.World {
	t.Helper()
	policy := world.PolicyFunc(func(world.Decision) (protocol.Action, error) { return protocol.ActionForward, nil })
	w, err := world.New(world.WorldConfig{ID: "obs-test", TickRateHz: 50, Seed: 3, Rules: world.DefaultRules()}, policy)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w
}

func TestBootstrapHandler(t *testing.T) {
	s := NewServer(newWorld(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/observer/bootstrap", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	s.BootstrapHandler()(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var resp observerproto.BootstrapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MatchID != "obs-test" || resp.FieldParams.Length != 120 || resp.FieldParams.Width != 80 {
		t.Fatalf("unexpected bootstrap: %+v", resp)
	}
	if len(resp.Markings) == 0 {
		t.Fatalf("expected pitch markings")
	}
}

func TestHandlersRejectNonLoopback(t *testing.T) {
	s := NewServer(newWorld(t), nil)
	for name, h := range map[string]http.HandlerFunc{
		"bootstrap": s.BootstrapHandler(),
		"frame":     s.FrameHandler(),
		"ws":        s.WSHandler(),
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: status=%d want 403", name, rec.Code)
		}
	}

	s.AllowRemote = true
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	rec := httptest.NewRecorder()
	s.FrameHandler()(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("allow remote: status=%d", rec.Code)
	}
}

func TestFrameHandlerStripsState(t *testing.T) {
	s := NewServer(newWorld(t), nil)

	for _, tc := range []struct {
		query string
		state bool
	}{{"", false}, {"?state=1", true}} {
		req := httptest.NewRequest(http.MethodGet, "/v1/frame"+tc.query, nil)
		req.RemoteAddr = "127.0.0.1:5555"
		rec := httptest.NewRecorder()
		s.FrameHandler()(rec, req)
		var f observerproto.FrameMsg
		if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(f.Players) != world.RosterSize {
			t.Fatalf("players=%d", len(f.Players))
		}
		if got := len(f.State) > 0; got != tc.state {
			t.Fatalf("query %q: state present=%v", tc.query, got)
		}
	}
}

func TestWSStreamsFrames(t *testing.T) {
	w := newWorld(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	srv := httptest.NewServer(NewServer(w, nil).WSHandler())
	defer func() {
		srv.Close()
		cancel()
		<-done
	}()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(observerproto.SubscribeMsg{
		Type:            observerproto.TypeSubscribe,
		ProtocolVersion: observerproto.Version,
		WantState:       true,
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var last uint64
	for i := 0; i < 3; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var f observerproto.FrameMsg
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if f.Type != observerproto.TypeFrame {
			t.Fatalf("type=%q", f.Type)
		}
		if len(f.State) != world.RosterSize+1 {
			t.Fatalf("state len=%d", len(f.State))
		}
		if i > 0 && f.Tick <= last {
			t.Fatalf("tick did not advance: %d after %d", f.Tick, last)
		}
		last = f.Tick
	}
}

func TestWSRejectsMissingSubscribe(t *testing.T) {
	w := newWorld(t)
	srv := httptest.NewServer(NewServer(w, nil).WSHandler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"type": "HELLO"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}
