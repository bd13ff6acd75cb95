package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"

	"kickoff.ai/internal/protocol"
	"kickoff.ai/internal/sim/policy"
	"kickoff.ai/internal/sim/world"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name       = flag.String("name", "bot", "agent name")
		team       = flag.Int("team", 1, "team (1 home, 2 away)")
		index      = flag.Int("index", 0, "player index within the team (0-5)")
		policyName = flag.String("policy", "chase", "random|chase|fixed:<ACTION>")
		seed       = flag.Int64("seed", 1, "seed for the random policy")
		dialWait   = flag.Duration("dial_wait", 30*time.Second, "keep retrying the first dial for this long")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	pol, err := policy.ByName(*policyName, *seed)
	if err != nil {
		logger.Fatalf("policy: %v", err)
	}

	conn, err := dial(*url, *dialWait)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       *name,
		Team:            *team,
		Index:           *index,
		Capabilities:    protocol.HelloCapabilities{MaxQueue: 8},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s team=%d index=%d role=%s tick_rate=%d", w.SessionID, w.Team, w.Index, w.Role, w.FieldParams.TickRateHz)

		case protocol.TypeError:
			var e protocol.ErrorMsg
			_ = json.Unmarshal(msg, &e)
			logger.Printf("ERROR code=%s msg=%s", e.Code, e.Message)

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			act, err := pol.Decide(decisionFromObs(&obs))
			if err != nil {
				logger.Printf("decide tick=%d: %v", obs.Tick, err)
				continue
			}
			_ = conn.WriteJSON(protocol.ActMsg{
				Type:            protocol.TypeAct,
				ProtocolVersion: protocol.Version,
				Tick:            obs.Tick,
				Action:          act,
			})
			for _, ev := range obs.Events {
				if ev["type"] == "GOAL" {
					logger.Printf("GOAL tick=%d score=%v", obs.Tick, obs.Score)
				}
			}
		}
	}
}

// decisionFromObs rebuilds the policy input from what the server sent.
// dial retries with exponential backoff so bots can start before the server.
func dial(url string, wait time.Duration) (*websocket.Conn, error) {
	var conn *websocket.Conn
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = wait
	err := backoff.Retry(func() error {
		c, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, b)
	return conn, err
}

func decisionFromObs(obs *protocol.ObsMsg) world.Decision {
	view := func(p protocol.PlayerObs) world.PlayerView {
		return world.PlayerView{
			Slot:    world.Slot{Team: world.Team(p.Team), Index: p.Index},
			Role:    world.Role(p.Role),
			Pos:     [2]float64{p.Pos[0], p.Pos[1]},
			HasBall: p.HasBall,
		}
	}
	roster := make([]world.PlayerView, 0, len(obs.Players))
	for _, p := range obs.Players {
		roster = append(roster, view(p))
	}
	return world.Decision{
		Tick:    obs.Tick,
		Self:    view(obs.Self),
		Roster:  roster,
		Ball:    [2]float64{obs.Ball[0], obs.Ball[1]},
		HasBall: obs.HasBall,
		Score:   obs.Score,
		State:   obs.State,
	}
}
