package world

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"

	"kickoff.ai/internal/persistence/snapshot"
	"kickoff.ai/internal/protocol"
)

type WorldConfig struct {
	ID                 string
	TickRateHz         int
	Seed               int64
	Rules              Rules
	SnapshotEveryTicks int
	// MaxTicks stops Run once the tick counter reaches it (0 = unbounded).
	MaxTicks uint64
}

type JoinRequest struct {
	Name string
	Slot Slot
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	// Code is a protocol error code when the join was refused.
	Code string
}

type ActionEnvelope struct {
	SessionID string
	Slot      Slot
	Act       protocol.ActMsg
}

type RecordedAction struct {
	Team   int             `json:"team"`
	Index  int             `json:"index"`
	Action protocol.Action `json:"action"`
	Remote bool            `json:"remote,omitempty"`
}

type GoalEvent struct {
	Tick        uint64     `json:"tick"`
	ScoringTeam int        `json:"scoring_team"`
	ScorerTeam  int        `json:"scorer_team"`
	ScorerIndex int        `json:"scorer_index"`
	OwnGoal     bool       `json:"own_goal,omitempty"`
	Ball        [2]float64 `json:"ball"`
	Score       [2]int     `json:"score"`
}

type TickLogEntry struct {
	Tick    uint64           `json:"tick"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Goal    *GoalEvent       `json:"goal,omitempty"`
	Digest  string           `json:"digest"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type clientState struct {
	SessionID string
	Name      string
	Out       chan []byte
}

// World is a single-threaded authoritative match simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg   WorldConfig
	rules Rules

	tick atomic.Uint64

	players []*Player
	ball    orb.Point

	score    [2]int
	kickoffs uint64
	goals    uint64

	policy Policy

	// Per-tick notifications; reset at the start of every step.
	events []protocol.Event

	clients   map[Slot]*clientState
	observers map[string]*observerState

	inbox         chan ActionEnvelope
	join          chan JoinRequest
	leave         chan string
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	admin         chan adminSnapshotReq
	stop          chan struct{}
	stopOnce      sync.Once

	staleActs uint64

	// Optional logger (may be nil). Implemented in internal/persistence/*.
	tickLogger TickLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	frame   atomic.Value
	metrics atomic.Value
}

func New(cfg WorldConfig, policy Policy) (*World, error) {
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}
	if cfg.TickRateHz <= 0 {
		return nil, fmt.Errorf("tick rate must be > 0 (got %d)", cfg.TickRateHz)
	}
	if cfg.ID == "" {
		cfg.ID = "match"
	}
	w := &World{
		cfg:           cfg,
		rules:         cfg.Rules,
		policy:        policy,
		clients:       map[Slot]*clientState{},
		observers:     map[string]*observerState{},
		inbox:         make(chan ActionEnvelope, 1024),
		join:          make(chan JoinRequest, 64),
		leave:         make(chan string, 64),
		observerJoin:  make(chan ObserverJoinRequest, 64),
		observerLeave: make(chan string, 64),
		admin:         make(chan adminSnapshotReq, 8),
		stop:          make(chan struct{}),
	}
	w.Reset()
	w.publishFrame(0, nil, nil)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }
func (w *World) SetPolicy(p Policy)                            { w.policy = p }

func (w *World) Inbox() chan<- ActionEnvelope             { return w.inbox }
func (w *World) Join() chan<- JoinRequest                 { return w.join }
func (w *World) Leave() chan<- string                     { return w.leave }
func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string             { return w.observerLeave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig {
	if w == nil {
		return WorldConfig{}
	}
	return w.cfg
}

func (w *World) Rules() Rules { return w.rules }

// Reset rebuilds the kickoff roster and puts the ball on the centre spot.
// The score survives; it is match bookkeeping, not layout.
func (w *World) Reset() {
	w.players = kickoffRoster(&w.rules)
	w.ball = w.rules.Field.Center()
	w.kickoffs++
}

// CheckGoal reports whether ball is inside either goal.
func (w *World) CheckGoal(ball orb.Point) bool { return w.rules.CheckGoal(ball) }

// Players returns the live roster in fixed order. Callers outside the world
// loop must not mutate it.
func (w *World) Players() []*Player { return w.players }

func (w *World) Ball() orb.Point { return w.ball }

// SetBall places the ball directly. Intended for tests and admin tooling.
func (w *World) SetBall(p orb.Point) { w.ball = p }

func (w *World) Score() [2]int { return w.score }

func (w *World) Kickoffs() uint64 { return w.kickoffs }

func (w *World) Player(s Slot) *Player {
	if !s.Valid() {
		return nil
	}
	i := s.order()
	if i >= len(w.players) {
		return nil
	}
	return w.players[i]
}

func (w *World) emit(tick uint64, typ string, kv ...any) {
	ev := protocol.Event{"t": tick, "type": typ}
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev[k] = kv[i+1]
	}
	w.events = append(w.events, ev)
}
