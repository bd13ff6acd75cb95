package observerproto

import "kickoff.ai/internal/protocol"

// Version is the observer protocol version (separate from the agent WS protocol).
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeFrame     = "FRAME"
)

// Client -> Server. Optional first message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Include the per-player state vector in every frame.
	WantState bool `json:"want_state,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	MatchID         string      `json:"match_id"`
	Tick            uint64      `json:"tick"`
	FieldParams     FieldParams `json:"field_params"`
	Markings        []Marking   `json:"markings"`
	Score           [2]int      `json:"score"`
}

type FieldParams struct {
	TickRateHz    int     `json:"tick_rate_hz"`
	Seed          int64   `json:"seed"`
	Length        float64 `json:"length"`
	Width         float64 `json:"width"`
	GoalWidth     float64 `json:"goal_width"`
	GoalInset     float64 `json:"goal_inset"`
	MouthMinY     float64 `json:"mouth_min_y"`
	MouthMaxY     float64 `json:"mouth_max_y"`
	CenterCircleR float64 `json:"center_circle_r"`
}

// Marking is a static pitch line. Kind is LINE (From/To) or CIRCLE (From is
// the centre, Radius set).
type Marking struct {
	Kind   string     `json:"kind"`
	Name   string     `json:"name"`
	From   [2]float64 `json:"from"`
	To     [2]float64 `json:"to,omitempty"`
	Radius float64    `json:"radius,omitempty"`
}

// Server -> Client. Sent every tick.
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Tick is the number of ticks executed when the frame was taken; Actions
	// and Goal belong to tick Tick-1.
	Tick uint64 `json:"tick"`

	Players  []PlayerState    `json:"players"`
	Ball     [2]float64       `json:"ball"`
	Score    [2]int           `json:"score"`
	Kickoffs uint64           `json:"kickoffs"`
	Goal     *GoalInfo        `json:"goal,omitempty"`
	Actions  []RecordedAction `json:"actions,omitempty"`
	Events   []protocol.Event `json:"events,omitempty"`

	State [][2]float64 `json:"state,omitempty"`
}

type PlayerState struct {
	Team      int        `json:"team"`
	Index     int        `json:"index"`
	Role      string     `json:"role"`
	Pos       [2]float64 `json:"pos"`
	HasBall   bool       `json:"has_ball"`
	Connected bool       `json:"connected"`
}

type GoalInfo struct {
	ScoringTeam int  `json:"scoring_team"`
	ScorerTeam  int  `json:"scorer_team"`
	ScorerIndex int  `json:"scorer_index"`
	OwnGoal     bool `json:"own_goal,omitempty"`
}

type RecordedAction struct {
	Team   int             `json:"team"`
	Index  int             `json:"index"`
	Action protocol.Action `json:"action"`
}
