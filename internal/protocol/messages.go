package protocol

// HELLO (client -> server): claim a roster slot.
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	AgentName       string            `json:"agent_name"`
	Team            int               `json:"team"`
	Index           int               `json:"index"`
	Capabilities    HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	MatchID         string      `json:"match_id"`
	Team            int         `json:"team"`
	Index           int         `json:"index"`
	Role            string      `json:"role"`
	FieldParams     FieldParams `json:"field_params"`
	ActionSpace     []Action    `json:"action_space"`
}

type FieldParams struct {
	TickRateHz int     `json:"tick_rate_hz"`
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	GoalWidth  float64 `json:"goal_width"`
	GoalInset  float64 `json:"goal_inset"`
	MouthMinY  float64 `json:"mouth_min_y"`
	MouthMaxY  float64 `json:"mouth_max_y"`
}

// OBS (server -> client): the decision input for one slot, sent every tick.
type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Team            int    `json:"team"`
	Index           int    `json:"index"`

	Self    PlayerObs   `json:"self"`
	Players []PlayerObs `json:"players"`
	Ball    [2]float64  `json:"ball"`
	HasBall bool        `json:"has_ball"`
	Score   [2]int      `json:"score"`

	// State is the flattened decision state: every player position in roster
	// order followed by the ball.
	State  [][2]float64 `json:"state"`
	Events []Event      `json:"events"`
}

type PlayerObs struct {
	Team    int        `json:"team"`
	Index   int        `json:"index"`
	Role    string     `json:"role"`
	Pos     [2]float64 `json:"pos"`
	HasBall bool       `json:"has_ball"`
}

// ACT (client -> server): the slot's decision for the given tick.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Action          Action `json:"action"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
