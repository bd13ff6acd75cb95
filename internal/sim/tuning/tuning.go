package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kickoff.ai/internal/protocol"
	"kickoff.ai/internal/sim/field"
	"kickoff.ai/internal/sim/policy"
	"kickoff.ai/internal/sim/world"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	MatchID            string `yaml:"match_id"`
	TickRateHz         int    `yaml:"tick_rate_hz"`
	Seed               int64  `yaml:"seed"`
	SnapshotEveryTicks int    `yaml:"snapshot_every_ticks"`
	MaxTicks           uint64 `yaml:"max_ticks"`

	Field      field.Geometry `yaml:"field"`
	Thresholds Thresholds     `yaml:"thresholds"`
	ShotTarget string         `yaml:"shot_target"`

	Policy PolicyConfig `yaml:"policy"`
}

type Thresholds struct {
	StepSize        float64 `yaml:"step_size"`
	ContactRange    float64 `yaml:"contact_range"`
	KickRange       float64 `yaml:"kick_range"`
	PossessionRange float64 `yaml:"possession_range"`
	KickDistance    float64 `yaml:"kick_distance"`
	MoveOffset      float64 `yaml:"move_offset"`
}

// PolicyConfig names the built-in policy per team (see policy.ByName).
type PolicyConfig struct {
	Team1 string `yaml:"team1"`
	Team2 string `yaml:"team2"`
}

func Defaults() Tuning {
	r := world.DefaultRules()
	return Tuning{
		ProtocolVersion:    protocol.Version,
		MatchID:            "match",
		TickRateHz:         10,
		Seed:               1337,
		SnapshotEveryTicks: 3000,
		Field:              r.Field,
		Thresholds: Thresholds{
			StepSize:        r.StepSize,
			ContactRange:    r.ContactRange,
			KickRange:       r.KickRange,
			PossessionRange: r.PossessionRange,
			KickDistance:    r.KickDistance,
			MoveOffset:      r.MoveOffset,
		},
		ShotTarget: string(r.ShotTarget),
		Policy:     PolicyConfig{Team1: "random", Team2: "random"},
	}
}

// Load reads path over Defaults. Keys missing from the file keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.ProtocolVersion != "" && t.ProtocolVersion != protocol.Version {
		return fmt.Errorf("protocol_version %q, server speaks %q", t.ProtocolVersion, protocol.Version)
	}
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if t.SnapshotEveryTicks < 0 {
		return fmt.Errorf("snapshot_every_ticks must be >= 0")
	}
	if err := t.Rules().Validate(); err != nil {
		return err
	}
	if _, err := t.Policies(); err != nil {
		return err
	}
	return nil
}

func (t Tuning) Rules() world.Rules {
	th := t.Thresholds
	return world.Rules{
		Field:           t.Field,
		StepSize:        th.StepSize,
		ContactRange:    th.ContactRange,
		KickRange:       th.KickRange,
		PossessionRange: th.PossessionRange,
		KickDistance:    th.KickDistance,
		MoveOffset:      th.MoveOffset,
		ShotTarget:      world.ShotTarget(t.ShotTarget),
	}
}

func (t Tuning) WorldConfig() world.WorldConfig {
	return world.WorldConfig{
		ID:                 t.MatchID,
		TickRateHz:         t.TickRateHz,
		Seed:               t.Seed,
		Rules:              t.Rules(),
		SnapshotEveryTicks: t.SnapshotEveryTicks,
		MaxTicks:           t.MaxTicks,
	}
}

// Policies builds the per-team policy router. The away team's random source
// is offset from the home team's so the two sides do not mirror each other.
func (t Tuning) Policies() (policy.Teams, error) {
	home, err := policy.ByName(t.Policy.Team1, t.Seed)
	if err != nil {
		return policy.Teams{}, fmt.Errorf("policy.team1: %w", err)
	}
	away, err := policy.ByName(t.Policy.Team2, t.Seed+1)
	if err != nil {
		return policy.Teams{}, fmt.Errorf("policy.team2: %w", err)
	}
	return policy.Teams{Home: home, Away: away}, nil
}
