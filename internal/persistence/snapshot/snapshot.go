package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	MatchID string `json:"match_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed               int64 `json:"seed"`
	TickRate           int   `json:"tick_rate_hz"`
	SnapshotEveryTicks int   `json:"snapshot_every_ticks,omitempty"`

	Rules RulesV1 `json:"rules"`

	Players []PlayerV1 `json:"players"`
	Ball    [2]float64 `json:"ball"`

	Score    [2]int `json:"score"`
	Kickoffs uint64 `json:"kickoffs"`
}

// RulesV1 captures the effective rule set so a resumed or replayed match
// runs under the same geometry and thresholds.
type RulesV1 struct {
	Length        float64 `json:"length"`
	Width         float64 `json:"width"`
	GoalWidth     float64 `json:"goal_width"`
	GoalInset     float64 `json:"goal_inset"`
	MouthMinY     float64 `json:"mouth_min_y"`
	MouthMaxY     float64 `json:"mouth_max_y"`
	CenterCircleR float64 `json:"center_circle_r"`

	StepSize        float64 `json:"step_size"`
	ContactRange    float64 `json:"contact_range"`
	KickRange       float64 `json:"kick_range"`
	PossessionRange float64 `json:"possession_range"`
	KickDistance    float64 `json:"kick_distance"`
	MoveOffset      float64 `json:"move_offset"`
	ShotTarget      string  `json:"shot_target"`
}

type PlayerV1 struct {
	Team     int        `json:"team"`
	Index    int        `json:"index"`
	Role     string     `json:"role"`
	Pos      [2]float64 `json:"pos"`
	StartPos [2]float64 `json:"start_pos"`
	HasBall  bool       `json:"has_ball"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// Header line is informational; gob also carries it.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
