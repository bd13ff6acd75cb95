package archive

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"kickoff.ai/internal/persistence/snapshot"
)

type MatchArchiveMeta struct {
	MatchID   string `json:"match_id"`
	EndTick   uint64 `json:"end_tick"`
	Seed      int64  `json:"seed"`
	Score     [2]int `json:"score"`
	Kickoffs  uint64 `json:"kickoffs"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
	MaxTicks  uint64 `json:"max_ticks"`
}

// ArchiveFinalSnapshot copies the full-time snapshot into `matchDir/archives/final/`.
// It returns (archivedPath, archived=true) when snap is the last tick of a bounded match.
func ArchiveFinalSnapshot(matchDir, snapshotPath string, snap snapshot.SnapshotV1, maxTicks uint64) (archivedPath string, archived bool, err error) {
	if maxTicks == 0 {
		return "", false, nil
	}
	// Snapshots represent the last executed tick; a match bounded at N ticks ends on N-1.
	if snap.Header.Tick+1 != maxTicks {
		return "", false, nil
	}

	archiveDir := filepath.Join(matchDir, "archives", "final")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := MatchArchiveMeta{
		MatchID:   snap.Header.MatchID,
		EndTick:   snap.Header.Tick,
		Seed:      snap.Seed,
		Score:     snap.Score,
		Kickoffs:  snap.Kickoffs,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		MaxTicks:  maxTicks,
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return dst, true, nil
}

// ReadMeta loads the meta.json written next to an archived snapshot.
func ReadMeta(matchDir string) (MatchArchiveMeta, error) {
	var m MatchArchiveMeta
	b, err := os.ReadFile(filepath.Join(matchDir, "archives", "final", "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
