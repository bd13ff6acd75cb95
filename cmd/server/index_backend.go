package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kickoff.ai/internal/persistence/indexdb"
	"kickoff.ai/internal/persistence/snapshot"
	"kickoff.ai/internal/sim/tuning"
	"kickoff.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	Close() error
	UpsertTuning(tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	Dropped() uint64
}

func openRuntimeIndex(matchDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("KO_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(matchDir, "index", "match.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported KO_INDEX_BACKEND: %s", backend)
	}
}
