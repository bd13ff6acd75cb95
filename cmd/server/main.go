package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"kickoff.ai/internal/persistence/archive"
	persistlog "kickoff.ai/internal/persistence/log"
	"kickoff.ai/internal/persistence/snapshot"
	"kickoff.ai/internal/protocol"
	"kickoff.ai/internal/sim/tuning"
	"kickoff.ai/internal/sim/world"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		matchID    = flag.String("match", "", "match id (default: tuning match_id)")
		seed       = flag.Int64("seed", 0, "policy seed override (0 = tuning seed)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		team1      = flag.String("team1", "", "home policy override (random|chase|fixed:<ACTION>)")
		team2      = flag.String("team2", "", "away policy override (random|chase|fixed:<ACTION>)")
		maxTicks   = flag.Uint64("max_ticks", 0, "stop after this many ticks (0 = tuning max_ticks)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (ticks + goals + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	id := strings.TrimSpace(*matchID)
	snapshotToLoad := strings.TrimSpace(*snapPath)

	// Load tuning (required for a fresh match; optional for snapshot resumes).
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if !os.IsNotExist(tuneErr) {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if id == "" {
		id = tune.MatchID
	}
	tune.MatchID = id
	if *seed != 0 {
		tune.Seed = *seed
	}
	if *team1 != "" {
		tune.Policy.Team1 = *team1
	}
	if *team2 != "" {
		tune.Policy.Team2 = *team2
	}
	if *maxTicks != 0 {
		tune.MaxTicks = *maxTicks
	}
	if err := tune.Validate(); err != nil {
		logger.Fatalf("tuning: %v", err)
	}

	matchDir := filepath.Join(*dataDir, "matches", id)
	_ = os.MkdirAll(matchDir, 0o755)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(matchDir)
	}

	// Optional: read-model index backend (does not affect sim determinism).
	idx, err := openRuntimeIndex(matchDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	policies, err := tune.Policies()
	if err != nil {
		logger.Fatalf("policies: %v", err)
	}

	// Create match (fresh or resumed from snapshot).
	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.MatchID != "" && snap.Header.MatchID != id {
			logger.Fatalf("snapshot match id mismatch: flag=%s snap=%s", id, snap.Header.MatchID)
		}
		// Policies restart from the snapshot seed; their random streams are not persisted.
		tune.Seed = snap.Seed
		if policies, err = tune.Policies(); err != nil {
			logger.Fatalf("policies: %v", err)
		}
		w, err = world.New(world.WorldConfig{
			ID:                 id,
			TickRateHz:         snap.TickRate,
			Seed:               snap.Seed,
			Rules:              world.RulesFromSnapshot(snap),
			SnapshotEveryTicks: snap.SnapshotEveryTicks,
			MaxTicks:           tune.MaxTicks,
		}, policies)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d score=%d-%d", filepath.Base(snapshotToLoad), w.CurrentTick(), w.Score()[0], w.Score()[1])
	} else {
		w, err = world.New(tune.WorldConfig(), policies)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(matchDir)
	goalLog := persistlog.NewGoalLogger(matchDir, tickLog)
	defer tickLog.Close()
	defer goalLog.Close()
	w.SetTickLogger(multiTickLogger{goalLog, idx})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, envInt("KO_SNAPSHOT_QUEUE", 2))
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(matchDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	validator, err := protocol.NewValidator()
	if err != nil {
		logger.Fatalf("protocol schemas: %v", err)
	}

	router := newRouter(routeDeps{
		world:       w,
		matchID:     id,
		logger:      logger,
		validator:   validator,
		idx:         idx,
		enableAdmin: envBool("KO_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		enablePprof: envBool("KO_ENABLE_PPROF_HTTP", false),
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           wrapHandler(router, logger, envBool("KO_ACCESS_LOG", false)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := w.Run(ctx)
		switch {
		case err == nil:
			m := w.Metrics()
			logger.Printf("match finished tick=%d score=%d-%d", w.CurrentTick(), m.Score[0], m.Score[1])
			if tick := w.CurrentTick(); tick > 0 {
				archiveFinal(logger, matchDir, w.ExportSnapshot(tick-1), tune.MaxTicks, idx)
			}
		case err != context.Canceled:
			logger.Printf("world stopped: %v", err)
		}
		cancel()
	}()

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s match=%s policies=%s/%s", *addr, id, tune.Policy.Team1, tune.Policy.Team2)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// archiveFinal writes the full-time snapshot and copies it under archives/final.
func archiveFinal(logger *log.Logger, matchDir string, snap snapshot.SnapshotV1, maxTicks uint64, idx runtimeIndex) {
	path := filepath.Join(matchDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		logger.Printf("final snapshot write: %v", err)
		return
	}
	if idx != nil {
		idx.RecordSnapshot(path, snap)
	}
	dst, ok, err := archive.ArchiveFinalSnapshot(matchDir, path, snap, maxTicks)
	if err != nil {
		logger.Printf("archive: %v", err)
		return
	}
	if ok {
		logger.Printf("archived full-time snapshot %s", dst)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(matchDir string) string {
	dir := filepath.Join(matchDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

// multiTickLogger fans one entry out to every non-nil logger.
type multiTickLogger []world.TickLogger

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	for _, l := range m {
		if l != nil {
			_ = l.WriteTick(entry)
		}
	}
	return nil
}
