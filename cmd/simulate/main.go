package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	persistlog "kickoff.ai/internal/persistence/log"
	"kickoff.ai/internal/persistence/snapshot"
	"kickoff.ai/internal/sim/tuning"
	"kickoff.ai/internal/sim/world"
)

// simulate runs a match headless and as fast as the CPU allows.
func main() {
	var (
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		ticks      = flag.Uint64("ticks", 0, "ticks to run (0 = tuning max_ticks, else 6000)")
		team1      = flag.String("team1", "", "home policy override")
		team2      = flag.String("team2", "", "away policy override")
		seed       = flag.Int64("seed", 0, "seed override (0 = tuning seed)")
		outDir     = flag.String("out", "", "write events, goals and a final snapshot under this dir (optional)")
		asJSON     = flag.Bool("json", false, "print the summary as JSON")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		tune = tuning.Defaults()
	}
	if *team1 != "" {
		tune.Policy.Team1 = *team1
	}
	if *team2 != "" {
		tune.Policy.Team2 = *team2
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	n := *ticks
	if n == 0 {
		n = tune.MaxTicks
	}
	if n == 0 {
		n = 6000
	}

	var sink world.TickLogger
	var closers []func() error
	if *outDir != "" {
		tl := persistlog.NewTickLogger(*outDir)
		gl := persistlog.NewGoalLogger(*outDir, tl)
		sink = gl
		closers = append(closers, tl.Close, gl.Close)
	}

	start := time.Now()
	sum, w, err := run(tune, n, sink)
	for _, c := range closers {
		_ = c()
	}
	if err != nil {
		logger.Fatalf("simulate: %v", err)
	}
	sum.Elapsed = time.Since(start).String()

	if *outDir != "" {
		path := filepath.Join(*outDir, "snapshots", fmt.Sprintf("%d.snap.zst", w.CurrentTick()-1))
		if err := snapshot.WriteSnapshot(path, w.ExportSnapshot(w.CurrentTick()-1)); err != nil {
			logger.Fatalf("snapshot: %v", err)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(sum)
		return
	}
	fmt.Printf("match=%s ticks=%d score=%d-%d kickoffs=%d policies=%s/%s digest=%s (%s)\n",
		sum.MatchID, sum.Ticks, sum.Score[0], sum.Score[1], sum.Kickoffs, sum.Team1, sum.Team2, sum.Digest, sum.Elapsed)
}

type summary struct {
	MatchID  string            `json:"match_id"`
	Ticks    uint64            `json:"ticks"`
	Score    [2]int            `json:"score"`
	Kickoffs uint64            `json:"kickoffs"`
	Goals    []world.GoalEvent `json:"goals"`
	Team1    string            `json:"team1"`
	Team2    string            `json:"team2"`
	Digest   string            `json:"digest"`
	Elapsed  string            `json:"elapsed,omitempty"`
}

// goalTap records goals and forwards every tick to next.
type goalTap struct {
	next  world.TickLogger
	goals []world.GoalEvent
}

func (g *goalTap) WriteTick(e world.TickLogEntry) error {
	if e.Goal != nil {
		g.goals = append(g.goals, *e.Goal)
	}
	if g.next != nil {
		return g.next.WriteTick(e)
	}
	return nil
}

func run(tune tuning.Tuning, ticks uint64, sink world.TickLogger) (summary, *world.World, error) {
	policies, err := tune.Policies()
	if err != nil {
		return summary{}, nil, err
	}
	cfg := tune.WorldConfig()
	cfg.SnapshotEveryTicks = 0
	w, err := world.New(cfg, policies)
	if err != nil {
		return summary{}, nil, err
	}
	tap := &goalTap{next: sink}
	w.SetTickLogger(tap)

	var digest string
	for i := uint64(0); i < ticks; i++ {
		if _, digest, err = w.StepOnce(nil); err != nil {
			return summary{}, w, err
		}
	}
	return summary{
		MatchID:  cfg.ID,
		Ticks:    w.CurrentTick(),
		Score:    w.Score(),
		Kickoffs: w.Kickoffs(),
		Goals:    tap.goals,
		Team1:    tune.Policy.Team1,
		Team2:    tune.Policy.Team2,
		Digest:   digest,
	}, w, nil
}
