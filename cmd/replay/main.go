package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "kickoff.ai/internal/persistence/log"
	"kickoff.ai/internal/persistence/snapshot"
	"kickoff.ai/internal/sim/tuning"
	"kickoff.ai/internal/sim/world"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst (optional; default: fresh kickoff from tuning)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning used for a fresh kickoff")
		eventsDir  = flag.String("events", "", "events dir containing events-*.jsonl.zst")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" && *eventsDir == "" {
		fmt.Fprintln(os.Stderr, "need -snapshot and/or -events")
		os.Exit(2)
	}

	var w *world.World
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		fmt.Printf("snapshot v%d match=%s tick=%d seed=%d score=%d-%d kickoffs=%d ball=(%.2f,%.2f)\n",
			snap.Header.Version, snap.Header.MatchID, snap.Header.Tick, snap.Seed,
			snap.Score[0], snap.Score[1], snap.Kickoffs, snap.Ball[0], snap.Ball[1])
		if *eventsDir == "" {
			return
		}
		w, err = world.New(world.WorldConfig{
			ID:         snap.Header.MatchID,
			TickRateHz: snap.TickRate,
			Seed:       snap.Seed,
			Rules:      world.RulesFromSnapshot(snap),
		}, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "world:", err)
			os.Exit(1)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			fmt.Fprintln(os.Stderr, "import snapshot:", err)
			os.Exit(1)
		}
	} else {
		tune, err := tuning.Load(*tuningPath)
		if err != nil {
			if !os.IsNotExist(err) {
				fmt.Fprintln(os.Stderr, "load tuning:", err)
				os.Exit(1)
			}
			tune = tuning.Defaults()
		}
		cfg := tune.WorldConfig()
		cfg.MaxTicks = 0
		// Every acting slot is in the log, so no policy is consulted.
		w, err = world.New(cfg, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "world:", err)
			os.Exit(1)
		}
	}

	files, err := persistlog.ListFiles(*eventsDir, "events")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	startTick := w.CurrentTick()
	res, err := replay(w, files, startTick, *fromTick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks goals=%d score=%d-%d (from tick=%d)\n",
		res.checked, res.goals, w.Score()[0], w.Score()[1], startTick)
}

type replayResult struct {
	checked uint64
	goals   int
}

// replay steps w through every logged tick at or after startTick and checks
// the state digest from verifyFrom on.
func replay(w *world.World, files []string, startTick, verifyFrom, toTick uint64) (replayResult, error) {
	var res replayResult
	if verifyFrom < startTick {
		verifyFrom = startTick
	}
	for _, path := range files {
		err := persistlog.ReadTicks(path, func(entry world.TickLogEntry) error {
			if entry.Tick < startTick {
				return nil
			}
			if toTick != 0 && entry.Tick > toTick {
				return persistlog.ErrStop
			}
			if entry.Tick != w.CurrentTick() {
				return fmt.Errorf("tick mismatch: want=%d got=%d (file=%s)", w.CurrentTick(), entry.Tick, filepath.Base(path))
			}

			acts := make([]world.ActionEnvelope, 0, len(entry.Actions))
			for _, ra := range entry.Actions {
				acts = append(acts, world.ActionEnvelope{
					Slot: world.Slot{Team: world.Team(ra.Team), Index: ra.Index},
					Act:  protocolAct(entry.Tick, ra),
				})
			}

			scoreBefore := w.Score()
			tick, gotDigest, err := w.StepOnce(acts)
			if err != nil {
				return fmt.Errorf("tick %d: %w", entry.Tick, err)
			}
			if tick != entry.Tick {
				return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d (file=%s)", tick, entry.Tick, filepath.Base(path))
			}
			if (entry.Goal != nil) != (w.Score() != scoreBefore) {
				return fmt.Errorf("goal mismatch at tick %d", tick)
			}
			if entry.Goal != nil {
				res.goals++
			}
			if tick >= verifyFrom {
				res.checked++
				if gotDigest != entry.Digest {
					return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
				}
			}
			return nil
		})
		if err != nil {
			return res, err
		}
		if toTick != 0 && w.CurrentTick() > toTick {
			break
		}
	}
	return res, nil
}
