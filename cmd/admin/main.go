package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"kickoff.ai/internal/persistence/archive"
	persistlog "kickoff.ai/internal/persistence/log"
	"kickoff.ai/internal/persistence/snapshot"
	"kickoff.ai/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "rewind":
			rewindCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "goals":
			goalsCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	matchID := fs.String("match", "", "match id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "matches")
	if *matchID != "" {
		base = filepath.Join(base, *matchID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if *matchID == "" && e.IsDir() {
			if meta, err := archive.ReadMeta(filepath.Join(base, e.Name())); err == nil {
				fmt.Printf("%s\tfull-time %d-%d at tick %d\n", e.Name(), meta.Score[0], meta.Score[1], meta.EndTick)
				continue
			}
		}
		fmt.Println(e.Name())
	}
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	snapPath := fs.String("snapshot", "", "snapshot path")
	_ = fs.Parse(args)

	if strings.TrimSpace(*snapPath) == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	printJSON(snap)
}

func goalsCmd(args []string) {
	fs := flag.NewFlagSet("goals", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	matchID := fs.String("match", "", "match id")
	_ = fs.Parse(args)

	if strings.TrimSpace(*matchID) == "" {
		fmt.Fprintln(os.Stderr, "missing -match")
		os.Exit(2)
	}
	files, err := persistlog.ListFiles(filepath.Join(*dataDir, "matches", *matchID, "goals"), "goals")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list goals:", err)
		os.Exit(1)
	}
	for _, path := range files {
		if err := persistlog.ReadGoals(path, func(g world.GoalEvent) error {
			printJSON(g)
			return nil
		}); err != nil {
			fmt.Fprintln(os.Stderr, "read goals:", err)
			os.Exit(1)
		}
	}
}

// rewindCmd rebuilds the match at an earlier tick from a snapshot plus the
// event log, for inspecting or resuming from a point before the latest snapshot.
func rewindCmd(args []string) {
	fs := flag.NewFlagSet("rewind", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	matchID := fs.String("match", "", "match id")
	snapPath := fs.String("snapshot", "", "base snapshot (optional; default: fresh kickoff from the first snapshot's rules)")
	toTick := fs.Uint64("to_tick", 0, "last tick to apply (required)")
	outPath := fs.String("out", "", "output snapshot path (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*matchID) == "" {
		fmt.Fprintln(os.Stderr, "missing -match")
		os.Exit(2)
	}
	matchDir := filepath.Join(*dataDir, "matches", *matchID)

	base := strings.TrimSpace(*snapPath)
	if base == "" {
		base = snapshotAtOrBefore(matchDir, *toTick)
	}
	if base == "" {
		fmt.Fprintln(os.Stderr, "no snapshot at or before tick; provide -snapshot")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	out, err := rewind(snap, filepath.Join(matchDir, "events"), *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rewind:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*outPath) == "" {
		*outPath = filepath.Join(matchDir, "snapshots", fmt.Sprintf("%d.rewind.snap.zst", out.Header.Tick))
	}
	if err := snapshot.WriteSnapshot(*outPath, out); err != nil {
		fmt.Fprintln(os.Stderr, "write snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("rewind ok: base=%s from=%d to=%d score=%d-%d out=%s\n",
		filepath.Base(base), snap.Header.Tick, out.Header.Tick, out.Score[0], out.Score[1], *outPath)
}

var errBeforeSnapshot = errors.New("to_tick is before the snapshot tick")

// rewind replays logged actions on top of snap up to and including toTick.
func rewind(snap snapshot.SnapshotV1, eventsDir string, toTick uint64) (snapshot.SnapshotV1, error) {
	if toTick < snap.Header.Tick {
		return snapshot.SnapshotV1{}, errBeforeSnapshot
	}
	w, err := world.New(world.WorldConfig{
		ID:         snap.Header.MatchID,
		TickRateHz: snap.TickRate,
		Seed:       snap.Seed,
		Rules:      world.RulesFromSnapshot(snap),
	}, nil)
	if err != nil {
		return snapshot.SnapshotV1{}, err
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return snapshot.SnapshotV1{}, err
	}
	if toTick == snap.Header.Tick {
		return snap, nil
	}

	files, err := persistlog.ListFiles(eventsDir, "events")
	if err != nil {
		return snapshot.SnapshotV1{}, err
	}
	for _, path := range files {
		err := persistlog.ReadTicks(path, func(e world.TickLogEntry) error {
			if e.Tick < w.CurrentTick() {
				return nil
			}
			if e.Tick > toTick {
				return persistlog.ErrStop
			}
			if e.Tick != w.CurrentTick() {
				return fmt.Errorf("gap in event log: want tick %d, got %d", w.CurrentTick(), e.Tick)
			}
			acts := make([]world.ActionEnvelope, 0, len(e.Actions))
			for _, ra := range e.Actions {
				env := world.ActionEnvelope{Slot: world.Slot{Team: world.Team(ra.Team), Index: ra.Index}}
				env.Act.Tick = e.Tick
				env.Act.Action = ra.Action
				acts = append(acts, env)
			}
			_, _, err := w.StepOnce(acts)
			return err
		})
		if err != nil {
			return snapshot.SnapshotV1{}, err
		}
		if w.CurrentTick() > toTick {
			break
		}
	}
	if w.CurrentTick() != toTick+1 {
		return snapshot.SnapshotV1{}, fmt.Errorf("event log ends at tick %d", w.CurrentTick())
	}
	return w.ExportSnapshot(toTick), nil
}

// snapshotAtOrBefore returns the newest plain "<tick>.snap.zst" with tick <= limit.
func snapshotAtOrBefore(matchDir string, limit uint64) string {
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
		if err != nil || tick > limit {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
