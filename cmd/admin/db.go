package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	matchID := fs.String("match", "", "match id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	tick := fs.Uint64("tick", 0, "snapshot tick for players (optional; defaults to latest)")
	limit := fs.Int("limit", 20, "result limit")
	team := fs.Int("team", 0, "team filter for actions (1|2)")
	index := fs.Int("index", -1, "player index filter for actions (0-5)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*matchID) == "" {
			fmt.Fprintln(os.Stderr, "missing -match or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "matches", *matchID, "index", "match.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	var rows []any
	switch q {
	case "snapshots":
		rows, err = querySnapshots(db, *limit)
	case "players":
		if *tick == 0 {
			lt, err := latestSnapshotTick(db)
			if err != nil {
				fmt.Fprintln(os.Stderr, "latest tick:", err)
				os.Exit(1)
			}
			if lt == 0 {
				fmt.Fprintln(os.Stderr, "no snapshots found")
				os.Exit(2)
			}
			*tick = lt
		}
		rows, err = queryPlayers(db, *tick)
	case "goals":
		rows, err = queryGoals(db, *limit)
	case "ticks":
		rows, err = queryTicks(db, *limit)
	case "actions":
		rows, err = queryActions(db, *team, *index, *limit)
	case "tuning":
		rows, err = queryTuning(db)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-match MATCH|-db PATH] [-tick T] snapshots|players|goals|ticks|actions|tuning")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

type snapshotRow struct {
	Tick      int64   `json:"tick"`
	Path      string  `json:"path"`
	MatchID   string  `json:"match_id"`
	Seed      int64   `json:"seed"`
	ScoreHome int     `json:"score_home"`
	ScoreAway int     `json:"score_away"`
	Kickoffs  int64   `json:"kickoffs"`
	BallX     float64 `json:"ball_x"`
	BallY     float64 `json:"ball_y"`
}

func querySnapshots(db *sql.DB, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT tick,path,match_id,seed,score_home,score_away,kickoffs,ball_x,ball_y FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r snapshotRow
		if err := rows.Scan(&r.Tick, &r.Path, &r.MatchID, &r.Seed, &r.ScoreHome, &r.ScoreAway, &r.Kickoffs, &r.BallX, &r.BallY); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type playerRow struct {
	Tick    uint64  `json:"tick"`
	Team    int     `json:"team"`
	Index   int     `json:"index"`
	Role    string  `json:"role"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	HasBall bool    `json:"has_ball"`
}

func queryPlayers(db *sql.DB, tick uint64) ([]any, error) {
	rows, err := db.Query(`SELECT team,idx,role,x,y,has_ball FROM snapshot_players WHERE tick=? ORDER BY team,idx`, tick)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		r := playerRow{Tick: tick}
		if err := rows.Scan(&r.Team, &r.Index, &r.Role, &r.X, &r.Y, &r.HasBall); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type goalRow struct {
	Tick        int64   `json:"tick"`
	ScoringTeam int     `json:"scoring_team"`
	ScorerTeam  int     `json:"scorer_team"`
	ScorerIndex int     `json:"scorer_index"`
	OwnGoal     bool    `json:"own_goal"`
	BallX       float64 `json:"ball_x"`
	BallY       float64 `json:"ball_y"`
	ScoreHome   int     `json:"score_home"`
	ScoreAway   int     `json:"score_away"`
}

func queryGoals(db *sql.DB, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT tick,scoring_team,scorer_team,scorer_index,own_goal,ball_x,ball_y,score_home,score_away FROM goals ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r goalRow
		if err := rows.Scan(&r.Tick, &r.ScoringTeam, &r.ScorerTeam, &r.ScorerIndex, &r.OwnGoal, &r.BallX, &r.BallY, &r.ScoreHome, &r.ScoreAway); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type tickRow struct {
	Tick    int64  `json:"tick"`
	Digest  string `json:"digest"`
	Actions int    `json:"actions"`
	Goal    bool   `json:"goal"`
}

func queryTicks(db *sql.DB, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT tick,digest,actions,goal FROM ticks ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r tickRow
		if err := rows.Scan(&r.Tick, &r.Digest, &r.Actions, &r.Goal); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type actionRow struct {
	Tick   int64  `json:"tick"`
	Seq    int    `json:"seq"`
	Team   int    `json:"team"`
	Index  int    `json:"index"`
	Action string `json:"action"`
	Remote bool   `json:"remote"`
}

// queryActions filters by team and/or index when they are set (team > 0, index >= 0).
func queryActions(db *sql.DB, team, index, limit int) ([]any, error) {
	q := `SELECT tick,seq,team,idx,action,remote FROM actions`
	var where []string
	var args []any
	if team > 0 {
		where = append(where, "team=?")
		args = append(args, team)
	}
	if index >= 0 {
		where = append(where, "idx=?")
		args = append(args, index)
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY tick DESC, seq LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r actionRow
		if err := rows.Scan(&r.Tick, &r.Seq, &r.Team, &r.Index, &r.Action, &r.Remote); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type tuningRow struct {
	Name      string          `json:"name"`
	Digest    string          `json:"digest"`
	UpdatedAt string          `json:"updated_at"`
	Tuning    json.RawMessage `json:"tuning"`
}

func queryTuning(db *sql.DB) ([]any, error) {
	rows, err := db.Query(`SELECT name,digest,updated_at,json FROM tuning ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r tuningRow
		var raw string
		if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt, &raw); err != nil {
			return nil, err
		}
		r.Tuning = json.RawMessage(raw)
		out = append(out, r)
	}
	return out, rows.Err()
}

func latestSnapshotTick(db *sql.DB) (uint64, error) {
	if db == nil {
		return 0, fmt.Errorf("nil db")
	}
	var t int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(tick),0) FROM snapshots`).Scan(&t); err != nil {
		return 0, err
	}
	if t < 0 {
		return 0, nil
	}
	return uint64(t), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
