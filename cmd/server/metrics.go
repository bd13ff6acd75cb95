package main

import (
	"fmt"
	"io"

	"kickoff.ai/internal/sim/world"
)

// writeMetrics renders the minimal Prometheus exposition format.
func writeMetrics(out io.Writer, matchID string, w *world.World, idx runtimeIndex) {
	m := w.Metrics()
	tick := w.CurrentTick()
	if m.Tick != 0 {
		tick = m.Tick
	}

	fmt.Fprintf(out, "# HELP kickoff_match_tick Current match tick.\n")
	fmt.Fprintf(out, "# TYPE kickoff_match_tick gauge\n")
	fmt.Fprintf(out, "kickoff_match_tick{match=%q} %d\n", matchID, tick)

	fmt.Fprintf(out, "# HELP kickoff_match_clients Connected agent sessions.\n")
	fmt.Fprintf(out, "# TYPE kickoff_match_clients gauge\n")
	fmt.Fprintf(out, "kickoff_match_clients{match=%q} %d\n", matchID, m.Clients)

	fmt.Fprintf(out, "# HELP kickoff_match_observers Connected observer sessions.\n")
	fmt.Fprintf(out, "# TYPE kickoff_match_observers gauge\n")
	fmt.Fprintf(out, "kickoff_match_observers{match=%q} %d\n", matchID, m.Observers)

	fmt.Fprintf(out, "# HELP kickoff_match_score Goals per team.\n")
	fmt.Fprintf(out, "# TYPE kickoff_match_score gauge\n")
	fmt.Fprintf(out, "kickoff_match_score{match=%q,team=%q} %d\n", matchID, "home", m.Score[0])
	fmt.Fprintf(out, "kickoff_match_score{match=%q,team=%q} %d\n", matchID, "away", m.Score[1])

	fmt.Fprintf(out, "# HELP kickoff_match_goals_total Goals scored since the process started.\n")
	fmt.Fprintf(out, "# TYPE kickoff_match_goals_total counter\n")
	fmt.Fprintf(out, "kickoff_match_goals_total{match=%q} %d\n", matchID, m.Goals)

	fmt.Fprintf(out, "# HELP kickoff_match_kickoffs_total Kickoff resets, including the opening one.\n")
	fmt.Fprintf(out, "# TYPE kickoff_match_kickoffs_total counter\n")
	fmt.Fprintf(out, "kickoff_match_kickoffs_total{match=%q} %d\n", matchID, m.Kickoffs)

	fmt.Fprintf(out, "# HELP kickoff_match_stale_acts_total ACT messages dropped as stale or unroutable.\n")
	fmt.Fprintf(out, "# TYPE kickoff_match_stale_acts_total counter\n")
	fmt.Fprintf(out, "kickoff_match_stale_acts_total{match=%q} %d\n", matchID, m.StaleActs)

	fmt.Fprintf(out, "# HELP kickoff_match_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(out, "# TYPE kickoff_match_queue_depth gauge\n")
	fmt.Fprintf(out, "kickoff_match_queue_depth{match=%q,queue=%q} %d\n", matchID, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(out, "kickoff_match_queue_depth{match=%q,queue=%q} %d\n", matchID, "join", m.QueueDepths.Join)
	fmt.Fprintf(out, "kickoff_match_queue_depth{match=%q,queue=%q} %d\n", matchID, "leave", m.QueueDepths.Leave)

	fmt.Fprintf(out, "# HELP kickoff_match_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(out, "# TYPE kickoff_match_step_ms gauge\n")
	fmt.Fprintf(out, "kickoff_match_step_ms{match=%q} %.3f\n", matchID, m.StepMS)

	if idx != nil {
		fmt.Fprintf(out, "# HELP kickoff_index_dropped_total Index writes dropped under backpressure.\n")
		fmt.Fprintf(out, "# TYPE kickoff_index_dropped_total counter\n")
		fmt.Fprintf(out, "kickoff_index_dropped_total{match=%q} %d\n", matchID, idx.Dropped())
	}
}
