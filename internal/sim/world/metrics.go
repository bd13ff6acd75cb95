package world

// WorldMetrics is a thread-safe read-only view of key match runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Clients   int    `json:"clients"`
	Observers int    `json:"observers"`
	Score     [2]int `json:"score"`
	Goals     uint64 `json:"goals"`
	Kickoffs  uint64 `json:"kickoffs"`
	StaleActs uint64 `json:"stale_acts"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
