package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates tutoring turn metrics in process. All methods are safe
// for concurrent use.
type Metrics struct {
	turnsTotal   atomic.Int64
	quizzesTotal atomic.Int64

	mu        sync.Mutex
	byIntent  map[string]int64
	durations []time.Duration
	maxKept   int
}

// NewMetrics creates a metrics collector keeping up to maxDurations samples
// for latency aggregation.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		byIntent: make(map[string]int64),
		maxKept:  maxDurations,
	}
}

// RecordTurn records one completed chat turn.
func (m *Metrics) RecordTurn(intent string, duration time.Duration) {
	m.turnsTotal.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byIntent[intent]++
	if len(m.durations) >= m.maxKept {
		// Keep the newest samples.
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
}

// RecordQuiz records one generated quiz.
func (m *Metrics) RecordQuiz() {
	m.quizzesTotal.Add(1)
}

// Snapshot is a point-in-time view of the collected metrics.
type Snapshot struct {
	TurnsTotal   int64            `json:"turns_total"`
	QuizzesTotal int64            `json:"quizzes_total"`
	ByIntent     map[string]int64 `json:"turns_by_intent"`
	AvgLatencyMs int64            `json:"avg_latency_ms"`
}

// Snapshot returns the current metric values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	byIntent := make(map[string]int64, len(m.byIntent))
	for k, v := range m.byIntent {
		byIntent[k] = v
	}

	var avg int64
	if len(m.durations) > 0 {
		var total time.Duration
		for _, d := range m.durations {
			total += d
		}
		avg = (total / time.Duration(len(m.durations))).Milliseconds()
	}

	return Snapshot{
		TurnsTotal:   m.turnsTotal.Load(),
		QuizzesTotal: m.quizzesTotal.Load(),
		ByIntent:     byIntent,
		AvgLatencyMs: avg,
	}
}
