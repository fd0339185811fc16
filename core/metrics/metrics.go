package metrics

import "time"

// SearchSummary describes one completed partition search.
type SearchSummary struct {
	RunID        string
	RosterSize   int
	GroupSize    int
	Groups       int
	Iterations   int
	Workers      int
	Seed         uint64
	Fitness      float64
	Improvements int
	Duration     time.Duration
	Time         time.Time
}

// MetricsSink records search runs for observability purposes.
type MetricsSink interface {
	RecordSearch(s SearchSummary) error
}

// ImprovementEvent is emitted when a worker replaces its running best.
type ImprovementEvent struct {
	RunID     string
	Worker    int
	Iteration int
	Fitness   float64
	Time      time.Time
}

// ImprovementRecorder is implemented by sinks able to record improvements.
// It is called from worker goroutines and must be safe for concurrent use.
type ImprovementRecorder interface {
	RecordImprovement(ev ImprovementEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSearch(SearchSummary) error          { return nil }
func (NopSink) RecordImprovement(ImprovementEvent) error { return nil }
