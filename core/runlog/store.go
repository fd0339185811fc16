// Package runlog persists a history of completed searches so earlier
// partitions can be listed and reproduced from their seed.
package runlog

import (
	"context"
	"time"

	"github.com/kilianp07/groupbalance/core/balance"
)

// RunRecord captures one completed search and its best partition.
type RunRecord struct {
	RunID         string     `json:"run_id"`
	Timestamp     time.Time  `json:"timestamp"`
	Source        string     `json:"source,omitempty"`
	RosterSize    int        `json:"roster_size"`
	GroupSize     int        `json:"group_size"`
	Iterations    int        `json:"iterations"`
	Workers       int        `json:"workers"`
	Seed          uint64     `json:"seed"`
	Fitness       float64    `json:"fitness"`
	GlobalAverage float64    `json:"global_average"`
	BestIteration int        `json:"best_iteration"`
	Improvements  int        `json:"improvements"`
	DurationMS    float64    `json:"duration_ms"`
	Groups        [][]string `json:"groups"`
}

// NewRecord builds a RunRecord from a finished run. source names the roster
// the run was computed from.
func NewRecord(run *balance.Run, cfg balance.Config, source string) RunRecord {
	groups := make([][]string, len(run.Result.Partition))
	for i, g := range run.Result.Partition {
		groups[i] = g.IDs()
	}
	return RunRecord{
		RunID:         run.ID,
		Timestamp:     run.Started,
		Source:        source,
		RosterSize:    run.Result.Partition.Size(),
		GroupSize:     cfg.GroupSize,
		Iterations:    cfg.Iterations,
		Workers:       run.Workers,
		Seed:          run.Seed,
		Fitness:       run.Result.Fitness,
		GlobalAverage: run.Result.GlobalAverage,
		BestIteration: run.Result.Iteration,
		Improvements:  run.Improvements,
		DurationMS:    float64(run.Duration) / float64(time.Millisecond),
		Groups:        groups,
	}
}

// RunQuery defines filters for retrieving records. Zero values match everything.
type RunQuery struct {
	Start time.Time
	End   time.Time
	RunID string
}

func (q RunQuery) match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	return true
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}
