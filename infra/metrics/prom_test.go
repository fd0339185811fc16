package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/groupbalance/core/metrics"
)

func TestPromSink_RecordSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sum := coremetrics.SearchSummary{
		RunID:      "r1",
		GroupSize:  5,
		Iterations: 1000,
		Fitness:    0.25,
		Duration:   120 * time.Millisecond,
	}
	if err := sink.RecordSearch(sum); err != nil {
		t.Fatalf("record error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := sink.RecordImprovement(coremetrics.ImprovementEvent{RunID: "r1", Iteration: i}); err != nil {
			t.Fatalf("improvement error: %v", err)
		}
	}

	expected := `
# HELP group_search_runs_total Total number of completed partition searches
# TYPE group_search_runs_total counter
group_search_runs_total{group_size="5"} 1
`
	if err := testutil.CollectAndCompare(sink.runs, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if got := testutil.ToFloat64(sink.iterations); got != 1000 {
		t.Errorf("iterations = %v", got)
	}
	if got := testutil.ToFloat64(sink.improvements); got != 3 {
		t.Errorf("improvements = %v", got)
	}
	if got := testutil.ToFloat64(sink.fitness); got != 0.25 {
		t.Errorf("fitness = %v", got)
	}
	if n := testutil.CollectAndCount(sink.duration); n != 1 {
		t.Errorf("expected one histogram, got %d", n)
	}
}

// Registering twice on the same registry reuses the existing collectors.
func TestPromSink_Reregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if err := first.RecordSearch(coremetrics.SearchSummary{GroupSize: 3, Iterations: 10}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := testutil.ToFloat64(second.iterations); got != 10 {
		t.Fatalf("collectors not shared, got %v", got)
	}
}
