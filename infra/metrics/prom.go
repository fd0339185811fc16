package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/groupbalance/core/metrics"
)

// PromSink records search runs in Prometheus metrics.
type PromSink struct {
	runs         *prometheus.CounterVec
	iterations   prometheus.Counter
	improvements prometheus.Counter
	fitness      prometheus.Gauge
	duration     prometheus.Histogram
}

// NewPromSink registers search metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already present on the registerer are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "group_search_runs_total",
		Help: "Total number of completed partition searches",
	}, []string{"group_size"}))
	if err != nil {
		return nil, err
	}
	iterations, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "group_search_iterations_total",
		Help: "Total number of random partitions evaluated",
	}))
	if err != nil {
		return nil, err
	}
	improvements, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "group_search_improvements_total",
		Help: "Number of times a worker replaced its best partition",
	}))
	if err != nil {
		return nil, err
	}
	fitness, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "group_search_best_fitness",
		Help: "Fitness of the best partition from the last completed search",
	}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "group_search_duration_seconds",
		Help:    "Wall time of a partition search",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}))
	if err != nil {
		return nil, err
	}
	return &PromSink{
		runs:         runs,
		iterations:   iterations,
		improvements: improvements,
		fitness:      fitness,
		duration:     duration,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSearch updates the counters, gauge and histogram for one run.
func (s *PromSink) RecordSearch(sum coremetrics.SearchSummary) error {
	s.runs.WithLabelValues(strconv.Itoa(sum.GroupSize)).Inc()
	s.iterations.Add(float64(sum.Iterations))
	s.fitness.Set(sum.Fitness)
	s.duration.Observe(sum.Duration.Seconds())
	return nil
}

// RecordImprovement counts one replacement of a running best.
func (s *PromSink) RecordImprovement(coremetrics.ImprovementEvent) error {
	s.improvements.Inc()
	return nil
}
