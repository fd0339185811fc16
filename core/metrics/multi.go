package metrics

import (
	"errors"
	"io"
)

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSearch forwards the summary to every sink. A failing sink does not
// stop the others; all errors are joined.
func (m *MultiSink) RecordSearch(s SearchSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.RecordSearch(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordImprovement forwards the event to sinks implementing ImprovementRecorder.
func (m *MultiSink) RecordImprovement(ev ImprovementEvent) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(ImprovementRecorder); ok {
			if err := rec.RecordImprovement(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink implementing io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, sink := range m.Sinks {
		if c, ok := sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
