package metrics

// Package metrics defines the sinks that record search runs. A sink receives
// one SearchSummary per completed run and, when it implements
// ImprovementRecorder, every replacement of a worker's running best.
// Concrete sinks are registered by name and built from configuration with
// NewMetricsSink, which wraps several sinks in a MultiSink.
