package metrics

import "github.com/kilianp07/groupbalance/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr, when set, exposes /metrics on this address while a
	// command runs.
	PrometheusAddr string `json:"prometheus_addr"`
}
