package balance

import (
	"fmt"
	"runtime"
)

// Defaults used when the configuration leaves a field unset.
const (
	DefaultGroupSize  = 5
	DefaultIterations = 1000
	DefaultWorkers    = 1
)

// Config defines the search parameters loaded from configuration.
type Config struct {
	// GroupSize is the target number of members per group.
	GroupSize int `json:"group_size"`
	// Iterations is the number of random partitions evaluated.
	Iterations int `json:"iterations"`
	// Seed makes a run reproducible. Zero draws a fresh seed per run.
	Seed uint64 `json:"seed"`
	// Workers is the number of goroutines sharing the iterations.
	// A negative value uses one worker per CPU.
	Workers int `json:"workers"`
}

// SetDefaults applies the defaults to unset fields.
func (c *Config) SetDefaults() {
	if c.GroupSize == 0 {
		c.GroupSize = DefaultGroupSize
	}
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Workers < 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}

// Validate checks the fields that do not depend on the roster.
func (c Config) Validate() error {
	if c.GroupSize < 1 {
		return fmt.Errorf("%w: group_size must be positive, got %d", ErrInvalidInput, c.GroupSize)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidInput, c.Iterations)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidInput, c.Workers)
	}
	return nil
}
