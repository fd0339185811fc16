package config

import (
	"fmt"
)

// Run-log backends.
const (
	RunLogJSONL         = "jsonl"
	RunLogJSONLRotating = "jsonl_rotating"
	RunLogSQLite        = "sqlite"
	RunLogNone          = "none"
)

// RunLogConfig defines settings for run history storage and rotation.
type RunLogConfig struct {
	// Backend selects the store: "jsonl", "jsonl_rotating", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

func (c *RunLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = RunLogJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case RunLogSQLite:
			c.Path = "groupbalance.db"
		default:
			c.Path = "runs.jsonl"
		}
	}
	if c.Backend == RunLogJSONLRotating && c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
}

func (c RunLogConfig) Validate() error {
	switch c.Backend {
	case RunLogJSONL, RunLogJSONLRotating, RunLogSQLite, RunLogNone:
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Backend != RunLogNone && c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must not be negative")
	}
	return nil
}
