package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/groupbalance/core/balance"
	"github.com/kilianp07/groupbalance/core/metrics"
	"github.com/kilianp07/groupbalance/infra/mqtt"
)

// EnvPrefix is the prefix of environment overrides. Nested keys use a
// double underscore, e.g. GB_SEARCH__GROUP_SIZE=4.
const EnvPrefix = "GB_"

type Config struct {
	Search  balance.Config `json:"search"`
	Roster  RosterConfig   `json:"roster"`
	Output  OutputConfig   `json:"output"`
	Metrics metrics.Config `json:"metrics"`
	RunLog  RunLogConfig   `json:"runlog"`
	MQTT    mqtt.Config    `json:"mqtt"`
}

// RosterConfig points at the default roster file.
type RosterConfig struct {
	Path string `json:"path"`
}

// OutputConfig controls how a finished run is written.
type OutputConfig struct {
	// Format is "json" or "csv".
	Format string `json:"format"`
	// Path is the destination file; empty means stdout.
	Path string `json:"path"`
	// Chart, when set, receives an HTML chart of the group averages.
	Chart string `json:"chart"`
}

func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "json"
	}
}

func (c OutputConfig) Validate() error {
	switch c.Format {
	case "json", "csv":
		return nil
	default:
		return fmt.Errorf("unknown output format %s", c.Format)
	}
}

// Load reads the configuration file at path, if any, then applies GB_
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	if err := checkExplicitSearch(k); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// checkExplicitSearch rejects search sizes that were set to a non-positive
// value. SetDefaults cannot tell an explicit zero from an absent key.
func checkExplicitSearch(k *koanf.Koanf) error {
	for _, key := range []string{"search.group_size", "search.iterations"} {
		if k.Exists(key) && k.Int(key) < 1 {
			return fmt.Errorf("search: %w: %s must be positive, got %v", balance.ErrInvalidInput, key, k.Get(key))
		}
	}
	return nil
}

// SetDefaults fills every section's defaults.
func (c *Config) SetDefaults() {
	c.Search.SetDefaults()
	c.Output.SetDefaults()
	c.RunLog.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := c.RunLog.Validate(); err != nil {
		return fmt.Errorf("runlog: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}
