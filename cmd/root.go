package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/groupbalance/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "groupbalance",
	Short:         "Split a scored roster into groups with balanced averages",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
