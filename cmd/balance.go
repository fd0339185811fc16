package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/groupbalance/app"
	"github.com/kilianp07/groupbalance/config"
	"github.com/kilianp07/groupbalance/core/balance"
	"github.com/kilianp07/groupbalance/infra/logger"
	"github.com/kilianp07/groupbalance/infra/roster"
	"github.com/kilianp07/groupbalance/pkg/export"
)

var balanceOpts struct {
	roster     string
	groupSize  int
	iterations int
	seed       uint64
	workers    int
	format     string
	output     string
	chart      string
	progress   bool
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Search for a balanced partition of a roster",
	Args:  cobra.NoArgs,
	RunE:  runBalance,
}

func init() {
	f := balanceCmd.Flags()
	f.StringVarP(&balanceOpts.roster, "roster", "r", "", "roster file (.csv, .json, .yaml)")
	f.IntVarP(&balanceOpts.groupSize, "group-size", "g", 0, "target members per group")
	f.IntVarP(&balanceOpts.iterations, "iterations", "n", 0, "random partitions to evaluate")
	f.Uint64Var(&balanceOpts.seed, "seed", 0, "random seed, 0 draws one")
	f.IntVarP(&balanceOpts.workers, "workers", "w", 0, "parallel workers, negative uses every CPU")
	f.StringVarP(&balanceOpts.format, "format", "f", "", "output format: json or csv")
	f.StringVarP(&balanceOpts.output, "output", "o", "", "output file, stdout when empty")
	f.StringVar(&balanceOpts.chart, "chart", "", "write an HTML chart of group averages to this file")
	f.BoolVar(&balanceOpts.progress, "progress", false, "print each improvement to stderr")
	rootCmd.AddCommand(balanceCmd)
}

// applyBalanceFlags overrides configuration values with flags set on the
// command line.
func applyBalanceFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("group-size") && balanceOpts.groupSize < 1 {
		return fmt.Errorf("%w: --group-size must be positive, got %d", balance.ErrInvalidInput, balanceOpts.groupSize)
	}
	if f.Changed("iterations") && balanceOpts.iterations < 1 {
		return fmt.Errorf("%w: --iterations must be positive, got %d", balance.ErrInvalidInput, balanceOpts.iterations)
	}
	if f.Changed("roster") {
		cfg.Roster.Path = balanceOpts.roster
	}
	if f.Changed("group-size") {
		cfg.Search.GroupSize = balanceOpts.groupSize
	}
	if f.Changed("iterations") {
		cfg.Search.Iterations = balanceOpts.iterations
	}
	if f.Changed("seed") {
		cfg.Search.Seed = balanceOpts.seed
	}
	if f.Changed("workers") {
		cfg.Search.Workers = balanceOpts.workers
	}
	if f.Changed("format") {
		cfg.Output.Format = balanceOpts.format
	}
	if f.Changed("output") {
		cfg.Output.Path = balanceOpts.output
	}
	if f.Changed("chart") {
		cfg.Output.Chart = balanceOpts.chart
	}
	if cfg.Roster.Path == "" {
		return fmt.Errorf("no roster given: use --roster or roster.path")
	}
	cfg.SetDefaults()
	return cfg.Validate()
}

func runBalance(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyBalanceFlags(cmd, cfg); err != nil {
		return err
	}
	entries, err := roster.Load(cfg.Roster.Path)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("balance-command").Errorf("service close: %v", err)
		}
	}()
	svc.ServeMetrics(ctx)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	var done <-chan struct{}
	if balanceOpts.progress {
		done = app.WatchProgress(watchCtx, svc.Events(), cmd.ErrOrStderr())
	}

	run, err := svc.Run(ctx, entries, cfg.Roster.Path)
	if err != nil {
		return err
	}
	if done != nil {
		svc.Events().Close()
		<-done
		if n := svc.Events().Dropped(); n > 0 {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "progress: %d improvement events dropped\n", n)
		}
	}
	if cfg.Output.Chart != "" {
		if err := writeRun(nil, cfg.Output.Chart, func(w io.Writer) error {
			return export.WriteChart(w, export.NewReport(run))
		}); err != nil {
			return err
		}
	}
	return writeRun(cmd.OutOrStdout(), cfg.Output.Path, func(w io.Writer) error {
		return svc.Export(w, run)
	})
}

func writeRun(stdout io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
