package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	runsapi "github.com/kilianp07/groupbalance/api/runs"
	"github.com/kilianp07/groupbalance/app"
	"github.com/kilianp07/groupbalance/core/runlog"
	"github.com/kilianp07/groupbalance/infra/logger"
	"github.com/kilianp07/groupbalance/infra/metrics"
)

var runsOpts struct {
	since time.Duration
	runID string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Run history commands",
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsLs,
}

func init() {
	runsLsCmd.Flags().DurationVar(&runsOpts.since, "since", 0, "only runs started within this duration")
	runsLsCmd.Flags().StringVar(&runsOpts.runID, "run", "", "only the run with this id")
	runsCmd.AddCommand(runsLsCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsLs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("runs-command").Errorf("service close: %v", err)
		}
	}()

	q := runlog.RunQuery{RunID: runsOpts.runID}
	if runsOpts.since > 0 {
		q.Start = time.Now().Add(-runsOpts.since)
	}
	recs, err := svc.Runs(cmd.Context(), q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "RUN\tSTARTED\tSOURCE\tENTRIES\tGROUP SIZE\tSEED\tFITNESS"); err != nil {
		return err
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%.6f\n",
			r.RunID, r.Timestamp.Format(time.RFC3339), r.Source, r.RosterSize, r.GroupSize, r.Seed, r.Fitness); err != nil {
			return err
		}
	}
	return tw.Flush()
}

var runsServeOpts struct {
	addr  string
	token string
}

var runsServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history over HTTP",
	Long:  "Serve GET /api/runs with the run history and /metrics for Prometheus until interrupted.",
	Args:  cobra.NoArgs,
	RunE:  runRunsServe,
}

func init() {
	runsServeCmd.Flags().StringVar(&runsServeOpts.addr, "addr", ":8080", "listen address")
	runsServeCmd.Flags().StringVar(&runsServeOpts.token, "token", "", "bearer token required by /api/runs")
	runsCmd.AddCommand(runsServeCmd)
}

func runRunsServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	logg := logger.New("runs-server")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()
	if svc.RunStore() == nil {
		return fmt.Errorf("run log disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/api/runs", runsapi.NewHandler(svc.RunStore(), runsServeOpts.token))
	mux.Handle("/metrics", promhttp.Handler())
	logg.Infof("serving run history on %s", runsServeOpts.addr)
	return metrics.Serve(ctx, runsServeOpts.addr, mux)
}
