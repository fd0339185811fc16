package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kilianp07/groupbalance/app/plugins"
	"github.com/kilianp07/groupbalance/config"
	"github.com/kilianp07/groupbalance/core/balance"
	coremetrics "github.com/kilianp07/groupbalance/core/metrics"
	"github.com/kilianp07/groupbalance/core/model"
	"github.com/kilianp07/groupbalance/core/runlog"
	"github.com/kilianp07/groupbalance/infra/logger"
	"github.com/kilianp07/groupbalance/infra/metrics"
	"github.com/kilianp07/groupbalance/infra/mqtt"
	"github.com/kilianp07/groupbalance/internal/eventbus"
	"github.com/kilianp07/groupbalance/pkg/export"
)

// Publisher sends finished reports to an external system.
type Publisher interface {
	Publish(ctx context.Context, r export.Report) error
	Close() error
}

// Service wires the searcher to its run history, metrics and publisher.
type Service struct {
	cfg      *config.Config
	searcher *balance.Searcher
	bus      *eventbus.TypedBus[balance.Improvement]
	sink     coremetrics.MetricsSink
	store    runlog.Store
	pub      Publisher
	log      logger.Logger
}

var newPublisher = func(cfg mqtt.Config) (Publisher, error) {
	return mqtt.NewResultPublisher(cfg)
}

// EventBuffer is the per-subscriber capacity of the improvement bus.
const EventBuffer = 1024

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.NewTypedWithBuffer[balance.Improvement](EventBuffer)
	searcher, err := balance.NewSearcher(cfg.Search,
		balance.WithLogger(logger.New("searcher")),
		balance.WithMetrics(sink),
		balance.WithEventBus(bus),
	)
	if err != nil {
		return nil, fmt.Errorf("searcher: %w", err)
	}

	store, err := plugins.OpenRunLog(cfg.RunLog)
	if err != nil {
		return nil, fmt.Errorf("run log: %w", err)
	}

	svc := &Service{cfg: cfg, searcher: searcher, bus: bus, sink: sink, store: store, log: logg}
	if cfg.MQTT.Enabled() {
		pub, err := newPublisher(cfg.MQTT)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
	}
	return svc, nil
}

// Events returns the bus carrying search improvements.
func (s *Service) Events() *eventbus.TypedBus[balance.Improvement] { return s.bus }

// ServeMetrics exposes /metrics on the configured address until ctx is
// cancelled. It returns immediately when no address is configured.
func (s *Service) ServeMetrics(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, addr); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// Run searches roster and records the outcome. source names the roster in
// the run history. Failures to persist or publish are logged; only search
// errors are returned.
func (s *Service) Run(ctx context.Context, roster []model.Entry, source string) (*balance.Run, error) {
	run, err := s.searcher.Search(ctx, roster)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Append(ctx, runlog.NewRecord(run, s.searcher.Config(), source)); err != nil {
			s.log.Errorf("run log append: %v", err)
		}
	}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, export.NewReport(run)); err != nil {
			s.log.Errorf("publish run %s: %v", run.ID, err)
		}
	}
	return run, nil
}

// Export writes run in the configured output format.
func (s *Service) Export(w io.Writer, run *balance.Run) error {
	return export.Write(w, s.cfg.Output.Format, export.NewReport(run))
}

// RunStore returns the run history store, nil when disabled.
func (s *Service) RunStore() runlog.Store { return s.store }

// Runs queries the run history.
func (s *Service) Runs(ctx context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error) {
	if s.store == nil {
		return nil, errors.New("run log disabled")
	}
	return s.store.Query(ctx, q)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.pub != nil {
		errs = append(errs, s.pub.Close())
	}
	if c, ok := s.sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
