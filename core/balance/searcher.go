package balance

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/groupbalance/core/logger"
	"github.com/kilianp07/groupbalance/core/metrics"
	"github.com/kilianp07/groupbalance/core/model"
	"github.com/kilianp07/groupbalance/internal/eventbus"
)

// Improvement is published each time a worker replaces its running best.
type Improvement struct {
	RunID     string
	Worker    int
	Iteration int
	Fitness   float64
	Time      time.Time
}

// Run describes one completed search.
type Run struct {
	ID           string
	Seed         uint64
	Workers      int
	Improvements int
	Started      time.Time
	Duration     time.Duration
	Result       model.Result
}

// Searcher runs configured searches, fanning iterations out to workers and
// reporting progress on the optional logger, metrics sink and event bus.
type Searcher struct {
	cfg  Config
	log  logger.Logger
	sink metrics.MetricsSink
	bus  *eventbus.TypedBus[Improvement]
	now  func() time.Time
}

// Option customises a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger used for run and improvement messages.
func WithLogger(l logger.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the sink receiving run summaries.
func WithMetrics(sink metrics.MetricsSink) Option {
	return func(s *Searcher) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithEventBus publishes improvements on bus.
func WithEventBus(bus *eventbus.TypedBus[Improvement]) Option {
	return func(s *Searcher) { s.bus = bus }
}

// NewSearcher validates cfg after applying defaults and returns a Searcher.
func NewSearcher(cfg Config, opts ...Option) (*Searcher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Searcher{cfg: cfg, log: logger.Nop{}, sink: metrics.NopSink{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Searcher) Config() Config { return s.cfg }

// Search partitions roster according to the searcher configuration.
//
// Iterations are split into contiguous ranges, one per worker, and worker w
// draws from a PCG stream seeded with (seed, w). Worker bests are reduced in
// iteration order with the same strict-less-than rule as Search, so for a
// fixed seed and worker count the result is deterministic and ties resolve
// to the earliest iteration.
func (s *Searcher) Search(ctx context.Context, roster []model.Entry) (*Run, error) {
	if err := Validate(roster, s.cfg.GroupSize, s.cfg.Iterations); err != nil {
		return nil, err
	}
	out := &Run{ID: uuid.NewString(), Seed: s.cfg.Seed, Started: s.now()}
	if out.Seed == 0 {
		out.Seed = rand.Uint64()
	}
	workers := min(s.cfg.Workers, s.cfg.Iterations)
	out.Workers = workers
	avg := GlobalAverage(roster)

	s.log.Infof("run %s: %d entries, group size %d, %d iterations on %d worker(s), seed %d",
		out.ID, len(roster), s.cfg.GroupSize, s.cfg.Iterations, workers, out.Seed)

	bests := make([]best, workers)
	counts := make([]int, workers)
	g, gctx := errgroup.WithContext(ctx)
	from := 0
	for w, n := range GroupSizes(s.cfg.Iterations, workers) {
		start, end := from, from+n
		from = end
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(out.Seed, uint64(w)))
			acc, err := s.worker(gctx, out.ID, rng, roster, avg, w, start, end, &counts[w])
			if err != nil {
				return err
			}
			bests[w] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warnf("run %s aborted: %v", out.ID, err)
		return nil, err
	}

	var overall best
	for _, b := range bests {
		if b.set {
			overall.offer(b.partition, b.fitness, b.iteration)
		}
	}
	for _, c := range counts {
		out.Improvements += c
	}
	out.Result = overall.result(avg)
	out.Duration = s.now().Sub(out.Started)

	s.log.Infof("run %s done in %s: fitness %.6f found at iteration %d",
		out.ID, out.Duration, out.Result.Fitness, out.Result.Iteration)
	s.record(out, len(roster))
	return out, nil
}

// worker folds iterations [from, to) for worker w and counts its improvements.
func (s *Searcher) worker(ctx context.Context, runID string, rng *rand.Rand, roster []model.Entry, avg float64, w, from, to int, count *int) (best, error) {
	rec, _ := s.sink.(metrics.ImprovementRecorder)
	return run(ctx, rng, roster, s.cfg.GroupSize, avg, from, to, func(it int, fitness float64) {
		*count++
		ev := Improvement{RunID: runID, Worker: w, Iteration: it, Fitness: fitness, Time: s.now()}
		s.log.Debugw("best partition replaced", map[string]any{
			"run_id": runID, "worker": w, "iteration": it, "fitness": fitness,
		})
		if s.bus != nil {
			s.bus.Publish(ev)
		}
		if rec != nil {
			if err := rec.RecordImprovement(metrics.ImprovementEvent{
				RunID: runID, Worker: w, Iteration: it, Fitness: fitness, Time: ev.Time,
			}); err != nil {
				s.log.Warnf("record improvement: %v", err)
			}
		}
	})
}

func (s *Searcher) record(r *Run, rosterSize int) {
	sum := metrics.SearchSummary{
		RunID:        r.ID,
		RosterSize:   rosterSize,
		GroupSize:    s.cfg.GroupSize,
		Groups:       len(r.Result.Partition),
		Iterations:   s.cfg.Iterations,
		Workers:      r.Workers,
		Seed:         r.Seed,
		Fitness:      r.Result.Fitness,
		Improvements: r.Improvements,
		Duration:     r.Duration,
		Time:         r.Started,
	}
	if err := s.sink.RecordSearch(sum); err != nil {
		s.log.Errorf("record search %s: %v", r.ID, err)
	}
}
