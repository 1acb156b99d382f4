package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"github.com/couchcryptid/movie-ratings-etl/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Extractor reads the three raw tables of one run.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawTables, error)
}

// Loader persists an output table, replacing any existing table of the same name.
type Loader interface {
	Name() string
	Load(ctx context.Context, table domain.Table) error
}

// Publisher hands the outputs of a successful run to a downstream consumer.
// Publish failures are logged and counted but do not fail the run.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, runID string, out domain.Outputs) error
}

// Runner executes complete extract-transform-load runs, once or on a schedule.
type Runner struct {
	extractor    Extractor
	orchestrator *Orchestrator
	loaders      []Loader
	publishers   []Publisher
	tablePrefix  string
	logger       *slog.Logger
	metrics      *observability.Metrics
	clock        clockwork.Clock

	ready atomic.Bool
	mu    sync.RWMutex
	last  *domain.RunStatus
}

// NewRunner creates a Runner. Loaders and publishers may be empty.
func NewRunner(e Extractor, o *Orchestrator, loaders []Loader, publishers []Publisher, tablePrefix string, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Runner {
	return &Runner{
		extractor:    e,
		orchestrator: o,
		loaders:      loaders,
		publishers:   publishers,
		tablePrefix:  tablePrefix,
		logger:       logger,
		metrics:      metrics,
		clock:        clock,
	}
}

// CheckReadiness returns nil if the most recent run succeeded.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if r.ready.Load() {
		return nil
	}
	if st, ok := r.Status(); ok {
		return fmt.Errorf("last run %s failed: %s", st.RunID, st.Error)
	}
	return errors.New("pipeline has not completed a run yet")
}

// Status returns the most recent run status, if any run has finished.
func (r *Runner) Status() (domain.RunStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return domain.RunStatus{}, false
	}
	return *r.last, true
}

// RunOnce performs one full run from raw input to loaded tables.
func (r *Runner) RunOnce(ctx context.Context) (domain.RunStatus, error) {
	st := domain.RunStatus{
		RunID:     uuid.NewString(),
		StartedAt: r.clock.Now(),
	}
	logger := r.logger.With("run_id", st.RunID)
	logger.Info("run started")

	err := r.run(ctx, logger, &st)

	st.FinishedAt = r.clock.Now()
	elapsed := st.FinishedAt.Sub(st.StartedAt)
	r.metrics.RunDuration.Observe(elapsed.Seconds())
	if err != nil {
		st.Outcome = domain.OutcomeFailure
		st.Error = err.Error()
		r.metrics.RunsTotal.WithLabelValues(string(domain.OutcomeFailure)).Inc()
		logger.Error("run failed", "error", err, "duration", elapsed)
	} else {
		st.Outcome = domain.OutcomeSuccess
		r.metrics.RunsTotal.WithLabelValues(string(domain.OutcomeSuccess)).Inc()
		r.metrics.LastSuccess.Set(float64(st.FinishedAt.Unix()))
		logger.Info("run finished", "duration", elapsed, "rows_loaded", st.RowsLoaded)
	}

	r.mu.Lock()
	r.last = &st
	r.mu.Unlock()
	r.ready.Store(err == nil)

	return st, err
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, st *domain.RunStatus) error {
	raw, err := r.extractor.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	res, err := r.orchestrator.Transform(ctx, raw)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	st.Stages = res.Stages

	tables := res.Outputs.Tables(r.tablePrefix)
	st.RowsLoaded = make(map[string]int, len(tables))
	for _, l := range r.loaders {
		for _, t := range tables {
			if err := l.Load(ctx, t); err != nil {
				r.metrics.LoadErrors.WithLabelValues(l.Name()).Inc()
				return fmt.Errorf("load %s into %s: %w", t.Name, l.Name(), err)
			}
			r.metrics.RowsLoaded.WithLabelValues(l.Name(), t.Name).Add(float64(t.Len()))
			st.RowsLoaded[t.Name] = t.Len()
			logger.Info("table loaded", "target", l.Name(), "table", t.Name, "rows", t.Len())
		}
	}

	for _, p := range r.publishers {
		if err := p.Publish(ctx, st.RunID, res.Outputs); err != nil {
			r.metrics.PublishErrors.WithLabelValues(p.Name()).Inc()
			logger.Warn("publish failed", "publisher", p.Name(), "error", err)
		}
	}
	return nil
}

// Run repeats RunOnce every interval until the context is cancelled. A failed
// run is retried with exponential backoff, capped at the interval.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("run interval must be positive")
	}
	r.logger.Info("scheduler started", "interval", interval)
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	backoff := min(initialBackoff, interval)
	for {
		wait := interval
		if _, err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("scheduler stopping", "reason", ctx.Err())
				return nil
			}
			wait = backoff
			backoff = retry.NextBackoff(backoff, interval)
			r.logger.Info("retrying run", "after", wait)
		} else {
			backoff = min(initialBackoff, interval)
		}

		if !sleepWithContext(ctx, r.clock, wait) {
			r.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		}
	}
}

const initialBackoff = 5 * time.Second

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
