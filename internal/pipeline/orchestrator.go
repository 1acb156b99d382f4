package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"github.com/couchcryptid/movie-ratings-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// AuditSink persists an intermediate table for inspection.
type AuditSink interface {
	Save(ctx context.Context, table domain.Table) error
}

// NopAudit discards every table.
type NopAudit struct{}

func (NopAudit) Save(context.Context, domain.Table) error { return nil }

// Stage names, used as the stage log key and metric label.
const (
	StageCleanMovies      = "clean_movies"
	StageCleanRatings     = "clean_ratings"
	StageCleanUserRatings = "clean_user_ratings"
	StageMerge            = "merge"
	StageEnrich           = "enrich"
	StageAggregateUsers   = "aggregate_users"
)

// Audit table names, one per audited stage.
const (
	AuditCleanedMovies      = "cleaned_movies"
	AuditCleanedRatings     = "cleaned_movies_with_ratings"
	AuditCleanedUserRatings = "cleaned_user_ratings"
	AuditEnrichedMovies     = "merged_enriched_movies"
	AuditUserAggregates     = "aggregated_user_ratings"
)

// Result is the output of one transform along with per-stage statistics.
type Result struct {
	domain.Outputs
	Stages []domain.StageStat
}

// Orchestrator runs the transform stages in order and hands each stage's
// output to the audit sink.
type Orchestrator struct {
	aliases domain.AliasTable
	audit   AuditSink
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewOrchestrator creates an Orchestrator. A nil audit sink disables auditing.
func NewOrchestrator(aliases domain.AliasTable, audit AuditSink, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Orchestrator {
	if audit == nil {
		audit = NopAudit{}
	}
	return &Orchestrator{
		aliases: aliases,
		audit:   audit,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}
}

// Transform cleans, merges, enriches and aggregates the raw tables. The first
// failing stage aborts the run and no outputs are returned.
func (o *Orchestrator) Transform(ctx context.Context, raw domain.RawTables) (Result, error) {
	var res Result

	movies, err := runStage(ctx, o, &res, StageCleanMovies, raw.Movies.Len(),
		func() ([]domain.Movie, error) { return domain.CleanMovies(raw.Movies) },
		auditAs(AuditCleanedMovies, domain.MoviesTable))
	if err != nil {
		return Result{}, err
	}

	ratings, err := runStage(ctx, o, &res, StageCleanRatings, raw.Ratings.Len(),
		func() ([]domain.ExternalRating, error) { return domain.CleanRatings(raw.Ratings) },
		auditAs(AuditCleanedRatings, domain.ExternalRatingsTable))
	if err != nil {
		return Result{}, err
	}

	userRatings, err := runStage(ctx, o, &res, StageCleanUserRatings, raw.UserRatings.Len(),
		func() ([]domain.UserRating, error) { return domain.CleanUserRatings(raw.UserRatings, o.aliases) },
		auditAs(AuditCleanedUserRatings, domain.UserRatingsTable))
	if err != nil {
		return Result{}, err
	}

	merged, err := runStage(ctx, o, &res, StageMerge, len(movies),
		func() ([]domain.MergedMovie, error) { return domain.MergeMovies(movies, ratings, o.aliases), nil },
		nil)
	if err != nil {
		return Result{}, err
	}

	enriched, err := runStage(ctx, o, &res, StageEnrich, len(merged),
		func() ([]domain.EnrichedMovie, error) { return domain.EnrichMovies(merged, userRatings), nil },
		auditAs(AuditEnrichedMovies, domain.EnrichedMoviesTable))
	if err != nil {
		return Result{}, err
	}

	aggregates, err := runStage(ctx, o, &res, StageAggregateUsers, len(userRatings),
		func() ([]domain.UserAggregate, error) { return domain.AggregateUserRatings(userRatings), nil },
		auditAs(AuditUserAggregates, domain.UserAggregatesTable))
	if err != nil {
		return Result{}, err
	}

	res.Outputs = domain.Outputs{
		Movies:         enriched,
		UserRatings:    userRatings,
		UserAggregates: aggregates,
	}
	return res, nil
}

func auditAs[T any](name string, render func(string, []T) domain.Table) func([]T) domain.Table {
	return func(rows []T) domain.Table { return render(name, rows) }
}

// runStage times fn, records its row counts and passes the rendered output to
// the audit sink. A nil render skips auditing.
func runStage[T any](ctx context.Context, o *Orchestrator, res *Result, stage string, rowsIn int, fn func() ([]T, error), render func([]T) domain.Table) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := o.clock.Now()
	out, err := fn()
	elapsed := o.clock.Since(start)
	o.metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		o.metrics.StageErrors.WithLabelValues(stage).Inc()
		o.logger.Error("stage failed", "stage", stage, "rows_in", rowsIn, "error", err)
		return nil, fmt.Errorf("%s: %w", stageLabel(stage), err)
	}

	o.metrics.StageRows.WithLabelValues(stage, "in").Set(float64(rowsIn))
	o.metrics.StageRows.WithLabelValues(stage, "out").Set(float64(len(out)))
	res.Stages = append(res.Stages, domain.StageStat{Stage: stage, RowsIn: rowsIn, RowsOut: len(out), Duration: elapsed})
	o.logger.Info("stage complete",
		"stage", stage,
		"rows_in", rowsIn,
		"rows_out", len(out),
		"duration", elapsed.Round(time.Microsecond),
	)

	if render != nil {
		tbl := render(out)
		if err := o.audit.Save(ctx, tbl); err != nil {
			o.metrics.StageErrors.WithLabelValues(stage).Inc()
			o.logger.Error("audit save failed", "stage", stage, "table", tbl.Name, "error", err)
			return nil, fmt.Errorf("audit %s: %w", tbl.Name, err)
		}
	}
	return out, nil
}

func stageLabel(stage string) string {
	switch stage {
	case StageCleanMovies:
		return "clean movies"
	case StageCleanRatings:
		return "clean ratings"
	case StageCleanUserRatings:
		return "clean user ratings"
	case StageMerge:
		return "merge movies"
	case StageEnrich:
		return "enrich movies"
	case StageAggregateUsers:
		return "aggregate user ratings"
	default:
		return stage
	}
}
