package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"github.com/couchcryptid/movie-ratings-etl/internal/observability"
	"github.com/couchcryptid/movie-ratings-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type recordingAudit struct {
	saved  []domain.Table
	failOn string
}

func (a *recordingAudit) Save(_ context.Context, t domain.Table) error {
	if t.Name == a.failOn {
		return errors.New("disk full")
	}
	a.saved = append(a.saved, t)
	return nil
}

func (a *recordingAudit) names() []string {
	out := make([]string, len(a.saved))
	for i, t := range a.saved {
		out[i] = t.Name
	}
	return out
}

// --- fixtures ---

func rawTables() domain.RawTables {
	return domain.RawTables{
		Movies: domain.RawTable{
			Name:    "movies",
			Columns: []string{"movie_id", "movie_title", "genres", "original_language", "image_url", "runtime", "spoken_languages", "year_released"},
			Rows: [][]string{
				{"insomnia-2002", "Insomnia", `["Crime"]`, "en", "", "118", `['English']`, "2002"},
				{"ex-machina-2014", "Ex Machina", `["Drama"]`, "en", "", "108", "[]", "2014"},
				{"ex-machina-2015", "Ex Machina", `["Drama"]`, "en", "", "108", "[]", "2015"},
				{"unrated-1990", "Unrated", "[]", "en", "", "90", "[]", "1990"},
				{"insomnia-2002", "Insomnia", `["Crime"]`, "en", "", "118", "[]", "2002"},
			},
		},
		Ratings: domain.RawTable{
			Name:    "ratings",
			Columns: []string{"id", "name", "date", "minute", "rating"},
			Rows: [][]string{
				{"0", "Insomnia", "2002", "118", "4.5"},
				{"1", "Ex Machina", "2014", "108", "3.9"},
				{"1", "Ex Machina", "2015", "108", "3.95"},
			},
		},
		UserRatings: domain.RawTable{
			Name:    "user_ratings",
			Columns: []string{"movie_id", "rating_val", "user_id"},
			Rows: [][]string{
				{"insomnia-2002", "8", "bob"},
				{"insomnia-2002", "10", "lily"},
				{"ex-machina-2014", "6", "bob"},
				{"", "5", "ann"},
			},
		},
	}
}

func newOrchestrator(audit pipeline.AuditSink, metrics *observability.Metrics) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(domain.DefaultAliases(), audit, slog.Default(), metrics, clockwork.NewFakeClock())
}

// --- tests ---

func TestOrchestrator_Transform(t *testing.T) {
	audit := &recordingAudit{}
	metrics := observability.NewMetricsForTesting()
	o := newOrchestrator(audit, metrics)

	res, err := o.Transform(context.Background(), rawTables())
	require.NoError(t, err)

	require.Len(t, res.Movies, 2)
	insomnia := res.Movies[0]
	assert.Equal(t, "insomnia-2002", insomnia.ID)
	assert.Equal(t, 9.0, insomnia.Rating)
	require.NotNil(t, insomnia.PowerUsersRating)
	assert.Equal(t, 9.0, *insomnia.PowerUsersRating)
	require.NotNil(t, insomnia.RatingsCount)
	assert.Equal(t, 2, *insomnia.RatingsCount)

	exMachina := res.Movies[1]
	assert.Equal(t, "ex-machina-2015", exMachina.ID)
	assert.InDelta(t, 7.9, exMachina.Rating, 1e-9)
	require.NotNil(t, exMachina.RatingsCount)
	assert.Equal(t, 1, *exMachina.RatingsCount)

	assert.Equal(t, []domain.UserRating{
		{MovieID: "ex-machina-2015", UserID: 1, RatingVal: 6},
		{MovieID: "insomnia-2002", UserID: 1, RatingVal: 8},
		{MovieID: "insomnia-2002", UserID: 2, RatingVal: 10},
	}, res.UserRatings)
	assert.Equal(t, []domain.UserAggregate{
		{UserID: 1, UserAverageRating: 7, RatingCount: 2},
		{UserID: 2, UserAverageRating: 10, RatingCount: 1},
	}, res.UserAggregates)

	assert.Equal(t, []string{
		pipeline.AuditCleanedMovies,
		pipeline.AuditCleanedRatings,
		pipeline.AuditCleanedUserRatings,
		pipeline.AuditEnrichedMovies,
		pipeline.AuditUserAggregates,
	}, audit.names())
	assert.Equal(t, 4, audit.saved[0].Len())

	require.Len(t, res.Stages, 6)
	assert.Equal(t, domain.StageStat{Stage: pipeline.StageCleanMovies, RowsIn: 5, RowsOut: 4}, res.Stages[0])
	assert.Equal(t, pipeline.StageMerge, res.Stages[3].Stage)
	assert.Equal(t, 4, res.Stages[3].RowsIn)
	assert.Equal(t, 2, res.Stages[3].RowsOut)
	assert.Equal(t, 2, res.Stages[4].RowsOut)

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.StageRows.WithLabelValues(pipeline.StageCleanMovies, "in")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.StageRows.WithLabelValues(pipeline.StageCleanMovies, "out")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.StageRows.WithLabelValues(pipeline.StageCleanUserRatings, "out")))
}

func TestOrchestrator_Transform_NilAudit(t *testing.T) {
	o := newOrchestrator(nil, observability.NewMetricsForTesting())
	res, err := o.Transform(context.Background(), rawTables())
	require.NoError(t, err)
	assert.Len(t, res.Movies, 2)
}

func TestOrchestrator_Transform_StageErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.RawTables)
		wantMsg string
		stage   string
		target  any
	}{
		{
			name:    "movie parse error",
			mutate:  func(r *domain.RawTables) { r.Movies.Rows[0][5] = "long" },
			wantMsg: "clean movies:",
			stage:   pipeline.StageCleanMovies,
			target:  new(*domain.ParseError),
		},
		{
			name:    "ratings schema error",
			mutate:  func(r *domain.RawTables) { r.Ratings.Columns = []string{"id", "name", "year", "minute", "rating"} },
			wantMsg: "clean ratings:",
			stage:   pipeline.StageCleanRatings,
			target:  new(*domain.SchemaError),
		},
		{
			name:    "user ratings parse error",
			mutate:  func(r *domain.RawTables) { r.UserRatings.Rows[1][1] = "ten" },
			wantMsg: "clean user ratings:",
			stage:   pipeline.StageCleanUserRatings,
			target:  new(*domain.ParseError),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawTables()
			tt.mutate(&raw)
			audit := &recordingAudit{}
			metrics := observability.NewMetricsForTesting()

			res, err := newOrchestrator(audit, metrics).Transform(context.Background(), raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.ErrorAs(t, err, tt.target)
			assert.Empty(t, res.Movies)
			assert.Empty(t, res.UserRatings)
			assert.Empty(t, res.UserAggregates)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StageErrors.WithLabelValues(tt.stage)))
		})
	}
}

func TestOrchestrator_Transform_AuditFailure(t *testing.T) {
	audit := &recordingAudit{failOn: pipeline.AuditCleanedUserRatings}
	_, err := newOrchestrator(audit, observability.NewMetricsForTesting()).Transform(context.Background(), rawTables())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit cleaned_user_ratings")
	assert.Equal(t, []string{pipeline.AuditCleanedMovies, pipeline.AuditCleanedRatings}, audit.names())
}

func TestOrchestrator_Transform_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newOrchestrator(nil, observability.NewMetricsForTesting()).Transform(ctx, rawTables())
	require.ErrorIs(t, err, context.Canceled)
}

func TestOrchestrator_Transform_DoesNotMutateInput(t *testing.T) {
	raw := rawTables()
	before := rawTables()
	_, err := newOrchestrator(nil, observability.NewMetricsForTesting()).Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, before, raw)
}
