package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/movie-ratings-etl/internal/adapter/http"
	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"github.com/couchcryptid/movie-ratings-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRuns struct {
	readyErr error
	status   *domain.RunStatus
}

func (m *mockRuns) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockRuns) Status() (domain.RunStatus, bool) {
	if m.status == nil {
		return domain.RunStatus{}, false
	}
	return *m.status, true
}

func newTestServer(runs *mockRuns) *httpadapter.Server {
	metrics := observability.NewMetricsForTesting()
	metrics.RunsTotal.WithLabelValues(string(domain.OutcomeSuccess)).Inc()
	return httpadapter.NewServer(":0", runs, metrics.Gatherer, slog.Default())
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(&mockRuns{readyErr: errors.New("no run yet")}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code, "liveness does not depend on runs")
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name     string
		readyErr error
		want     int
	}{
		{"ready", nil, http.StatusOK},
		{"not ready", errors.New("pipeline has not completed a run yet"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(&mockRuns{readyErr: tt.readyErr}), "/readyz")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestStatus(t *testing.T) {
	t.Run("no runs", func(t *testing.T) {
		rec := get(t, newTestServer(&mockRuns{}), "/status")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("last run", func(t *testing.T) {
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		st := &domain.RunStatus{
			RunID:      "run-1",
			StartedAt:  started,
			FinishedAt: started.Add(time.Second),
			Outcome:    domain.OutcomeFailure,
			Error:      "extract: boom",
			Stages:     []domain.StageStat{{Stage: "clean_movies", RowsIn: 3, RowsOut: 2, Duration: time.Millisecond}},
		}
		rec := get(t, newTestServer(&mockRuns{status: st}), "/status")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var got domain.RunStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, *st, got)
	})
}

func TestMetricsEndpointServesGatherer(t *testing.T) {
	rec := get(t, newTestServer(&mockRuns{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `movie_etl_runs_total{outcome="success"} 1`)
	assert.NotContains(t, rec.Body.String(), "go_goroutines", "testing registry has no runtime collectors")
}
