package observability

import (
	"log/slog"

	"github.com/couchcryptid/movie-ratings-etl/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT. Every
// record carries the service name and environment.
func NewLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", "movie-ratings-etl", "env", cfg.Environment)
}
