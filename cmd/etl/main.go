package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/movie-ratings-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/movie-ratings-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/movie-ratings-etl/internal/adapter/kafka"
	"github.com/couchcryptid/movie-ratings-etl/internal/adapter/postgres"
	redisadapter "github.com/couchcryptid/movie-ratings-etl/internal/adapter/redis"
	"github.com/couchcryptid/movie-ratings-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/movie-ratings-etl/internal/config"
	"github.com/couchcryptid/movie-ratings-etl/internal/observability"
	"github.com/couchcryptid/movie-ratings-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger, metrics)
	stop()
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	aliases, err := config.LoadAliases(cfg.AliasFile)
	if err != nil {
		return err
	}
	clock := clockwork.NewRealClock()

	var audit pipeline.AuditSink
	if cfg.AuditDir != "" {
		w, err := csvfile.NewAuditWriter(cfg.AuditDir, logger)
		if err != nil {
			return err
		}
		audit = w
	} else {
		logger.Info("stage audit disabled")
	}

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var loaders []pipeline.Loader
	switch cfg.LoadTarget {
	case config.TargetPostgres:
		l, err := postgres.NewLoader(ctx, cfg.DatabaseURL, cfg.DBSchema, logger)
		if err != nil {
			return err
		}
		closers = append(closers, l.Close)
		loaders = append(loaders, l)
	case config.TargetSQLite:
		l, err := sqlite.NewLoader(cfg.SQLitePath, cfg.LoadBatchSize, logger)
		if err != nil {
			return err
		}
		closers = append(closers, closeWith(logger, "sqlite", l.Close))
		loaders = append(loaders, l)
	default:
		logger.Info("load disabled", "target", cfg.LoadTarget)
	}

	var publishers []pipeline.Publisher
	if cfg.KafkaEnabled {
		p := kafkaadapter.NewPublisher(cfg, logger)
		closers = append(closers, closeWith(logger, "kafka publisher", p.Close))
		publishers = append(publishers, p)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic_prefix", cfg.KafkaTopicPrefix)
	}
	if cfg.RedisAddr != "" {
		c, err := redisadapter.NewRankingCache(ctx, cfg.RedisAddr, logger)
		if err != nil {
			return err
		}
		closers = append(closers, closeWith(logger, "redis", c.Close))
		publishers = append(publishers, c)
	}

	orch := pipeline.NewOrchestrator(aliases, audit, logger, metrics, clock)
	runner := pipeline.NewRunner(csvfile.NewExtractor(cfg, logger, clock), orch, loaders, publishers, cfg.TablePrefix, logger, metrics, clock)

	if !cfg.Scheduled() {
		_, runErr := runner.RunOnce(ctx)
		if cfg.PushgatewayURL != "" {
			if err := metrics.Push(ctx, cfg.PushgatewayURL); err != nil {
				logger.Warn("metrics push failed", "error", err)
			}
		}
		return runErr
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, metrics.Gatherer, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := runner.Run(ctx, cfg.RunInterval); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func closeWith(logger *slog.Logger, what string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			logger.Error(what+" close error", "error", err)
		}
	}
}
