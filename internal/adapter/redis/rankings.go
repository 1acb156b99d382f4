// Package redis publishes dashboard rankings derived from a run's outputs as
// Redis sorted sets.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Ranking keys. Scores sort ascending; dashboards read top-rated and popular
// with ZREVRANGE and harsh critics with ZRANGE.
const (
	KeyTopMovies     = "rank:movies:top"     // movie_id scored by external rating
	KeyPopularMovies = "rank:movies:popular" // movie_id scored by power-user rating count
	KeyHarshUsers    = "rank:users:harsh"    // user_id scored by average rating
	KeyLastRun       = "rank:last_run_id"
)

// RankingCache replaces the ranking sets after each run. It implements
// pipeline.Publisher.
type RankingCache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewRankingCache connects to addr and verifies the connection.
func NewRankingCache(ctx context.Context, addr string, logger *slog.Logger) (*RankingCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RankingCache{rdb: rdb, logger: logger}, nil
}

func (c *RankingCache) Name() string { return "redis" }

// Publish replaces every ranking set in one MULTI/EXEC so readers never see a
// mix of two runs.
func (c *RankingCache) Publish(ctx context.Context, runID string, out domain.Outputs) error {
	sets := rankings(out)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range []string{KeyTopMovies, KeyPopularMovies, KeyHarshUsers} {
			pipe.Del(ctx, key)
			if members := sets[key]; len(members) > 0 {
				pipe.ZAdd(ctx, key, members...)
			}
		}
		pipe.Set(ctx, KeyLastRun, runID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish rankings: %w", err)
	}
	c.logger.Info("rankings published",
		"top_movies", len(sets[KeyTopMovies]),
		"popular_movies", len(sets[KeyPopularMovies]),
		"users", len(sets[KeyHarshUsers]),
	)
	return nil
}

// Close closes the client.
func (c *RankingCache) Close() error {
	return c.rdb.Close()
}

// rankings derives the sorted-set members of each ranking key.
func rankings(out domain.Outputs) map[string][]redis.Z {
	top := make([]redis.Z, 0, len(out.Movies))
	popular := make([]redis.Z, 0, len(out.Movies))
	for _, m := range out.Movies {
		top = append(top, redis.Z{Score: m.Rating, Member: m.ID})
		if m.RatingsCount != nil {
			popular = append(popular, redis.Z{Score: float64(*m.RatingsCount), Member: m.ID})
		}
	}

	users := make([]redis.Z, 0, len(out.UserAggregates))
	for _, u := range out.UserAggregates {
		users = append(users, redis.Z{Score: u.UserAverageRating, Member: strconv.Itoa(u.UserID)})
	}

	return map[string][]redis.Z{
		KeyTopMovies:     top,
		KeyPopularMovies: popular,
		KeyHarshUsers:    users,
	}
}
