package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Load targets.
const (
	TargetNone     = "none"
	TargetPostgres = "postgres"
	TargetSQLite   = "sqlite"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Environment string

	// Extract: raw CSV locations.
	RawDir          string
	MoviesFile      string
	RatingsFile     string
	UserRatingsFile string

	// AuditDir receives a CSV per transform stage. Empty disables auditing.
	AuditDir  string
	AliasFile string

	// Load.
	LoadTarget    string
	DatabaseURL   string
	DBSchema      string
	SQLitePath    string
	TablePrefix   string
	LoadBatchSize int

	// Publish.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaTopicPrefix string
	RedisAddr        string
	PushgatewayURL   string

	// RunInterval > 0 keeps the process running and repeats the batch.
	RunInterval     time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	runInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RUN_INTERVAL", "0s"))
	if err != nil || runInterval < 0 {
		return nil, errors.New("invalid RUN_INTERVAL")
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:     sharedcfg.EnvOrDefault("ENV", "dev"),
		RawDir:          sharedcfg.EnvOrDefault("RAW_DIR", filepath.Join("data", "raw")),
		MoviesFile:      sharedcfg.EnvOrDefault("MOVIES_FILE", "unclean_movies.csv"),
		RatingsFile:     sharedcfg.EnvOrDefault("RATINGS_FILE", "unclean_movies_with_ratings.csv"),
		UserRatingsFile: sharedcfg.EnvOrDefault("USER_RATINGS_FILE", "unclean_user_ratings.csv"),
		AuditDir:        envOrDefaultAllowEmpty("AUDIT_DIR", filepath.Join("data", "processed")),
		AliasFile:       os.Getenv("ALIAS_FILE"),

		LoadTarget:    sharedcfg.EnvOrDefault("LOAD_TARGET", TargetNone),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBSchema:      sharedcfg.EnvOrDefault("DB_SCHEMA", "de_2506_a"),
		SQLitePath:    sharedcfg.EnvOrDefault("SQLITE_PATH", filepath.Join("data", "movies.db")),
		TablePrefix:   envOrDefaultAllowEmpty("TABLE_PREFIX", "rf_"),
		LoadBatchSize: batchSize,

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopicPrefix: sharedcfg.EnvOrDefault("KAFKA_TOPIC_PREFIX", "movie-etl."),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		PushgatewayURL:   os.Getenv("PUSHGATEWAY_URL"),

		RunInterval:     runInterval,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	switch cfg.LoadTarget {
	case TargetNone, TargetSQLite:
	case TargetPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("LOAD_TARGET is postgres but DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("invalid LOAD_TARGET %q", cfg.LoadTarget)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

// MoviesPath returns the full path of the raw movie catalog.
func (c *Config) MoviesPath() string { return filepath.Join(c.RawDir, c.MoviesFile) }

// RatingsPath returns the full path of the raw external ratings catalog.
func (c *Config) RatingsPath() string { return filepath.Join(c.RawDir, c.RatingsFile) }

// UserRatingsPath returns the full path of the raw per-user ratings.
func (c *Config) UserRatingsPath() string { return filepath.Join(c.RawDir, c.UserRatingsFile) }

// Scheduled reports whether the process repeats the batch on RunInterval.
func (c *Config) Scheduled() bool { return c.RunInterval > 0 }

// envOrDefaultAllowEmpty is like EnvOrDefault but treats a variable set to
// the empty string as an explicit value.
func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
