// Package sqlite loads output tables into a local SQLite file through gorm,
// for development runs without a Postgres server.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Loader replaces tables in a SQLite database. It implements pipeline.Loader.
type Loader struct {
	db        *gorm.DB
	batchSize int
	logger    *slog.Logger
}

// NewLoader opens (creating if needed) the database at path.
func NewLoader(path string, batchSize int, logger *slog.Logger) (*Loader, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Loader{db: db, batchSize: batchSize, logger: logger}, nil
}

func (l *Loader) Name() string { return "sqlite" }

// Load drops and recreates the table, then inserts its rows in batches, all in
// one transaction.
func (l *Loader) Load(ctx context.Context, t domain.Table) error {
	records := rowMaps(t)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(t.Name)).Error; err != nil {
			return fmt.Errorf("drop %s: %w", t.Name, err)
		}
		if err := tx.Exec(createTableSQL(t)).Error; err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Table(t.Name).CreateInBatches(records, l.batchSize).Error; err != nil {
			return fmt.Errorf("insert %s: %w", t.Name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.logger.Debug("sqlite table replaced", "table", t.Name, "rows", len(records))
	return nil
}

// Close closes the underlying database handle.
func (l *Loader) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func createTableSQL(t domain.Table) string {
	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		defs = append(defs, quoteIdent(c.Name)+" "+sqlType(c.Type))
	}
	if len(t.Key) > 0 {
		keys := make([]string, len(t.Key))
		for i, k := range t.Key {
			keys[i] = quoteIdent(k)
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}
	return "CREATE TABLE " + quoteIdent(t.Name) + " (" + strings.Join(defs, ", ") + ")"
}

func sqlType(c domain.ColumnType) string {
	switch c {
	case domain.TypeInteger:
		return "INTEGER"
	case domain.TypeReal:
		return "REAL"
	default:
		// Lists are stored as JSON text.
		return "TEXT"
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// rowMaps converts rows to the column-keyed maps gorm inserts from.
func rowMaps(t domain.Table) []map[string]any {
	names := t.ColumnNames()
	out := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]any, len(names))
		for j, name := range names {
			v := row[j]
			if list, ok := v.([]string); ok {
				v = domain.FormatCell(list)
			}
			m[name] = v
		}
		out[i] = m
	}
	return out
}
