// Package postgres loads output tables into Postgres with replace-on-write
// semantics: each load drops and recreates the table inside one transaction
// and fills it with COPY.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Loader writes tables into one schema. It implements pipeline.Loader.
type Loader struct {
	pool   *pgxpool.Pool
	schema string
	logger *slog.Logger
}

// NewLoader connects to dsn and verifies the connection.
func NewLoader(ctx context.Context, dsn, schema string, logger *slog.Logger) (*Loader, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Loader{pool: pool, schema: schema, logger: logger}, nil
}

func (l *Loader) Name() string { return "postgres" }

// Load replaces schema.table with the rows of t. Readers see either the old
// table or the complete new one.
func (l *Loader) Load(ctx context.Context, t domain.Table) error {
	rows, err := copyRows(t)
	if err != nil {
		return err
	}
	ident := pgx.Identifier{l.schema, t.Name}

	err = pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		for _, stmt := range replaceStatements(l.schema, t) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
			}
		}
		n, err := tx.CopyFrom(ctx, ident, t.ColumnNames(), pgx.CopyFromRows(rows))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Detail != "" {
				return fmt.Errorf("copy into %s: %s (%s)", ident.Sanitize(), pgErr.Detail, pgErr.SQLState())
			}
			return fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy into %s: wrote %d of %d rows", ident.Sanitize(), n, len(rows))
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.logger.Debug("postgres table replaced", "table", ident.Sanitize(), "rows", len(rows))
	return nil
}

// Close releases the connection pool.
func (l *Loader) Close() {
	l.pool.Close()
}

// replaceStatements returns the DDL that recreates the table empty.
func replaceStatements(schema string, t domain.Table) []string {
	return []string{
		"CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{schema}.Sanitize(),
		"DROP TABLE IF EXISTS " + pgx.Identifier{schema, t.Name}.Sanitize(),
		createTableSQL(schema, t),
	}
}

func createTableSQL(schema string, t domain.Table) string {
	keys := make(map[string]bool, len(t.Key))
	for _, k := range t.Key {
		keys[k] = true
	}

	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		def := pgx.Identifier{c.Name}.Sanitize() + " " + sqlType(c.Type)
		if keys[c.Name] {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if len(t.Key) > 0 {
		pks := make([]string, len(t.Key))
		for i, k := range t.Key {
			pks[i] = pgx.Identifier{k}.Sanitize()
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pks, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", pgx.Identifier{schema, t.Name}.Sanitize(), strings.Join(defs, ",\n  "))
}

func sqlType(c domain.ColumnType) string {
	switch c {
	case domain.TypeInteger:
		return "BIGINT"
	case domain.TypeReal:
		return "DOUBLE PRECISION"
	case domain.TypeList:
		return "JSONB"
	default:
		return "TEXT"
	}
}

// copyRows converts table cells to COPY values. Lists are sent as JSON text,
// which the jsonb codec passes through unchanged.
func copyRows(t domain.Table) ([][]any, error) {
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("table %s row %d: %d cells, %d columns", t.Name, i, len(row), len(t.Columns))
		}
		out := make([]any, len(row))
		for j, v := range row {
			if list, ok := v.([]string); ok {
				out[j] = domain.FormatCell(list)
				continue
			}
			out[j] = v
		}
		rows[i] = out
	}
	return rows, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
