package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
)

// AuditWriter saves each table as <dir>/<name>.csv, replacing any previous
// file. It implements pipeline.AuditSink.
type AuditWriter struct {
	dir    string
	logger *slog.Logger
}

// NewAuditWriter creates the audit directory if needed.
func NewAuditWriter(dir string, logger *slog.Logger) (*AuditWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &AuditWriter{dir: dir, logger: logger}, nil
}

// Path returns the file a table of the given name is written to.
func (w *AuditWriter) Path(name string) string {
	return filepath.Join(w.dir, name+".csv")
}

// Save writes the table to a temporary file and renames it into place, so
// readers never observe a partial file.
func (w *AuditWriter) Save(ctx context.Context, t domain.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(w.dir, "."+t.Name+"-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := WriteTable(tmp, t); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.Name, err)
	}
	path := w.Path(t.Name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", t.Name, err)
	}
	w.logger.Debug("audit table saved", "table", t.Name, "path", path, "rows", t.Len())
	return nil
}

// WriteTable writes t as CSV with a header row.
func WriteTable(w io.Writer, t domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write %s header: %w", t.Name, err)
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j, v := range row {
			rec[j] = domain.FormatCell(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", t.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write %s: %w", t.Name, err)
	}
	return nil
}
