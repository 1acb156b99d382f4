package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/movie-ratings-etl/internal/config"
	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Raw table names handed to the transform.
const (
	TableMovies      = "movies"
	TableRatings     = "movies_with_ratings"
	TableUserRatings = "user_ratings"
)

// Extractor reads the three raw CSV files of a run.
// It implements pipeline.Extractor.
type Extractor struct {
	moviesPath      string
	ratingsPath     string
	userRatingsPath string
	logger          *slog.Logger
	clock           clockwork.Clock
}

// NewExtractor creates an Extractor for the configured raw files.
func NewExtractor(cfg *config.Config, logger *slog.Logger, clock clockwork.Clock) *Extractor {
	return &Extractor{
		moviesPath:      cfg.MoviesPath(),
		ratingsPath:     cfg.RatingsPath(),
		userRatingsPath: cfg.UserRatingsPath(),
		logger:          logger,
		clock:           clock,
	}
}

// Extract reads all three files. Any unreadable file fails the extract.
func (e *Extractor) Extract(ctx context.Context) (domain.RawTables, error) {
	var out domain.RawTables
	files := []struct {
		name string
		path string
		dst  *domain.RawTable
	}{
		{TableMovies, e.moviesPath, &out.Movies},
		{TableRatings, e.ratingsPath, &out.Ratings},
		{TableUserRatings, e.userRatingsPath, &out.UserRatings},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return domain.RawTables{}, err
		}
		start := e.clock.Now()
		t, enc, err := readFile(f.name, f.path)
		if err != nil {
			return domain.RawTables{}, err
		}
		*f.dst = t
		e.logger.Info("extracted raw table",
			"table", f.name,
			"path", f.path,
			"encoding", enc,
			"rows", t.Len(),
			"columns", len(t.Columns),
			"duration", e.clock.Since(start),
		)
	}
	return out, nil
}

// ReadFile reads a CSV file into a RawTable.
func ReadFile(name, path string) (domain.RawTable, error) {
	t, _, err := readFile(name, path)
	return t, err
}

func readFile(name, path string) (domain.RawTable, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RawTable{}, "", fmt.Errorf("read %s: %w", name, err)
	}
	decoded, enc, err := decode(data)
	if err != nil {
		return domain.RawTable{}, "", fmt.Errorf("read %s: %w", name, err)
	}
	t, err := ReadTable(name, bytes.NewReader(decoded))
	if err != nil {
		return domain.RawTable{}, "", err
	}
	return t, enc, nil
}

// ReadTable parses UTF-8 CSV with a header row. Short rows are padded with
// missing values; rows longer than the header are rejected.
func ReadTable(name string, r io.Reader) (domain.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.RawTable{}, fmt.Errorf("read %s: empty file, no header row", name)
		}
		return domain.RawTable{}, fmt.Errorf("read %s header: %w", name, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	t := domain.RawTable{Name: name, Columns: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("read %s: %w", name, err)
		}
		if len(row) > len(header) {
			line, _ := cr.FieldPos(0)
			return domain.RawTable{}, fmt.Errorf("read %s line %d: %d fields, header has %d", name, line, len(row), len(header))
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
