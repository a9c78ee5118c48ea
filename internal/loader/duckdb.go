package loader

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"trip-motif-lab/internal/domain"
)

// Reader reads sample tables from CSV or Parquet files through DuckDB.
type Reader struct {
	db *sql.DB
}

// NewReader opens an in-memory DuckDB database.
func NewReader() (*Reader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	return &Reader{db: db}, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// sourceQuery returns the query that scans path. Parquet files are read with
// read_parquet, anything else with read_csv_auto.
func sourceQuery(path string) string {
	literal := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return "SELECT * FROM read_parquet(" + literal + ")"
	default:
		return "SELECT * FROM read_csv_auto(" + literal + ", header = true)"
	}
}

// ReadTable reads every row of the file at path.
func (r *Reader) ReadTable(ctx context.Context, path string) (Table, error) {
	rows, err := r.db.QueryContext(ctx, sourceQuery(path))
	if err != nil {
		return Table{}, fmt.Errorf("query %s: %w", path, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Table{}, fmt.Errorf("columns of %s: %w", path, err)
	}

	t := Table{Columns: columns}
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Table{}, fmt.Errorf("scan %s: %w", path, err)
		}
		t.Rows = append(t.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("iterate %s: %w", path, err)
	}
	return t, nil
}

// Load reads the file at path and groups its rows into trips.
func (r *Reader) Load(ctx context.Context, path string, opts Options) ([]*domain.Trip, error) {
	t, err := r.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	return FromTable(t, opts)
}
