package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, status, radius, config,
	trips, rounds, motifs, pruned, clusters,
	error, started_at, finished_at
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	config := r.ConfigJSON
	if len(config) == 0 {
		config = []byte("{}")
	}

	query := `
		INSERT INTO runs (` + runColumns + `) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, string(r.Status), r.Radius, config,
		r.Counts.Trips, r.Counts.Rounds, r.Counts.Motifs, r.Counts.Pruned, r.Counts.Clusters,
		r.Error, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish records the final state of a run. Returns ErrNotFound if not exists.
func (s *RunStore) Finish(ctx context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE runs SET
			status = $2, radius = $3,
			trips = $4, rounds = $5, motifs = $6, pruned = $7, clusters = $8,
			error = $9, finished_at = $10
		WHERE run_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		r.RunID, string(r.Status), r.Radius,
		r.Counts.Trips, r.Counts.Rounds, r.Counts.Motifs, r.Counts.Pruned, r.Counts.Clusters,
		r.Error, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// List returns all runs, most recent first.
func (s *RunStore) List(ctx context.Context) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, run_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var r domain.Run
	var status string
	err := row.Scan(
		&r.RunID, &status, &r.Radius, &r.ConfigJSON,
		&r.Counts.Trips, &r.Counts.Rounds, &r.Counts.Motifs, &r.Counts.Pruned, &r.Counts.Clusters,
		&r.Error, &r.StartedAt, &r.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = domain.RunStatus(status)
	return &r, nil
}
