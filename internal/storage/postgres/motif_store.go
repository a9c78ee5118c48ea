package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

// MotifStore implements storage.MotifStore using PostgreSQL.
// Words are stored as JSONB; the pattern as TEXT[].
type MotifStore struct {
	pool *Pool
}

// NewMotifStore creates a new MotifStore.
func NewMotifStore(pool *Pool) *MotifStore {
	return &MotifStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MotifStore = (*MotifStore)(nil)

const motifColumns = `
	motif_id, pattern, word_length, radius,
	center, members, mean_distance, mdl, description
`

// InsertBulk adds motifs of one set atomically. Fails entire batch on any duplicate.
func (s *MotifStore) InsertBulk(ctx context.Context, runID string, motifs []domain.Motif, pruned bool) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(motifs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Continue ordinals after motifs already stored in this set
	var offset int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM motifs WHERE run_id = $1 AND pruned = $2`, runID, pruned,
	).Scan(&offset)
	if err != nil {
		return fmt.Errorf("count motifs: %w", err)
	}

	query := `
		INSERT INTO motifs (
			run_id, pruned, ordinal,` + motifColumns + `
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9, $10, $11, $12
		)
	`

	for i, m := range motifs {
		center, err := json.Marshal(m.Center)
		if err != nil {
			return fmt.Errorf("marshal center: %w", err)
		}
		members, err := json.Marshal(m.Members)
		if err != nil {
			return fmt.Errorf("marshal members: %w", err)
		}
		var description any
		if m.Description != nil {
			b, err := json.Marshal(m.Description)
			if err != nil {
				return fmt.Errorf("marshal description: %w", err)
			}
			description = b
		}

		_, err = tx.Exec(ctx, query,
			runID, pruned, offset+i,
			m.ID, []string(m.Pattern), m.WordLength, m.Radius,
			center, members, m.MeanDistance, m.MDL, description,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isMissingParentError(err) {
				return fmt.Errorf("run %s: %w", runID, storage.ErrNotFound)
			}
			return fmt.Errorf("insert motif in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves one set of motifs in insertion order.
func (s *MotifStore) GetByRun(ctx context.Context, runID string, prunedOnly bool) ([]domain.Motif, error) {
	query := `
		SELECT ` + motifColumns + `
		FROM motifs
		WHERE run_id = $1 AND pruned = $2
		ORDER BY ordinal ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, prunedOnly)
	if err != nil {
		return nil, fmt.Errorf("query motifs by run: %w", err)
	}
	defer rows.Close()

	var motifs []domain.Motif
	for rows.Next() {
		m, err := scanMotif(rows)
		if err != nil {
			return nil, err
		}
		motifs = append(motifs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate motifs: %w", err)
	}
	return motifs, nil
}

// GetByID retrieves a motif of the full set. Returns ErrNotFound if not exists.
func (s *MotifStore) GetByID(ctx context.Context, runID, motifID string) (*domain.Motif, error) {
	query := `
		SELECT ` + motifColumns + `
		FROM motifs
		WHERE run_id = $1 AND pruned = FALSE AND motif_id = $2
	`

	m, err := scanMotif(s.pool.QueryRow(ctx, query, runID, motifID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func scanMotif(row pgx.Row) (*domain.Motif, error) {
	var m domain.Motif
	var pattern []string
	var center, members, description []byte

	err := row.Scan(
		&m.ID, &pattern, &m.WordLength, &m.Radius,
		&center, &members, &m.MeanDistance, &m.MDL, &description,
	)
	if err != nil {
		return nil, err
	}

	m.Pattern = domain.Pattern(pattern)
	if err := json.Unmarshal(center, &m.Center); err != nil {
		return nil, fmt.Errorf("unmarshal center: %w", err)
	}
	if err := json.Unmarshal(members, &m.Members); err != nil {
		return nil, fmt.Errorf("unmarshal members: %w", err)
	}
	if description != nil {
		var d domain.Description
		if err := json.Unmarshal(description, &d); err != nil {
			return nil, fmt.Errorf("unmarshal description: %w", err)
		}
		m.Description = &d
	}
	return &m, nil
}
