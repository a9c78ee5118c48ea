package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

// ClusterStore implements storage.ClusterStore using PostgreSQL.
type ClusterStore struct {
	pool *Pool
}

// NewClusterStore creates a new ClusterStore.
func NewClusterStore(pool *Pool) *ClusterStore {
	return &ClusterStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClusterStore = (*ClusterStore)(nil)

// InsertBulk adds clusters with their summaries atomically.
func (s *ClusterStore) InsertBulk(ctx context.Context, runID string, clusters []domain.Cluster, summaries []domain.ClusterSummary) error {
	if runID == "" || len(clusters) != len(summaries) {
		return storage.ErrInvalidInput
	}
	if len(clusters) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO clusters (
			run_id, cluster_index, representative, motif_ids,
			n_members, lat_maneuvers, lon_maneuvers
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i, c := range clusters {
		sum := summaries[i]
		rep, err := json.Marshal(c.Representative)
		if err != nil {
			return fmt.Errorf("marshal representative: %w", err)
		}
		lat, err := json.Marshal(nonNilShares(sum.Lat))
		if err != nil {
			return fmt.Errorf("marshal lat maneuvers: %w", err)
		}
		lon, err := json.Marshal(nonNilShares(sum.Lon))
		if err != nil {
			return fmt.Errorf("marshal lon maneuvers: %w", err)
		}
		ids := c.MotifIDs
		if ids == nil {
			ids = []string{}
		}

		_, err = tx.Exec(ctx, query,
			runID, c.Index, rep, ids,
			sum.NMembers, lat, lon,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isMissingParentError(err) {
				return fmt.Errorf("run %s: %w", runID, storage.ErrNotFound)
			}
			return fmt.Errorf("insert cluster in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves clusters and summaries ordered by cluster index.
func (s *ClusterStore) GetByRun(ctx context.Context, runID string) ([]domain.Cluster, []domain.ClusterSummary, error) {
	query := `
		SELECT cluster_index, representative, motif_ids, n_members, lat_maneuvers, lon_maneuvers
		FROM clusters
		WHERE run_id = $1
		ORDER BY cluster_index ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("query clusters by run: %w", err)
	}
	defer rows.Close()

	var clusters []domain.Cluster
	var summaries []domain.ClusterSummary
	for rows.Next() {
		var c domain.Cluster
		var sum domain.ClusterSummary
		var rep, lat, lon []byte

		if err := rows.Scan(&c.Index, &rep, &c.MotifIDs, &sum.NMembers, &lat, &lon); err != nil {
			return nil, nil, fmt.Errorf("scan cluster: %w", err)
		}
		if err := json.Unmarshal(rep, &c.Representative); err != nil {
			return nil, nil, fmt.Errorf("unmarshal representative: %w", err)
		}
		if err := json.Unmarshal(lat, &sum.Lat); err != nil {
			return nil, nil, fmt.Errorf("unmarshal lat maneuvers: %w", err)
		}
		if err := json.Unmarshal(lon, &sum.Lon); err != nil {
			return nil, nil, fmt.Errorf("unmarshal lon maneuvers: %w", err)
		}
		sum.ClusterIndex = c.Index

		clusters = append(clusters, c)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate clusters: %w", err)
	}
	return clusters, summaries, nil
}

func nonNilShares(s []domain.ManeuverShare) []domain.ManeuverShare {
	if s == nil {
		return []domain.ManeuverShare{}
	}
	return s
}
