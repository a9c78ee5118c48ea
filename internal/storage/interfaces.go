package storage

import (
	"context"

	"trip-motif-lab/internal/domain"
)

// TripStore provides access to the trip corpus.
type TripStore interface {
	// InsertBulk adds multiple trips. Fails entire batch on any duplicate trip id.
	InsertBulk(ctx context.Context, trips []*domain.Trip) error

	// GetByID retrieves a trip by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tripID string) (*domain.Trip, error)

	// ListIDs returns all trip IDs, ordered ASC.
	ListIDs(ctx context.Context) ([]string, error)

	// GetAll retrieves every trip, ordered by trip ID ASC.
	GetAll(ctx context.Context) ([]*domain.Trip, error)
}

// RunStore provides access to pipeline run records.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.Run) error

	// Finish records the final status, radius, counts, error and finish time of a run.
	// Returns ErrNotFound if the run does not exist.
	Finish(ctx context.Context, r *domain.Run) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.Run, error)

	// List returns all runs, most recent first.
	List(ctx context.Context) ([]*domain.Run, error)
}

// MotifStore provides access to motifs produced by a run.
// The full motif list and the pruned list are stored as separate sets.
type MotifStore interface {
	// InsertBulk adds motifs of one set in order. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, runID string, motifs []domain.Motif, pruned bool) error

	// GetByRun retrieves one set of motifs in insertion order.
	GetByRun(ctx context.Context, runID string, prunedOnly bool) ([]domain.Motif, error)

	// GetByID retrieves a motif of the full set. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID, motifID string) (*domain.Motif, error)
}

// ClusterStore provides access to the clusters of a run and their summaries.
type ClusterStore interface {
	// InsertBulk adds clusters with their summaries; both slices are parallel.
	InsertBulk(ctx context.Context, runID string, clusters []domain.Cluster, summaries []domain.ClusterSummary) error

	// GetByRun retrieves clusters and summaries ordered by cluster index.
	GetByRun(ctx context.Context, runID string) ([]domain.Cluster, []domain.ClusterSummary, error)
}
