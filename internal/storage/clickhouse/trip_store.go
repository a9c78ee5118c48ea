package clickhouse

import (
	"context"
	"fmt"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

// TripStore implements storage.TripStore using ClickHouse.
// Each sample is one row of trip_samples; dims holds one value per dimension
// and labels one value per label sequence.
type TripStore struct {
	conn *Conn
}

// NewTripStore creates a new TripStore.
func NewTripStore(conn *Conn) *TripStore {
	return &TripStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TripStore = (*TripStore)(nil)

// InsertBulk adds multiple trips. Fails entire batch on any duplicate trip id.
func (s *TripStore) InsertBulk(ctx context.Context, trips []*domain.Trip) error {
	if len(trips) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[t.ID] = struct{}{}
	}

	// MergeTree does not enforce uniqueness; check existing rows
	for _, t := range trips {
		exists, err := s.exists(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trip_samples (
			trip_id, sample_index, timestamp, dims, labels
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trips {
		for i := 0; i < t.Len(); i++ {
			dims := make([]float64, t.NumDims())
			for d := range dims {
				dims[d] = t.Dimensions[d][i]
			}
			labels := make([]string, len(t.Labels))
			for l := range labels {
				labels[l] = t.Labels[l][i]
			}

			if err := batch.Append(t.ID, uint32(i), t.Timestamps[i], dims, labels); err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByID retrieves a trip by its ID. Returns ErrNotFound if not exists.
func (s *TripStore) GetByID(ctx context.Context, tripID string) (*domain.Trip, error) {
	query := `
		SELECT trip_id, sample_index, timestamp, dims, labels
		FROM trip_samples
		WHERE trip_id = ?
		ORDER BY sample_index ASC
	`

	rows, err := s.conn.Query(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("query trip: %w", err)
	}
	defer rows.Close()

	trips, err := scanTrips(rows)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, storage.ErrNotFound
	}
	return trips[0], nil
}

// ListIDs returns all trip IDs, ordered ASC.
func (s *TripStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT trip_id FROM trip_samples ORDER BY trip_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query trip ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan trip id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trip ids: %w", err)
	}
	return ids, nil
}

// GetAll retrieves every trip, ordered by trip ID ASC.
func (s *TripStore) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `
		SELECT trip_id, sample_index, timestamp, dims, labels
		FROM trip_samples
		ORDER BY trip_id ASC, sample_index ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	return scanTrips(rows)
}

// exists checks if any sample of the trip exists.
func (s *TripStore) exists(ctx context.Context, tripID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM trip_samples WHERE trip_id = ?`, tripID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// tripRows accumulates sample rows of one trip in sample-major order.
type tripRows struct {
	id         string
	samples    [][]float64
	timestamps []int64
	labels     [][]string
}

func (r *tripRows) build() (*domain.Trip, error) {
	dimsCount := 0
	if len(r.samples) > 0 {
		dimsCount = len(r.samples[0])
	}
	dims := make([][]float64, dimsCount)
	for d := range dims {
		dims[d] = make([]float64, len(r.samples))
		for i, row := range r.samples {
			if len(row) != dimsCount {
				return nil, fmt.Errorf("trip %s sample %d: %d values, want %d: %w",
					r.id, i, len(row), dimsCount, domain.ErrSizeMismatch)
			}
			dims[d][i] = row[d]
		}
	}

	opts := []domain.TripOption{domain.WithTimestamps(r.timestamps)}
	if len(r.labels) > 0 && len(r.labels[0]) > 0 {
		seqs := make([][]string, len(r.labels[0]))
		for l := range seqs {
			seqs[l] = make([]string, len(r.labels))
			for i, row := range r.labels {
				if len(row) != len(seqs) {
					return nil, fmt.Errorf("trip %s sample %d: %d labels, want %d: %w",
						r.id, i, len(row), len(seqs), domain.ErrSizeMismatch)
				}
				seqs[l][i] = row[l]
			}
		}
		opts = append(opts, domain.WithLabels(seqs...))
	}

	return domain.NewTrip(r.id, dims, opts...)
}

// scanTrips groups rows ordered by (trip_id, sample_index) into trips.
func scanTrips(rows chRows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	var current *tripRows

	flush := func() error {
		if current == nil {
			return nil
		}
		t, err := current.build()
		if err != nil {
			return err
		}
		trips = append(trips, t)
		return nil
	}

	for rows.Next() {
		var (
			id        string
			index     uint32
			timestamp int64
			dims      []float64
			labels    []string
		)
		if err := rows.Scan(&id, &index, &timestamp, &dims, &labels); err != nil {
			return nil, fmt.Errorf("scan trip sample row: %w", err)
		}

		if current == nil || current.id != id {
			if err := flush(); err != nil {
				return nil, err
			}
			current = &tripRows{id: id}
		}
		current.samples = append(current.samples, dims)
		current.timestamps = append(current.timestamps, timestamp)
		current.labels = append(current.labels, labels)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trip sample rows: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return trips, nil
}
