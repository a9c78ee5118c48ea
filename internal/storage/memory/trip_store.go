package memory

import (
	"context"
	"sort"
	"sync"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

// TripStore is an in-memory implementation of storage.TripStore.
type TripStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trip // keyed by trip id
}

// NewTripStore creates a new in-memory trip store.
func NewTripStore() *TripStore {
	return &TripStore{
		data: make(map[string]*domain.Trip),
	}
}

// InsertBulk adds multiple trips. Fails entire batch on any duplicate trip id.
func (s *TripStore) InsertBulk(_ context.Context, trips []*domain.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check all for duplicates first (atomic behavior)
	seen := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, dup := seen[t.ID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[t.ID] = struct{}{}
	}

	for _, t := range trips {
		s.data[t.ID] = copyTrip(t)
	}
	return nil
}

// GetByID retrieves a trip by its ID. Returns ErrNotFound if not exists.
func (s *TripStore) GetByID(_ context.Context, tripID string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tripID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyTrip(t), nil
}

// ListIDs returns all trip IDs, ordered ASC.
func (s *TripStore) ListIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetAll retrieves every trip, ordered by trip ID ASC.
func (s *TripStore) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	ids, _ := s.ListIDs(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trip, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.data[id]; ok {
			result = append(result, copyTrip(t))
		}
	}
	return result, nil
}

func copyTrip(t *domain.Trip) *domain.Trip {
	c := &domain.Trip{
		ID:         t.ID,
		Dimensions: make([][]float64, len(t.Dimensions)),
		Timestamps: append([]int64(nil), t.Timestamps...),
	}
	for d, values := range t.Dimensions {
		c.Dimensions[d] = append([]float64(nil), values...)
	}
	if t.Labels != nil {
		c.Labels = make([][]string, len(t.Labels))
		for i, l := range t.Labels {
			c.Labels[i] = append([]string(nil), l...)
		}
	}
	return c
}

// Verify interface compliance at compile time.
var _ storage.TripStore = (*TripStore)(nil)
