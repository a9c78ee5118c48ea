package memory

import (
	"context"
	"sync"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

type motifSetKey struct {
	runID  string
	pruned bool
}

// MotifStore is an in-memory implementation of storage.MotifStore.
type MotifStore struct {
	mu   sync.RWMutex
	data map[motifSetKey][]domain.Motif // insertion order per set
}

// NewMotifStore creates a new in-memory motif store.
func NewMotifStore() *MotifStore {
	return &MotifStore{
		data: make(map[motifSetKey][]domain.Motif),
	}
}

// InsertBulk adds motifs of one set in order. Fails entire batch on any duplicate.
func (s *MotifStore) InsertBulk(_ context.Context, runID string, motifs []domain.Motif, pruned bool) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := motifSetKey{runID: runID, pruned: pruned}
	seen := make(map[string]struct{}, len(s.data[key])+len(motifs))
	for _, m := range s.data[key] {
		seen[m.ID] = struct{}{}
	}
	for _, m := range motifs {
		if m.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[m.ID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[m.ID] = struct{}{}
	}

	for _, m := range motifs {
		s.data[key] = append(s.data[key], copyMotif(m))
	}
	return nil
}

// GetByRun retrieves one set of motifs in insertion order.
func (s *MotifStore) GetByRun(_ context.Context, runID string, prunedOnly bool) ([]domain.Motif, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[motifSetKey{runID: runID, pruned: prunedOnly}]
	result := make([]domain.Motif, len(stored))
	for i, m := range stored {
		result[i] = copyMotif(m)
	}
	return result, nil
}

// GetByID retrieves a motif of the full set. Returns ErrNotFound if not exists.
func (s *MotifStore) GetByID(_ context.Context, runID, motifID string) (*domain.Motif, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.data[motifSetKey{runID: runID}] {
		if m.ID == motifID {
			c := copyMotif(m)
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func copyWord(w domain.Word) domain.Word {
	w.Pattern = append(domain.Pattern(nil), w.Pattern...)
	w.RunLengths = append([]int(nil), w.RunLengths...)
	return w
}

func copyMotif(m domain.Motif) domain.Motif {
	m.Pattern = append(domain.Pattern(nil), m.Pattern...)
	m.Center = copyWord(m.Center)
	members := make([]domain.Word, len(m.Members))
	for i, w := range m.Members {
		members[i] = copyWord(w)
	}
	m.Members = members
	if m.MDL != nil {
		v := *m.MDL
		m.MDL = &v
	}
	if m.Description != nil {
		d := domain.Description{
			Lat: append([]string(nil), m.Description.Lat...),
			Lon: append([]string(nil), m.Description.Lon...),
		}
		m.Description = &d
	}
	return m
}

// Verify interface compliance at compile time.
var _ storage.MotifStore = (*MotifStore)(nil)
