package memory

import (
	"context"
	"sync"

	"trip-motif-lab/internal/storage"
)

// CheckpointStore is an in-memory implementation of storage.CheckpointStore.
// Values are stored encoded so that loaded checkpoints never alias saved ones.
type CheckpointStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		data: make(map[string][]byte),
	}
}

// Save stores value for (runID, stage).
func (s *CheckpointStore) Save(_ context.Context, runID, stage string, value any) error {
	if runID == "" || stage == "" {
		return storage.ErrInvalidInput
	}

	data, err := storage.EncodeCheckpoint(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[storage.CheckpointKey(runID, stage)] = data
	return nil
}

// Load decodes the checkpoint of (runID, stage). Returns ErrNotFound if absent.
func (s *CheckpointStore) Load(_ context.Context, runID, stage string, into any) error {
	s.mu.RLock()
	data, exists := s.data[storage.CheckpointKey(runID, stage)]
	s.mu.RUnlock()

	if !exists {
		return storage.ErrNotFound
	}
	return storage.DecodeCheckpoint(data, into)
}

// Verify interface compliance at compile time.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)
