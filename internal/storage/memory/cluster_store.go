package memory

import (
	"context"
	"sync"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/storage"
)

type clusterSet struct {
	clusters  []domain.Cluster
	summaries []domain.ClusterSummary
}

// ClusterStore is an in-memory implementation of storage.ClusterStore.
type ClusterStore struct {
	mu   sync.RWMutex
	data map[string]clusterSet // keyed by run_id
}

// NewClusterStore creates a new in-memory cluster store.
func NewClusterStore() *ClusterStore {
	return &ClusterStore{
		data: make(map[string]clusterSet),
	}
}

// InsertBulk adds clusters with their summaries. A run's clusters are written once.
func (s *ClusterStore) InsertBulk(_ context.Context, runID string, clusters []domain.Cluster, summaries []domain.ClusterSummary) error {
	if runID == "" || len(clusters) != len(summaries) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	set := clusterSet{
		clusters:  make([]domain.Cluster, len(clusters)),
		summaries: make([]domain.ClusterSummary, len(summaries)),
	}
	for i := range clusters {
		set.clusters[i] = copyCluster(clusters[i])
		set.summaries[i] = copySummary(summaries[i])
	}
	s.data[runID] = set
	return nil
}

// GetByRun retrieves clusters and summaries ordered by cluster index.
func (s *ClusterStore) GetByRun(_ context.Context, runID string) ([]domain.Cluster, []domain.ClusterSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.data[runID]
	clusters := make([]domain.Cluster, len(set.clusters))
	summaries := make([]domain.ClusterSummary, len(set.summaries))
	for i := range set.clusters {
		clusters[i] = copyCluster(set.clusters[i])
		summaries[i] = copySummary(set.summaries[i])
	}
	return clusters, summaries, nil
}

func copyCluster(c domain.Cluster) domain.Cluster {
	rep := make([][]float64, len(c.Representative))
	for i, row := range c.Representative {
		rep[i] = append([]float64(nil), row...)
	}
	c.Representative = rep
	c.MotifIDs = append([]string(nil), c.MotifIDs...)
	return c
}

func copySummary(s domain.ClusterSummary) domain.ClusterSummary {
	s.Lat = append([]domain.ManeuverShare(nil), s.Lat...)
	s.Lon = append([]domain.ManeuverShare(nil), s.Lon...)
	return s
}

// Verify interface compliance at compile time.
var _ storage.ClusterStore = (*ClusterStore)(nil)
