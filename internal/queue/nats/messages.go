package nats

import (
	"encoding/json"

	"trip-motif-lab/internal/domain"
)

// Subject constants
const (
	SubjectRuns         = "tripmd.runs"
	SubjectMotifs       = "tripmd.motifs"
	SubjectPrunedMotifs = "tripmd.motifs.pruned"
	SubjectClusters     = "tripmd.clusters"
)

// Subjects lists every subject the results stream carries.
var Subjects = []string{SubjectRuns, SubjectMotifs, SubjectPrunedMotifs, SubjectClusters}

// RunMsg announces a finished run
type RunMsg struct {
	Run *domain.Run `json:"run"`
}

// MotifBatchMsg carries one motif set of a run
type MotifBatchMsg struct {
	RunID  string         `json:"run_id"`
	Pruned bool           `json:"pruned"`
	Motifs []domain.Motif `json:"motifs"`
}

// ClusterBatchMsg carries the clusters of a run with their summaries
type ClusterBatchMsg struct {
	RunID     string                  `json:"run_id"`
	Clusters  []domain.Cluster        `json:"clusters"`
	Summaries []domain.ClusterSummary `json:"summaries"`
}

// Encode serializes a message to JSON bytes
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeMotifBatch deserializes a MotifBatchMsg from JSON bytes
func DecodeMotifBatch(data []byte) (*MotifBatchMsg, error) {
	var msg MotifBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeClusterBatch deserializes a ClusterBatchMsg from JSON bytes
func DecodeClusterBatch(data []byte) (*ClusterBatchMsg, error) {
	var msg ClusterBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeRun deserializes a RunMsg from JSON bytes
func DecodeRun(data []byte) (*RunMsg, error) {
	var msg RunMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
