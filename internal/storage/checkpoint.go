package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
)

// Pipeline stages that produce checkpoints.
const (
	StageRadius          = "radius"
	StageMotifs          = "motifs"
	StagePrunedMotifs    = "pruned_motifs"
	StageClusters        = "clusters"
	StageClustersSummary = "clusters_summary"
)

// CheckpointStore persists stage results so that a run can be resumed.
type CheckpointStore interface {
	// Save stores value for (runID, stage), replacing an earlier checkpoint.
	Save(ctx context.Context, runID, stage string, value any) error

	// Load decodes the checkpoint of (runID, stage) into into.
	// Returns ErrNotFound if no checkpoint has been saved yet.
	Load(ctx context.Context, runID, stage string, into any) error
}

// CheckpointKey returns the key of a stage checkpoint.
func CheckpointKey(runID, stage string) string {
	return runID + "|" + stage
}

// EncodeCheckpoint serializes a checkpoint value.
func EncodeCheckpoint(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCheckpoint deserializes a checkpoint value into into.
func DecodeCheckpoint(data []byte, into any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(into); err != nil {
		return fmt.Errorf("decode checkpoint: %w", err)
	}
	return nil
}
