package orchestrator

import "trip-motif-lab/internal/motif"

// Event statuses.
const (
	EventPhaseStarted   = "phase_started"
	EventPhaseCompleted = "phase_completed"
	EventRound          = "round"
	EventRunCompleted   = "run_completed"
	EventRunFailed      = "run_failed"
)

// Event reports pipeline progress.
type Event struct {
	RunID  string            `json:"run_id"`
	Phase  string            `json:"phase,omitempty"`
	Status string            `json:"status"`
	Round  *motif.RoundStats `json:"round,omitempty"`
	Error  string            `json:"error,omitempty"`
	Time   int64             `json:"time"` // Unix ms
}
