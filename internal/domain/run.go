package domain

// RunStatus represents the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusComplete RunStatus = "COMPLETE"
	RunStatusFailed   RunStatus = "FAILED"
)

// RunCounts summarizes a run's outputs.
type RunCounts struct {
	Trips    int `json:"trips"`
	Rounds   int `json:"rounds"`
	Motifs   int `json:"motifs"`
	Pruned   int `json:"pruned"`
	Clusters int `json:"clusters"`
}

// Run represents one execution of the motif pipeline.
type Run struct {
	RunID      string    `json:"run_id"`
	Status     RunStatus `json:"status"`
	Radius     float64   `json:"radius"`
	ConfigJSON []byte    `json:"config"`
	Counts     RunCounts `json:"counts"`
	Error      string    `json:"error,omitempty"`
	StartedAt  int64     `json:"started_at"`  // Unix ms
	FinishedAt int64     `json:"finished_at"` // Unix ms, 0 while running
}

// ManeuverShare is the fraction of cluster members described by one maneuver string.
type ManeuverShare struct {
	Maneuver string  `json:"maneuver"`
	Share    float64 `json:"share"`
}

// Cluster groups motifs assigned to one map unit.
type Cluster struct {
	Index          int         `json:"index"`
	Representative [][]float64 `json:"representative"`
	MotifIDs       []string    `json:"motif_ids"`
}

// ClusterSummary describes the maneuver composition of a cluster.
type ClusterSummary struct {
	ClusterIndex int             `json:"cluster_index"`
	NMembers     int             `json:"n_members"`
	Lat          []ManeuverShare `json:"lat_maneuvers"`
	Lon          []ManeuverShare `json:"lon_maneuvers"`
}
