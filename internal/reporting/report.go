package reporting

import (
	"time"

	"trip-motif-lab/internal/domain"
)

// Report holds everything rendered for one run.
type Report struct {
	GeneratedAt time.Time

	Run       domain.Run
	Motifs    []domain.Motif // full list, in discovery order
	Pruned    []domain.Motif // ascending MDL cost
	Clusters  []domain.Cluster
	Summaries []domain.ClusterSummary // parallel to Clusters
}

// Report file names.
const (
	MarkdownFile        = "MOTIFS.md"
	MotifsCSVFile       = "motifs.csv"
	PrunedMotifsCSVFile = "pruned_motifs.csv"
	ClustersCSVFile     = "clusters_summary.csv"
)
