package reporting

import (
	"fmt"
	"strings"
	"time"

	"trip-motif-lab/internal/describe"
	"trip-motif-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Motif Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Status: %s\n\n", r.Run.RunID, r.Run.Status))

	// Run summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Radius | %.6f |\n", r.Run.Radius))
	sb.WriteString(fmt.Sprintf("| Trips | %d |\n", r.Run.Counts.Trips))
	sb.WriteString(fmt.Sprintf("| Rounds | %d |\n", r.Run.Counts.Rounds))
	sb.WriteString(fmt.Sprintf("| Motifs | %d |\n", len(r.Motifs)))
	sb.WriteString(fmt.Sprintf("| Pruned Motifs | %d |\n", len(r.Pruned)))
	sb.WriteString(fmt.Sprintf("| Clusters | %d |\n", nonEmpty(r.Summaries)))
	if r.Run.Error != "" {
		sb.WriteString(fmt.Sprintf("| Error | %s |\n", r.Run.Error))
	}
	sb.WriteString("\n")

	// Pruned motifs
	sb.WriteString("## Pruned Motifs\n\n")
	if len(r.Pruned) == 0 {
		sb.WriteString("No motifs survived pruning.\n\n")
	} else {
		sb.WriteString("| Motif | Pattern | Members | Mean Distance | MDL | Lateral | Longitudinal |\n")
		sb.WriteString("|-------|---------|---------|---------------|-----|---------|--------------|\n")
		for _, m := range r.Pruned {
			mdl := "-"
			if m.MDL != nil {
				mdl = fmt.Sprintf("%.2f", *m.MDL)
			}
			lat, lon := "-", "-"
			if m.Description != nil {
				lat = describe.Join(m.Description.Lat)
				lon = describe.Join(m.Description.Lon)
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %d | %.4f | %s | %s | %s |\n",
				m.ID, m.Pattern, len(m.Members), m.MeanDistance, mdl, lat, lon))
		}
		sb.WriteString("\n")
	}

	// Clusters
	sb.WriteString("## Clusters\n\n")
	if nonEmpty(r.Summaries) == 0 {
		sb.WriteString("No clusters.\n")
		return sb.String()
	}
	for _, s := range r.Summaries {
		if s.NMembers == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("### Cluster %d (%d motifs)\n\n", s.ClusterIndex, s.NMembers))
		sb.WriteString("| Axis | Maneuvers | Share |\n")
		sb.WriteString("|------|-----------|-------|\n")
		for _, sh := range s.Lat {
			sb.WriteString(fmt.Sprintf("| lateral | %s | %.3f |\n", sh.Maneuver, sh.Share))
		}
		for _, sh := range s.Lon {
			sb.WriteString(fmt.Sprintf("| longitudinal | %s | %.3f |\n", sh.Maneuver, sh.Share))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func nonEmpty(summaries []domain.ClusterSummary) int {
	n := 0
	for _, s := range summaries {
		if s.NMembers > 0 {
			n++
		}
	}
	return n
}
