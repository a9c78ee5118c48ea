package reporting

import (
	"fmt"
	"strings"

	"trip-motif-lab/internal/describe"
	"trip-motif-lab/internal/domain"
)

// RenderMotifsCSV renders motifs as CSV string, one row per motif.
func RenderMotifsCSV(motifs []domain.Motif) string {
	var sb strings.Builder

	// Header
	sb.WriteString("motif_id,pattern,word_length,radius,n_members,mean_distance,mdl,")
	sb.WriteString("center_trip,center_start,center_end,lat_maneuvers,lon_maneuvers\n")

	// Rows
	for _, m := range motifs {
		mdl := ""
		if m.MDL != nil {
			mdl = fmt.Sprintf("%.2f", *m.MDL)
		}
		lat, lon := "", ""
		if m.Description != nil {
			lat = describe.Join(m.Description.Lat)
			lon = describe.Join(m.Description.Lon)
		}

		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.6f,%d,%.6f,%s,%d,%d,%d,%s,%s\n",
			m.ID,
			m.Pattern.Key(),
			m.WordLength,
			m.Radius,
			len(m.Members),
			m.MeanDistance,
			mdl,
			m.Center.TripIndex,
			m.Center.Start,
			m.Center.End,
			lat,
			lon,
		))
	}

	return sb.String()
}

// RenderClustersCSV renders cluster summaries. Maneuver shares are written
// as name:share pairs separated by semicolons.
func RenderClustersCSV(summaries []domain.ClusterSummary) string {
	var sb strings.Builder

	sb.WriteString("cluster_index,n_members,lat_maneuvers,lon_maneuvers\n")
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%d,%d,%s,%s\n",
			s.ClusterIndex,
			s.NMembers,
			formatShares(s.Lat),
			formatShares(s.Lon),
		))
	}

	return sb.String()
}

func formatShares(shares []domain.ManeuverShare) string {
	parts := make([]string, len(shares))
	for i, s := range shares {
		parts[i] = fmt.Sprintf("%s:%.3f", s.Maneuver, s.Share)
	}
	return strings.Join(parts, ";")
}
