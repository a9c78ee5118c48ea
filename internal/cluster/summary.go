package cluster

import (
	"errors"
	"fmt"
	"sort"

	"trip-motif-lab/internal/describe"
	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/stats"
)

var (
	// ErrNoDescription is returned when summarizing motifs without a description.
	ErrNoDescription = errors.New("cluster: motif has no description")

	// ErrUnknownMotif is returned when a cluster references a motif that was not supplied.
	ErrUnknownMotif = errors.New("cluster: unknown motif")
)

// Summarize computes, per cluster, the share of each joined lateral and
// longitudinal maneuver string among its members.
func Summarize(clusters []domain.Cluster, motifs []domain.Motif) ([]domain.ClusterSummary, error) {
	byID := make(map[string]domain.Motif, len(motifs))
	for _, m := range motifs {
		byID[m.ID] = m
	}

	out := make([]domain.ClusterSummary, len(clusters))
	for i, c := range clusters {
		var lat, lon []string
		for _, id := range c.MotifIDs {
			m, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("cluster %d motif %s: %w", c.Index, id, ErrUnknownMotif)
			}
			if m.Description == nil {
				return nil, fmt.Errorf("cluster %d motif %s: %w", c.Index, id, ErrNoDescription)
			}
			lat = append(lat, describe.Join(m.Description.Lat))
			lon = append(lon, describe.Join(m.Description.Lon))
		}

		out[i] = domain.ClusterSummary{
			ClusterIndex: c.Index,
			NMembers:     len(c.MotifIDs),
			Lat:          shares(lat),
			Lon:          shares(lon),
		}
	}
	return out, nil
}

func shares(values []string) []domain.ManeuverShare {
	if len(values) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}

	out := make([]domain.ManeuverShare, 0, len(counts))
	for v, n := range counts {
		out = append(out, domain.ManeuverShare{
			Maneuver: v,
			Share:    stats.Round(float64(n)/float64(len(values)), 3),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Share != out[j].Share {
			return out[i].Share > out[j].Share
		}
		return out[i].Maneuver < out[j].Maneuver
	})
	return out
}
