package motif

import (
	"context"
	"fmt"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/dtw"
	"trip-motif-lab/internal/idhash"
	"trip-motif-lab/internal/stats"
)

// membership is the accepted member set of one prospective center.
type membership struct {
	center  int
	members []int
	mean    float64
}

// Resolve turns an unresolved candidate into a motif. series[i] is the raw
// observation window of cand.Words[i]. The returned bool is false when the
// candidate does not yield at least two non-overlapping members.
func Resolve(
	ctx context.Context,
	cand domain.Candidate,
	series [][][]float64,
	wordLength int,
	radius float64,
	opts dtw.Options,
	workers int,
) (domain.Motif, bool, error) {
	if len(series) != len(cand.Words) {
		return domain.Motif{}, false, fmt.Errorf("resolve %s: %d series for %d words",
			cand.Pattern, len(series), len(cand.Words))
	}
	if len(cand.Words) < 2 {
		return domain.Motif{}, false, nil
	}

	opts.MaxDist = radius
	dist, err := dtw.Matrix(ctx, series, opts, workers)
	if err != nil {
		return domain.Motif{}, false, fmt.Errorf("resolve %s: %w", cand.Pattern, err)
	}

	best := bestMembership(cand.Words, dist, radius)
	if len(best.members) < 2 {
		return domain.Motif{}, false, nil
	}

	center := cand.Words[best.center]
	members := make([]domain.Word, len(best.members))
	for i, idx := range best.members {
		members[i] = cand.Words[idx]
	}

	return domain.Motif{
		ID:           idhash.ComputeMotifID(center.Pattern, wordLength, center.TripIndex, center.Start, center.End),
		Pattern:      center.Pattern,
		WordLength:   wordLength,
		Radius:       radius,
		Center:       center,
		Members:      members,
		MeanDistance: best.mean,
	}, true, nil
}

// bestMembership evaluates every candidate as a center and keeps the one
// with the most members, then the lowest mean distance, then the lowest index.
func bestMembership(words []domain.Word, dist [][]float64, radius float64) membership {
	var best membership
	for c := range words {
		m := resolveMembers(words, dist, radius, c)
		switch {
		case c == 0:
			best = m
		case len(m.members) > len(best.members):
			best = m
		case len(m.members) == len(best.members) && m.mean < best.mean:
			best = m
		}
	}
	return best
}

// resolveMembers walks the candidates within radius of c in discovery order
// and keeps a non-overlapping member list. On overlap with the last accepted
// member, the one closer to c survives; c itself always survives.
func resolveMembers(words []domain.Word, dist [][]float64, radius float64, c int) membership {
	var unpruned []int
	for j := range words {
		if dist[c][j] < radius {
			unpruned = append(unpruned, j)
		}
	}

	if len(unpruned) <= 1 {
		return membership{center: c, members: []int{c}}
	}

	accepted := []int{unpruned[0]}
	for _, j := range unpruned[1:] {
		last := len(accepted) - 1
		prev := accepted[last]
		if !words[j].Overlaps(words[prev]) {
			accepted = append(accepted, j)
			continue
		}
		if prev == c {
			continue
		}
		if j == c || dist[c][j] < dist[c][prev] {
			accepted[last] = j
		}
	}

	ds := make([]float64, len(accepted))
	for i, j := range accepted {
		ds[i] = dist[c][j]
	}

	return membership{center: c, members: accepted, mean: stats.Mean(ds)}
}
