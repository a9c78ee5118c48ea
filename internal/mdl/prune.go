package mdl

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/dtw"
)

// ErrMDLRequired is returned when pruning motifs without an MDL cost.
var ErrMDLRequired = errors.New("mdl: motif has no MDL cost")

// Observer returns the raw observation window of a word.
type Observer func(domain.Word) ([][]float64, error)

// PruneOptions configures Prune.
type PruneOptions struct {
	Radius  float64
	Window  int // DTW warping window, 0 means unconstrained
	Workers int
}

// Prune orders motifs by ascending MDL cost and greedily keeps those whose
// center is farther than 2*radius from every center already kept.
// The lowest-cost motif is always kept.
func Prune(ctx context.Context, motifs []domain.Motif, observe Observer, opts PruneOptions) ([]domain.Motif, error) {
	if len(motifs) == 0 {
		return nil, nil
	}
	for _, m := range motifs {
		if !m.HasMDL() {
			return nil, fmt.Errorf("motif %s: %w", m.ID, ErrMDLRequired)
		}
	}

	sorted := make([]domain.Motif, len(motifs))
	copy(sorted, motifs)
	sort.SliceStable(sorted, func(i, j int) bool { return *sorted[i].MDL < *sorted[j].MDL })

	bound := 2 * opts.Radius
	dopts := dtw.Options{Window: opts.Window, MaxDist: bound}

	first, err := observe(sorted[0].Center)
	if err != nil {
		return nil, fmt.Errorf("observe center of %s: %w", sorted[0].ID, err)
	}
	pruned := []domain.Motif{sorted[0]}
	centers := [][][]float64{first}

	for _, m := range sorted[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		obs, err := observe(m.Center)
		if err != nil {
			return nil, fmt.Errorf("observe center of %s: %w", m.ID, err)
		}

		dists, err := dtw.ToMany(ctx, obs, centers, dopts, opts.Workers)
		if err != nil {
			return nil, fmt.Errorf("center distances of %s: %w", m.ID, err)
		}

		distinct := true
		for _, d := range dists {
			if d <= bound {
				distinct = false
				break
			}
		}
		if distinct {
			pruned = append(pruned, m)
			centers = append(centers, obs)
		}
	}

	return pruned, nil
}
