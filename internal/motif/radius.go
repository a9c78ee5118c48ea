package motif

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/dtw"
	"trip-motif-lab/internal/stats"
)

var (
	// ErrNoSampleWindows is returned when no trip is long enough to sample from.
	ErrNoSampleWindows = errors.New("motif: no trip long enough for radius sampling")

	// ErrNoFiniteDistances is returned when every sampled pair is unbounded.
	ErrNoFiniteDistances = errors.New("motif: no finite sample distances")
)

// RadiusOptions configures radius estimation.
type RadiusOptions struct {
	WindowLength int     // samples per window, usually L * min pattern length
	SampleSize   int     // number of random windows
	Percentile   float64 // 0..100
	Seed         int64
	Workers      int
}

// EstimateRadius samples random windows across the corpus, computes their
// pairwise DTW distances with a warping window of 1 and returns the
// configured percentile of the finite distances.
func EstimateRadius(ctx context.Context, trips []*domain.Trip, opts RadiusOptions) (float64, error) {
	if opts.WindowLength < 1 || opts.SampleSize < 2 {
		return 0, fmt.Errorf("estimate radius: window %d, samples %d", opts.WindowLength, opts.SampleSize)
	}

	usable := make([]*domain.Trip, 0, len(trips))
	for _, t := range trips {
		if t.Len() >= opts.WindowLength {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return 0, ErrNoSampleWindows
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	windows := make([][][]float64, opts.SampleSize)
	for i := range windows {
		t := usable[rng.Intn(len(usable))]
		start := rng.Intn(t.Len() - opts.WindowLength + 1)
		w, err := t.Window(start, start+opts.WindowLength-1)
		if err != nil {
			return 0, fmt.Errorf("sample window: %w", err)
		}
		windows[i] = w
	}

	dist, err := dtw.Matrix(ctx, windows, dtw.Options{Window: 1}, opts.Workers)
	if err != nil {
		return 0, fmt.Errorf("sample distances: %w", err)
	}

	offDiag := make([]float64, 0, dtw.PairCount(len(windows)))
	for i := range dist {
		for j := i + 1; j < len(dist); j++ {
			offDiag = append(offDiag, dist[i][j])
		}
	}
	finite := stats.Finite(offDiag)
	if len(finite) == 0 {
		return 0, ErrNoFiniteDistances
	}

	return stats.Percentiles(finite, opts.Percentile/100)[0], nil
}
