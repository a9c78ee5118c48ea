// Package vsax builds the variable-length symbolic representation of trips:
// corpus-wide breakpoints, run-length merged letters and fixed-size words.
package vsax

import (
	"errors"
	"fmt"
	"math"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/stats"
)

// Breakpoint percentiles of the centered corpus values.
var cutPercentiles = []float64{0.05, 0.15, 0.85, 0.95}

// ErrEmptyCorpus is returned when breakpoints are requested for no data.
var ErrEmptyCorpus = errors.New("vsax: empty corpus")

// Breakpoints holds, per dimension, the corpus mean and the four ascending
// cuts that split centered values into the five alphabet bins.
type Breakpoints struct {
	Means []float64   `json:"means"`
	Cuts  [][]float64 `json:"cuts"`
}

// EstimateBreakpoints concatenates every trip per dimension, centers the
// values on the global mean and takes the 5/15/85/95th percentiles.
func EstimateBreakpoints(trips []*domain.Trip) (*Breakpoints, error) {
	if len(trips) == 0 {
		return nil, ErrEmptyCorpus
	}
	if err := domain.ValidateCorpus(trips); err != nil {
		return nil, fmt.Errorf("estimate breakpoints: %w", err)
	}

	dims := trips[0].NumDims()
	total := 0
	for _, t := range trips {
		total += t.Len()
	}
	if total == 0 {
		return nil, ErrEmptyCorpus
	}

	bp := &Breakpoints{
		Means: make([]float64, dims),
		Cuts:  make([][]float64, dims),
	}

	joined := make([]float64, 0, total)
	for d := 0; d < dims; d++ {
		joined = joined[:0]
		for _, t := range trips {
			joined = append(joined, t.Dimensions[d]...)
		}

		mean := stats.Mean(joined)
		centered := make([]float64, len(joined))
		for i, v := range joined {
			centered[i] = v - mean
		}

		bp.Means[d] = mean
		bp.Cuts[d] = stats.Percentiles(centered, cutPercentiles...)
	}

	return bp, nil
}

// NewBreakpoints builds breakpoints from explicit cuts with zero means.
func NewBreakpoints(cuts [][]float64) (*Breakpoints, error) {
	for d, c := range cuts {
		if len(c) != len(domain.Alphabet)-1 {
			return nil, fmt.Errorf("dimension %d: %d cuts, want %d", d, len(c), len(domain.Alphabet)-1)
		}
		for i := 1; i < len(c); i++ {
			if c[i] < c[i-1] {
				return nil, fmt.Errorf("dimension %d: cuts not ascending", d)
			}
		}
	}
	return &Breakpoints{
		Means: make([]float64, len(cuts)),
		Cuts:  cuts,
	}, nil
}

// NumDims returns the number of dimensions covered.
func (b *Breakpoints) NumDims() int {
	return len(b.Cuts)
}

// Symbol maps a value of dimension d to its alphabet character.
// Bins are half-open: a value equal to a cut belongs to the upper bin.
func (b *Breakpoints) Symbol(d int, value float64) byte {
	v := value - b.Means[d]
	idx := 0
	for _, c := range b.Cuts[d] {
		if v >= c {
			idx++
			continue
		}
		break
	}
	return domain.Alphabet[idx]
}

// Bounds returns the [-Inf, cuts..., +Inf] edges of dimension d.
func (b *Breakpoints) Bounds(d int) []float64 {
	out := make([]float64, 0, len(b.Cuts[d])+2)
	out = append(out, math.Inf(-1))
	out = append(out, b.Cuts[d]...)
	return append(out, math.Inf(1))
}
