// Package cluster groups motifs with a self-organizing map whose units are
// time series compared by DTW, and summarizes the maneuvers per cluster.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/dtw"
)

// ErrNoAnchors is returned when a map is requested without anchor series.
var ErrNoAnchors = errors.New("cluster: no anchors")

const initialLearningRate = 0.1

// Options configures the map.
type Options struct {
	Epochs  int
	Window  int // DTW warping window, 0 means unconstrained
	Workers int
}

// SOM is a rectangular self-organizing map with four-neighbour grid
// connections. Each unit holds a multivariate series.
type SOM struct {
	rows, cols int
	weights    [][][]float64
	opts       Options
	initRadius float64
}

// GridSize returns a 2x2 grid for up to four anchors and a square grid
// of ceil(sqrt(n)) otherwise.
func GridSize(anchors int) (rows, cols int) {
	if anchors <= 4 {
		return 2, 2
	}
	side := int(math.Ceil(math.Sqrt(float64(anchors))))
	return side, side
}

// NewSOM builds a map whose unit i starts as a copy of anchors[i % len(anchors)].
func NewSOM(anchors [][][]float64, opts Options) (*SOM, error) {
	if len(anchors) == 0 {
		return nil, ErrNoAnchors
	}

	rows, cols := GridSize(len(anchors))
	s := &SOM{
		rows:    rows,
		cols:    cols,
		weights: make([][][]float64, rows*cols),
		opts:    opts,
	}
	for u := range s.weights {
		s.weights[u] = copySeries(anchors[u%len(anchors)])
	}

	switch {
	case float64(rows+cols)/4 > 1:
		s.initRadius = 2
	case rows > 1 && cols > 1:
		s.initRadius = 1.5
	default:
		s.initRadius = 1
	}
	return s, nil
}

// Size returns the number of units.
func (s *SOM) Size() int { return len(s.weights) }

// Weights returns copies of the unit series.
func (s *SOM) Weights() [][][]float64 {
	out := make([][][]float64, len(s.weights))
	for u, w := range s.weights {
		out[u] = copySeries(w)
	}
	return out
}

// Train runs opts.Epochs passes over inputs. The learning rate and the
// neighbourhood radius decay exponentially with the epoch.
func (s *SOM) Train(ctx context.Context, inputs [][][]float64) error {
	epochs := s.opts.Epochs
	for e := 0; e < epochs; e++ {
		decay := math.Exp(-float64(e) / float64(epochs))
		rate := initialLearningRate * decay
		radius := s.initRadius * decay

		for i, x := range inputs {
			if err := ctx.Err(); err != nil {
				return err
			}
			winner, _, err := s.BMU(ctx, x)
			if err != nil {
				return fmt.Errorf("epoch %d input %d: %w", e, i, err)
			}
			if err := s.adapt(x, winner, rate, radius); err != nil {
				return fmt.Errorf("epoch %d input %d: %w", e, i, err)
			}
		}
	}
	return nil
}

// BMU returns the best matching unit of x and its DTW distance.
// Ties go to the lowest unit index.
func (s *SOM) BMU(ctx context.Context, x [][]float64) (int, float64, error) {
	dists, err := dtw.ToMany(ctx, x, s.weights, dtw.Options{Window: s.opts.Window}, s.opts.Workers)
	if err != nil {
		return 0, 0, err
	}
	best, bestDist := 0, math.Inf(1)
	for u, d := range dists {
		if d < bestDist {
			best, bestDist = u, d
		}
	}
	return best, bestDist, nil
}

// Capture assigns every input to its best matching unit.
// The result lists input indices per unit.
func (s *SOM) Capture(ctx context.Context, inputs [][][]float64) ([][]int, error) {
	captured := make([][]int, len(s.weights))
	for i, x := range inputs {
		u, _, err := s.BMU(ctx, x)
		if err != nil {
			return nil, fmt.Errorf("capture input %d: %w", i, err)
		}
		captured[u] = append(captured[u], i)
	}
	return captured, nil
}

// adapt pulls the winner and its grid neighbours toward x. Each weight
// point moves toward the mean of the input points aligned to it.
func (s *SOM) adapt(x [][]float64, winner int, rate, radius float64) error {
	sqRadius := radius * radius
	for u := range s.weights {
		d2 := s.gridDist2(u, winner)
		if u != winner && d2 >= sqRadius {
			continue
		}
		influence := math.Exp(-d2 / (2 * sqRadius))
		if err := s.pull(u, x, rate*influence); err != nil {
			return err
		}
	}
	return nil
}

func (s *SOM) pull(u int, x [][]float64, step float64) error {
	w := s.weights[u]
	_, path, err := dtw.Align(w, x, s.opts.Window)
	if err != nil {
		return err
	}
	if path == nil {
		return nil
	}

	dims := len(w[0])
	sums := make([][]float64, len(w))
	counts := make([]int, len(w))
	for k := range sums {
		sums[k] = make([]float64, dims)
	}
	for _, p := range path {
		for d := 0; d < dims; d++ {
			sums[p[0]][d] += x[p[1]][d]
		}
		counts[p[0]]++
	}

	for k := range w {
		if counts[k] == 0 {
			continue
		}
		for d := 0; d < dims; d++ {
			target := sums[k][d] / float64(counts[k])
			w[k][d] += step * (target - w[k][d])
		}
	}
	return nil
}

func (s *SOM) gridDist2(a, b int) float64 {
	dr := float64(a/s.cols - b/s.cols)
	dc := float64(a%s.cols - b%s.cols)
	return dr*dr + dc*dc
}

// Fit builds a map from the anchor centers, trains it on all centers and
// returns one cluster per unit with the motifs it captures.
func Fit(
	ctx context.Context,
	motifs []domain.Motif,
	centers [][][]float64,
	anchors [][][]float64,
	opts Options,
) ([]domain.Cluster, error) {
	if len(motifs) != len(centers) {
		return nil, fmt.Errorf("cluster: %d centers for %d motifs", len(centers), len(motifs))
	}

	som, err := NewSOM(anchors, opts)
	if err != nil {
		return nil, err
	}
	if err := som.Train(ctx, centers); err != nil {
		return nil, fmt.Errorf("train map: %w", err)
	}

	captured, err := som.Capture(ctx, centers)
	if err != nil {
		return nil, err
	}

	weights := som.Weights()
	clusters := make([]domain.Cluster, som.Size())
	for u := range clusters {
		ids := make([]string, len(captured[u]))
		for k, i := range captured[u] {
			ids[k] = motifs[i].ID
		}
		clusters[u] = domain.Cluster{
			Index:          u,
			Representative: weights[u],
			MotifIDs:       ids,
		}
	}
	return clusters, nil
}

func copySeries(src [][]float64) [][]float64 {
	out := make([][]float64, len(src))
	for i, row := range src {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
