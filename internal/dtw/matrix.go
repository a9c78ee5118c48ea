package dtw

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Matrix computes the symmetric pairwise distance matrix of series.
// Rows are distributed over at most workers goroutines (0 means NumCPU).
// The diagonal is zero. Series are only read.
func Matrix(ctx context.Context, series [][][]float64, opts Options, workers int) ([][]float64, error) {
	n := len(series)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(poolSize(workers))

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				d, err := Distance(series[i], series[j], opts)
				if err != nil {
					return err
				}
				// Row i owns cells (i, j>i) and (j, i); no other goroutine writes them.
				dist[i][j] = d
				dist[j][i] = d
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dist, nil
}

// ToMany computes the distance from one series to each of others.
func ToMany(ctx context.Context, one [][]float64, others [][][]float64, opts Options, workers int) ([]float64, error) {
	out := make([]float64, len(others))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(poolSize(workers))

	for i := range others {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := Distance(one, others[i], opts)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PairCount returns the number of distances Matrix computes for n series.
func PairCount(n int) int {
	return n * (n - 1) / 2
}

func poolSize(workers int) int {
	if workers <= 0 {
		return runtime.NumCPU()
	}
	return workers
}
