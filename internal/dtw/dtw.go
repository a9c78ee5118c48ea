// Package dtw implements multidimensional dynamic time warping.
//
// Sequences are sample-major: seq[i] is the observation vector at step i.
// The local cost between two observations is their squared Euclidean
// distance and the reported distance is the square root of the accumulated
// cost along the optimal warping path.
//
// Early abandon: when Options.MaxDist is positive, computation stops as soon
// as every cell of a row exceeds MaxDist², and the distance is reported as
// +Inf. A finite result above MaxDist is also reported as +Inf. Callers treat
// +Inf as "not similar enough", never as an error.
package dtw

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptySequence indicates one or both inputs are empty.
	ErrEmptySequence = errors.New("dtw: input sequences must be non-empty")

	// ErrDimensionMismatch indicates observations of different widths.
	ErrDimensionMismatch = errors.New("dtw: observation dimensions differ")
)

// Options configures a distance computation.
type Options struct {
	// Window limits warping to cells with |i-j| < Window, widened by the
	// length difference of the inputs. 0 means unconstrained.
	Window int

	// MaxDist is the early-abandon bound. 0 disables it.
	MaxDist float64
}

// Distance computes the DTW distance between a and b using two rolling rows.
func Distance(a, b [][]float64, opts Options) (float64, error) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0, ErrEmptySequence
	}
	if len(a[0]) != len(b[0]) {
		return 0, fmt.Errorf("%d vs %d: %w", len(a[0]), len(b[0]), ErrDimensionMismatch)
	}

	inf := math.Inf(1)
	bound := inf
	if opts.MaxDist > 0 {
		bound = opts.MaxDist * opts.MaxDist
	}

	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := range prev {
		prev[j] = inf
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		for j := range curr {
			curr[j] = inf
		}
		lo, hi := band(i-1, n, m, opts.Window)
		rowMin := inf
		for j := lo + 1; j <= hi; j++ {
			best := min3(prev[j-1], prev[j], curr[j-1])
			if math.IsInf(best, 1) {
				continue
			}
			curr[j] = sqEuclidean(a[i-1], b[j-1]) + best
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > bound {
			return inf, nil
		}
		prev, curr = curr, prev
	}

	if prev[m] > bound {
		return inf, nil
	}
	return math.Sqrt(prev[m]), nil
}

// Align computes the DTW distance and the optimal warping path using a full
// cost matrix. Path entries are (index in a, index in b) pairs from (0,0) to
// (n-1,m-1).
func Align(a, b [][]float64, window int) (float64, [][2]int, error) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0, nil, ErrEmptySequence
	}
	if len(a[0]) != len(b[0]) {
		return 0, nil, fmt.Errorf("%d vs %d: %w", len(a[0]), len(b[0]), ErrDimensionMismatch)
	}

	inf := math.Inf(1)
	dp := make([][]float64, n+1)
	for i := range dp {
		dp[i] = make([]float64, m+1)
		for j := range dp[i] {
			dp[i][j] = inf
		}
	}
	dp[0][0] = 0

	for i := 1; i <= n; i++ {
		lo, hi := band(i-1, n, m, window)
		for j := lo + 1; j <= hi; j++ {
			best := min3(dp[i-1][j-1], dp[i-1][j], dp[i][j-1])
			if math.IsInf(best, 1) {
				continue
			}
			dp[i][j] = sqEuclidean(a[i-1], b[j-1]) + best
		}
	}

	if math.IsInf(dp[n][m], 1) {
		return inf, nil, nil
	}

	// Backtrack choosing the cheapest predecessor, diagonal first on ties.
	path := make([][2]int, 0, n+m)
	i, j := n, m
	for i > 0 && j > 0 {
		path = append(path, [2]int{i - 1, j - 1})
		diag, up, left := dp[i-1][j-1], dp[i-1][j], dp[i][j-1]
		switch {
		case diag <= up && diag <= left:
			i--
			j--
		case up <= left:
			i--
		default:
			j--
		}
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}

	return math.Sqrt(dp[n][m]), path, nil
}

// band returns the half-open column range [lo, hi) reachable from row i.
func band(i, n, m, window int) (int, int) {
	if window <= 0 {
		return 0, m
	}
	lo := i - max(0, n-m) - window + 1
	hi := i + max(0, m-n) + window
	return max(0, lo), min(m, hi)
}

func sqEuclidean(x, y []float64) float64 {
	var sum float64
	for k := range x {
		d := x[k] - y[k]
		sum += d * d
	}
	return sum
}

// min3 returns the minimum of three float64 values.
func min3(a, b, c float64) float64 {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
