package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.5, 3},
		{0.25, 2},
		{0.1, 1.4},
		{0.95, 4.8},
		{1, 5},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(sorted, tt.p), 1e-9, "p=%v", tt.p)
	}
}

func TestPercentile_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(nil, 0.5))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 0.9))
}

func TestPercentiles_DoesNotSortInput(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	got := Percentiles(values, 0.05, 0.95)

	assert.InDelta(t, 1.2, got[0], 1e-9)
	assert.InDelta(t, 4.8, got[1], 1e-9)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values)
}

func TestMeanSumRound(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.InDelta(t, 10.0, Sum([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 19.77, Round(19.77444, 2))
	assert.Equal(t, 0.333, Round(1.0/3.0, 3))
}

func TestFinite(t *testing.T) {
	got := Finite([]float64{1, math.Inf(1), 2, math.NaN(), math.Inf(-1)})
	assert.Equal(t, []float64{1, 2}, got)
}
