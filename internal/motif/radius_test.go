package motif

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-motif-lab/internal/domain"
)

func randomTrip(t *testing.T, id string, n int, seed int64) *domain.Trip {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	a := make([]float64, n)
	b := make([]float64, n)
	for i := range a {
		a[i] = rng.NormFloat64()
		b[i] = rng.NormFloat64()
	}
	trip, err := domain.NewTrip(id, [][]float64{a, b})
	require.NoError(t, err)
	return trip
}

func TestEstimateRadius_Deterministic(t *testing.T) {
	trips := []*domain.Trip{
		randomTrip(t, "a", 200, 1),
		randomTrip(t, "b", 5, 2), // too short, skipped
		randomTrip(t, "c", 150, 3),
	}
	opts := RadiusOptions{WindowLength: 20, SampleSize: 60, Percentile: 0.5, Seed: 7, Workers: 2}

	r1, err := EstimateRadius(context.Background(), trips, opts)
	require.NoError(t, err)
	r2, err := EstimateRadius(context.Background(), trips, opts)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.GreaterOrEqual(t, r1, 0.0)

	opts.Percentile = 50
	median, err := EstimateRadius(context.Background(), trips, opts)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, median, r1)
}

func TestEstimateRadius_ConstantCorpus(t *testing.T) {
	trip, err := domain.NewTrip("flat", [][]float64{make([]float64, 50)})
	require.NoError(t, err)

	r, err := EstimateRadius(context.Background(), []*domain.Trip{trip},
		RadiusOptions{WindowLength: 10, SampleSize: 10, Percentile: 0.5, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)
}

func TestEstimateRadius_NoUsableTrips(t *testing.T) {
	trip, err := domain.NewTrip("short", [][]float64{{1, 2, 3}})
	require.NoError(t, err)

	_, err = EstimateRadius(context.Background(), []*domain.Trip{trip},
		RadiusOptions{WindowLength: 10, SampleSize: 10, Percentile: 0.5})
	assert.ErrorIs(t, err, ErrNoSampleWindows)
}
