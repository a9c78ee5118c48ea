package vsax

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-motif-lab/internal/domain"
)

// unitCuts maps -3→a, -1.5→b, 0→c, 1.5→d, 3→e.
func unitCuts(t *testing.T, dims int) *Breakpoints {
	t.Helper()
	cuts := make([][]float64, dims)
	for d := range cuts {
		cuts[d] = []float64{-2, -1, 1, 2}
	}
	bp, err := NewBreakpoints(cuts)
	require.NoError(t, err)
	return bp
}

func mustTrip(t *testing.T, id string, dims ...[]float64) *domain.Trip {
	t.Helper()
	trip, err := domain.NewTrip(id, dims)
	require.NoError(t, err)
	return trip
}

func TestEstimateBreakpoints(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	// Split the ramp over two trips; percentiles are corpus-wide.
	a := mustTrip(t, "a", values[:40])
	b := mustTrip(t, "b", values[40:])

	bp, err := EstimateBreakpoints([]*domain.Trip{a, b})
	require.NoError(t, err)

	assert.InDelta(t, 49.5, bp.Means[0], 1e-9)
	require.Len(t, bp.Cuts[0], 4)
	assert.InDelta(t, -44.55, bp.Cuts[0][0], 1e-9)
	assert.InDelta(t, -34.65, bp.Cuts[0][1], 1e-9)
	assert.InDelta(t, 34.65, bp.Cuts[0][2], 1e-9)
	assert.InDelta(t, 44.55, bp.Cuts[0][3], 1e-9)

	assert.Equal(t, byte('a'), bp.Symbol(0, 0))
	assert.Equal(t, byte('c'), bp.Symbol(0, 49.5))
	assert.Equal(t, byte('e'), bp.Symbol(0, 99))
}

func TestEstimateBreakpoints_Errors(t *testing.T) {
	_, err := EstimateBreakpoints(nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	a := mustTrip(t, "a", []float64{1, 2}, []float64{1, 2})
	b := mustTrip(t, "b", []float64{1, 2})
	_, err = EstimateBreakpoints([]*domain.Trip{a, b})
	assert.ErrorIs(t, err, domain.ErrDimensionCount)
}

func TestBreakpoints_HalfOpenBins(t *testing.T) {
	bp := unitCuts(t, 1)

	assert.Equal(t, byte('a'), bp.Symbol(0, -2.0001))
	assert.Equal(t, byte('b'), bp.Symbol(0, -2))
	assert.Equal(t, byte('c'), bp.Symbol(0, -1))
	assert.Equal(t, byte('d'), bp.Symbol(0, 1))
	assert.Equal(t, byte('e'), bp.Symbol(0, 2))
	assert.Len(t, bp.Bounds(0), 6)
}

func TestBuildLetters_MergesRuns(t *testing.T) {
	trip := mustTrip(t, "t", []float64{0, 0, 3, 3, 3, -3, 0})

	letters, err := BuildLetters(trip, 4, 1, unitCuts(t, 1))
	require.NoError(t, err)

	assert.Equal(t, []domain.Letter{
		{TripIndex: 4, Start: 0, End: 1, Symbol: "c"},
		{TripIndex: 4, Start: 2, End: 4, Symbol: "e"},
		{TripIndex: 4, Start: 5, End: 5, Symbol: "a"},
		{TripIndex: 4, Start: 6, End: 6, Symbol: "c"},
	}, letters)
}

func TestBuildLetters_WindowMeans(t *testing.T) {
	trip := mustTrip(t, "t", []float64{0, 0, 3, 3, 3, -3, 0})

	// Window means for L=2: 0, 1.5, 3, 3, 0, -1.5
	letters, err := BuildLetters(trip, 0, 2, unitCuts(t, 1))
	require.NoError(t, err)

	var symbols []string
	for _, l := range letters {
		symbols = append(symbols, l.Symbol)
	}
	assert.Equal(t, []string{"c", "d", "e", "c", "b"}, symbols)
	assert.Equal(t, 2, letters[2].Start)
	assert.Equal(t, 3, letters[2].End)
}

func TestBuildLetters_ShortTrip(t *testing.T) {
	trip := mustTrip(t, "t", []float64{1, 2})

	letters, err := BuildLetters(trip, 0, 5, unitCuts(t, 1))
	require.NoError(t, err)
	assert.Empty(t, letters)
}

func TestBuildLetters_CoverageProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		n := 20 + rng.Intn(80)
		lat := make([]float64, n)
		lon := make([]float64, n)
		for i := range lat {
			lat[i] = rng.NormFloat64() * 2
			lon[i] = rng.NormFloat64() * 2
		}
		trip := mustTrip(t, "r", lat, lon)
		L := 1 + rng.Intn(5)

		letters, err := BuildLetters(trip, 0, L, unitCuts(t, 2))
		require.NoError(t, err)
		require.NotEmpty(t, letters)

		assert.Equal(t, 0, letters[0].Start)
		assert.Equal(t, n-L, letters[len(letters)-1].End)
		for i := 1; i < len(letters); i++ {
			assert.Equal(t, letters[i-1].End+1, letters[i].Start, "gap or overlap at letter %d", i)
			assert.NotEqual(t, letters[i-1].Symbol, letters[i].Symbol, "unmerged run at letter %d", i)
		}
	}
}

func TestBuildWords(t *testing.T) {
	letters := []domain.Letter{
		{TripIndex: 1, Start: 0, End: 1, Symbol: "ca"},
		{TripIndex: 1, Start: 2, End: 4, Symbol: "eb"},
		{TripIndex: 1, Start: 5, End: 5, Symbol: "ab"},
		{TripIndex: 1, Start: 6, End: 9, Symbol: "cc"},
	}

	words := BuildWords(letters, 3)
	require.Len(t, words, 2)

	w := words[1]
	assert.Equal(t, 1, w.TripIndex)
	assert.Equal(t, 1, w.Position)
	assert.Equal(t, domain.Pattern{"eac", "bbc"}, w.Pattern)
	assert.Equal(t, []int{3, 1, 4}, w.RunLengths)

	var union []int
	for _, l := range letters[1:4] {
		union = append(union, l.Pointers()...)
	}
	assert.Equal(t, union, w.Pointers())

	assert.Empty(t, BuildWords(letters, 5))
}

func TestSequence_WordsAndObservation(t *testing.T) {
	a := mustTrip(t, "a", []float64{0, 3, -3, 0, 3})
	b := mustTrip(t, "b", []float64{3, 3})

	seq, err := NewSequence([]*domain.Trip{a, b}, 1, unitCuts(t, 1))
	require.NoError(t, err)

	assert.Equal(t, 6, seq.LetterCount())
	words := seq.Words(2)
	require.Len(t, words, 4, "trip b has a single letter and contributes no words")

	var patterns []string
	for _, w := range words {
		patterns = append(patterns, strings.Join(w.Pattern, ""))
	}
	assert.Equal(t, []string{"ce", "ea", "ac", "ce"}, patterns)

	obs, err := seq.Observation(words[1])
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3}, {-3}}, obs)
}
