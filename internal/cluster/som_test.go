package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-motif-lab/internal/domain"
)

func flat(v float64, n int) [][]float64 {
	s := make([][]float64, n)
	for i := range s {
		s[i] = []float64{v}
	}
	return s
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		anchors  int
		wantSide int
	}{
		{1, 2}, {4, 2}, {5, 3}, {9, 3}, {10, 4},
	}
	for _, tt := range tests {
		rows, cols := GridSize(tt.anchors)
		assert.Equal(t, tt.wantSide, rows, "anchors=%d", tt.anchors)
		assert.Equal(t, tt.wantSide, cols, "anchors=%d", tt.anchors)
	}
}

func TestNewSOM_InitFromAnchors(t *testing.T) {
	anchors := [][][]float64{flat(0, 3), flat(10, 3)}
	som, err := NewSOM(anchors, Options{})
	require.NoError(t, err)

	require.Equal(t, 4, som.Size())
	w := som.Weights()
	assert.Equal(t, flat(0, 3), w[0])
	assert.Equal(t, flat(10, 3), w[1])
	assert.Equal(t, flat(0, 3), w[2])
	assert.Equal(t, flat(10, 3), w[3])

	w[0][0][0] = 99
	assert.Equal(t, 0.0, som.Weights()[0][0][0], "weights are copied")
	assert.Equal(t, 0.0, anchors[0][0][0])

	_, err = NewSOM(nil, Options{})
	assert.ErrorIs(t, err, ErrNoAnchors)
}

func TestSOM_Capture(t *testing.T) {
	som, err := NewSOM([][][]float64{flat(0, 3), flat(10, 3)}, Options{Workers: 2})
	require.NoError(t, err)

	captured, err := som.Capture(context.Background(), [][][]float64{
		flat(0.5, 3),
		flat(9, 4),
		flat(-1, 2),
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, captured[0])
	assert.Equal(t, []int{1}, captured[1])
	assert.Empty(t, captured[2])
	assert.Empty(t, captured[3])
}

func TestSOM_TrainMovesTowardInputs(t *testing.T) {
	som, err := NewSOM([][][]float64{flat(0, 3), flat(10, 3)}, Options{Epochs: 5, Window: 2})
	require.NoError(t, err)

	require.NoError(t, som.Train(context.Background(), [][][]float64{flat(1, 3)}))

	w := som.Weights()
	for _, p := range w[0] {
		assert.Greater(t, p[0], 0.0)
		assert.Less(t, p[0], 1.0)
	}
	for _, p := range w[1] {
		assert.Less(t, p[0], 10.0, "grid neighbour of the winner moves too")
	}
	assert.Len(t, w[0], 3, "unit length is fixed")
}

func TestSOM_TrainDifferentLengths(t *testing.T) {
	som, err := NewSOM([][][]float64{flat(0, 2)}, Options{Epochs: 3})
	require.NoError(t, err)

	require.NoError(t, som.Train(context.Background(), [][][]float64{{{2}, {2}, {4}}}))
	assert.Len(t, som.Weights()[0], 2)
}

func TestFit(t *testing.T) {
	motifs := []domain.Motif{{ID: "m0"}, {ID: "m1"}, {ID: "m2"}}
	centers := [][][]float64{flat(0, 3), flat(10, 3), flat(0.2, 3)}
	anchors := [][][]float64{centers[0], centers[1]}

	clusters, err := Fit(context.Background(), motifs, centers, anchors, Options{Epochs: 0})
	require.NoError(t, err)

	require.Len(t, clusters, 4)
	assert.Equal(t, []string{"m0", "m2"}, clusters[0].MotifIDs)
	assert.Equal(t, []string{"m1"}, clusters[1].MotifIDs)
	assert.Equal(t, 1, clusters[1].Index)
	assert.Equal(t, flat(10, 3), clusters[1].Representative)

	_, err = Fit(context.Background(), motifs, centers[:2], anchors, Options{})
	assert.Error(t, err)
}

func TestSOM_CancelledContext(t *testing.T) {
	som, err := NewSOM([][][]float64{flat(0, 3)}, Options{Epochs: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, som.Train(ctx, [][][]float64{flat(1, 3)}), context.Canceled)
}
