package mdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/vsax"
)

// runLetters builds one trip's letters with the given run lengths and
// alternating symbols so that no two neighbours merge.
func runLetters(tripIndex int, runs ...int) []domain.Letter {
	letters := make([]domain.Letter, len(runs))
	start := 0
	for i, r := range runs {
		letters[i] = domain.Letter{
			TripIndex: tripIndex,
			Start:     start,
			End:       start + r - 1,
			Symbol:    string(domain.Alphabet[i%len(domain.Alphabet)]),
		}
		start += r
	}
	return letters
}

func TestSegmentCost(t *testing.T) {
	// [2,1] [3] [1,2]: 3*log2(3) + 2*(2*log2(3/2) + log2(3)) + 3*log2(9)
	assert.Equal(t, 19.77, SegmentCost([][]int{{2, 1}, {3}, {1, 2}}))
	assert.Equal(t, 0.0, SegmentCost([][]int{{1}}))
}

func TestCost_Example(t *testing.T) {
	words := vsax.BuildWords(runLetters(0, 2, 1, 3, 1, 2), 2)
	require.Len(t, words, 4)

	cost, err := Cost([]domain.Word{words[0], words[3]}, words)
	require.NoError(t, err)
	assert.Equal(t, 19.77, cost)
}

func TestCost_OrderIndependent(t *testing.T) {
	var words []domain.Word
	words = append(words, vsax.BuildWords(runLetters(0, 2, 1, 3, 1, 2, 4, 1), 2)...)
	words = append(words, vsax.BuildWords(runLetters(1, 1, 5, 2, 2, 3), 2)...)

	scorer := NewScorer(words)
	assert.Equal(t, 12, scorer.Letters())

	members := []domain.Word{words[0], words[3], words[6], words[9]}
	want, err := scorer.Cost(members)
	require.NoError(t, err)

	permutations := [][]int{
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	for _, p := range permutations {
		shuffled := []domain.Word{members[p[0]], members[p[1]], members[p[2]], members[p[3]]}
		got, err := scorer.Cost(shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, got, "permutation %v", p)
	}
}

func TestCost_Errors(t *testing.T) {
	words := vsax.BuildWords(runLetters(0, 2, 1, 3, 1, 2), 2)

	_, err := Cost([]domain.Word{{TripIndex: 3, Start: 0, End: 2, RunLengths: []int{2, 1}}}, words)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = Cost([]domain.Word{words[0], words[1]}, words)
	assert.ErrorIs(t, err, ErrOverlappingMembers)

	_, err = Cost(nil, words)
	assert.ErrorIs(t, err, ErrNoMembers)
}
