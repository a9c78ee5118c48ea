package vsax

import (
	"strings"

	"trip-motif-lab/internal/domain"
)

// BuildWords slides a window of size consecutive letters with stride 1.
// Fewer than size letters yields no words.
func BuildWords(letters []domain.Letter, size int) []domain.Word {
	if size < 1 || len(letters) < size {
		return nil
	}

	dims := len(letters[0].Symbol)
	words := make([]domain.Word, 0, len(letters)-size+1)
	for p := 0; p+size <= len(letters); p++ {
		words = append(words, newWord(letters[p:p+size], p, dims))
	}
	return words
}

func newWord(letters []domain.Letter, position, dims int) domain.Word {
	pattern := make(domain.Pattern, dims)
	var sb strings.Builder
	for d := 0; d < dims; d++ {
		sb.Reset()
		for _, l := range letters {
			sb.WriteByte(l.Symbol[d])
		}
		pattern[d] = sb.String()
	}

	runs := make([]int, len(letters))
	for i, l := range letters {
		runs[i] = l.Len()
	}

	return domain.Word{
		TripIndex:  letters[0].TripIndex,
		Position:   position,
		Start:      letters[0].Start,
		End:        letters[len(letters)-1].End,
		Pattern:    pattern,
		RunLengths: runs,
	}
}
