package vsax

import (
	"fmt"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/stats"
)

// BuildLetters encodes every window of letterLength samples of trip and
// merges consecutive windows with equal symbol tuples. The returned letters
// cover offsets 0..trip.Len()-letterLength without gaps or overlaps.
// A trip shorter than letterLength yields no letters.
func BuildLetters(trip *domain.Trip, tripIndex, letterLength int, bp *Breakpoints) ([]domain.Letter, error) {
	if letterLength < 1 {
		return nil, fmt.Errorf("letter length %d must be positive", letterLength)
	}
	if trip.NumDims() != bp.NumDims() {
		return nil, fmt.Errorf("trip %s has %d dimensions, breakpoints cover %d: %w",
			trip.ID, trip.NumDims(), bp.NumDims(), domain.ErrDimensionCount)
	}

	offsets := trip.Len() - letterLength + 1
	if offsets <= 0 {
		return nil, nil
	}

	var letters []domain.Letter
	for t := 0; t < offsets; t++ {
		next := domain.Letter{
			TripIndex: tripIndex,
			Start:     t,
			End:       t,
			Symbol:    windowSymbol(trip, t, letterLength, bp),
		}

		if n := len(letters); n > 0 && letters[n-1].Symbol == next.Symbol {
			merged, err := domain.MergeLetters(letters[n-1], next)
			if err != nil {
				return nil, err
			}
			letters[n-1] = merged
			continue
		}
		letters = append(letters, next)
	}

	return letters, nil
}

// windowSymbol maps the per-dimension mean of samples t..t+length-1 to a symbol tuple.
func windowSymbol(trip *domain.Trip, t, length int, bp *Breakpoints) string {
	sym := make([]byte, trip.NumDims())
	for d, values := range trip.Dimensions {
		sym[d] = bp.Symbol(d, stats.Mean(values[t:t+length]))
	}
	return string(sym)
}
