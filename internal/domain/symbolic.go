package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Alphabet holds the ordered symbols, from strong negative to strong positive.
const Alphabet = "abcde"

// ErrNotMergeable is returned when two letters are not adjacent or differ in symbol.
var ErrNotMergeable = errors.New("letters not mergeable")

// Letter is a maximal run of window start offsets sharing one symbol tuple.
// Pointers are the contiguous offsets Start..End of one trip.
type Letter struct {
	TripIndex int    `json:"trip_index"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Symbol    string `json:"symbol"` // one alphabet character per dimension
}

// Len returns the run length (number of offsets).
func (l Letter) Len() int {
	return l.End - l.Start + 1
}

// Pointers returns the covered offsets.
func (l Letter) Pointers() []int {
	p := make([]int, 0, l.Len())
	for i := l.Start; i <= l.End; i++ {
		p = append(p, i)
	}
	return p
}

// MergeLetters builds a new letter covering a followed directly by b.
func MergeLetters(a, b Letter) (Letter, error) {
	if a.TripIndex != b.TripIndex || a.Symbol != b.Symbol || a.End+1 != b.Start {
		return Letter{}, fmt.Errorf("merge %v with %v: %w", a, b, ErrNotMergeable)
	}
	return Letter{
		TripIndex: a.TripIndex,
		Start:     a.Start,
		End:       b.End,
		Symbol:    a.Symbol,
	}, nil
}

// Pattern is a per-dimension symbol string.
type Pattern []string

// Key returns a comparable representation used for grouping.
func (p Pattern) Key() string {
	return strings.Join(p, "|")
}

// String implements fmt.Stringer.
func (p Pattern) String() string {
	return "(" + strings.Join(p, ", ") + ")"
}

// Equal reports whether both patterns hold the same symbols.
func (p Pattern) Equal(o Pattern) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Word is a run of W consecutive letters of one trip.
type Word struct {
	TripIndex  int     `json:"trip_index"`
	Position   int     `json:"position"` // index of the first letter in the trip's letter sequence
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Pattern    Pattern `json:"pattern"`
	RunLengths []int   `json:"run_lengths"`
}

// Size returns the number of letters in the word.
func (w Word) Size() int {
	return len(w.RunLengths)
}

// Pointers returns the sorted union of the letters' offsets.
func (w Word) Pointers() []int {
	p := make([]int, 0, w.End-w.Start+1)
	for i := w.Start; i <= w.End; i++ {
		p = append(p, i)
	}
	return p
}

// SamePointers reports whether both words cover the same offsets of the same trip.
func (w Word) SamePointers(o Word) bool {
	return w.TripIndex == o.TripIndex && w.Start == o.Start && w.End == o.End
}

// Overlaps reports whether both words share at least one offset of the same trip.
func (w Word) Overlaps(o Word) bool {
	return w.TripIndex == o.TripIndex && w.Start <= o.End && o.Start <= w.End
}

// ObservationRange returns the raw sample span covered by the word when each
// letter window spans letterLength samples.
func (w Word) ObservationRange(letterLength int) (start, end int) {
	return w.Start, w.End + letterLength - 1
}
