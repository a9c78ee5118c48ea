package vsax

import (
	"fmt"

	"trip-motif-lab/internal/domain"
)

// Sequence holds the letter sequences of a whole corpus. Letters do not
// depend on the word size, so they are built once and reused every round.
type Sequence struct {
	trips        []*domain.Trip
	letterLength int
	breakpoints  *Breakpoints
	letters      [][]domain.Letter
}

// NewSequence encodes trips with letters of letterLength samples.
// When bp is nil, breakpoints are estimated from the corpus.
func NewSequence(trips []*domain.Trip, letterLength int, bp *Breakpoints) (*Sequence, error) {
	if err := domain.ValidateCorpus(trips); err != nil {
		return nil, err
	}

	if bp == nil {
		var err error
		bp, err = EstimateBreakpoints(trips)
		if err != nil {
			return nil, err
		}
	}

	s := &Sequence{
		trips:        trips,
		letterLength: letterLength,
		breakpoints:  bp,
		letters:      make([][]domain.Letter, len(trips)),
	}
	for i, t := range trips {
		letters, err := BuildLetters(t, i, letterLength, bp)
		if err != nil {
			return nil, fmt.Errorf("encode trip %d (%s): %w", i, t.ID, err)
		}
		s.letters[i] = letters
	}
	return s, nil
}

// Trips returns the encoded corpus.
func (s *Sequence) Trips() []*domain.Trip { return s.trips }

// LetterLength returns the samples per letter window.
func (s *Sequence) LetterLength() int { return s.letterLength }

// Breakpoints returns the cuts used for encoding.
func (s *Sequence) Breakpoints() *Breakpoints { return s.breakpoints }

// Letters returns the letter sequence of one trip.
func (s *Sequence) Letters(tripIndex int) []domain.Letter {
	return s.letters[tripIndex]
}

// LetterCount returns the number of letters across the corpus.
func (s *Sequence) LetterCount() int {
	n := 0
	for _, l := range s.letters {
		n += len(l)
	}
	return n
}

// Words returns the words of size letters for every trip, in trip order.
func (s *Sequence) Words(size int) []domain.Word {
	var words []domain.Word
	for _, letters := range s.letters {
		words = append(words, BuildWords(letters, size)...)
	}
	return words
}

// Observation returns the raw samples covered by w.
func (s *Sequence) Observation(w domain.Word) ([][]float64, error) {
	return Observation(s.trips, w, s.letterLength)
}

// Observation returns the raw samples of trips[w.TripIndex] covered by w.
func Observation(trips []*domain.Trip, w domain.Word, letterLength int) ([][]float64, error) {
	if w.TripIndex < 0 || w.TripIndex >= len(trips) {
		return nil, fmt.Errorf("word trip index %d: %w", w.TripIndex, domain.ErrIndexOutOfRange)
	}
	start, end := w.ObservationRange(letterLength)
	return trips[w.TripIndex].Window(start, end)
}
