// Package mdl scores motifs by minimum description length and prunes
// redundant motifs by center distance.
package mdl

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/stats"
)

var (
	// ErrMemberNotFound is a consistency error: a member word is missing
	// from the reference word list.
	ErrMemberNotFound = errors.New("mdl: member word not in reference words")

	// ErrOverlappingMembers is returned when two members share letters.
	ErrOverlappingMembers = errors.New("mdl: overlapping members")

	// ErrNoMembers is returned when a cost is requested for an empty member set.
	ErrNoMembers = errors.New("mdl: no members")
)

type wordKey struct {
	trip, start, end int
}

// Scorer holds the corpus letter run lengths rebuilt from one round's words.
// It is read-only after construction and safe for concurrent use.
type Scorer struct {
	runs      []int
	positions map[wordKey]int // global letter index of each word's first letter
}

// NewScorer indexes words (all trips, one word size, in trip order).
// Trips are concatenated in order of appearance; trips without words
// do not contribute letters.
func NewScorer(words []domain.Word) *Scorer {
	s := &Scorer{positions: make(map[wordKey]int, len(words))}

	offset := 0
	tripStart := 0
	for i, w := range words {
		if i == 0 || w.TripIndex != words[i-1].TripIndex {
			tripStart = offset
			s.runs = append(s.runs, w.RunLengths...)
			offset += len(w.RunLengths)
		} else {
			s.runs = append(s.runs, w.RunLengths[len(w.RunLengths)-1])
			offset++
		}
		s.positions[wordKey{w.TripIndex, w.Start, w.End}] = tripStart + w.Position
	}
	return s
}

// Letters returns the number of letters in the reference sequence.
func (s *Scorer) Letters() int {
	return len(s.runs)
}

// Cost computes the MDL cost of describing the reference sequence with
// members as repeated units. Member order does not matter.
func (s *Scorer) Cost(members []domain.Word) (float64, error) {
	if len(members) == 0 {
		return 0, ErrNoMembers
	}

	type span struct{ pos, size int }
	spans := make([]span, len(members))
	for i, m := range members {
		pos, ok := s.positions[wordKey{m.TripIndex, m.Start, m.End}]
		if !ok {
			return 0, fmt.Errorf("trip %d offsets [%d, %d]: %w", m.TripIndex, m.Start, m.End, ErrMemberNotFound)
		}
		spans[i] = span{pos: pos, size: m.Size()}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].pos < spans[j].pos })

	var segments [][]int
	cursor := 0
	for _, sp := range spans {
		if sp.pos < cursor {
			return 0, fmt.Errorf("letter %d: %w", sp.pos, ErrOverlappingMembers)
		}
		if sp.pos > cursor {
			segments = append(segments, s.runs[cursor:sp.pos])
		}
		segments = append(segments, s.runs[sp.pos:sp.pos+sp.size])
		cursor = sp.pos + sp.size
	}
	if cursor < len(s.runs) {
		segments = append(segments, s.runs[cursor:])
	}

	return SegmentCost(segments), nil
}

// Cost is a convenience wrapper building a Scorer for a single call.
func Cost(members, words []domain.Word) (float64, error) {
	return NewScorer(words).Cost(members)
}

// SegmentCost sums parameter, data and split costs of a segmentation and
// rounds to two decimals.
func SegmentCost(segments [][]int) float64 {
	var param, data float64
	total := 0
	for _, seg := range segments {
		sum := 0
		for _, l := range seg {
			sum += l
		}
		total += sum

		param += math.Log2(float64(sum))
		for _, l := range seg {
			data -= float64(l) * math.Log2(float64(l)/float64(sum))
		}
	}

	split := float64(len(segments)) * math.Log2(float64(total))
	return stats.Round(param+data+split, 2)
}
