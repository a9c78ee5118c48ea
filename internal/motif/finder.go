// Package motif searches a symbolic corpus for repeated patterns and
// resolves them into motifs with a DTW-checked center and members.
package motif

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/dtw"
	"trip-motif-lab/internal/mdl"
	"trip-motif-lab/internal/vsax"
)

var (
	// ErrInvalidRadius is returned for a non-positive radius.
	ErrInvalidRadius = errors.New("motif: radius must be positive")

	// ErrInvalidLength is returned for a letter length or pattern length below 1.
	ErrInvalidLength = errors.New("motif: lengths must be at least 1")
)

// RoundStats describes one pattern-length round.
type RoundStats struct {
	WordLength       int           `json:"word_length"`
	Words            int           `json:"words"`
	Patterns         int           `json:"patterns"`
	RepeatedPatterns int           `json:"repeated_patterns"`
	Motifs           int           `json:"motifs"`
	DTWPairs         int           `json:"dtw_pairs"`
	Duration         time.Duration `json:"duration"`
}

// Options configures a search.
type Options struct {
	LetterLength     int
	MinPatternLength int
	Radius           float64
	ComputeMDL       bool
	Window           int // DTW warping window for member resolution, 0 means unconstrained
	Workers          int // 0 means runtime.NumCPU()

	// Breakpoints overrides corpus estimation when set.
	Breakpoints *vsax.Breakpoints

	// OnRound is called after every round, including the final one.
	OnRound func(RoundStats)
}

// Result holds all motifs found across rounds.
type Result struct {
	Motifs   []domain.Motif
	Rounds   []RoundStats
	Sequence *vsax.Sequence
}

// Finder runs the pattern-length search.
type Finder struct {
	opts Options
}

// NewFinder validates opts and creates a finder.
func NewFinder(opts Options) (*Finder, error) {
	if opts.LetterLength < 1 || opts.MinPatternLength < 1 {
		return nil, ErrInvalidLength
	}
	if opts.Radius <= 0 {
		return nil, ErrInvalidRadius
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Finder{opts: opts}, nil
}

// Find encodes trips once and grows the word size from MinPatternLength
// until a round has no repeated pattern.
func (f *Finder) Find(ctx context.Context, trips []*domain.Trip) (*Result, error) {
	seq, err := vsax.NewSequence(trips, f.opts.LetterLength, f.opts.Breakpoints)
	if err != nil {
		return nil, fmt.Errorf("encode corpus: %w", err)
	}

	res := &Result{Sequence: seq}
	for size := f.opts.MinPatternLength; ; size++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		words := seq.Words(size)
		groups := GroupByPattern(words)

		stats := RoundStats{
			WordLength: size,
			Words:      len(words),
			Patterns:   len(groups),
		}

		if len(groups) == len(words) {
			stats.Duration = time.Since(start)
			res.Rounds = append(res.Rounds, stats)
			f.report(stats)
			break
		}

		motifs, pairs, repeated, err := f.round(ctx, seq, words, groups, size)
		if err != nil {
			return nil, fmt.Errorf("word length %d: %w", size, err)
		}
		res.Motifs = append(res.Motifs, motifs...)

		stats.RepeatedPatterns = repeated
		stats.Motifs = len(motifs)
		stats.DTWPairs = pairs
		stats.Duration = time.Since(start)
		res.Rounds = append(res.Rounds, stats)
		f.report(stats)
	}

	return res, nil
}

// round resolves every repeated group of one word size. Groups run
// concurrently and each computes its own distance matrix on one goroutine.
func (f *Finder) round(
	ctx context.Context,
	seq *vsax.Sequence,
	words []domain.Word,
	groups []domain.Candidate,
	size int,
) ([]domain.Motif, int, int, error) {
	var scorer *mdl.Scorer
	if f.opts.ComputeMDL {
		scorer = mdl.NewScorer(words)
	}

	var repeated []domain.Candidate
	pairs := 0
	for _, g := range groups {
		if len(g.Words) >= 2 {
			repeated = append(repeated, g)
			pairs += dtw.PairCount(len(g.Words))
		}
	}

	results := make([]*domain.Motif, len(repeated))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)

	for i, cand := range repeated {
		i, cand := i, cand
		g.Go(func() error {
			series := make([][][]float64, len(cand.Words))
			for j, w := range cand.Words {
				obs, err := seq.Observation(w)
				if err != nil {
					return err
				}
				series[j] = obs
			}

			m, ok, err := Resolve(gctx, cand, series, size, f.opts.Radius, dtw.Options{Window: f.opts.Window}, 1)
			if err != nil || !ok {
				return err
			}

			if scorer != nil {
				cost, err := scorer.Cost(m.Members)
				if err != nil {
					return fmt.Errorf("mdl of %s: %w", cand.Pattern, err)
				}
				m.MDL = &cost
			}

			results[i] = &m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, 0, err
	}

	motifs := make([]domain.Motif, 0, len(results))
	for _, m := range results {
		if m != nil {
			motifs = append(motifs, *m)
		}
	}
	return motifs, pairs, len(repeated), nil
}

func (f *Finder) report(s RoundStats) {
	if f.opts.OnRound != nil {
		f.opts.OnRound(s)
	}
}

// GroupByPattern groups words by exact pattern, in order of first occurrence.
// Words inside a group keep their input order.
func GroupByPattern(words []domain.Word) []domain.Candidate {
	index := make(map[string]int)
	var groups []domain.Candidate
	for _, w := range words {
		key := w.Pattern.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.Candidate{Pattern: w.Pattern})
		}
		groups[i].Words = append(groups[i].Words, w)
	}
	return groups
}
