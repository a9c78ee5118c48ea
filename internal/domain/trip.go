package domain

import (
	"errors"
	"fmt"
)

// Trip errors.
var (
	// ErrSizeMismatch is returned when dimension, timestamp or label
	// sequences of a trip do not share the same length.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrEmptyTrip is returned for a trip without dimensions or samples.
	ErrEmptyTrip = errors.New("empty trip")

	// ErrDimensionCount is returned when trips of one corpus disagree on
	// the number of signal dimensions.
	ErrDimensionCount = errors.New("inconsistent dimension count")

	// ErrEmptyCorpus is returned when a corpus holds no trips.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrIndexOutOfRange is returned for dimension, label or window
	// indices outside the trip.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Trip is an ordered multivariate recording.
// Dimensions are stored dimension-major: Dimensions[d][i] is sample i of dimension d.
type Trip struct {
	ID         string      `json:"id"`
	Dimensions [][]float64 `json:"dimensions"`
	Timestamps []int64     `json:"timestamps"`
	Labels     [][]string  `json:"labels,omitempty"`
}

// TripOption configures optional trip sequences.
type TripOption func(*Trip)

// WithTimestamps sets the timestamp sequence. Defaults to 0..n-1.
func WithTimestamps(ts []int64) TripOption {
	return func(t *Trip) {
		t.Timestamps = append([]int64(nil), ts...)
	}
}

// WithLabels sets parallel label sequences.
func WithLabels(labels ...[]string) TripOption {
	return func(t *Trip) {
		t.Labels = make([][]string, len(labels))
		for i, l := range labels {
			t.Labels[i] = append([]string(nil), l...)
		}
	}
}

// NewTrip builds a validated trip. Input slices are copied.
func NewTrip(id string, dims [][]float64, opts ...TripOption) (*Trip, error) {
	if len(dims) == 0 || len(dims[0]) == 0 {
		return nil, ErrEmptyTrip
	}

	n := len(dims[0])
	t := &Trip{ID: id, Dimensions: make([][]float64, len(dims))}
	for d, values := range dims {
		if len(values) != n {
			return nil, fmt.Errorf("trip %s: dimension %d has %d samples, want %d: %w",
				id, d, len(values), n, ErrSizeMismatch)
		}
		t.Dimensions[d] = append([]float64(nil), values...)
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.Timestamps == nil {
		t.Timestamps = make([]int64, n)
		for i := range t.Timestamps {
			t.Timestamps[i] = int64(i)
		}
	} else if len(t.Timestamps) != n {
		return nil, fmt.Errorf("trip %s: %d timestamps for %d samples: %w",
			id, len(t.Timestamps), n, ErrSizeMismatch)
	}

	for i, l := range t.Labels {
		if len(l) != n {
			return nil, fmt.Errorf("trip %s: label sequence %d has %d entries for %d samples: %w",
				id, i, len(l), n, ErrSizeMismatch)
		}
	}

	return t, nil
}

// Len returns the number of samples.
func (t *Trip) Len() int {
	if len(t.Dimensions) == 0 {
		return 0
	}
	return len(t.Dimensions[0])
}

// NumDims returns the number of signal dimensions.
func (t *Trip) NumDims() int {
	return len(t.Dimensions)
}

// Window returns samples start..end (inclusive) as sample-major rows.
func (t *Trip) Window(start, end int) ([][]float64, error) {
	if start < 0 || end >= t.Len() || start > end {
		return nil, fmt.Errorf("window [%d, %d] of trip %s with %d samples: %w",
			start, end, t.ID, t.Len(), ErrIndexOutOfRange)
	}

	rows := make([][]float64, end-start+1)
	for i := range rows {
		row := make([]float64, len(t.Dimensions))
		for d := range t.Dimensions {
			row[d] = t.Dimensions[d][start+i]
		}
		rows[i] = row
	}
	return rows, nil
}

// WindowLabels returns the labels of sequence labelIndex for samples start..end.
func (t *Trip) WindowLabels(labelIndex, start, end int) ([]string, error) {
	if labelIndex < 0 || labelIndex >= len(t.Labels) {
		return nil, fmt.Errorf("label sequence %d: %w", labelIndex, ErrIndexOutOfRange)
	}
	if start < 0 || end >= t.Len() || start > end {
		return nil, fmt.Errorf("label window [%d, %d]: %w", start, end, ErrIndexOutOfRange)
	}
	return append([]string(nil), t.Labels[labelIndex][start:end+1]...), nil
}

// LabelPointers maps each label value of sequence labelIndex to the sample
// indices carrying it. Values listed in ignore are left out.
func (t *Trip) LabelPointers(labelIndex int, ignore ...string) (map[string][]int, error) {
	if labelIndex < 0 || labelIndex >= len(t.Labels) {
		return nil, fmt.Errorf("label sequence %d: %w", labelIndex, ErrIndexOutOfRange)
	}

	skip := make(map[string]struct{}, len(ignore))
	for _, l := range ignore {
		skip[l] = struct{}{}
	}

	pointers := make(map[string][]int)
	for i, l := range t.Labels[labelIndex] {
		if _, ok := skip[l]; ok {
			continue
		}
		pointers[l] = append(pointers[l], i)
	}
	return pointers, nil
}

// ReplaceDimension swaps the values of dimension d. It is the only
// mutation a trip supports.
func (t *Trip) ReplaceDimension(d int, values []float64) error {
	if d < 0 || d >= len(t.Dimensions) {
		return fmt.Errorf("dimension %d: %w", d, ErrIndexOutOfRange)
	}
	if len(values) != t.Len() {
		return fmt.Errorf("replacement for dimension %d has %d samples, want %d: %w",
			d, len(values), t.Len(), ErrSizeMismatch)
	}
	t.Dimensions[d] = append([]float64(nil), values...)
	return nil
}

// ValidateCorpus checks that a corpus is non-empty and dimension-consistent.
func ValidateCorpus(trips []*Trip) error {
	if len(trips) == 0 {
		return ErrEmptyCorpus
	}
	dims := trips[0].NumDims()
	for i, t := range trips {
		if t.NumDims() != dims {
			return fmt.Errorf("trip %d (%s) has %d dimensions, want %d: %w",
				i, t.ID, t.NumDims(), dims, ErrDimensionCount)
		}
	}
	return nil
}
