// Package loader builds trips from flat tables with one row per sample.
package loader

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"trip-motif-lab/internal/domain"
)

// Loader errors.
var (
	// ErrMissingColumn is returned when a configured field is not a table column.
	ErrMissingColumn = errors.New("missing column")

	// ErrNoSignalColumns is returned when every column is excluded.
	ErrNoSignalColumns = errors.New("no signal columns")

	// ErrUnsupportedValue is returned for cells that cannot be converted.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// Options names the special columns of a table.
type Options struct {
	TripIDField    string
	TimestampField string   // optional
	LabelFields    []string // optional, in label sequence order
	ExcludedFields []string
}

// Table is a flat table: named columns and rows of cells.
type Table struct {
	Columns []string
	Rows    [][]any
}

// SignalColumns returns the columns that are neither trip id, timestamp,
// label nor excluded, sorted by name.
func SignalColumns(columns []string, opts Options) []string {
	skip := map[string]struct{}{opts.TripIDField: {}}
	if opts.TimestampField != "" {
		skip[opts.TimestampField] = struct{}{}
	}
	for _, f := range opts.LabelFields {
		skip[f] = struct{}{}
	}
	for _, f := range opts.ExcludedFields {
		skip[f] = struct{}{}
	}

	var signals []string
	for _, c := range columns {
		if _, ok := skip[c]; !ok {
			signals = append(signals, c)
		}
	}
	sort.Strings(signals)
	return signals
}

// FromTable groups rows by trip id. Trips are ordered by id; samples keep
// their row order within a trip.
func FromTable(t Table, opts Options) ([]*domain.Trip, error) {
	index := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		index[c] = i
	}

	column := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("column %q: %w", name, ErrMissingColumn)
		}
		return i, nil
	}

	idCol, err := column(opts.TripIDField)
	if err != nil {
		return nil, err
	}
	tsCol := -1
	if opts.TimestampField != "" {
		if tsCol, err = column(opts.TimestampField); err != nil {
			return nil, err
		}
	}
	labelCols := make([]int, len(opts.LabelFields))
	for i, f := range opts.LabelFields {
		if labelCols[i], err = column(f); err != nil {
			return nil, err
		}
	}

	signals := SignalColumns(t.Columns, opts)
	if len(signals) == 0 {
		return nil, ErrNoSignalColumns
	}
	signalCols := make([]int, len(signals))
	for i, s := range signals {
		signalCols[i] = index[s]
	}

	groups := make(map[string][]int)
	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("row %d has %d cells for %d columns: %w",
				r, len(row), len(t.Columns), domain.ErrSizeMismatch)
		}
		id := toLabel(row[idCol])
		groups[id] = append(groups[id], r)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	trips := make([]*domain.Trip, 0, len(ids))
	for _, id := range ids {
		rows := groups[id]

		dims := make([][]float64, len(signalCols))
		for d, c := range signalCols {
			dims[d] = make([]float64, len(rows))
			for i, r := range rows {
				v, err := toFloat(t.Rows[r][c])
				if err != nil {
					return nil, fmt.Errorf("trip %s column %s row %d: %w", id, signals[d], r, err)
				}
				dims[d][i] = v
			}
		}

		var tripOpts []domain.TripOption
		if tsCol >= 0 {
			ts := make([]int64, len(rows))
			for i, r := range rows {
				v, err := toTimestamp(t.Rows[r][tsCol])
				if err != nil {
					return nil, fmt.Errorf("trip %s timestamp row %d: %w", id, r, err)
				}
				ts[i] = v
			}
			tripOpts = append(tripOpts, domain.WithTimestamps(ts))
		}
		if len(labelCols) > 0 {
			labels := make([][]string, len(labelCols))
			for l, c := range labelCols {
				labels[l] = make([]string, len(rows))
				for i, r := range rows {
					labels[l][i] = toLabel(t.Rows[r][c])
				}
			}
			tripOpts = append(tripOpts, domain.WithLabels(labels...))
		}

		trip, err := domain.NewTrip(id, dims, tripOpts...)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", x, ErrUnsupportedValue)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%T: %w", v, ErrUnsupportedValue)
	}
}

// toTimestamp converts integers as-is and times to Unix milliseconds.
func toTimestamp(v any) (int64, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UnixMilli(), nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	default:
		f, err := toFloat(v)
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	}
}

func toLabel(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
