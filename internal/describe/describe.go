// Package describe maps symbol strings to human-readable maneuvers.
package describe

import (
	"fmt"
	"strings"

	"trip-motif-lab/internal/config"
	"trip-motif-lab/internal/domain"
)

// NoManeuver is the description of a symbol string without any maneuver.
const NoManeuver = "no_man"

// Intensity classes emitted by the splitter.
const (
	HighNeg = "high_neg"
	LowNeg  = "low_neg"
	LowPos  = "low_pos"
	HighPos = "high_pos"
)

// LatLabels labels lateral acceleration maneuvers.
var LatLabels = map[string]string{
	HighNeg: "high_neg_turn",
	LowNeg:  "neg_turn",
	LowPos:  "pos_turn",
	HighPos: "high_pos_turn",
}

// LonLabels labels longitudinal acceleration maneuvers.
var LonLabels = map[string]string{
	HighNeg: "strong_brake",
	LowNeg:  "brake",
	LowPos:  "accel",
	HighPos: "strong_accel",
}

// Describer labels motif patterns using the lateral and longitudinal axes.
type Describer struct {
	lat, lon int
}

// New creates a Describer for patterns of dims dimensions.
func New(lat, lon, dims int) (*Describer, error) {
	if lat < 0 || lat >= dims {
		return nil, fmt.Errorf("%w: lat axis %d of %d dimensions", config.ErrMissingAxis, lat, dims)
	}
	if lon < 0 || lon >= dims {
		return nil, fmt.Errorf("%w: lon axis %d of %d dimensions", config.ErrMissingAxis, lon, dims)
	}
	return &Describer{lat: lat, lon: lon}, nil
}

// Pattern describes one per-dimension pattern.
func (d *Describer) Pattern(p domain.Pattern) (domain.Description, error) {
	if d.lat >= len(p) || d.lon >= len(p) {
		return domain.Description{}, fmt.Errorf("%w: pattern %s has %d dimensions", config.ErrMissingAxis, p, len(p))
	}
	return domain.Description{
		Lat: Maneuvers(p[d.lat], LatLabels),
		Lon: Maneuvers(p[d.lon], LonLabels),
	}, nil
}

// Motifs returns copies of motifs carrying their description.
func (d *Describer) Motifs(motifs []domain.Motif) ([]domain.Motif, error) {
	out := make([]domain.Motif, len(motifs))
	for i, m := range motifs {
		desc, err := d.Pattern(m.Pattern)
		if err != nil {
			return nil, fmt.Errorf("describe motif %s: %w", m.ID, err)
		}
		out[i] = m.WithDescription(desc)
	}
	return out, nil
}

// Maneuvers splits a symbol string at sign changes and labels each part.
// A run leaving d/e ends a positive maneuver, a run leaving a/b ends a
// negative one; the strong class applies when the run reached e or a.
func Maneuvers(symbols string, labels map[string]string) []string {
	if symbols == "" {
		return []string{NoManeuver}
	}

	var out []string
	current := symbols[:1]
	for i := 1; i < len(symbols); i++ {
		s := symbols[i]
		last := current[len(current)-1]
		switch {
		case strings.IndexByte("abc", s) >= 0 && strings.IndexByte("de", last) >= 0:
			out = append(out, labels[positive(current)])
			current = symbols[i : i+1]
		case strings.IndexByte("dec", s) >= 0 && strings.IndexByte("ab", last) >= 0:
			out = append(out, labels[negative(current)])
			current = symbols[i : i+1]
		default:
			current += symbols[i : i+1]
		}
	}

	if symbols[len(symbols)-1] != 'c' {
		switch {
		case strings.Contains(current, "e"):
			out = append(out, labels[HighPos])
		case strings.Contains(current, "d"):
			out = append(out, labels[LowPos])
		case strings.Contains(current, "a"):
			out = append(out, labels[HighNeg])
		default:
			out = append(out, labels[LowNeg])
		}
	}

	if len(out) == 0 {
		return []string{NoManeuver}
	}
	return out
}

func positive(run string) string {
	if strings.Contains(run, "e") {
		return HighPos
	}
	return LowPos
}

func negative(run string) string {
	if strings.Contains(run, "a") {
		return HighNeg
	}
	return LowNeg
}

// Join renders a maneuver list as one string.
func Join(maneuvers []string) string {
	return strings.Join(maneuvers, "-")
}
