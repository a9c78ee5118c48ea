package domain

// Candidate is an unresolved group of words sharing one pattern,
// in discovery order (trip index, then offset).
type Candidate struct {
	Pattern Pattern
	Words   []Word
}

// Description holds human-readable maneuvers per axis.
type Description struct {
	Lat []string `json:"lat"`
	Lon []string `json:"lon"`
}

// Motif is a resolved motif. It is only produced once center and members
// are known and is not modified afterwards, apart from attaching a description.
type Motif struct {
	ID           string       `json:"id"`
	Pattern      Pattern      `json:"pattern"`
	WordLength   int          `json:"word_length"`
	Radius       float64      `json:"radius"`
	Center       Word         `json:"center"`
	Members      []Word       `json:"members"` // includes Center, ordered by trip and offset
	MeanDistance float64      `json:"mean_distance"`
	MDL          *float64     `json:"mdl,omitempty"`
	Description  *Description `json:"description,omitempty"`
}

// WithDescription returns a copy of m carrying d.
func (m Motif) WithDescription(d Description) Motif {
	m.Description = &d
	return m
}

// HasMDL reports whether an MDL cost is attached.
func (m Motif) HasMDL() bool {
	return m.MDL != nil
}
