package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-motif-lab/internal/domain"
)

func describedMotif(id string, lat, lon []string) domain.Motif {
	return domain.Motif{ID: id}.WithDescription(domain.Description{Lat: lat, Lon: lon})
}

func TestSummarize(t *testing.T) {
	motifs := []domain.Motif{
		describedMotif("a", []string{"pos_turn"}, []string{"accel", "brake"}),
		describedMotif("b", []string{"pos_turn"}, []string{"no_man"}),
		describedMotif("c", []string{"neg_turn"}, []string{"accel", "brake"}),
	}
	clusters := []domain.Cluster{
		{Index: 0, MotifIDs: []string{"a", "b", "c"}},
		{Index: 1},
	}

	summaries, err := Summarize(clusters, motifs)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, 3, summaries[0].NMembers)
	assert.Equal(t, []domain.ManeuverShare{
		{Maneuver: "pos_turn", Share: 0.667},
		{Maneuver: "neg_turn", Share: 0.333},
	}, summaries[0].Lat)
	assert.Equal(t, []domain.ManeuverShare{
		{Maneuver: "accel-brake", Share: 0.667},
		{Maneuver: "no_man", Share: 0.333},
	}, summaries[0].Lon)

	assert.Equal(t, 0, summaries[1].NMembers)
	assert.Empty(t, summaries[1].Lat)
}

func TestSummarize_TiesSortedByName(t *testing.T) {
	motifs := []domain.Motif{
		describedMotif("a", []string{"pos_turn"}, []string{"brake"}),
		describedMotif("b", []string{"high_pos_turn"}, []string{"accel"}),
	}

	summaries, err := Summarize([]domain.Cluster{{MotifIDs: []string{"a", "b"}}}, motifs)
	require.NoError(t, err)
	assert.Equal(t, "high_pos_turn", summaries[0].Lat[0].Maneuver)
	assert.Equal(t, "accel", summaries[0].Lon[0].Maneuver)
	assert.Equal(t, 0.5, summaries[0].Lon[1].Share)
}

func TestSummarize_Errors(t *testing.T) {
	_, err := Summarize([]domain.Cluster{{MotifIDs: []string{"x"}}}, nil)
	assert.ErrorIs(t, err, ErrUnknownMotif)

	_, err = Summarize([]domain.Cluster{{MotifIDs: []string{"x"}}}, []domain.Motif{{ID: "x"}})
	assert.ErrorIs(t, err, ErrNoDescription)
}
