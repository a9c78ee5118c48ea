package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.LetterWindowLength)
	assert.Equal(t, 3, cfg.MinPatternLength)
	assert.Nil(t, cfg.RadiusThreshold)
	assert.Equal(t, 2000, cfg.RadiusSampleSize)
	assert.Equal(t, 0.5, cfg.RadiusPercentile)
	assert.True(t, cfg.ComputeMDL)
	assert.Equal(t, 20, cfg.ClusterEpochs)
	assert.Equal(t, 5, cfg.ClusterWindowSize())
	assert.Equal(t, 30, cfg.RadiusSampleWindow())
	assert.True(t, strings.HasPrefix(cfg.OutputDir, "outputs"))
}

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`{
		"letter_window_length": 4,
		"radius_threshold": 1.5,
		"lat_axis_index": 1,
		"lon_axis_index": 0
	}`))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.LetterWindowLength)
	assert.Equal(t, 3, cfg.MinPatternLength, "defaults kept")
	require.NotNil(t, cfg.RadiusThreshold)
	assert.Equal(t, 1.5, *cfg.RadiusThreshold)
	assert.NoError(t, cfg.Validate())

	lat, lon, err := cfg.RequireAxes(2)
	require.NoError(t, err)
	assert.Equal(t, 1, lat)
	assert.Equal(t, 0, lon)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"max_radius": 2}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), "max_radius")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.LetterWindowLength)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "radius set", mutate: func(c *Config) { c.RadiusThreshold = Float(1) }},
		{name: "estimated radius", mutate: func(c *Config) { c.EstimateRadius = true }},
		{name: "radius missing", mutate: func(c *Config) {}, wantErr: true},
		{name: "zero radius", mutate: func(c *Config) { c.RadiusThreshold = Float(0) }, wantErr: true},
		{name: "zero letter length", mutate: func(c *Config) {
			c.RadiusThreshold = Float(1)
			c.LetterWindowLength = 0
		}, wantErr: true},
		{name: "zero pattern length", mutate: func(c *Config) {
			c.RadiusThreshold = Float(1)
			c.MinPatternLength = 0
		}, wantErr: true},
		{name: "percentile out of range", mutate: func(c *Config) {
			c.EstimateRadius = true
			c.RadiusPercentile = 101
		}, wantErr: true},
		{name: "negative workers", mutate: func(c *Config) {
			c.RadiusThreshold = Float(1)
			c.Workers = -1
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequireAxes(t *testing.T) {
	cfg := Default()
	_, _, err := cfg.RequireAxes(2)
	assert.ErrorIs(t, err, ErrMissingAxis)
	assert.False(t, cfg.HasAxes())

	cfg.LatAxisIndex = Int(0)
	_, _, err = cfg.RequireAxes(2)
	assert.ErrorIs(t, err, ErrMissingAxis)

	cfg.LonAxisIndex = Int(2)
	_, _, err = cfg.RequireAxes(2)
	assert.ErrorIs(t, err, ErrMissingAxis)

	_, _, err = cfg.RequireAxes(0)
	assert.NoError(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TRIPMD_LETTER_WINDOW_LENGTH", "25")
	t.Setenv("TRIPMD_RADIUS_THRESHOLD", "0.75")
	t.Setenv("TRIPMD_COMPUTE_MDL", "false")
	t.Setenv("TRIPMD_LAT_AXIS_INDEX", "3")
	t.Setenv("TRIPMD_WORKERS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, 25, cfg.LetterWindowLength)
	require.NotNil(t, cfg.RadiusThreshold)
	assert.Equal(t, 0.75, *cfg.RadiusThreshold)
	assert.False(t, cfg.ComputeMDL)
	require.NotNil(t, cfg.LatAxisIndex)
	assert.Equal(t, 3, *cfg.LatAxisIndex)
	assert.Equal(t, 0, cfg.Workers)
}
