// Package config holds the typed run configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownField is returned when a config document holds a key that is not a known option.
	ErrUnknownField = errors.New("config: unknown field")

	// ErrMissingAxis is returned when a stage needs the lateral/longitudinal
	// axis indices and they are not set or out of range.
	ErrMissingAxis = errors.New("config: axis index not set")

	// ErrInvalid is returned by Validate.
	ErrInvalid = errors.New("config: invalid value")
)

// Config holds the pipeline configuration
type Config struct {
	LetterWindowLength int      `json:"letter_window_length"`
	MinPatternLength   int      `json:"min_pattern_length"`
	RadiusThreshold    *float64 `json:"radius_threshold,omitempty"`
	EstimateRadius     bool     `json:"estimate_radius"`
	RadiusSampleSize   int      `json:"radius_sample_size"`
	RadiusPercentile   float64  `json:"radius_percentile"`
	RadiusSeed         int64    `json:"radius_seed"`
	ComputeMDL         bool     `json:"compute_mdl"`
	LatAxisIndex       *int     `json:"lat_axis_index,omitempty"`
	LonAxisIndex       *int     `json:"lon_axis_index,omitempty"`
	ClusterEpochs      int      `json:"cluster_epochs"`
	ClusterWindow      int      `json:"cluster_window"`
	Workers            int      `json:"workers"`
	OutputDir          string   `json:"output_dir"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		LetterWindowLength: 10,
		MinPatternLength:   3,
		RadiusSampleSize:   2000,
		RadiusPercentile:   0.5,
		RadiusSeed:         1,
		ComputeMDL:         true,
		ClusterEpochs:      20,
		OutputDir:          filepath.Join("outputs", strconv.FormatInt(time.Now().Unix(), 10)),
	}
}

// Parse decodes a JSON document over the defaults. Unknown keys fail.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, strings.TrimPrefix(err.Error(), "json: unknown field "))
		}
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Load reads a JSON config file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ApplyEnv overrides fields from TRIPMD_* environment variables.
func (c *Config) ApplyEnv() {
	c.LetterWindowLength = getEnvInt("TRIPMD_LETTER_WINDOW_LENGTH", c.LetterWindowLength)
	c.MinPatternLength = getEnvInt("TRIPMD_MIN_PATTERN_LENGTH", c.MinPatternLength)
	c.ComputeMDL = getEnvBool("TRIPMD_COMPUTE_MDL", c.ComputeMDL)
	c.EstimateRadius = getEnvBool("TRIPMD_ESTIMATE_RADIUS", c.EstimateRadius)
	c.ClusterEpochs = getEnvInt("TRIPMD_CLUSTER_EPOCHS", c.ClusterEpochs)
	c.Workers = getEnvInt("TRIPMD_WORKERS", c.Workers)
	c.OutputDir = getEnv("TRIPMD_OUTPUT_DIR", c.OutputDir)

	if v := os.Getenv("TRIPMD_RADIUS_THRESHOLD"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			c.RadiusThreshold = &r
		}
	}
	if v := os.Getenv("TRIPMD_LAT_AXIS_INDEX"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			c.LatAxisIndex = &i
		}
	}
	if v := os.Getenv("TRIPMD_LON_AXIS_INDEX"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			c.LonAxisIndex = &i
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LetterWindowLength < 1 {
		return fmt.Errorf("%w: letter_window_length must be at least 1", ErrInvalid)
	}
	if c.MinPatternLength < 1 {
		return fmt.Errorf("%w: min_pattern_length must be at least 1", ErrInvalid)
	}
	if c.RadiusThreshold != nil && *c.RadiusThreshold <= 0 {
		return fmt.Errorf("%w: radius_threshold must be positive", ErrInvalid)
	}
	if c.RadiusThreshold == nil && !c.EstimateRadius {
		return fmt.Errorf("%w: radius_threshold is required unless estimate_radius is set", ErrInvalid)
	}
	if c.RadiusPercentile < 0 || c.RadiusPercentile > 100 {
		return fmt.Errorf("%w: radius_percentile must be between 0 and 100", ErrInvalid)
	}
	if c.EstimateRadius && c.RadiusSampleSize < 2 {
		return fmt.Errorf("%w: radius_sample_size must be at least 2", ErrInvalid)
	}
	if c.ClusterEpochs < 0 || c.ClusterWindow < 0 || c.Workers < 0 {
		return fmt.Errorf("%w: cluster_epochs, cluster_window and workers must not be negative", ErrInvalid)
	}
	return nil
}

// RequireAxes returns the lateral and longitudinal axis indices.
// dims bounds the indices when positive.
func (c *Config) RequireAxes(dims int) (lat, lon int, err error) {
	if c.LatAxisIndex == nil {
		return 0, 0, fmt.Errorf("%w: lat_axis_index", ErrMissingAxis)
	}
	if c.LonAxisIndex == nil {
		return 0, 0, fmt.Errorf("%w: lon_axis_index", ErrMissingAxis)
	}
	lat, lon = *c.LatAxisIndex, *c.LonAxisIndex
	if lat < 0 || (dims > 0 && lat >= dims) {
		return 0, 0, fmt.Errorf("%w: lat_axis_index %d outside %d dimensions", ErrMissingAxis, lat, dims)
	}
	if lon < 0 || (dims > 0 && lon >= dims) {
		return 0, 0, fmt.Errorf("%w: lon_axis_index %d outside %d dimensions", ErrMissingAxis, lon, dims)
	}
	return lat, lon, nil
}

// HasAxes reports whether both axis indices are set.
func (c *Config) HasAxes() bool {
	return c.LatAxisIndex != nil && c.LonAxisIndex != nil
}

// ClusterWindowSize returns the DTW-SOM warping window: half a letter by default.
func (c *Config) ClusterWindowSize() int {
	if c.ClusterWindow > 0 {
		return c.ClusterWindow
	}
	return int(math.Round(float64(c.LetterWindowLength) / 2))
}

// RadiusSampleWindow returns the sample window length used for radius estimation.
func (c *Config) RadiusSampleWindow() int {
	return c.LetterWindowLength * c.MinPatternLength
}

// JSON returns the configuration snapshot stored with a run.
func (c *Config) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for optional fields.
func Int(v int) *int { return &v }

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
