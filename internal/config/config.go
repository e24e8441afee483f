// Package config loads the server's tunables from LINEFIELD_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/linefield-mcp/internal/consolidate"
	"github.com/ironsheep/linefield-mcp/internal/detection"
	"github.com/ironsheep/linefield-mcp/internal/field"
	"github.com/ironsheep/linefield-mcp/internal/render"
)

const (
	// DefaultAngleToleranceDeg is the duplicate-elimination angle tolerance
	// in degrees (π/45 radians).
	DefaultAngleToleranceDeg = 4.0
	// DefaultDistanceTolerance is the duplicate-elimination distance tolerance.
	DefaultDistanceTolerance = 10.0
	// DefaultSnapTolerance is the endpoint snapping tolerance.
	DefaultSnapTolerance = 10.0

	// DefaultExclusionRadius is the zone of exclusion around every segment.
	DefaultExclusionRadius = 10.0
	// DefaultResolution is the sampling grid, as XxYxZ.
	DefaultResolution = "41x41x21"

	// DefaultPreviewSize bounds both sides of rendered previews.
	DefaultPreviewSize = 800

	// DefaultLogLevel controls verbosity. "debug" enables per-stage logs.
	DefaultLogLevel = "info"
)

// Config captures all runtime tunables.
type Config struct {
	Consolidate consolidate.Options
	Field       field.Options
	Detection   detection.Options
	Preview     render.Options
	LogLevel    string
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	preview := render.DefaultOptions()
	preview.MaxSize = DefaultPreviewSize
	return &Config{
		Consolidate: consolidate.Options{
			AngleTolerance:    DefaultAngleToleranceDeg * math.Pi / 180,
			DistanceTolerance: DefaultDistanceTolerance,
			SnapTolerance:     DefaultSnapTolerance,
		},
		Field: field.Options{
			Resolution:      field.DefaultOptions().Resolution,
			ExclusionRadius: DefaultExclusionRadius,
		},
		Detection: detection.DefaultOptions(),
		Preview:   preview,
		LogLevel:  DefaultLogLevel,
	}
}

// Load reads the configuration from environment variables, applying defaults
// and returning one error that lists every invalid override.
func Load() (*Config, error) {
	cfg := Default()
	cfg.LogLevel = strings.ToLower(getString("LINEFIELD_LOG_LEVEL", DefaultLogLevel))

	var problems []string
	nonNegative := func(key string, dst *float64) {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			problems = append(problems, fmt.Sprintf("%s must be a non-negative number, got %q", key, raw))
			return
		}
		*dst = value
	}
	positive := func(key string, dst *int) {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be a positive integer, got %q", key, raw))
			return
		}
		*dst = value
	}

	angle := DefaultAngleToleranceDeg
	nonNegative("LINEFIELD_ANGLE_TOLERANCE_DEG", &angle)
	cfg.Consolidate.AngleTolerance = angle * math.Pi / 180
	nonNegative("LINEFIELD_DISTANCE_TOLERANCE", &cfg.Consolidate.DistanceTolerance)
	nonNegative("LINEFIELD_SNAP_TOLERANCE", &cfg.Consolidate.SnapTolerance)
	nonNegative("LINEFIELD_EXCLUSION_RADIUS", &cfg.Field.ExclusionRadius)

	if raw := strings.TrimSpace(os.Getenv("LINEFIELD_RESOLUTION")); raw != "" {
		res, err := ParseResolution(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("LINEFIELD_RESOLUTION %v", err))
		} else {
			cfg.Field.Resolution = res
		}
	}

	positive("LINEFIELD_HOUGH_THRESHOLD", &cfg.Detection.Threshold)
	nonNegative("LINEFIELD_MIN_LENGTH", &cfg.Detection.MinLength)
	nonNegative("LINEFIELD_MAX_GAP", &cfg.Detection.MaxGap)
	positive("LINEFIELD_MAX_LINES", &cfg.Detection.MaxLines)

	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("LINEFIELD_PREPROCESS"))); raw != "" {
		switch mode := detection.Preprocess(raw); mode {
		case detection.PreprocessThreshold, detection.PreprocessCanny:
			cfg.Detection.Preprocess = mode
		default:
			problems = append(problems, fmt.Sprintf("LINEFIELD_PREPROCESS must be %q or %q, got %q",
				detection.PreprocessThreshold, detection.PreprocessCanny, raw))
		}
	}

	if raw := strings.TrimSpace(os.Getenv("LINEFIELD_FOREGROUND_LEVEL")); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			problems = append(problems, fmt.Sprintf("LINEFIELD_FOREGROUND_LEVEL must be an integer from 0 to 255, got %q", raw))
		} else {
			cfg.Detection.Level = uint8(value)
		}
	}

	positive("LINEFIELD_PREVIEW_SIZE", &cfg.Preview.MaxSize)

	switch cfg.LogLevel {
	case "debug", "info":
	default:
		problems = append(problems, fmt.Sprintf("LINEFIELD_LOG_LEVEL must be \"debug\" or \"info\", got %q", cfg.LogLevel))
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

// ParseResolution parses a grid resolution written as XxYxZ, for example
// "41x41x21".
func ParseResolution(raw string) (field.Resolution, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), "x")
	if len(parts) != 3 {
		return field.Resolution{}, fmt.Errorf("must look like 41x41x21, got %q", raw)
	}
	var dims [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return field.Resolution{}, fmt.Errorf("must have three positive counts, got %q", raw)
		}
		dims[i] = n
	}
	res := field.Resolution{X: dims[0], Y: dims[1], Z: dims[2]}
	if err := res.Validate(); err != nil {
		return field.Resolution{}, err
	}
	return res, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
