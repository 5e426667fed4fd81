package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pill-counter/internal/models"
	"pill-counter/internal/pipeline"
	"pill-counter/internal/processing/integral"
)

// DefaultConfigPath is the documented defaults file, relative to the repository root.
const DefaultConfigPath = "config/defaults.json"

// Config is the JSON configuration of the counter. Every field is optional;
// the Get* methods fall back to the built-in defaults, so partial files are safe.
type Config struct {
	// Tracker params
	Mode                        *string  `json:"mode,omitempty"` // contour, color or bounds
	Fallback                    *bool    `json:"fallback,omitempty"`
	ColorDistanceThreshold      *float64 `json:"color_distance_threshold,omitempty"`
	NoMatchDepthLimit           *int     `json:"no_match_depth_limit,omitempty"`
	EdgeChannelThreshold        *int     `json:"edge_channel_threshold,omitempty"`
	MinContourLength            *int     `json:"min_contour_length,omitempty"`
	BackgroundDistanceThreshold *float64 `json:"background_distance_threshold,omitempty"`
	// Fixed group sizes in pixels. When both are unset they follow the frame area.
	MinGroupSize *float64 `json:"min_group_size,omitempty"`
	MaxGroupSize *float64 `json:"max_group_size,omitempty"`

	// Stage params
	Blur         *bool    `json:"blur,omitempty"`
	BlurDiameter *float64 `json:"blur_diameter,omitempty"`
	Equalize     *bool    `json:"equalize,omitempty"`
	Integral     *bool    `json:"integral,omitempty"`
	Edges        *bool    `json:"edges,omitempty"`
	MaxFrames    *int     `json:"max_frames,omitempty"`

	// Logging params
	LogLevel *string `json:"log_level,omitempty"`
	LogJSON  *bool   `json:"log_json,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file with a .json extension no larger than 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates JSON configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.Mode != nil {
		if _, err := models.ParseTrackerMode(*c.Mode); err != nil {
			return err
		}
	}
	if c.ColorDistanceThreshold != nil && *c.ColorDistanceThreshold <= 0 {
		return fmt.Errorf("color_distance_threshold must be positive, got %f", *c.ColorDistanceThreshold)
	}
	if c.NoMatchDepthLimit != nil && *c.NoMatchDepthLimit < 1 {
		return fmt.Errorf("no_match_depth_limit must be at least 1, got %d", *c.NoMatchDepthLimit)
	}
	if c.EdgeChannelThreshold != nil && (*c.EdgeChannelThreshold < 0 || *c.EdgeChannelThreshold > 254) {
		return fmt.Errorf("edge_channel_threshold must be between 0 and 254, got %d", *c.EdgeChannelThreshold)
	}
	if c.MinContourLength != nil && *c.MinContourLength < 1 {
		return fmt.Errorf("min_contour_length must be at least 1, got %d", *c.MinContourLength)
	}
	if c.BackgroundDistanceThreshold != nil && *c.BackgroundDistanceThreshold < 0 {
		return fmt.Errorf("background_distance_threshold must be non-negative, got %f", *c.BackgroundDistanceThreshold)
	}
	if (c.MinGroupSize == nil) != (c.MaxGroupSize == nil) {
		return fmt.Errorf("min_group_size and max_group_size must be set together")
	}
	if c.MinGroupSize != nil && (*c.MinGroupSize < 0 || *c.MaxGroupSize < *c.MinGroupSize) {
		return fmt.Errorf("group sizes must satisfy 0 <= min <= max, got %f and %f", *c.MinGroupSize, *c.MaxGroupSize)
	}
	if c.BlurDiameter != nil && !(*c.BlurDiameter > 1 || *c.BlurDiameter < -1) {
		return fmt.Errorf("blur_diameter must exceed 1 in magnitude, got %f", *c.BlurDiameter)
	}
	if c.MaxFrames != nil && *c.MaxFrames < 0 {
		return fmt.Errorf("max_frames must be non-negative, got %d", *c.MaxFrames)
	}
	return nil
}

// GetMode returns the tracker mode or ModeContour.
func (c *Config) GetMode() models.TrackerMode {
	if c.Mode == nil {
		return models.ModeContour
	}
	m, err := models.ParseTrackerMode(*c.Mode)
	if err != nil {
		return models.ModeContour
	}
	return m
}

func (c *Config) GetFallback() bool {
	if c.Fallback == nil {
		return false
	}
	return *c.Fallback
}

func (c *Config) GetColorDistanceThreshold() float64 {
	if c.ColorDistanceThreshold == nil {
		return models.DefaultColorDistanceThreshold
	}
	return *c.ColorDistanceThreshold
}

func (c *Config) GetNoMatchDepthLimit() int {
	if c.NoMatchDepthLimit == nil {
		return models.DefaultNoMatchDepthLimit
	}
	return *c.NoMatchDepthLimit
}

func (c *Config) GetEdgeChannelThreshold() uint8 {
	if c.EdgeChannelThreshold == nil {
		return models.DefaultEdgeChannelThreshold
	}
	return uint8(*c.EdgeChannelThreshold)
}

func (c *Config) GetMinContourLength() int {
	if c.MinContourLength == nil {
		return models.DefaultMinContourLength
	}
	return *c.MinContourLength
}

func (c *Config) GetBackgroundDistanceThreshold() float64 {
	if c.BackgroundDistanceThreshold == nil {
		return models.DefaultBackgroundDistanceThreshold
	}
	return *c.BackgroundDistanceThreshold
}

func (c *Config) GetBlur() bool {
	if c.Blur == nil {
		return true
	}
	return *c.Blur
}

func (c *Config) GetBlurDiameter() float64 {
	if c.BlurDiameter == nil {
		return 3
	}
	return *c.BlurDiameter
}

func (c *Config) GetEqualize() bool {
	if c.Equalize == nil {
		return true
	}
	return *c.Equalize
}

func (c *Config) GetIntegral() bool {
	if c.Integral == nil {
		return true
	}
	return *c.Integral
}

func (c *Config) GetEdges() bool {
	if c.Edges == nil {
		return true
	}
	return *c.Edges
}

func (c *Config) GetMaxFrames() int {
	if c.MaxFrames == nil {
		return 0
	}
	return *c.MaxFrames
}

func (c *Config) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return "info"
	}
	return *c.LogLevel
}

func (c *Config) GetLogJSON() bool {
	if c.LogJSON == nil {
		return false
	}
	return *c.LogJSON
}

// TrackerConfig builds the tracker configuration. Group sizes follow the frame
// area unless both are fixed in the file.
func (c *Config) TrackerConfig() models.TrackerConfig {
	tc := models.DefaultTrackerConfig()
	tc.Mode = c.GetMode()
	tc.Fallback = c.GetFallback()
	tc.ColorDistanceThreshold = c.GetColorDistanceThreshold()
	tc.NoMatchDepthLimit = c.GetNoMatchDepthLimit()
	tc.EdgeChannelThreshold = c.GetEdgeChannelThreshold()
	tc.MinContourLength = c.GetMinContourLength()
	tc.BackgroundDistanceThreshold = c.GetBackgroundDistanceThreshold()
	if c.MinGroupSize != nil && c.MaxGroupSize != nil {
		tc.AutoSize = false
		tc.MinGroupSize = *c.MinGroupSize
		tc.MaxGroupSize = *c.MaxGroupSize
	}
	return tc
}

// PipelineOptions builds the per-frame stage options.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Blur = c.GetBlur()
	opts.BlurDiameter = c.GetBlurDiameter()
	opts.Equalize = c.GetEqualize()
	opts.Integral = c.GetIntegral()
	opts.IntegralOpts = integral.Options{Sum: true, SquareSum: true, Tilted: true, Sobel: true}
	opts.Edges = c.GetEdges()
	opts.MaxFrames = c.GetMaxFrames()
	opts.Tracker = c.TrackerConfig()
	return opts
}

// Set helpers used by command-line overrides.

func (c *Config) SetMode(mode string)       { c.Mode = ptrString(mode) }
func (c *Config) SetFallback(v bool)        { c.Fallback = ptrBool(v) }
func (c *Config) SetBlurDiameter(d float64) { c.BlurDiameter = ptrFloat64(d) }
func (c *Config) SetMaxFrames(n int)        { c.MaxFrames = ptrInt(n) }
func (c *Config) SetLogLevel(level string)  { c.LogLevel = ptrString(level) }
func (c *Config) SetLogJSON(v bool)         { c.LogJSON = ptrBool(v) }
func (c *Config) SetBlur(v bool)            { c.Blur = ptrBool(v) }
