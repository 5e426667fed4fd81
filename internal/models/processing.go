package models

import (
	"fmt"
	"strings"
)

// TrackerMode selects the region expansion strategy.
type TrackerMode int

const (
	// ModeContour traces near-white edge contours. This is what a plain Track call runs.
	ModeContour TrackerMode = iota
	// ModeColor grows regions by perceptual color similarity to a seed.
	ModeColor
	// ModeBounds floods unvisited pixels into bounding-rectangle regions.
	ModeBounds
)

func (m TrackerMode) String() string {
	switch m {
	case ModeContour:
		return "contour"
	case ModeColor:
		return "color"
	case ModeBounds:
		return "bounds"
	default:
		return fmt.Sprintf("TrackerMode(%d)", int(m))
	}
}

// ParseTrackerMode accepts the names produced by String.
func ParseTrackerMode(s string) (TrackerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contour", "":
		return ModeContour, nil
	case "color", "colour":
		return ModeColor, nil
	case "bounds":
		return ModeBounds, nil
	}
	return ModeContour, fmt.Errorf("unknown tracker mode: %q", s)
}

// Default tracker parameters.
const (
	DefaultColorDistanceThreshold      = 40.0
	DefaultNoMatchDepthLimit           = 8
	DefaultEdgeChannelThreshold        = 200
	DefaultMinContourLength            = 100
	DefaultBackgroundDistanceThreshold = 45.0
	DefaultMinGroupFraction            = 0.0005
	DefaultMaxGroupFraction            = 0.2
)

// TrackerConfig holds the region tracker thresholds. Sizes are pixel counts.
type TrackerConfig struct {
	MinGroupSize float64
	MaxGroupSize float64

	// ColorDistanceThreshold is the Lab distance below which a neighbor joins a color region.
	ColorDistanceThreshold float64
	// NoMatchDepthLimit bounds consecutive rejected neighbors inside one expansion layer.
	NoMatchDepthLimit int

	// EdgeChannelThreshold is the value every RGB channel must exceed for an edge pixel.
	EdgeChannelThreshold uint8
	MinContourLength     int

	// BackgroundDistanceThreshold is the Lab distance above which the bounds fill stops.
	BackgroundDistanceThreshold float64

	Mode TrackerMode
	// Fallback runs the bounds fill when contour tracing finds nothing.
	Fallback bool
	// AutoSize recomputes Min/MaxGroupSize from every frame's dimensions.
	AutoSize bool
}

// DefaultTrackerConfig returns the stock configuration. Group sizes are filled per frame.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		ColorDistanceThreshold:      DefaultColorDistanceThreshold,
		NoMatchDepthLimit:           DefaultNoMatchDepthLimit,
		EdgeChannelThreshold:        DefaultEdgeChannelThreshold,
		MinContourLength:            DefaultMinContourLength,
		BackgroundDistanceThreshold: DefaultBackgroundDistanceThreshold,
		Mode:                        ModeContour,
		AutoSize:                    true,
	}
}

// ForFrame returns a copy with group sizes derived from the frame area.
func (c TrackerConfig) ForFrame(width, height int) TrackerConfig {
	area := float64(width) * float64(height)
	c.MinGroupSize = DefaultMinGroupFraction * area
	c.MaxGroupSize = DefaultMaxGroupFraction * area
	return c
}
