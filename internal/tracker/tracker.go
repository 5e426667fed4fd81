// Package tracker groups the pixels of a frame into candidate object regions.
//
// A Track call is self-contained: it allocates its own visited set, runs the
// strategy selected by the config and returns every region it kept. Nothing
// survives between calls, so one Tracker can serve any number of frames.
package tracker

import (
	"pill-counter/internal/models"
)

// Result is the outcome of one Track call.
type Result struct {
	Regions []models.Region
	// Mode is the strategy that produced Regions.
	Mode models.TrackerMode
	// FallbackUsed is set when contour tracing found nothing and the bounds
	// fill ran instead.
	FallbackUsed bool
}

// Count returns the number of regions.
func (r Result) Count() int {
	return len(r.Regions)
}

type Tracker struct {
	registry *Registry
}

// New returns a tracker over the built-in strategies.
func New() *Tracker {
	return NewWithRegistry(NewRegistry())
}

func NewWithRegistry(registry *Registry) *Tracker {
	return &Tracker{registry: registry}
}

// Registry exposes the strategy table for callers that plug in their own.
func (t *Tracker) Registry() *Registry {
	return t.registry
}

// Track finds regions in buf. Frames with no pixels, or whose buffer does not
// match its dimensions, yield an empty result.
func (t *Tracker) Track(buf *models.PixelBuffer, cfg models.TrackerConfig) Result {
	res := Result{Mode: cfg.Mode}
	if buf.Empty() || !buf.Valid() {
		return res
	}
	if cfg.AutoSize {
		cfg = cfg.ForFrame(buf.Width, buf.Height)
	}

	strategy, err := t.registry.Get(cfg.Mode)
	if err != nil {
		return res
	}

	n := buf.Len()
	res.Regions = strategy.Find(buf, cfg, NewVisitSet(n))
	if len(res.Regions) > 0 || cfg.Mode != models.ModeContour || !cfg.Fallback {
		return res
	}

	fallback, err := t.registry.Get(models.ModeBounds)
	if err != nil {
		return res
	}

	// Edge pixels belong to contours, even ones too short to keep, and stay
	// out of the fill.
	visited := NewVisitSet(n)
	for p := 0; p < n; p++ {
		if isEdge(buf, p, cfg.EdgeChannelThreshold) {
			visited.Mark(p)
		}
	}
	res.Regions = fallback.Find(buf, cfg, visited)
	res.Mode = models.ModeBounds
	res.FallbackUsed = true
	return res
}

// TrackFunc runs Track and hands each region to fn in discovery order.
func (t *Tracker) TrackFunc(buf *models.PixelBuffer, cfg models.TrackerConfig, fn func(models.Region)) Result {
	res := t.Track(buf, cfg)
	for _, r := range res.Regions {
		fn(r)
	}
	return res
}
