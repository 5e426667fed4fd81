package tracker

import (
	"fmt"
	"sort"
	"sync"

	"pill-counter/internal/models"
)

// Strategy expands seeds into regions. Implementations mark what they consume
// in visited and must not keep state across calls.
type Strategy interface {
	Name() string
	Find(buf *models.PixelBuffer, cfg models.TrackerConfig, visited *VisitSet) []models.Region
}

// Registry maps tracker modes to strategies.
type Registry struct {
	strategies map[models.TrackerMode]Strategy
	mu         sync.RWMutex
}

// NewRegistry returns a registry holding the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		strategies: make(map[models.TrackerMode]Strategy),
	}
	r.registerStrategies()
	return r
}

func (r *Registry) registerStrategies() {
	r.strategies[models.ModeContour] = NewContourTracer()
	r.strategies[models.ModeColor] = NewColorFill()
	r.strategies[models.ModeBounds] = NewBoundsFill()
}

// Register installs or replaces the strategy for a mode.
func (r *Registry) Register(mode models.TrackerMode, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[mode] = s
}

func (r *Registry) Get(mode models.TrackerMode) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, exists := r.strategies[mode]; exists {
		return s, nil
	}
	return nil, fmt.Errorf("no strategy for tracker mode %s", mode)
}

// Available lists registered modes in ascending order.
func (r *Registry) Available() []models.TrackerMode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modes := make([]models.TrackerMode, 0, len(r.strategies))
	for m := range r.strategies {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
