package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"
)

type timingKey struct{}

type timingInfo struct {
	stage string
	start time.Time
}

// StageStats aggregates the durations recorded for one stage.
type StageStats struct {
	Count int
	Total time.Duration
	Max   time.Duration
	Last  time.Duration
}

// Average returns Total/Count, or 0 before the first sample.
func (s StageStats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Metrics keeps running per-stage timings across frames. It is safe for
// concurrent use.
type Metrics struct {
	stages  map[string]*StageStats
	frames  int
	regions int
	mu      sync.RWMutex
}

func NewMetrics() *Metrics {
	return &Metrics{
		stages: make(map[string]*StageStats),
	}
}

// StartTiming returns a context carrying the start time of stage.
func (m *Metrics) StartTiming(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, timingKey{}, timingInfo{stage: stage, start: time.Now()})
}

// EndTiming records the time elapsed since the matching StartTiming and returns it.
func (m *Metrics) EndTiming(ctx context.Context) time.Duration {
	info, ok := ctx.Value(timingKey{}).(timingInfo)
	if !ok {
		return 0
	}
	d := time.Since(info.start)
	m.Record(info.stage, d)
	return d
}

// Record adds one sample for stage.
func (m *Metrics) Record(stage string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stages[stage]
	if s == nil {
		s = &StageStats{}
		m.stages[stage] = s
	}
	s.Count++
	s.Total += d
	s.Last = d
	if d > s.Max {
		s.Max = d
	}
}

// FrameDone counts a processed frame and the regions found in it.
func (m *Metrics) FrameDone(regions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
	m.regions += regions
}

func (m *Metrics) Frames() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames
}

func (m *Metrics) Regions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.regions
}

func (m *Metrics) Stage(stage string) StageStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s := m.stages[stage]; s != nil {
		return *s
	}
	return StageStats{}
}

// Stages lists the recorded stage names in order.
func (m *Metrics) Stages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.stages))
	for name := range m.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields renders the averages for structured logging.
func (m *Metrics) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"frames":  m.Frames(),
		"regions": m.Regions(),
	}
	for _, name := range m.Stages() {
		fields[name+"_avg_ms"] = float64(m.Stage(name).Average().Microseconds()) / 1000
	}
	return fields
}
