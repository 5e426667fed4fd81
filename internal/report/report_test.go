package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pill-counter/internal/models"
	"pill-counter/internal/pipeline"
	"pill-counter/internal/tracker"
)

func frameResult(index, regions int, fallback bool) *pipeline.FrameResult {
	gray := &models.GrayBuffer{Pix: []uint8{0, 10, 10, 255}, Width: 2, Height: 2}
	return &pipeline.FrameResult{
		Index: index,
		Gray:  gray,
		Tracking: tracker.Result{
			Regions:      make([]models.Region, regions),
			Mode:         models.ModeContour,
			FallbackUsed: fallback,
		},
		Timings: map[string]time.Duration{"blur": time.Millisecond, "track": 2 * time.Millisecond},
	}
}

func TestSummary(t *testing.T) {
	r := NewRecorder()
	_, err := r.Summary()
	assert.ErrorIs(t, err, ErrNoSamples)

	r.Observe(frameResult(0, 3, false))
	r.Observe(frameResult(1, 5, true))
	r.Observe(frameResult(2, 4, false))

	s, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, s.Frames)
	assert.Equal(t, 3, s.Min)
	assert.Equal(t, 5, s.Max)
	assert.InDelta(t, 4.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.0, s.StdDev, 1e-12)
	assert.Equal(t, 4.0, s.Median)
	assert.Equal(t, 1, s.Fallbacks)
	assert.Equal(t, 3, s.Fields()["frames"])

	samples := r.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, 3*time.Millisecond, samples[0].Elapsed)
}

func TestSummarySingleFrame(t *testing.T) {
	r := NewRecorder()
	r.Observe(frameResult(0, 7, false))
	s, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, 7.0, s.Mean)
	assert.Equal(t, 0.0, s.StdDev)
	assert.Equal(t, 7.0, s.Median)
}

func TestWritePlots(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder()
	assert.ErrorIs(t, r.WriteCountsPlot(filepath.Join(dir, "none.png")), ErrNoSamples)

	for i := range 5 {
		r.Observe(frameResult(i, i%3, false))
	}
	counts := filepath.Join(dir, "counts.png")
	require.NoError(t, r.WriteCountsPlot(counts))

	hist := filepath.Join(dir, "hist.svg")
	require.NoError(t, r.WriteHistogramPlot(hist))

	for _, p := range []string{counts, hist} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
