// Package report accumulates per-frame counts over a run and renders them as
// plots once the run is over.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"slices"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"pill-counter/internal/models"
	"pill-counter/internal/pipeline"
	"pill-counter/internal/processing/histogram"
)

var ErrNoSamples = errors.New("no frames recorded")

// Sample is what a run keeps of one frame.
type Sample struct {
	Frame    int
	Regions  int
	Mode     models.TrackerMode
	Fallback bool
	Elapsed  time.Duration
}

// Summary describes the region counts of a run.
type Summary struct {
	Frames    int
	Min, Max  int
	Mean      float64
	StdDev    float64
	Median    float64
	Fallbacks int
}

// Recorder collects samples from a frame loop. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample

	// luma histograms of the last frame, before and after equalization
	before, after [histogram.Bins]int
	haveAfter     bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe records res. It can be used directly as part of a pipeline.FrameSink.
func (r *Recorder) Observe(res *pipeline.FrameResult) {
	var elapsed time.Duration
	for _, d := range res.Timings {
		elapsed += d
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = append(r.samples, Sample{
		Frame:    res.Index,
		Regions:  res.Tracking.Count(),
		Mode:     res.Tracking.Mode,
		Fallback: res.Tracking.FallbackUsed,
		Elapsed:  elapsed,
	})

	if res.Gray != nil {
		r.before = histogram.Histogram(res.Gray.Pix)
	}
	r.haveAfter = res.Equalized != nil
	if r.haveAfter {
		r.after = histogram.Histogram(redChannel(res.Equalized))
	}
}

func redChannel(buf *models.PixelBuffer) []uint8 {
	out := make([]uint8, 0, buf.Len())
	for i := 0; i < len(buf.Pix); i += models.Channels {
		out = append(out, buf.Pix[i])
	}
	return out
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.samples)
}

func (r *Recorder) Summary() (Summary, error) {
	samples := r.Samples()
	if len(samples) == 0 {
		return Summary{}, ErrNoSamples
	}

	counts := make([]float64, len(samples))
	s := Summary{Frames: len(samples), Min: samples[0].Regions, Max: samples[0].Regions}
	for i, smp := range samples {
		counts[i] = float64(smp.Regions)
		s.Min = min(s.Min, smp.Regions)
		s.Max = max(s.Max, smp.Regions)
		if smp.Fallback {
			s.Fallbacks++
		}
	}

	if len(counts) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(counts, nil)
	} else {
		s.Mean = counts[0]
	}
	slices.Sort(counts)
	s.Median = stat.Quantile(0.5, stat.Empirical, counts, nil)
	return s, nil
}

// Fields flattens the summary for structured logging.
func (s Summary) Fields() map[string]interface{} {
	return map[string]interface{}{
		"frames":    s.Frames,
		"min":       s.Min,
		"max":       s.Max,
		"mean":      s.Mean,
		"stddev":    s.StdDev,
		"median":    s.Median,
		"fallbacks": s.Fallbacks,
	}
}

// WriteCountsPlot draws the region count per frame. The image format follows
// the extension of path (png, svg, pdf...).
func (r *Recorder) WriteCountsPlot(path string) error {
	samples := r.Samples()
	if len(samples) == 0 {
		return ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = "Objects per frame"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Objects"

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: float64(s.Frame), Y: float64(s.Regions)}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 200, A: 255}
	line.Width = vg.Points(1)
	p.Add(line, plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving counts plot: %w", err)
	}
	return nil
}

// WriteHistogramPlot draws the luma histogram of the last recorded frame, and
// its equalized histogram when equalization ran.
func (r *Recorder) WriteHistogramPlot(path string) error {
	r.mu.Lock()
	if len(r.samples) == 0 {
		r.mu.Unlock()
		return ErrNoSamples
	}
	before, after, haveAfter := r.before, r.after, r.haveAfter
	r.mu.Unlock()

	p := plot.New()
	p.Title.Text = "Luma histogram"
	p.X.Label.Text = "Level"
	p.Y.Label.Text = "Pixels"

	curves := []struct {
		label string
		bins  [histogram.Bins]int
		color color.Color
		show  bool
	}{
		{"frame", before, color.RGBA{B: 200, A: 255}, true},
		{"equalized", after, color.RGBA{G: 160, A: 255}, haveAfter},
	}
	for _, c := range curves {
		if !c.show {
			continue
		}
		pts := make(plotter.XYs, histogram.Bins)
		for v, n := range c.bins {
			pts[v] = plotter.XY{X: float64(v), Y: float64(n)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = c.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(c.label, line)
	}
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving histogram plot: %w", err)
	}
	return nil
}
