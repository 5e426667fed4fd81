package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pill-counter/internal/logger"
	"pill-counter/internal/models"
	"pill-counter/internal/processing/chain"
	"pill-counter/internal/processing/filters"
	"pill-counter/internal/processing/histogram"
	"pill-counter/internal/processing/integral"
	"pill-counter/internal/tracker"
)

// Stage names used for timings.
const (
	StageGrayscale = "grayscale"
	StageBlur      = "blur"
	StageEqualize  = "equalize"
	StageIntegral  = "integral"
	StageEdges     = "edges"
	StageTrack     = "track"
)

// Options toggles the per-frame stages.
type Options struct {
	Blur         bool
	BlurDiameter float64
	Equalize     bool
	Integral     bool
	IntegralOpts integral.Options
	Edges        bool
	// MaxFrames stops Loop after that many frames; 0 means no limit.
	MaxFrames int

	Tracker models.TrackerConfig
}

// DefaultOptions runs every stage with the stock tracker configuration.
func DefaultOptions() Options {
	return Options{
		Blur:         true,
		BlurDiameter: 3,
		Equalize:     true,
		Integral:     true,
		IntegralOpts: integral.Options{Sum: true, SquareSum: true, Tilted: true, Sobel: true},
		Edges:        true,
		Tracker:      models.DefaultTrackerConfig(),
	}
}

func (o Options) params() map[string]interface{} {
	return map[string]interface{}{
		"blur":          o.Blur,
		"blur_diameter": o.BlurDiameter,
		"equalize":      o.Equalize,
		"integral":      o.Integral,
		"edges":         o.Edges,
	}
}

// FrameResult is everything computed for one frame.
type FrameResult struct {
	ID     uuid.UUID
	Index  int
	Width  int
	Height int

	// Frame is the caller's input, unmodified.
	Frame     *models.PixelBuffer
	Gray      *models.GrayBuffer
	Blurred   *models.PixelBuffer
	Equalized *models.PixelBuffer
	Edges     *models.PixelBuffer
	Integral  *integral.Set

	Tracking tracker.Result
	Timings  map[string]time.Duration
}

// Processor runs frames through the filter chain and the region tracker.
type Processor struct {
	opts    Options
	tracker *tracker.Tracker
	metrics *Metrics
	logger  logger.Logger
}

func NewProcessor(opts Options, log logger.Logger) *Processor {
	return &Processor{
		opts:    opts,
		tracker: tracker.New(),
		metrics: NewMetrics(),
		logger:  logger.OrNoOp(log),
	}
}

func (p *Processor) Metrics() *Metrics {
	return p.metrics
}

func (p *Processor) Options() Options {
	return p.opts
}

// Process handles one frame. The caller's buffer is never modified: the edge
// stage overwrites a private copy. Contour tracing reads that copy; the color
// and bounds fills read the frame as it was before the edge stage.
func (p *Processor) Process(ctx context.Context, frame *models.PixelBuffer) (*FrameResult, error) {
	if !frame.Valid() {
		return nil, fmt.Errorf("process frame: %w", models.ErrInvalidBuffer)
	}

	res := &FrameResult{
		ID:      uuid.New(),
		Width:   frame.Width,
		Height:  frame.Height,
		Frame:   frame,
		Timings: make(map[string]time.Duration),
	}

	tctx := p.metrics.StartTiming(ctx, StageGrayscale)
	res.Gray = filters.ToGray(frame)
	res.Timings[StageGrayscale] = p.metrics.EndTiming(tctx)

	pc := p.buildChain(res)
	pc.OnStep(func(name string, output *models.PixelBuffer) {
		if name != StageBlur {
			return
		}
		res.Blurred = output
		if p.opts.Edges {
			// The edge stage overwrites this buffer in place.
			res.Blurred = output.Clone()
		}
	})

	params := p.opts.params()
	current, err := pc.Execute(ctx, frame.Clone(), params)
	if err != nil {
		p.logger.Error("Processor", err, map[string]interface{}{"frame_id": res.ID.String()})
		return nil, fmt.Errorf("frame %s: %w", res.ID, err)
	}
	if p.opts.Edges {
		res.Edges = current
	}

	tctx = p.metrics.StartTiming(ctx, StageTrack)
	res.Tracking = p.tracker.Track(res.trackInput(current, p.opts.Tracker.Mode), p.opts.Tracker)
	res.Timings[StageTrack] = p.metrics.EndTiming(tctx)

	p.metrics.FrameDone(res.Tracking.Count())
	p.logger.Debug("Processor", "frame processed", map[string]interface{}{
		"frame_id": res.ID.String(),
		"width":    res.Width,
		"height":   res.Height,
		"regions":  res.Tracking.Count(),
		"mode":     res.Tracking.Mode.String(),
		"fallback": res.Tracking.FallbackUsed,
		"steps":    pc.StepNames(params),
	})

	return res, nil
}

// buildChain assembles the filter stages for one frame. Every stage is added;
// the options decide which of them run.
func (p *Processor) buildChain(res *FrameResult) *chain.ProcessingChain {
	pc := chain.NewProcessingChain(nil)
	pc.AddStep(p.timed(StageBlur, filters.NewGaussianFilter(), res))
	pc.AddStep(p.timed(StageEqualize, &sideStep{step: histogram.NewEqualizer(), keep: func(b *models.PixelBuffer) { res.Equalized = b }}, res))
	pc.AddStep(p.timed(StageIntegral, &integralStep{opts: p.opts.IntegralOpts, keep: func(s *integral.Set) { res.Integral = s }}, res))
	pc.AddStep(p.timed(StageEdges, filters.NewSobelFilter(), res))
	return pc
}

// trackInput picks the buffer the tracker reads. Only contour mode, and its
// bounds fallback, work on edge magnitudes.
func (r *FrameResult) trackInput(current *models.PixelBuffer, mode models.TrackerMode) *models.PixelBuffer {
	if mode == models.ModeContour {
		return current
	}
	if r.Blurred != nil {
		return r.Blurred
	}
	return r.Frame
}

// timed wraps a step so its duration lands in the frame timings and metrics,
// and renames it to the stage name.
func (p *Processor) timed(stage string, step chain.ProcessingStep, res *FrameResult) chain.ProcessingStep {
	return &timedStep{stage: stage, step: step, metrics: p.metrics, timings: res.Timings}
}

type timedStep struct {
	stage   string
	step    chain.ProcessingStep
	metrics *Metrics
	timings map[string]time.Duration
}

func (t *timedStep) Name() string { return t.stage }

func (t *timedStep) ShouldExecute(params map[string]interface{}) bool {
	return t.step.ShouldExecute(params)
}

func (t *timedStep) Apply(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error) {
	tctx := t.metrics.StartTiming(ctx, t.stage)
	out, err := t.step.Apply(ctx, input, params)
	t.timings[t.stage] = t.metrics.EndTiming(tctx)
	return out, err
}

// sideStep keeps the output of its step and passes the input through unchanged.
type sideStep struct {
	step chain.ProcessingStep
	keep func(*models.PixelBuffer)
}

func (s *sideStep) Name() string { return s.step.Name() }

func (s *sideStep) ShouldExecute(params map[string]interface{}) bool {
	return s.step.ShouldExecute(params)
}

func (s *sideStep) Apply(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error) {
	out, err := s.step.Apply(ctx, input, params)
	if err != nil {
		return nil, err
	}
	s.keep(out)
	return input, nil
}

// integralStep builds the summed-area tables of the current buffer. It runs
// before the edge stage, which would overwrite the buffer.
type integralStep struct {
	opts integral.Options
	keep func(*integral.Set)
}

func (s *integralStep) Name() string { return "integral_builder" }

func (s *integralStep) ShouldExecute(params map[string]interface{}) bool {
	enabled, ok := params["integral"].(bool)
	return ok && enabled
}

func (s *integralStep) Apply(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	set, err := integral.Build(input, s.opts)
	if err != nil {
		return nil, err
	}
	s.keep(set)
	return input, nil
}
