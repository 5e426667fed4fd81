// Command pill-counter counts the objects on a plain background in a still
// image, a video file or a camera stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"pill-counter/internal/config"
	"pill-counter/internal/imageio"
	"pill-counter/internal/logger"
	"pill-counter/internal/models"
	"pill-counter/internal/opencv/capture"
	"pill-counter/internal/pipeline"
	"pill-counter/internal/report"
	"pill-counter/internal/shutdown"
	"pill-counter/internal/tracker"
)

var stillFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"bmp": true, "tif": true, "tiff": true, "webp": true,
}

func main() {
	input := flag.String("input", "", "image or video file to read")
	device := flag.Int("device", -1, "camera index to read when -input is empty")
	configPath := flag.String("config", "", "JSON configuration file")
	mode := flag.String("mode", "", "tracker mode: contour, color or bounds")
	fallback := flag.Bool("fallback", false, "retry with the bounds fill when no contour is found")
	blur := flag.Bool("blur", true, "blur frames before edge detection")
	blurDiameter := flag.Float64("blur-diameter", 3, "gaussian blur diameter in pixels")
	maxFrames := flag.Int("max-frames", 0, "stop after this many frames (0 = all)")
	edgesOut := flag.String("edges-out", "", "write the last edge map to this image file")
	overlayOut := flag.String("overlay-out", "", "write the last frame with region bounds to this image file")
	countsPlot := flag.String("counts-plot", "", "plot objects per frame to this file (png, svg or pdf)")
	histPlot := flag.String("histogram-plot", "", "plot the luma histogram of the last frame to this file")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	logJSON := flag.Bool("log-json", false, "emit JSON log lines")
	flag.Parse()

	if err := run(options{
		input:      *input,
		device:     *device,
		configPath: *configPath,
		edgesOut:   *edgesOut,
		overlayOut: *overlayOut,
		countsPlot: *countsPlot,
		histPlot:   *histPlot,
		apply: func(cfg *config.Config) {
			flag.Visit(func(f *flag.Flag) {
				switch f.Name {
				case "mode":
					cfg.SetMode(*mode)
				case "fallback":
					cfg.SetFallback(*fallback)
				case "blur":
					cfg.SetBlur(*blur)
				case "blur-diameter":
					cfg.SetBlurDiameter(*blurDiameter)
				case "max-frames":
					cfg.SetMaxFrames(*maxFrames)
				case "log-level":
					cfg.SetLogLevel(*logLevel)
				case "log-json":
					cfg.SetLogJSON(*logJSON)
				}
			})
		},
	}); err != nil {
		fmt.Fprintf(os.Stderr, "pill-counter: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	input      string
	device     int
	configPath string
	edgesOut   string
	overlayOut string
	countsPlot string
	histPlot   string
	// apply layers command line overrides over the loaded config.
	apply func(cfg *config.Config)
	// stdout receives the per-frame counts; nil means os.Stdout.
	stdout io.Writer
}

func run(opts options) error {
	cfg := config.Empty()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.apply != nil {
		opts.apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Options{Level: cfg.GetLogLevel(), JSON: cfg.GetLogJSON()})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	mgr := shutdown.NewManager(context.Background(), log)
	mgr.Listen()
	defer mgr.Shutdown()

	src, err := openSource(opts, log)
	if err != nil {
		return err
	}
	if s, ok := src.(shutdown.Shutdownable); ok {
		mgr.Register(s)
	} else {
		mgr.Register(shutdown.Func(func() {
			if err := src.Close(); err != nil {
				log.Error("Main", err, nil)
			}
		}))
	}

	proc := pipeline.NewProcessor(cfg.PipelineOptions(), log)

	out := opts.stdout
	if out == nil {
		out = os.Stdout
	}

	rec := report.NewRecorder()
	var last *pipeline.FrameResult
	err = proc.Loop(mgr.Context(), src, func(res *pipeline.FrameResult) error {
		last = res
		rec.Observe(res)
		suffix := ""
		if res.Tracking.FallbackUsed {
			suffix = ", fallback"
		}
		_, err := fmt.Fprintf(out, "frame %d: %d objects (%s%s)\n", res.Index, res.Tracking.Count(), res.Tracking.Mode, suffix)
		return err
	})
	if err != nil && mgr.Context().Err() == nil {
		return err
	}

	log.Info("Main", "run finished", proc.Metrics().Fields())
	if last == nil {
		return nil
	}
	if summary, err := rec.Summary(); err == nil {
		log.Info("Main", "object counts", summary.Fields())
	}
	return writeOutputs(opts, last, rec)
}

func openSource(opts options, log logger.Logger) (pipeline.FrameSource, error) {
	switch {
	case opts.input != "" && stillFormats[imageio.FormatFromPath(opts.input)]:
		return imageio.OpenStill(opts.input)
	case opts.input != "":
		return capture.OpenFile(opts.input, log)
	case opts.device >= 0:
		return capture.OpenDevice(opts.device, log)
	default:
		return nil, fmt.Errorf("one of -input or -device is required")
	}
}

func writeOutputs(opts options, res *pipeline.FrameResult, rec *report.Recorder) error {
	var errs []string
	if opts.edgesOut != "" {
		if res.Edges == nil {
			errs = append(errs, "edge map requested but edges are disabled")
		} else if err := imageio.Save(opts.edgesOut, res.Edges); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if opts.overlayOut != "" {
		marked := tracker.OverlayBounds(res.Frame, res.Tracking.Regions, models.RGB{R: 255})
		if err := imageio.Save(opts.overlayOut, marked); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if opts.countsPlot != "" {
		if err := rec.WriteCountsPlot(opts.countsPlot); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if opts.histPlot != "" {
		if err := rec.WriteHistogramPlot(opts.histPlot); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("writing outputs: %s", strings.Join(errs, "; "))
	}
	return nil
}
