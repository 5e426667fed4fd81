package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Loop pulls frames from src and processes them one at a time, handing each
// result to sink before the next frame is read. It returns nil when the source
// is exhausted or MaxFrames is reached, and ctx.Err() when cancelled. A frame
// in progress always completes; cancellation is observed between frames.
func (p *Processor) Loop(ctx context.Context, src FrameSource, sink FrameSink) error {
	p.logger.Info("Loop", "frame loop started", map[string]interface{}{
		"max_frames": p.opts.MaxFrames,
		"mode":       p.opts.Tracker.Mode.String(),
	})

	for index := 0; p.opts.MaxFrames <= 0 || index < p.opts.MaxFrames; index++ {
		select {
		case <-ctx.Done():
			p.logger.Info("Loop", "frame loop cancelled", p.metrics.Fields())
			return ctx.Err()
		default:
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading frame %d: %w", index, err)
		}

		// The frame itself runs to completion even if ctx is cancelled meanwhile.
		res, err := p.Process(context.WithoutCancel(ctx), frame)
		if err != nil {
			p.logger.Warning("Loop", "frame skipped", map[string]interface{}{
				"index": index,
				"error": err.Error(),
			})
			continue
		}
		res.Index = index

		if sink != nil {
			if err := sink(res); err != nil {
				return fmt.Errorf("frame %d sink: %w", index, err)
			}
		}
	}

	p.logger.Info("Loop", "frame loop finished", p.metrics.Fields())
	return nil
}
