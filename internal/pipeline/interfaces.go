package pipeline

import (
	"context"
	"io"

	"pill-counter/internal/models"
)

// FrameSource yields frames one at a time. Next returns io.EOF when the
// source is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (*models.PixelBuffer, error)
	Close() error
}

// FrameSink consumes processed frames. A non-nil error stops the loop.
type FrameSink func(result *FrameResult) error

// SliceSource serves a fixed list of frames.
type SliceSource struct {
	frames []*models.PixelBuffer
	next   int
}

func NewSliceSource(frames ...*models.PixelBuffer) *SliceSource {
	return &SliceSource{frames: frames}
}

func (s *SliceSource) Next(ctx context.Context) (*models.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *SliceSource) Close() error {
	return nil
}
