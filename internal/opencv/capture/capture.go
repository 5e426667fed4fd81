// Package capture reads frames from cameras and video files through OpenCV.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"pill-counter/internal/logger"
	"pill-counter/internal/models"
	"pill-counter/internal/opencv/conversion"
)

var ErrNotOpened = errors.New("capture device not opened")

// Source is a pipeline frame source backed by a gocv.VideoCapture. It is not
// safe for concurrent Next calls; Close may be called from any goroutine.
type Source struct {
	name    string
	capture *gocv.VideoCapture
	frame   gocv.Mat
	logger  logger.Logger

	mu     sync.Mutex
	closed bool
	read   int
}

// OpenDevice opens a camera by index.
func OpenDevice(id int, log logger.Logger) (*Source, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("opening device %d: %w", id, err)
	}
	return newSource("device:"+strconv.Itoa(id), vc, log)
}

// OpenFile opens a video file or stream URL.
func OpenFile(path string, log logger.Logger) (*Source, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening video %s: %w", path, err)
	}
	return newSource(path, vc, log)
}

func newSource(name string, vc *gocv.VideoCapture, log logger.Logger) (*Source, error) {
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%s: %w", name, ErrNotOpened)
	}
	log = logger.OrNoOp(log)
	log.Info("Capture", "source opened", map[string]interface{}{
		"source": name,
		"width":  vc.Get(gocv.VideoCaptureFrameWidth),
		"height": vc.Get(gocv.VideoCaptureFrameHeight),
		"fps":    vc.Get(gocv.VideoCaptureFPS),
	})
	return &Source{
		name:    name,
		capture: vc,
		frame:   gocv.NewMat(),
		logger:  log,
	}, nil
}

func (s *Source) Name() string {
	return s.name
}

// Next grabs the next frame. It returns io.EOF once the stream stops
// delivering frames.
func (s *Source) Next(ctx context.Context) (*models.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%s: %w", s.name, ErrNotOpened)
	}

	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		s.logger.Debug("Capture", "stream ended", map[string]interface{}{
			"source": s.name,
			"frames": s.read,
		})
		return nil, io.EOF
	}
	s.read++

	buf, err := conversion.MatToPixelBuffer(s.frame)
	if err != nil {
		return nil, fmt.Errorf("frame %d of %s: %w", s.read, s.name, err)
	}
	return buf, nil
}

// Close releases the device. It is safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.frame.Close()
	err := s.capture.Close()
	s.logger.Info("Capture", "source closed", map[string]interface{}{
		"source": s.name,
		"frames": s.read,
	})
	return err
}

// Shutdown lets the shutdown manager release the device.
func (s *Source) Shutdown() {
	if err := s.Close(); err != nil {
		s.logger.Error("Capture", err, map[string]interface{}{"source": s.name})
	}
}
