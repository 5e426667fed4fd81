package histogram

import (
	"context"
	"math"

	"pill-counter/internal/models"
	"pill-counter/internal/processing/filters"
)

// Bins is the number of intensity levels of an 8-bit image.
const Bins = 256

// Histogram counts how often each intensity occurs.
func Histogram(gray []uint8) [Bins]int {
	var h [Bins]int
	for _, v := range gray {
		h[v]++
	}
	return h
}

// Cumulative turns a histogram into its running sum.
func Cumulative(h [Bins]int) [Bins]int {
	var c [Bins]int
	c[0] = h[0]
	for i := 1; i < Bins; i++ {
		c[i] = c[i-1] + h[i]
	}
	return c
}

// Equalize remaps intensities through the cumulative histogram so that they
// spread over the full byte range. The result is a new slice of the same length.
func Equalize(gray []uint8) []uint8 {
	out := make([]uint8, len(gray))
	if len(gray) == 0 {
		return out
	}

	cdf := Cumulative(Histogram(gray))
	norm := 255 / float64(len(gray))

	var lut [Bins]uint8
	for v := range lut {
		lut[v] = uint8(math.Floor(float64(cdf[v])*norm + 0.5))
	}
	for i, v := range gray {
		out[i] = lut[v]
	}
	return out
}

// EqualizeGray equalizes a single-channel raster.
func EqualizeGray(src *models.GrayBuffer) *models.GrayBuffer {
	return &models.GrayBuffer{Pix: Equalize(src.Pix), Width: src.Width, Height: src.Height}
}

// Equalizer is the chain step that equalizes the luma of a frame and returns it
// replicated into RGBA with the source alpha.
type Equalizer struct{}

func NewEqualizer() *Equalizer {
	return &Equalizer{}
}

func (e *Equalizer) Name() string {
	return "histogram_equalizer"
}

func (e *Equalizer) ShouldExecute(params map[string]interface{}) bool {
	enabled, ok := params["equalize"].(bool)
	return ok && enabled
}

func (e *Equalizer) Apply(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	eq := Equalize(filters.Grayscale(input, false))
	out := models.NewPixelBuffer(input.Width, input.Height)
	for p, v := range eq {
		i := p * models.Channels
		out.Pix[i] = v
		out.Pix[i+1] = v
		out.Pix[i+2] = v
		out.Pix[i+3] = input.Pix[i+3]
	}
	return out, nil
}
