package filters

import (
	"context"

	"pill-counter/internal/models"
)

// BT.709 luma weights scaled by 2^16: 0.2126, 0.7152, 0.0722.
const (
	lumaR = 13933
	lumaG = 46871
	lumaB = 4732
)

// Luma returns the integer BT.709 luma of a color.
func Luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*lumaR + uint32(g)*lumaG + uint32(b)*lumaB) >> 16)
}

// Grayscale reduces an RGBA buffer to luma. With fillRGBA the result has the
// input's shape, gray replicated into R, G and B and alpha preserved; otherwise
// it holds one byte per pixel. The input is never modified.
func Grayscale(src *models.PixelBuffer, fillRGBA bool) []uint8 {
	n := src.Len()
	if fillRGBA {
		out := make([]uint8, n*models.Channels)
		for i := 0; i < n*models.Channels; i += models.Channels {
			l := Luma(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			out[i] = l
			out[i+1] = l
			out[i+2] = l
			out[i+3] = src.Pix[i+3]
		}
		return out
	}

	out := make([]uint8, n)
	for p := 0; p < n; p++ {
		i := p * models.Channels
		out[p] = Luma(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
	}
	return out
}

// ToGray returns the single-channel luma raster of src.
func ToGray(src *models.PixelBuffer) *models.GrayBuffer {
	return &models.GrayBuffer{Pix: Grayscale(src, false), Width: src.Width, Height: src.Height}
}

// ToGrayRGBA returns a new RGBA buffer with luma in every color channel.
func ToGrayRGBA(src *models.PixelBuffer) *models.PixelBuffer {
	return &models.PixelBuffer{Pix: Grayscale(src, true), Width: src.Width, Height: src.Height}
}

// GrayscaleConverter is a chain step producing the RGBA-replicated luma image.
type GrayscaleConverter struct{}

func NewGrayscaleConverter() *GrayscaleConverter {
	return &GrayscaleConverter{}
}

func (g *GrayscaleConverter) Name() string {
	return "grayscale_converter"
}

func (g *GrayscaleConverter) ShouldExecute(params map[string]interface{}) bool {
	enabled, ok := params["grayscale"].(bool)
	return ok && enabled
}

func (g *GrayscaleConverter) Apply(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return ToGrayRGBA(input), nil
}
