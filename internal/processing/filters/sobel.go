package filters

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"pill-counter/internal/models"
	"pill-counter/internal/opencv/conversion"
)

// SobelMagnitude computes the gradient magnitude of the luma image,
// sqrt(gx²+gy²) with 3x3 Sobel kernels and replicated borders, broadcast into
// R, G and B with alpha 255. src is not modified.
func SobelMagnitude(src *models.PixelBuffer) (*models.FloatBuffer, error) {
	if !src.Valid() {
		return nil, fmt.Errorf("sobel: %w", models.ErrInvalidBuffer)
	}
	if src.Empty() {
		return models.NewFloatBuffer(src.Width, src.Height), nil
	}

	gray, err := conversion.BytesToMat(Grayscale(src, false), src.Width, src.Height, 1)
	if err != nil {
		return nil, fmt.Errorf("sobel: %w", err)
	}
	defer gray.Close()

	gx := gocv.NewMat()
	defer gx.Close()
	gocv.Sobel(gray, &gx, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderReplicate)

	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(gray, &gy, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderReplicate)

	mag := gocv.NewMat()
	defer mag.Close()
	gocv.Magnitude(gx, gy, &mag)

	values, err := conversion.MatFloat32(mag)
	if err != nil {
		return nil, fmt.Errorf("sobel: %w", err)
	}

	out := models.NewFloatBuffer(src.Width, src.Height)
	for p, v := range values {
		i := p * models.Channels
		out.Data[i] = v
		out.Data[i+1] = v
		out.Data[i+2] = v
		out.Data[i+3] = 255
	}
	return out, nil
}

// Sobel returns the edge magnitude image and also overwrites src.Pix with it,
// clamped to bytes, alpha 255. Callers downstream read the edges from src, so
// the write-back is part of the contract. Use SobelMagnitude to keep src intact.
func Sobel(src *models.PixelBuffer) (*models.FloatBuffer, error) {
	out, err := SobelMagnitude(src)
	if err != nil {
		return nil, err
	}
	for i, v := range out.Data {
		src.Pix[i] = models.ClampByte(float64(v))
	}
	return out, nil
}

// SobelFilter is the edge chain step. It reads "edges" (bool).
type SobelFilter struct{}

func NewSobelFilter() *SobelFilter {
	return &SobelFilter{}
}

func (s *SobelFilter) Name() string {
	return "sobel_filter"
}

func (s *SobelFilter) ShouldExecute(params map[string]interface{}) bool {
	enabled, ok := params["edges"].(bool)
	return ok && enabled
}

// Apply runs Sobel on input in place and returns input itself, now holding edges.
func (s *SobelFilter) Apply(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if _, err := Sobel(input); err != nil {
		return nil, err
	}
	return input, nil
}
