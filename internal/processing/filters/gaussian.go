package filters

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"pill-counter/internal/models"
)

// ErrInvalidArgument reports a kernel parameter outside its domain.
var ErrInvalidArgument = errors.New("invalid argument")

// GaussianKernel builds a normalized odd-length Gaussian for a blur diameter.
// The sign of diameter is ignored; |diameter| must exceed 1.
func GaussianKernel(diameter float64) (models.Kernel, error) {
	diameter = math.Abs(diameter)
	if diameter <= 1 || math.IsNaN(diameter) || math.IsInf(diameter, 0) {
		return nil, fmt.Errorf("%w: gaussian diameter must be greater than 1, got %v", ErrInvalidArgument, diameter)
	}

	radius := diameter / 2
	size := int(math.Ceil(diameter))
	size += 1 - size%2

	rho := (radius + 0.5) / 3
	rhoSq := rho * rho
	gaussianFactor := 1 / math.Sqrt(2*math.Pi*rhoSq)
	rhoFactor := -1 / (2 * rhoSq)

	weights := make([]float64, size)
	middle := size / 2
	for i := range weights {
		x := float64(i - middle)
		weights[i] = gaussianFactor * math.Exp(x*x*rhoFactor)
	}
	floats.Scale(1/floats.Sum(weights), weights)

	return models.Kernel(weights), nil
}

// GaussianBlur convolves src with the same Gaussian on both axes. Alpha is
// blurred too. No output is produced when the diameter is invalid.
func GaussianBlur(src *models.PixelBuffer, diameter float64) (*models.FloatBuffer, error) {
	kernel, err := GaussianKernel(diameter)
	if err != nil {
		return nil, err
	}
	return SeparableConvolve(src, kernel, kernel, false)
}

// GaussianFilter is the blur chain step. It reads "blur" (bool) and
// "blur_diameter" (float64) from the parameters.
type GaussianFilter struct{}

func NewGaussianFilter() *GaussianFilter {
	return &GaussianFilter{}
}

func (g *GaussianFilter) Name() string {
	return "gaussian_filter"
}

func (g *GaussianFilter) ShouldExecute(params map[string]interface{}) bool {
	useBlur, ok := params["blur"].(bool)
	return ok && useBlur
}

func (g *GaussianFilter) Apply(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	diameter := 3.0
	if val, ok := params["blur_diameter"].(float64); ok {
		diameter = val
	}

	blurred, err := GaussianBlur(input, diameter)
	if err != nil {
		return nil, err
	}
	return blurred.ToPixelBuffer(), nil
}
