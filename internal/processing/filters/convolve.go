package filters

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"pill-counter/internal/models"
	"pill-counter/internal/opencv/conversion"
)

// Axis is the direction a 1D kernel slides along.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

var identityKernel = models.Kernel{1}

// sepFilter correlates every channel of src with horiz along rows and vert
// along columns. Taps past the border read the nearest edge pixel. With opaque
// the output alpha is 255, otherwise alpha is filtered like the color channels.
func sepFilter(src gocv.Mat, width, height int, horiz, vert models.Kernel, opaque bool) (*models.FloatBuffer, error) {
	kx := conversion.KernelMat(horiz)
	defer kx.Close()
	ky := conversion.KernelMat(vert)
	defer ky.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.SepFilter2D(src, &dst, gocv.MatTypeCV32F, kx, ky, image.Point{X: -1, Y: -1}, 0, gocv.BorderReplicate)

	data, err := conversion.MatFloat32(dst)
	if err != nil {
		return nil, fmt.Errorf("separable filter: %w", err)
	}
	out := &models.FloatBuffer{Data: data, Width: width, Height: height}
	if opaque {
		for i := 3; i < len(out.Data); i += models.Channels {
			out.Data[i] = 255
		}
	}
	return out, nil
}

func axisKernels(weights models.Kernel, axis Axis) (horiz, vert models.Kernel) {
	if axis == Vertical {
		return identityKernel, weights
	}
	return weights, identityKernel
}

func degenerate(width, height int, kernels ...models.Kernel) bool {
	if width <= 0 || height <= 0 {
		return true
	}
	for _, k := range kernels {
		if len(k) == 0 {
			return true
		}
	}
	return false
}

// Convolve1D slides weights along axis over a byte buffer.
func Convolve1D(src *models.PixelBuffer, weights models.Kernel, axis Axis, opaque bool) (*models.FloatBuffer, error) {
	horiz, vert := axisKernels(weights, axis)
	return SeparableConvolve(src, horiz, vert, opaque)
}

// ConvolveFloat1D is Convolve1D over an intermediate float raster.
func ConvolveFloat1D(src *models.FloatBuffer, weights models.Kernel, axis Axis, opaque bool) (*models.FloatBuffer, error) {
	if degenerate(src.Width, src.Height, weights) {
		return models.NewFloatBuffer(max(src.Width, 0), max(src.Height, 0)), nil
	}

	mat, err := conversion.Float32ToMat(src.Data, src.Width, src.Height, models.Channels)
	if err != nil {
		return nil, fmt.Errorf("convolving float raster: %w", err)
	}
	defer mat.Close()

	horiz, vert := axisKernels(weights, axis)
	return sepFilter(mat, src.Width, src.Height, horiz, vert, opaque)
}

func HorizontalConvolve(src *models.PixelBuffer, weights models.Kernel, opaque bool) (*models.FloatBuffer, error) {
	return Convolve1D(src, weights, Horizontal, opaque)
}

func VerticalConvolve(src *models.PixelBuffer, weights models.Kernel, opaque bool) (*models.FloatBuffer, error) {
	return Convolve1D(src, weights, Vertical, opaque)
}

// SeparableConvolve applies the vertical and horizontal kernels in one
// filtering pass. The result is not clamped; use FloatBuffer.ToPixelBuffer
// for bytes.
func SeparableConvolve(src *models.PixelBuffer, horiz, vert models.Kernel, opaque bool) (*models.FloatBuffer, error) {
	if degenerate(src.Width, src.Height, horiz, vert) {
		return models.NewFloatBuffer(max(src.Width, 0), max(src.Height, 0)), nil
	}

	mat, err := conversion.RGBAMat(src)
	if err != nil {
		return nil, fmt.Errorf("convolving: %w", err)
	}
	defer mat.Close()

	return sepFilter(mat, src.Width, src.Height, horiz, vert, opaque)
}
