// Package conversion moves frames between OpenCV matrices and PixelBuffers.
package conversion

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"pill-counter/internal/models"
)

// MaxDimension bounds either side of a matrix accepted for conversion.
const MaxDimension = 32768

var ErrUnsupportedMat = errors.New("unsupported matrix")

// Validate checks that mat is a non-empty 8-bit matrix with 1, 3 or 4 channels.
func Validate(mat gocv.Mat, operation string) error {
	if mat.Empty() {
		return fmt.Errorf("%w: empty matrix for %s", ErrUnsupportedMat, operation)
	}
	if err := ValidateDimensions(mat.Cols(), mat.Rows(), operation); err != nil {
		return err
	}
	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		return nil
	default:
		return fmt.Errorf("%w: type %v for %s", ErrUnsupportedMat, mat.Type(), operation)
	}
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d for %s", ErrUnsupportedMat, width, height, operation)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: dimensions %dx%d exceed maximum for %s", ErrUnsupportedMat, width, height, operation)
	}
	return nil
}

func rgbaCode(channels int) (gocv.ColorConversionCode, bool) {
	switch channels {
	case 1:
		return gocv.ColorGrayToBGRA, true
	case 3:
		return gocv.ColorBGRToRGBA, true
	case 4:
		return gocv.ColorBGRAToRGBA, true
	default:
		return 0, false
	}
}

// MatToPixelBuffer copies a gray, BGR or BGRA matrix into a new RGBA buffer.
// Gray and BGR input becomes opaque.
func MatToPixelBuffer(mat gocv.Mat) (*models.PixelBuffer, error) {
	if err := Validate(mat, "mat to pixel buffer"); err != nil {
		return nil, err
	}

	code, ok := rgbaCode(mat.Channels())
	if !ok {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedMat, mat.Channels())
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(mat, &rgba, code)

	pix := rgba.ToBytes()
	buf, err := models.NewPixelBufferFrom(pix, rgba.Cols(), rgba.Rows())
	if err != nil {
		return nil, fmt.Errorf("converting matrix: %w", err)
	}
	return buf, nil
}

// PixelBufferToMat copies buf into a new 3-channel BGR matrix, dropping alpha.
// The caller owns the returned matrix and must Close it.
func PixelBufferToMat(buf *models.PixelBuffer) (gocv.Mat, error) {
	if !buf.Valid() {
		return gocv.NewMat(), fmt.Errorf("converting pixel buffer: %w", models.ErrInvalidBuffer)
	}
	if err := ValidateDimensions(buf.Width, buf.Height, "pixel buffer to mat"); err != nil {
		return gocv.NewMat(), err
	}

	rgba, err := gocv.NewMatFromBytes(buf.Height, buf.Width, gocv.MatTypeCV8UC4, buf.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrapping pixel buffer: %w", err)
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}
