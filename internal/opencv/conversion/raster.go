package conversion

import (
	"fmt"

	"gocv.io/x/gocv"

	"pill-counter/internal/models"
)

// matTypes lists the 1 to 4 channel types of each supported depth.
var matTypes = map[gocv.MatType][4]gocv.MatType{
	gocv.MatTypeCV8U:  {gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC2, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4},
	gocv.MatTypeCV32F: {gocv.MatTypeCV32FC1, gocv.MatTypeCV32FC2, gocv.MatTypeCV32FC3, gocv.MatTypeCV32FC4},
}

func withChannels(depth gocv.MatType, channels int) (gocv.MatType, error) {
	types, ok := matTypes[depth]
	if !ok || channels < 1 || channels > len(types) {
		return 0, fmt.Errorf("%w: depth %v with %d channels", ErrUnsupportedMat, depth, channels)
	}
	return types[channels-1], nil
}

func checkRaster(n, width, height, channels int, operation string) error {
	if err := ValidateDimensions(width, height, operation); err != nil {
		return err
	}
	if n != width*height*channels {
		return fmt.Errorf("%w: %d samples for %dx%dx%d in %s", ErrUnsupportedMat, n, width, height, channels, operation)
	}
	return nil
}

// BytesToMat copies an interleaved 8-bit raster into a new matrix. Channels
// keep their order, so RGBA input stays RGBA. The caller closes the matrix.
func BytesToMat(pix []uint8, width, height, channels int) (gocv.Mat, error) {
	if err := checkRaster(len(pix), width, height, channels, "bytes to mat"); err != nil {
		return gocv.NewMat(), err
	}
	mt, err := withChannels(gocv.MatTypeCV8U, channels)
	if err != nil {
		return gocv.NewMat(), err
	}

	mat := gocv.NewMatWithSize(height, width, mt)
	data, err := mat.DataPtrUint8()
	if err != nil {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("bytes to mat: %w", err)
	}
	copy(data, pix)
	return mat, nil
}

// RGBAMat is BytesToMat over a PixelBuffer.
func RGBAMat(buf *models.PixelBuffer) (gocv.Mat, error) {
	if !buf.Valid() {
		return gocv.NewMat(), fmt.Errorf("rgba mat: %w", models.ErrInvalidBuffer)
	}
	return BytesToMat(buf.Pix, buf.Width, buf.Height, models.Channels)
}

// Float32ToMat copies interleaved float samples into a new CV_32F matrix.
func Float32ToMat(samples []float32, width, height, channels int) (gocv.Mat, error) {
	if err := checkRaster(len(samples), width, height, channels, "float32 to mat"); err != nil {
		return gocv.NewMat(), err
	}
	mt, err := withChannels(gocv.MatTypeCV32F, channels)
	if err != nil {
		return gocv.NewMat(), err
	}

	mat := gocv.NewMatWithSize(height, width, mt)
	data, err := mat.DataPtrFloat32()
	if err != nil {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("float32 to mat: %w", err)
	}
	copy(data, samples)
	return mat, nil
}

// Float64ToMat copies a single-channel float64 raster into a new CV_64F matrix.
func Float64ToMat(samples []float64, width, height int) (gocv.Mat, error) {
	if err := checkRaster(len(samples), width, height, 1, "float64 to mat"); err != nil {
		return gocv.NewMat(), err
	}

	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV64F)
	data, err := mat.DataPtrFloat64()
	if err != nil {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("float64 to mat: %w", err)
	}
	copy(data, samples)
	return mat, nil
}

// MatFloat32 copies the samples of a CV_32F matrix of any channel count.
func MatFloat32(mat gocv.Mat) ([]float32, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("%w: empty matrix for mat float32", ErrUnsupportedMat)
	}
	data, err := mat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("mat float32: %w", err)
	}
	return append([]float32(nil), data...), nil
}

// MatFloat64 copies the samples of a CV_64F matrix.
func MatFloat64(mat gocv.Mat) ([]float64, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("%w: empty matrix for mat float64", ErrUnsupportedMat)
	}
	data, err := mat.DataPtrFloat64()
	if err != nil {
		return nil, fmt.Errorf("mat float64: %w", err)
	}
	return append([]float64(nil), data...), nil
}

// KernelMat builds a 1xN CV_64F row from weights. The caller closes it.
func KernelMat(weights models.Kernel) gocv.Mat {
	mat := gocv.NewMatWithSize(1, len(weights), gocv.MatTypeCV64F)
	for i, w := range weights {
		mat.SetDoubleAt(0, i, w)
	}
	return mat
}
