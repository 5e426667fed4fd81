package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"pill-counter/internal/models"
)

func TestRoundTripDropsAlpha(t *testing.T) {
	buf := models.NewPixelBuffer(2, 1)
	copy(buf.Pix, []uint8{255, 0, 0, 40, 10, 20, 30, 255})

	mat, err := PixelBufferToMat(buf)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 3, mat.Channels())
	assert.Equal(t, 1, mat.Rows())
	assert.Equal(t, 2, mat.Cols())
	// BGR order
	assert.Equal(t, []uint8{0, 0, 255, 30, 20, 10}, mat.ToBytes())

	back, err := MatToPixelBuffer(mat)
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 0, 255, 10, 20, 30, 255}, back.Pix)
}

func TestGrayMatBecomesOpaqueRGBA(t *testing.T) {
	mat, err := gocv.NewMatFromBytes(1, 3, gocv.MatTypeCV8UC1, []uint8{0, 128, 255})
	require.NoError(t, err)
	defer mat.Close()

	buf, err := MatToPixelBuffer(mat)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 255, 128, 128, 128, 255, 255, 255, 255, 255}, buf.Pix)
}

func TestValidate(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	assert.ErrorIs(t, Validate(empty, "test"), ErrUnsupportedMat)

	wide := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV32F)
	defer wide.Close()
	assert.ErrorIs(t, Validate(wide, "test"), ErrUnsupportedMat)

	assert.ErrorIs(t, ValidateDimensions(0, 10, "test"), ErrUnsupportedMat)
	assert.ErrorIs(t, ValidateDimensions(MaxDimension+1, 10, "test"), ErrUnsupportedMat)
	assert.NoError(t, ValidateDimensions(640, 480, "test"))

	_, err := PixelBufferToMat(&models.PixelBuffer{Pix: make([]uint8, 3), Width: 1, Height: 1})
	assert.ErrorIs(t, err, models.ErrInvalidBuffer)
}

func TestBytesToMatKeepsChannelOrder(t *testing.T) {
	buf := models.NewPixelBuffer(2, 1)
	copy(buf.Pix, []uint8{1, 2, 3, 4, 5, 6, 7, 8})

	mat, err := RGBAMat(buf)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, gocv.MatTypeCV8UC4, mat.Type())
	assert.Equal(t, buf.Pix, mat.ToBytes())

	// The matrix owns a copy.
	buf.Pix[0] = 99
	assert.Equal(t, uint8(1), mat.ToBytes()[0])
}

func TestFloatMatsCopyOut(t *testing.T) {
	f32, err := Float32ToMat([]float32{0.5, -1, 2, 3}, 2, 1, 2)
	require.NoError(t, err)
	defer f32.Close()
	got32, err := MatFloat32(f32)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 2, 3}, got32)

	f64, err := Float64ToMat([]float64{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	defer f64.Close()
	assert.Equal(t, 2, f64.Rows())
	assert.Equal(t, 3, f64.Cols())
	got64, err := MatFloat64(f64)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got64)
}

func TestRasterSizeMismatch(t *testing.T) {
	_, err := BytesToMat(make([]uint8, 5), 2, 1, 3)
	assert.ErrorIs(t, err, ErrUnsupportedMat)

	_, err = Float64ToMat(nil, 0, 0)
	assert.ErrorIs(t, err, ErrUnsupportedMat)

	_, err = BytesToMat(make([]uint8, 10), 2, 1, 5)
	assert.ErrorIs(t, err, ErrUnsupportedMat)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = MatFloat32(empty)
	assert.ErrorIs(t, err, ErrUnsupportedMat)
}

func TestKernelMat(t *testing.T) {
	k := KernelMat(models.Kernel{0.25, 0.5, 0.25})
	defer k.Close()

	assert.Equal(t, 1, k.Rows())
	assert.Equal(t, 3, k.Cols())
	assert.Equal(t, 0.5, k.GetDoubleAt(0, 1))
}
