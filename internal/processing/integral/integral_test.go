package integral

import (
	"errors"
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pill-counter/internal/models"
	"pill-counter/internal/processing/filters"
)

func randomBuffer(w, h int, seed uint64) *models.PixelBuffer {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	buf := models.NewPixelBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, models.RGB{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256))})
		}
	}
	return buf
}

func lumaAt(buf *models.PixelBuffer, x, y int) float64 {
	c := buf.At(x, y)
	return float64(filters.Luma(c.R, c.G, c.B))
}

func TestBuildRequiresATable(t *testing.T) {
	set, err := Build(models.NewPixelBuffer(4, 4), Options{})
	assert.Nil(t, set)
	assert.ErrorIs(t, err, ErrNoTables)
	assert.True(t, errors.Is(err, filters.ErrInvalidArgument))
}

func TestBuildRejectsMalformedBuffer(t *testing.T) {
	_, err := Build(&models.PixelBuffer{Pix: make([]uint8, 3), Width: 2, Height: 2}, Options{Sum: true})
	assert.ErrorIs(t, err, models.ErrInvalidBuffer)
}

func TestBuildOnlyRequestedTables(t *testing.T) {
	set, err := Build(randomBuffer(5, 4, 1), Options{Sum: true})
	require.NoError(t, err)
	assert.True(t, set.Has(Sum))
	assert.False(t, set.Has(SquareSum))
	assert.False(t, set.Has(Tilted))
	assert.False(t, set.Has(SobelSum))
	assert.Equal(t, float64(0), set.RectSum(SquareSum, image.Rect(0, 0, 5, 4)))
}

func TestRectSumMatchesBruteForce(t *testing.T) {
	const w, h = 23, 17
	buf := randomBuffer(w, h, 42)
	set, err := Build(buf, Options{Sum: true, SquareSum: true})
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 4))
	for range 200 {
		x0, x1 := rng.IntN(w), rng.IntN(w)+1
		y0, y1 := rng.IntN(h), rng.IntN(h)+1
		r := image.Rect(x0, y0, x1, y1)
		if r.Empty() {
			continue
		}

		var sum, sq float64
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				v := lumaAt(buf, x, y)
				sum += v
				sq += v * v
			}
		}
		require.Equal(t, sum, set.RectSum(Sum, r), "rect %v", r)
		require.Equal(t, sq, set.RectSum(SquareSum, r), "rect %v", r)

		n := float64(r.Dx() * r.Dy())
		mean := sum / n
		assert.InDelta(t, mean, set.Mean(r), 1e-9)
		assert.InDelta(t, sq/n-mean*mean, set.Variance(r), 1e-6)
	}
}

func TestWholeFrameSumIsLastEntry(t *testing.T) {
	buf := randomBuffer(8, 6, 9)
	set, err := Build(buf, Options{Sum: true})
	require.NoError(t, err)

	var total float64
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			total += lumaAt(buf, x, y)
		}
	}
	assert.Equal(t, total, set.At(Sum, 7, 5))
	assert.Equal(t, float64(0), set.At(Sum, -1, 0))
}

func TestVarianceOfFlatWindowIsZero(t *testing.T) {
	buf := models.NewPixelBuffer(10, 10)
	buf.Fill(models.RGB{R: 90, G: 90, B: 90})
	set, err := Build(buf, Options{Sum: true, SquareSum: true})
	require.NoError(t, err)

	assert.Equal(t, float64(90), set.Mean(image.Rect(2, 2, 8, 8)))
	assert.Equal(t, float64(0), set.Variance(image.Rect(2, 2, 8, 8)))
	assert.Equal(t, float64(0), set.Mean(image.Rect(20, 20, 30, 30)))
}

func TestTiltedTableSinglePixelCone(t *testing.T) {
	const w, h = 21, 21
	const x0, y0 = 10, 5
	buf := models.NewPixelBuffer(w, h)
	buf.Fill(models.RGB{})
	buf.Set(x0, y0, models.RGB{R: 255, G: 255, B: 255})

	set, err := Build(buf, Options{Tilted: true})
	require.NoError(t, err)

	// The tilted table at (x, y) sums the 45° cone opening upwards from (x, y),
	// so a single bright pixel shows up exactly in the cone below it.
	for y := 0; y <= y0+5; y++ {
		for x := 0; x < w; x++ {
			want := 0.0
			dx := x - x0
			if dx < 0 {
				dx = -dx
			}
			if y >= y0 && dx <= y-y0 {
				want = 255
			}
			require.Equal(t, want, set.At(Tilted, x, y), "(%d,%d)", x, y)
		}
	}
	assert.Equal(t, float64(0), set.RectSum(Tilted, image.Rect(0, 0, w, h)))
}

func TestSobelTableAndEdgeDensity(t *testing.T) {
	buf := models.NewPixelBuffer(20, 10)
	buf.Fill(models.RGB{})
	buf.FillRect(image.Rect(10, 0, 20, 10), models.RGB{R: 255, G: 255, B: 255})
	before := append([]uint8(nil), buf.Pix...)

	set, err := Build(buf, Options{Sobel: true})
	require.NoError(t, err)
	assert.Equal(t, before, buf.Pix, "building the sobel table must not touch the frame")

	assert.Equal(t, float64(0), set.EdgeDensity(image.Rect(0, 0, 5, 10)))
	assert.Equal(t, float64(0), set.EdgeDensity(image.Rect(15, 0, 20, 10)))
	// Columns 9 and 10 carry magnitude 1020 on every row.
	assert.Equal(t, float64(1020), set.EdgeDensity(image.Rect(9, 0, 11, 10)))
	assert.Equal(t, float64(2*10*1020), set.RectSum(SobelSum, image.Rect(0, 0, 20, 10)))
}

func TestBuildEmptyFrame(t *testing.T) {
	set, err := Build(models.NewPixelBuffer(0, 0), Options{Sum: true, Tilted: true})
	require.NoError(t, err)
	assert.Empty(t, set.Sum)
	assert.Equal(t, float64(0), set.Mean(image.Rect(0, 0, 1, 1)))
}

func TestTablesAreInclusiveAtEveryPixel(t *testing.T) {
	const w, h = 7, 5
	buf := randomBuffer(w, h, 9)
	set, err := Build(buf, Options{Sum: true, SquareSum: true})
	require.NoError(t, err)
	require.Len(t, set.Sum, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, sq float64
			for yy := 0; yy <= y; yy++ {
				for xx := 0; xx <= x; xx++ {
					v := lumaAt(buf, xx, yy)
					sum += v
					sq += v * v
				}
			}
			require.Equal(t, sum, set.At(Sum, x, y), "sum (%d,%d)", x, y)
			require.Equal(t, sq, set.At(SquareSum, x, y), "square sum (%d,%d)", x, y)
		}
	}
}
