package histogram

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pill-counter/internal/models"
)

func TestHistogramAndCumulative(t *testing.T) {
	gray := []uint8{0, 0, 3, 255, 3, 3}
	h := Histogram(gray)
	assert.Equal(t, 2, h[0])
	assert.Equal(t, 3, h[3])
	assert.Equal(t, 1, h[255])

	c := Cumulative(h)
	assert.Equal(t, 2, c[0])
	assert.Equal(t, 2, c[2])
	assert.Equal(t, 5, c[3])
	assert.Equal(t, 6, c[255])
}

func TestEqualizeKnownValues(t *testing.T) {
	gray := []uint8{10, 10, 20, 30}
	// cdf: 10->2, 20->3, 30->4; value = round(cdf*255/4)
	want := []uint8{128, 128, 191, 255}
	assert.Equal(t, want, Equalize(gray))
}

func TestEqualizeLengthAndRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	gray := make([]uint8, 333)
	for i := range gray {
		gray[i] = uint8(64 + rng.IntN(64))
	}
	out := Equalize(gray)
	require.Len(t, out, len(gray))

	var maxV uint8
	for _, v := range out {
		maxV = max(maxV, v)
	}
	assert.Equal(t, uint8(255), maxV, "the brightest level maps to 255")
}

func TestEqualizeMonotone(t *testing.T) {
	gray := []uint8{5, 200, 17, 17, 90, 4, 250, 90}
	out := Equalize(gray)
	for i := range gray {
		for j := range gray {
			if gray[i] < gray[j] {
				assert.LessOrEqual(t, out[i], out[j])
			}
		}
	}
}

func TestEqualizeIdempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	gray := make([]uint8, 64*48)
	for i := range gray {
		gray[i] = uint8(rng.NormFloat64()*20 + 100)
	}

	once := Equalize(gray)
	twice := Equalize(once)
	for i := range once {
		diff := int(once[i]) - int(twice[i])
		assert.LessOrEqual(t, diff*diff, 1, "pixel %d changed by more than rounding", i)
	}
}

func TestEqualizeEmpty(t *testing.T) {
	assert.Empty(t, Equalize(nil))
}

func TestEqualizerStep(t *testing.T) {
	src := models.NewPixelBuffer(2, 1)
	src.Set(0, 0, models.RGB{R: 10, G: 10, B: 10})
	src.Set(1, 0, models.RGB{R: 20, G: 20, B: 20})
	src.Pix[7] = 9

	step := NewEqualizer()
	assert.True(t, step.ShouldExecute(map[string]interface{}{"equalize": true}))

	out, err := step.Apply(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{128, 128, 128, 255, 255, 255, 255, 9}, out.Pix)

	eq := EqualizeGray(&models.GrayBuffer{Pix: []uint8{1, 2}, Width: 2, Height: 1})
	assert.Equal(t, []uint8{128, 255}, eq.Pix)
}
