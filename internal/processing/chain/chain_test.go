package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pill-counter/internal/models"
	"pill-counter/internal/processing/filters"
	"pill-counter/internal/processing/histogram"
)

type failingStep struct{}

func (failingStep) Name() string                                     { return "failing" }
func (failingStep) ShouldExecute(params map[string]interface{}) bool { return true }
func (failingStep) Apply(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error) {
	return nil, errors.New("boom")
}

func TestExecuteRunsEnabledStepsInOrder(t *testing.T) {
	pc := NewProcessingChain([]ProcessingStep{
		filters.NewGrayscaleConverter(),
		filters.NewGaussianFilter(),
		filters.NewSobelFilter(),
	})

	var seen []string
	pc.OnStep(func(name string, output *models.PixelBuffer) {
		seen = append(seen, name)
	})

	src := models.NewPixelBuffer(8, 8)
	src.Fill(models.RGB{R: 40, G: 40, B: 40})

	out, err := pc.Execute(context.Background(), src, map[string]interface{}{
		"grayscale": true,
		"edges":     true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"grayscale_converter", "sobel_filter"}, seen)
	assert.Equal(t, []uint8{0, 0, 0, 255}, out.Pix[:4])
	assert.Equal(t, uint8(40), src.Pix[0], "grayscale copies before the in-place edge step")
}

func TestExecuteWrapsStepError(t *testing.T) {
	pc := NewProcessingChain(nil)
	pc.AddStep(failingStep{})

	_, err := pc.Execute(context.Background(), models.NewPixelBuffer(1, 1), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step failing failed")
}

func TestExecuteHonoursCancellation(t *testing.T) {
	pc := NewProcessingChain([]ProcessingStep{histogram.NewEqualizer()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pc.Execute(ctx, models.NewPixelBuffer(1, 1), map[string]interface{}{"equalize": true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStepNamesFollowParams(t *testing.T) {
	pc := NewProcessingChain([]ProcessingStep{filters.NewGrayscaleConverter()})
	pc.AddStep(histogram.NewEqualizer())
	pc.AddStep(filters.NewSobelFilter())

	assert.Equal(t, []string{"grayscale_converter", "histogram_equalizer", "sobel_filter"},
		pc.StepNames(map[string]interface{}{"grayscale": true, "equalize": true, "edges": true}))
	assert.Equal(t, []string{"sobel_filter"}, pc.StepNames(map[string]interface{}{"edges": true}))
	assert.Empty(t, pc.StepNames(nil))
}
