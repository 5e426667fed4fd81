package chain

import (
	"context"
	"fmt"

	"pill-counter/internal/models"
)

// ProcessingStep is one stage of a frame chain. Steps may return their input
// (in-place stages such as Sobel) or a fresh buffer.
type ProcessingStep interface {
	Apply(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error)
	Name() string
	ShouldExecute(params map[string]interface{}) bool
}

// StepHook is called after each executed step with its output.
type StepHook func(name string, output *models.PixelBuffer)

type ProcessingChain struct {
	steps []ProcessingStep
	hook  StepHook
}

func NewProcessingChain(steps []ProcessingStep) *ProcessingChain {
	return &ProcessingChain{
		steps: steps,
	}
}

// OnStep registers a hook that observes intermediate outputs.
func (pc *ProcessingChain) OnStep(hook StepHook) {
	pc.hook = hook
}

func (pc *ProcessingChain) Execute(ctx context.Context, input *models.PixelBuffer, params map[string]interface{}) (*models.PixelBuffer, error) {
	current := input

	for _, step := range pc.steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !step.ShouldExecute(params) {
			continue
		}

		result, err := step.Apply(ctx, current, params)
		if err != nil {
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}

		if pc.hook != nil {
			pc.hook(step.Name(), result)
		}
		current = result
	}

	return current, nil
}

func (pc *ProcessingChain) AddStep(step ProcessingStep) {
	pc.steps = append(pc.steps, step)
}

// StepNames lists the steps that would run with params, in order.
func (pc *ProcessingChain) StepNames(params map[string]interface{}) []string {
	names := make([]string, 0, len(pc.steps))
	for _, step := range pc.steps {
		if step.ShouldExecute(params) {
			names = append(names, step.Name())
		}
	}
	return names
}
