package client

import (
	"context"

	"github.com/umbridge-go/umbridge"
)

// VectorFunc is a single-input, single-output view of a model's Evaluate,
// for callers that only care about the common case of one vector in, one
// vector out — an optimization library's objective function, say.
type VectorFunc func(ctx context.Context, x []float64) ([]float64, error)

// AsVectorFunc adapts m into a VectorFunc, assuming (and checking) that m
// has exactly one input and one output slot.
func AsVectorFunc(m umbridge.Model, config umbridge.Config) (VectorFunc, error) {
	inSizes, err := m.InputSizes(config)
	if err != nil {
		return nil, err
	}
	outSizes, err := m.OutputSizes(config)
	if err != nil {
		return nil, err
	}
	if len(inSizes) != 1 || len(outSizes) != 1 {
		return nil, &umbridge.InvalidInputError{
			Message: "AsVectorFunc requires a model with exactly one input and one output vector",
		}
	}

	return func(ctx context.Context, x []float64) ([]float64, error) {
		out, err := m.Evaluate(ctx, [][]float64{x}, config)
		if err != nil {
			return nil, err
		}
		return out[0], nil
	}, nil
}
