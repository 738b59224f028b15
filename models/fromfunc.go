package models

import (
	"context"

	"github.com/umbridge-go/umbridge"
)

// EvaluateFunc is the shape a plain Go function must have to be wrapped by
// NewFromFunc.
type EvaluateFunc func(ctx context.Context, input [][]float64, config umbridge.Config) ([][]float64, error)

// funcModel adapts a bare EvaluateFunc into a full umbridge.Model. Unlike
// Python's make_umbridge_model, Go can't introspect a function's arity, so
// NewFromFunc takes the input/output sizes explicitly.
type funcModel struct {
	umbridge.BaseModel
	name        string
	inputSizes  []int
	outputSizes []int
	fn          EvaluateFunc
}

// NewFromFunc builds an Evaluate-only Model named name from fn, wrapping a
// plain function the way autoumbridge.make_umbridge_model does for a
// Python callable — for the common case where a model is a pure function
// with fixed-size vector I/O and no derivatives.
func NewFromFunc(name string, inputSizes, outputSizes []int, fn EvaluateFunc) umbridge.Model {
	return &funcModel{name: name, inputSizes: inputSizes, outputSizes: outputSizes, fn: fn}
}

func (m *funcModel) Name() string { return m.name }

func (m *funcModel) InputSizes(umbridge.Config) ([]int, error)  { return m.inputSizes, nil }
func (m *funcModel) OutputSizes(umbridge.Config) ([]int, error) { return m.outputSizes, nil }

func (m *funcModel) SupportsEvaluate() bool { return true }

func (m *funcModel) Evaluate(ctx context.Context, input [][]float64, config umbridge.Config) ([][]float64, error) {
	return m.fn(ctx, input, config)
}
