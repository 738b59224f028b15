// Package models provides a handful of reference UM-Bridge models used by
// the conformance suite and the example server: pure functions with no
// external dependencies, covering the spread of capability combinations
// (Evaluate-only, full derivative set, multi-input passthrough,
// configuration-dependent scaling).
package models

import (
	"context"

	"github.com/umbridge-go/umbridge"
)

// Forward is the simplest possible model: one input, one output, y = 2x.
// It supports only Evaluate, making it the baseline conformance fixture for
// clients that haven't implemented derivatives yet.
type Forward struct {
	umbridge.BaseModel
}

func (Forward) Name() string { return "forward" }

func (Forward) InputSizes(umbridge.Config) ([]int, error)  { return []int{1}, nil }
func (Forward) OutputSizes(umbridge.Config) ([]int, error) { return []int{1}, nil }

func (Forward) SupportsEvaluate() bool { return true }

func (Forward) Evaluate(_ context.Context, input [][]float64, _ umbridge.Config) ([][]float64, error) {
	return [][]float64{{2 * input[0][0]}}, nil
}
