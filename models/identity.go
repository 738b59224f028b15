package models

import (
	"context"
	"fmt"

	"github.com/umbridge-go/umbridge"
)

// Identity passes through an arbitrary number of same-sized vectors
// unchanged, one output per input. It exists to exercise a model whose
// arity is configuration-dependent and whose evaluation has no shared
// mutable state — useful for testing that the server's worker pool never
// lets concurrent calls cross-talk between requests.
type Identity struct {
	umbridge.BaseModel
	// VectorSize is the length of every input/output vector.
	VectorSize int
	// Arity is the number of input/output vector slots.
	Arity int
}

func (Identity) Name() string { return "identity" }

func (m Identity) InputSizes(umbridge.Config) ([]int, error)  { return m.sizes(), nil }
func (m Identity) OutputSizes(umbridge.Config) ([]int, error) { return m.sizes(), nil }

func (m Identity) sizes() []int {
	sizes := make([]int, m.Arity)
	for i := range sizes {
		sizes[i] = m.VectorSize
	}
	return sizes
}

func (Identity) SupportsEvaluate() bool { return true }

func (m Identity) Evaluate(_ context.Context, input [][]float64, _ umbridge.Config) ([][]float64, error) {
	if len(input) != m.Arity {
		return nil, fmt.Errorf("identity: expected %d input vectors, got %d", m.Arity, len(input))
	}
	output := make([][]float64, len(input))
	for i, v := range input {
		cp := make([]float64, len(v))
		copy(cp, v)
		output[i] = cp
	}
	return output, nil
}
