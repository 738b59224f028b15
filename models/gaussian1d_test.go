package models

import (
	"context"
	"math"
	"testing"

	"github.com/umbridge-go/umbridge"
)

func TestGaussian1DEvaluate(t *testing.T) {
	g := Gaussian1D{Mu: 2, Sigma: 1}
	out, err := g.Evaluate(context.Background(), [][]float64{{2}}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got := out[0][0]
	want := -0.9189385332046727
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("logpdf(2) for N(2,1) = %v, want %v", got, want)
	}
}

func TestGaussian1DGradientMatchesFiniteDifference(t *testing.T) {
	g := Gaussian1D{Mu: 0, Sigma: 2}
	ctx := context.Background()
	x := 1.3
	const h = 1e-6

	grad, err := g.Gradient(ctx, 0, 0, [][]float64{{x}}, []float64{1}, nil)
	if err != nil {
		t.Fatalf("Gradient: %v", err)
	}

	plus, _ := g.Evaluate(ctx, [][]float64{{x + h}}, nil)
	minus, _ := g.Evaluate(ctx, [][]float64{{x - h}}, nil)
	fd := (plus[0][0] - minus[0][0]) / (2 * h)

	if math.Abs(grad[0]-fd) > 1e-4 {
		t.Fatalf("analytic gradient %v vs finite difference %v", grad[0], fd)
	}
}

func TestDiagonalApplyJacobianLinear(t *testing.T) {
	d := Diagonal{Size: 3, DefaultScale: 2}
	out, err := d.ApplyJacobian(context.Background(), 0, 0, nil, []float64{1, 2, 3}, nil)
	if err != nil {
		t.Fatalf("ApplyJacobian: %v", err)
	}
	want := []float64{2, 4, 6}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("ApplyJacobian[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestIdentityEvaluateMultiArity(t *testing.T) {
	m := Identity{VectorSize: 2, Arity: 3}
	input := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	out, err := m.Evaluate(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for i := range input {
		for j := range input[i] {
			if out[i][j] != input[i][j] {
				t.Fatalf("Identity output[%d][%d] = %v, want %v", i, j, out[i][j], input[i][j])
			}
		}
	}
}

func TestNewFromFunc(t *testing.T) {
	m := NewFromFunc("double", []int{1}, []int{1}, func(_ context.Context, input [][]float64, _ umbridge.Config) ([][]float64, error) {
		return [][]float64{{2 * input[0][0]}}, nil
	})
	sizes, _ := m.InputSizes(nil)
	if len(sizes) != 1 || sizes[0] != 1 {
		t.Fatalf("InputSizes = %v", sizes)
	}
	out, err := m.Evaluate(context.Background(), [][]float64{{21}}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out[0][0] != 42 {
		t.Fatalf("Evaluate = %v, want 42", out[0][0])
	}
}
