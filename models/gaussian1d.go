package models

import (
	"context"
	"math"

	"github.com/umbridge-go/umbridge"
)

// Gaussian1D evaluates the log-density of a univariate normal distribution
// N(mu, sigma^2) at a point x, and exposes its closed-form Gradient,
// Jacobian-action, and Hessian-action — making it the reference fixture for
// every derivative operation, not just Evaluate.
//
// Input: a single 1-vector, the evaluation point x.
// Output: a single 1-vector, log N(x | mu, sigma^2).
type Gaussian1D struct {
	umbridge.BaseModel
	Mu    float64
	Sigma float64
}

func (Gaussian1D) Name() string { return "gaussian1d" }

func (Gaussian1D) InputSizes(umbridge.Config) ([]int, error)  { return []int{1}, nil }
func (Gaussian1D) OutputSizes(umbridge.Config) ([]int, error) { return []int{1}, nil }

func (Gaussian1D) SupportsEvaluate() bool      { return true }
func (Gaussian1D) SupportsGradient() bool      { return true }
func (Gaussian1D) SupportsApplyJacobian() bool { return true }
func (Gaussian1D) SupportsApplyHessian() bool  { return true }

func (g Gaussian1D) logpdf(x float64) float64 {
	z := (x - g.Mu) / g.Sigma
	return -0.5*z*z - math.Log(g.Sigma) - 0.5*math.Log(2*math.Pi)
}

func (g Gaussian1D) Evaluate(_ context.Context, input [][]float64, _ umbridge.Config) ([][]float64, error) {
	return [][]float64{{g.logpdf(input[0][0])}}, nil
}

// Gradient returns d(logpdf)/dx * sens[0], the vector-Jacobian product
// against the single output.
func (g Gaussian1D) Gradient(_ context.Context, outWrt, inWrt int, input [][]float64, sens []float64, _ umbridge.Config) ([]float64, error) {
	x := input[0][0]
	d := -(x - g.Mu) / (g.Sigma * g.Sigma)
	return []float64{d * sens[0]}, nil
}

// ApplyJacobian returns d(logpdf)/dx * vec[0], the Jacobian-vector product.
func (g Gaussian1D) ApplyJacobian(_ context.Context, outWrt, inWrt int, input [][]float64, vec []float64, _ umbridge.Config) ([]float64, error) {
	x := input[0][0]
	d := -(x - g.Mu) / (g.Sigma * g.Sigma)
	return []float64{d * vec[0]}, nil
}

// ApplyHessian returns d2(logpdf)/dx2 * sens[0] * vec[0]. Since the input
// and output are both scalar, inWrt1 and inWrt2 can only be 0.
func (g Gaussian1D) ApplyHessian(_ context.Context, outWrt, inWrt1, inWrt2 int, input [][]float64, sens, vec []float64, _ umbridge.Config) ([]float64, error) {
	d2 := -1 / (g.Sigma * g.Sigma)
	return []float64{d2 * sens[0] * vec[0]}, nil
}
