package umbridge

import "context"

// BaseModel supplies default implementations for the capability predicates
// (all false, per the spec's "default feature-support predicates return
// false") and for every derivative operation (each returns
// UnsupportedFeatureError rather than panicking, so a model that forgets to
// override one fails safely instead of crashing the worker pool). Embed it
// in a concrete Model and override only what's actually supported — the
// same "embed Base, override what differs" shape as a REST client base
// struct, generalized from HTTP auth plumbing to protocol capability
// plumbing.
type BaseModel struct{}

func (BaseModel) SupportsEvaluate() bool      { return false }
func (BaseModel) SupportsGradient() bool      { return false }
func (BaseModel) SupportsApplyJacobian() bool { return false }
func (BaseModel) SupportsApplyHessian() bool  { return false }

func (b BaseModel) Gradient(context.Context, int, int, [][]float64, []float64, Config) ([]float64, error) {
	return nil, NewUnsupportedFeatureError(OpGradient, "")
}

func (b BaseModel) ApplyJacobian(context.Context, int, int, [][]float64, []float64, Config) ([]float64, error) {
	return nil, NewUnsupportedFeatureError(OpApplyJacobian, "")
}

func (b BaseModel) ApplyHessian(context.Context, int, int, int, [][]float64, []float64, []float64, Config) ([]float64, error) {
	return nil, NewUnsupportedFeatureError(OpApplyHessian, "")
}
