package client

import (
	"context"
	"encoding/json"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/wire"
)

// InputSizes queries the server for the model's input vector lengths under
// config.
func (c *Client) InputSizes(config umbridge.Config) ([]int, error) {
	var resp wire.InputSizesResponse
	err := c.do(context.Background(), "POST", "/InputSizes", wire.SizesRequest{Name: c.name, Config: json.RawMessage(config)}, &resp)
	return resp.InputSizes, err
}

// OutputSizes queries the server for the model's output vector lengths
// under config.
func (c *Client) OutputSizes(config umbridge.Config) ([]int, error) {
	var resp wire.OutputSizesResponse
	err := c.do(context.Background(), "POST", "/OutputSizes", wire.SizesRequest{Name: c.name, Config: json.RawMessage(config)}, &resp)
	return resp.OutputSizes, err
}

// Evaluate calls the remote model, using the shared-memory fast path if
// the handshake found it available and the caller requested it. The
// capability flag and bundle shape are checked locally first — an
// unsupported call or a malformed bundle never reaches the network.
func (c *Client) Evaluate(ctx context.Context, input [][]float64, config umbridge.Config) ([][]float64, error) {
	if err := requireCapability(c.support.Evaluate, "Evaluate"); err != nil {
		return nil, err
	}
	if err := requireBundle(input); err != nil {
		return nil, err
	}
	if c.shmem {
		return c.evaluateShMem(ctx, input, config)
	}
	var resp wire.EvaluateResponse
	err := c.do(ctx, "POST", "/Evaluate", wire.EvaluateRequest{Name: c.name, Input: input, Config: json.RawMessage(config)}, &resp)
	return resp.Output, err
}

// Gradient calls the remote model's /Gradient (or /GradientShMem).
func (c *Client) Gradient(ctx context.Context, outWrt, inWrt int, input [][]float64, sens []float64, config umbridge.Config) ([]float64, error) {
	if err := requireCapability(c.support.Gradient, "Gradient"); err != nil {
		return nil, err
	}
	if err := requireBundle(input); err != nil {
		return nil, err
	}
	if err := requireVector("sens", sens); err != nil {
		return nil, err
	}
	if c.shmem {
		return c.gradientShMem(ctx, outWrt, inWrt, input, sens, config)
	}
	var resp wire.VectorResponse
	err := c.do(ctx, "POST", "/Gradient", wire.GradientRequest{
		Name: c.name, Input: input, OutWrt: outWrt, InWrt: inWrt, Sens: sens, Config: json.RawMessage(config),
	}, &resp)
	return resp.Output, err
}

// ApplyJacobian calls the remote model's /ApplyJacobian (or
// /ApplyJacobianShMem).
func (c *Client) ApplyJacobian(ctx context.Context, outWrt, inWrt int, input [][]float64, vec []float64, config umbridge.Config) ([]float64, error) {
	if err := requireCapability(c.support.ApplyJacobian, "ApplyJacobian"); err != nil {
		return nil, err
	}
	if err := requireBundle(input); err != nil {
		return nil, err
	}
	if err := requireVector("vec", vec); err != nil {
		return nil, err
	}
	if c.shmem {
		return c.applyJacobianShMem(ctx, outWrt, inWrt, input, vec, config)
	}
	var resp wire.VectorResponse
	err := c.do(ctx, "POST", "/ApplyJacobian", wire.ApplyJacobianRequest{
		Name: c.name, Input: input, OutWrt: outWrt, InWrt: inWrt, Vec: vec, Config: json.RawMessage(config),
	}, &resp)
	return resp.Output, err
}

// ApplyHessian calls the remote model's /ApplyHessian (or
// /ApplyHessianShMem).
func (c *Client) ApplyHessian(ctx context.Context, outWrt, inWrt1, inWrt2 int, input [][]float64, sens, vec []float64, config umbridge.Config) ([]float64, error) {
	if err := requireCapability(c.support.ApplyHessian, "ApplyHessian"); err != nil {
		return nil, err
	}
	if err := requireBundle(input); err != nil {
		return nil, err
	}
	if err := requireVector("sens", sens); err != nil {
		return nil, err
	}
	if err := requireVector("vec", vec); err != nil {
		return nil, err
	}
	if c.shmem {
		return c.applyHessianShMem(ctx, outWrt, inWrt1, inWrt2, input, sens, vec, config)
	}
	var resp wire.VectorResponse
	err := c.do(ctx, "POST", "/ApplyHessian", wire.ApplyHessianRequest{
		Name: c.name, Input: input, OutWrt: outWrt, InWrt1: inWrt1, InWrt2: inWrt2, Sens: sens, Vec: vec, Config: json.RawMessage(config),
	}, &resp)
	return resp.Output, err
}
