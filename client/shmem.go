package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/shmem"
	"github.com/umbridge-go/umbridge/wire"
)

// tidCounter hands out a unique "tid" per call. The protocol borrows the
// field name from the Python reference's native OS thread id, but all it
// actually needs is a value unique among concurrently in-flight calls from
// this client — Go has no 1:1 goroutine-to-thread mapping to reuse, so an
// atomic counter fills the same role.
var tidCounter int64

func nextTID() string {
	return fmt.Sprintf("%d", atomic.AddInt64(&tidCounter, 1))
}

// shmemCall is the common lifecycle every *ShMem operation follows: create
// one input segment per input vector and one output segment per expected
// output length, write inputs, POST the control envelope, read outputs
// back, then unlink every segment regardless of outcome.
type shmemCall struct {
	tid      string
	inNames  []string
	outNames []string
}

func newShmemCall(req wire.ShMemRequest, input [][]float64, outputLens []int) (*shmemCall, error) {
	call := &shmemCall{tid: req.TID}
	for i, vec := range input {
		name := req.InSegmentName(i)
		seg, err := shmem.Create(name, len(vec))
		if err != nil {
			call.cleanup()
			return nil, err
		}
		call.inNames = append(call.inNames, name)
		copy(seg.Doubles(), vec)
		if err := seg.Close(); err != nil {
			call.cleanup()
			return nil, err
		}
	}
	for i, n := range outputLens {
		name := req.OutSegmentName(i)
		seg, err := shmem.Create(name, n)
		if err != nil {
			call.cleanup()
			return nil, err
		}
		call.outNames = append(call.outNames, name)
		if err := seg.Close(); err != nil {
			call.cleanup()
			return nil, err
		}
	}
	return call, nil
}

func (c *shmemCall) readOutput(i, n int) ([]float64, error) {
	seg, err := shmem.Open(c.outNames[i], n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	copy(out, seg.Doubles())
	return out, seg.Close()
}

func (c *shmemCall) cleanup() {
	for _, name := range c.inNames {
		_ = shmem.Unlink(name)
	}
	for _, name := range c.outNames {
		_ = shmem.Unlink(name)
	}
}

func shmemRequestBase(name string, config umbridge.Config, input [][]float64) wire.ShMemRequest {
	sizes := make([]int, len(input))
	for i, v := range input {
		sizes[i] = len(v)
	}
	return wire.ShMemRequest{
		Name:           name,
		TID:            nextTID(),
		Config:         json.RawMessage(config),
		ShMemName:      "/umbridge",
		ShMemNumInputs: len(input),
		ShMemSizes:     sizes,
	}
}

func (c *Client) evaluateShMem(ctx context.Context, input [][]float64, config umbridge.Config) ([][]float64, error) {
	base := shmemRequestBase(c.name, config, input)
	outSizes, err := c.OutputSizes(config)
	if err != nil {
		return nil, err
	}

	call, err := newShmemCall(base, input, outSizes)
	if err != nil {
		return nil, err
	}
	defer call.cleanup()

	var respErr error
	err = c.do(ctx, "POST", "/EvaluateShMem", wire.EvaluateShMemRequest{ShMemRequest: base}, nil)
	if err != nil {
		return nil, err
	}

	output := make([][]float64, len(outSizes))
	for i, n := range outSizes {
		output[i], respErr = call.readOutput(i, n)
		if respErr != nil {
			return nil, respErr
		}
	}
	return output, nil
}

func (c *Client) gradientShMem(ctx context.Context, outWrt, inWrt int, input [][]float64, sens []float64, config umbridge.Config) ([]float64, error) {
	base := shmemRequestBase(c.name, config, input)
	inSizes, err := c.InputSizes(config)
	if err != nil {
		return nil, err
	}
	if inWrt < 0 || inWrt >= len(inSizes) {
		return nil, &umbridge.InvalidInputError{Message: "invalid inWrt index"}
	}

	call, err := newShmemCall(base, input, []int{inSizes[inWrt]})
	if err != nil {
		return nil, err
	}
	defer call.cleanup()

	err = c.do(ctx, "POST", "/GradientShMem", wire.GradientShMemRequest{
		ShMemRequest: base, OutWrt: outWrt, InWrt: inWrt, Sens: sens,
	}, nil)
	if err != nil {
		return nil, err
	}
	return call.readOutput(0, inSizes[inWrt])
}

func (c *Client) applyJacobianShMem(ctx context.Context, outWrt, inWrt int, input [][]float64, vec []float64, config umbridge.Config) ([]float64, error) {
	base := shmemRequestBase(c.name, config, input)
	outSizes, err := c.OutputSizes(config)
	if err != nil {
		return nil, err
	}
	if outWrt < 0 || outWrt >= len(outSizes) {
		return nil, &umbridge.InvalidInputError{Message: "invalid outWrt index"}
	}

	call, err := newShmemCall(base, input, []int{outSizes[outWrt]})
	if err != nil {
		return nil, err
	}
	defer call.cleanup()

	err = c.do(ctx, "POST", "/ApplyJacobianShMem", wire.ApplyJacobianShMemRequest{
		ShMemRequest: base, OutWrt: outWrt, InWrt: inWrt, Vec: vec,
	}, nil)
	if err != nil {
		return nil, err
	}
	return call.readOutput(0, outSizes[outWrt])
}

func (c *Client) applyHessianShMem(ctx context.Context, outWrt, inWrt1, inWrt2 int, input [][]float64, sens, vec []float64, config umbridge.Config) ([]float64, error) {
	base := shmemRequestBase(c.name, config, input)
	inSizes, err := c.InputSizes(config)
	if err != nil {
		return nil, err
	}
	if inWrt1 < 0 || inWrt1 >= len(inSizes) {
		return nil, &umbridge.InvalidInputError{Message: "invalid inWrt1 index"}
	}

	call, err := newShmemCall(base, input, []int{inSizes[inWrt1]})
	if err != nil {
		return nil, err
	}
	defer call.cleanup()

	err = c.do(ctx, "POST", "/ApplyHessianShMem", wire.ApplyHessianShMemRequest{
		ShMemRequest: base, OutWrt: outWrt, InWrt1: inWrt1, InWrt2: inWrt2, Sens: sens, Vec: vec,
	}, nil)
	if err != nil {
		return nil, err
	}
	return call.readOutput(0, inSizes[inWrt1])
}

// probeShMem creates the fixed test segments, writes a sentinel, calls
// /TestShMem, and checks the server wrote the same sentinel back. Any
// failure — segment creation, HTTP error, mismatch — means ShMem isn't
// usable against this server and the client falls back to plain JSON.
func (c *Client) probeShMem(ctx context.Context) bool {
	const sentinel = 12345.0
	tid := nextTID()
	inName, outName := wire.TestShMemSegmentNames(tid)

	in, err := shmem.Create(inName, 1)
	if err != nil {
		return false
	}
	defer func() { _ = shmem.Unlink(inName) }()
	in.Doubles()[0] = sentinel
	if err := in.Close(); err != nil {
		return false
	}

	out, err := shmem.Create(outName, 1)
	if err != nil {
		return false
	}
	defer func() { _ = shmem.Unlink(outName) }()
	if err := out.Close(); err != nil {
		return false
	}

	if err := c.do(ctx, "POST", "/TestShMem", wire.TestShMemRequest{Name: c.name, TID: tid}, nil); err != nil {
		return false
	}

	result, err := shmem.Open(outName, 1)
	if err != nil {
		return false
	}
	defer result.Close()
	return result.Doubles()[0] == sentinel
}
