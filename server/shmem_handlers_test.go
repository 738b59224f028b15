package server

import (
	"os"
	"testing"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/models"
	"github.com/umbridge-go/umbridge/shmem"
	"github.com/umbridge-go/umbridge/wire"
)

func skipIfNoShm(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/shm"); err != nil {
		t.Skip("/dev/shm not available in this environment")
	}
}

// TestHandleEvaluateShMemBindsFreshOutputSegments exercises the bug this
// package's design notes call out: every output vector must land in its
// own freshly-opened segment. Identity's arity-2 output makes a
// single-handle mistake observable — a one-segment bug would leave the
// second output vector at its pre-call sentinel value instead of the
// model's actual output.
func TestHandleEvaluateShMemBindsFreshOutputSegments(t *testing.T) {
	skipIfNoShm(t)

	srv, err := New([]umbridge.Model{models.Identity{VectorSize: 1, Arity: 2}}, WithShMem(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tid := "shmem-test-1"
	req := wire.EvaluateShMemRequest{ShMemRequest: wire.ShMemRequest{
		Name: "identity", TID: tid, ShMemName: "/umbridge",
		ShMemNumInputs: 2, ShMemSizes: []int{1, 1},
	}}
	defer func() {
		_ = shmem.Unlink(req.InSegmentName(0))
		_ = shmem.Unlink(req.InSegmentName(1))
		_ = shmem.Unlink(req.OutSegmentName(0))
		_ = shmem.Unlink(req.OutSegmentName(1))
	}()

	in0, err := shmem.Create(req.InSegmentName(0), 1)
	if err != nil {
		t.Fatalf("create in0: %v", err)
	}
	in0.Doubles()[0] = 11
	if err := in0.Close(); err != nil {
		t.Fatalf("close in0: %v", err)
	}

	in1, err := shmem.Create(req.InSegmentName(1), 1)
	if err != nil {
		t.Fatalf("create in1: %v", err)
	}
	in1.Doubles()[0] = 22
	if err := in1.Close(); err != nil {
		t.Fatalf("close in1: %v", err)
	}

	const sentinel = -999.0
	for _, i := range []int{0, 1} {
		out, err := shmem.Create(req.OutSegmentName(i), 1)
		if err != nil {
			t.Fatalf("create out%d: %v", i, err)
		}
		out.Doubles()[0] = sentinel
		if err := out.Close(); err != nil {
			t.Fatalf("close out%d: %v", i, err)
		}
	}

	httpResp := postJSON(t, srv, "/EvaluateShMem", req, nil)
	if httpResp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", httpResp.StatusCode)
	}

	out0, err := shmem.Open(req.OutSegmentName(0), 1)
	if err != nil {
		t.Fatalf("open out0: %v", err)
	}
	defer out0.Close()
	out1, err := shmem.Open(req.OutSegmentName(1), 1)
	if err != nil {
		t.Fatalf("open out1: %v", err)
	}
	defer out1.Close()

	if out0.Doubles()[0] != 11 {
		t.Fatalf("out0 = %v, want 11 (unchanged by Identity)", out0.Doubles()[0])
	}
	if out1.Doubles()[0] != 22 {
		t.Fatalf("out1 = %v, want 22 (unchanged by Identity), got stale sentinel %v if the binding bug regressed", out1.Doubles()[0], sentinel)
	}
}

// TestHandleApplyHessianShMemRejectsWrongLengthSens mirrors the plain
// /ApplyHessian sens-length check for the shared-memory transport, since a
// client picks the transport at request time without changing which model
// it's validating against.
func TestHandleApplyHessianShMemRejectsWrongLengthSens(t *testing.T) {
	skipIfNoShm(t)

	srv, err := New([]umbridge.Model{models.Gaussian1D{Mu: 2, Sigma: 1}}, WithShMem(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := wire.ApplyHessianShMemRequest{
		ShMemRequest: wire.ShMemRequest{
			Name: "gaussian1d", TID: "shmem-test-hessian", ShMemName: "/umbridge",
			ShMemNumInputs: 1, ShMemSizes: []int{1},
		},
		OutWrt: 0, InWrt1: 0, InWrt2: 0,
		Sens: []float64{1, 2}, Vec: []float64{1},
	}
	defer func() {
		_ = shmem.Unlink(req.InSegmentName(0))
		_ = shmem.Unlink(req.OutSegmentName(0))
	}()

	in0, err := shmem.Create(req.InSegmentName(0), 1)
	if err != nil {
		t.Fatalf("create in0: %v", err)
	}
	in0.Doubles()[0] = 2
	if err := in0.Close(); err != nil {
		t.Fatalf("close in0: %v", err)
	}

	var resp wire.ErrorResponse
	httpResp := postJSON(t, srv, "/ApplyHessianShMem", req, &resp)
	if httpResp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", httpResp.StatusCode)
	}
	if resp.Error.Type != string(umbridge.ErrorTypeInvalidInput) {
		t.Fatalf("error type = %q, want InvalidInput", resp.Error.Type)
	}
}
