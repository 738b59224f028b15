package umbridge_test

import (
	"testing"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/models"
)

func TestCapabilitiesOfEvaluateOnly(t *testing.T) {
	caps := umbridge.CapabilitiesOf(models.Forward{})
	if !caps.HasOp(umbridge.OpEvaluate) {
		t.Fatal("expected Forward to have the Evaluate capability")
	}
	if caps.HasOp(umbridge.OpGradient) || caps.HasOp(umbridge.OpApplyJacobian) || caps.HasOp(umbridge.OpApplyHessian) {
		t.Fatalf("caps = %v, want only Evaluate set", caps)
	}
}

func TestCapabilitiesOfFullDerivativeSet(t *testing.T) {
	caps := umbridge.CapabilitiesOf(models.Gaussian1D{Mu: 0, Sigma: 1})
	for _, op := range []umbridge.Operation{umbridge.OpEvaluate, umbridge.OpGradient, umbridge.OpApplyJacobian, umbridge.OpApplyHessian} {
		if !caps.HasOp(op) {
			t.Fatalf("caps = %v, want %s set", caps, op)
		}
	}
}

func TestCapabilitiesWithShMemOnlyLiftsSetBits(t *testing.T) {
	caps := umbridge.CapabilitiesOf(models.Forward{}).WithShMem()
	if !caps.Has(umbridge.CapEvaluateShMem) {
		t.Fatal("expected EvaluateShMem bit to be set alongside Evaluate")
	}
	if caps.Has(umbridge.CapGradientShMem) {
		t.Fatal("GradientShMem bit must not be set when Gradient itself is unsupported")
	}
}
