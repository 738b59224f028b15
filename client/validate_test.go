package client

import (
	"context"
	"errors"
	"testing"
)

func TestClientGradientUnsupportedIsValidationError(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	ctx := context.Background()
	cl, err := New(ctx, ts.URL, "forward")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cl.SupportsGradient() {
		t.Fatal("expected forward to not support Gradient")
	}

	_, err = cl.Gradient(ctx, 0, 0, [][]float64{{1}}, []float64{1}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Gradient error = %v (%T), want *ValidationError", err, err)
	}
}

func TestClientEvaluateRejectsNilInput(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	ctx := context.Background()
	cl, err := New(ctx, ts.URL, "forward")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = cl.Evaluate(ctx, nil, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Evaluate error = %v (%T), want *ValidationError", err, err)
	}
}

func TestClientGradientRejectsNilSens(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	ctx := context.Background()
	cl, err := New(ctx, ts.URL, "gaussian1d")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = cl.Gradient(ctx, 0, 0, [][]float64{{2}}, nil, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Gradient error = %v (%T), want *ValidationError", err, err)
	}
}
