package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/models"
	"github.com/umbridge-go/umbridge/server"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, err := server.New([]umbridge.Model{models.Forward{}, models.Gaussian1D{Mu: 2, Sigma: 1}})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return httptest.NewServer(srv)
}

func TestClientEvaluate(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	ctx := context.Background()
	cl, err := New(ctx, ts.URL, "forward")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !cl.SupportsEvaluate() {
		t.Fatal("expected forward to support Evaluate")
	}

	out, err := cl.Evaluate(ctx, [][]float64{{21}}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out[0][0] != 42 {
		t.Fatalf("Evaluate = %v, want 42", out[0][0])
	}
}

func TestClientModelNotFound(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	_, err := New(context.Background(), ts.URL, "does-not-exist")
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestClientGradient(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	ctx := context.Background()
	cl, err := New(ctx, ts.URL, "gaussian1d")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !cl.SupportsGradient() {
		t.Fatal("expected gaussian1d to support Gradient")
	}

	grad, err := cl.Gradient(ctx, 0, 0, [][]float64{{2}}, []float64{1}, nil)
	if err != nil {
		t.Fatalf("Gradient: %v", err)
	}
	if len(grad) != 1 || grad[0] != 0 {
		t.Fatalf("Gradient at mu = %v, want [0]", grad)
	}
}

func TestAsVectorFunc(t *testing.T) {
	fn, err := AsVectorFunc(models.Forward{}, nil)
	if err != nil {
		t.Fatalf("AsVectorFunc: %v", err)
	}
	out, err := fn(context.Background(), []float64{3})
	if err != nil {
		t.Fatalf("fn: %v", err)
	}
	if out[0] != 6 {
		t.Fatalf("fn = %v, want [6]", out)
	}
}
