// Package conformance provides a reusable protocol conformance suite for
// any UM-Bridge server, modeled on the Python reference's
// protocol_conformity test script: it drives a live server purely through
// the wire protocol, the way an independently-implemented client would,
// rather than linking against the server's Go types.
package conformance

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/umbridge-go/umbridge/client"
)

// Run exercises the full discovery + Evaluate (+ derivatives, if
// supported) handshake against a live server hosting modelName at baseURL.
// It is meant to be called from a_test.go in any package that builds a
// server, e.g.:
//
//	func TestConformance(t *testing.T) {
//	    srv := httptest.NewServer(myServer)
//	    defer srv.Close()
//	    conformance.Run(t, srv.URL, "forward")
//	}
func Run(t *testing.T, baseURL, modelName string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	infoResp, err := http.Get(baseURL + "/Info")
	if err != nil {
		t.Fatalf("conformance: GET /Info: %v", err)
	}
	defer infoResp.Body.Close()
	if infoResp.StatusCode != http.StatusOK {
		t.Fatalf("conformance: GET /Info returned %d", infoResp.StatusCode)
	}

	cl, err := client.New(ctx, baseURL, modelName)
	if err != nil {
		t.Fatalf("conformance: client.New(%q): %v", modelName, err)
	}

	inSizes, err := cl.InputSizes(nil)
	if err != nil {
		t.Fatalf("conformance: InputSizes: %v", err)
	}
	outSizes, err := cl.OutputSizes(nil)
	if err != nil {
		t.Fatalf("conformance: OutputSizes: %v", err)
	}
	if len(inSizes) == 0 {
		t.Fatalf("conformance: model %q declared zero input slots", modelName)
	}
	if len(outSizes) == 0 {
		t.Fatalf("conformance: model %q declared zero output slots", modelName)
	}

	if !cl.SupportsEvaluate() {
		t.Fatalf("conformance: model %q does not support Evaluate; every model must", modelName)
	}

	input := make([][]float64, len(inSizes))
	for i, n := range inSizes {
		input[i] = make([]float64, n)
		for j := range input[i] {
			input[i][j] = float64(j + 1)
		}
	}

	output, err := cl.Evaluate(ctx, input, nil)
	if err != nil {
		t.Fatalf("conformance: Evaluate: %v", err)
	}
	if len(output) != len(outSizes) {
		t.Fatalf("conformance: Evaluate returned %d output vectors, model declared %d", len(output), len(outSizes))
	}
	for i, v := range output {
		if len(v) != outSizes[i] {
			t.Fatalf("conformance: Evaluate output[%d] has length %d, model declared %d", i, len(v), outSizes[i])
		}
	}

	if cl.SupportsGradient() {
		sens := make([]float64, outSizes[0])
		for i := range sens {
			sens[i] = 1
		}
		grad, err := cl.Gradient(ctx, 0, 0, input, sens, nil)
		if err != nil {
			t.Fatalf("conformance: Gradient: %v", err)
		}
		if len(grad) != inSizes[0] {
			t.Fatalf("conformance: Gradient output has length %d, model declared input size %d", len(grad), inSizes[0])
		}
	}

	if cl.SupportsApplyJacobian() {
		vec := make([]float64, inSizes[0])
		for i := range vec {
			vec[i] = 1
		}
		jvp, err := cl.ApplyJacobian(ctx, 0, 0, input, vec, nil)
		if err != nil {
			t.Fatalf("conformance: ApplyJacobian: %v", err)
		}
		if len(jvp) != outSizes[0] {
			t.Fatalf("conformance: ApplyJacobian output has length %d, model declared output size %d", len(jvp), outSizes[0])
		}
	}

	if cl.SupportsApplyHessian() {
		sens := make([]float64, outSizes[0])
		vec := make([]float64, inSizes[0])
		for i := range sens {
			sens[i] = 1
		}
		for i := range vec {
			vec[i] = 1
		}
		hvp, err := cl.ApplyHessian(ctx, 0, 0, 0, input, sens, vec, nil)
		if err != nil {
			t.Fatalf("conformance: ApplyHessian: %v", err)
		}
		if len(hvp) != inSizes[0] {
			t.Fatalf("conformance: ApplyHessian output has length %d, model declared input size %d", len(hvp), inSizes[0])
		}
	}
}
