package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/models"
	"github.com/umbridge-go/umbridge/wire"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	srv, err := New([]umbridge.Model{
		models.Forward{},
		models.Gaussian1D{Mu: 2, Sigma: 1},
		models.Diagonal{Size: 2, DefaultScale: 3},
	}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func postJSON(t *testing.T, srv *Server, path string, body, out any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	resp := rec.Result()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func TestHandleInfo(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/Info", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var info wire.InfoResponse
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.ProtocolVersion != wire.ProtocolVersion {
		t.Fatalf("ProtocolVersion = %v, want %v", info.ProtocolVersion, wire.ProtocolVersion)
	}
	if len(info.Models) != 3 {
		t.Fatalf("Models = %v, want 3 entries", info.Models)
	}
}

func TestHandleEvaluate(t *testing.T) {
	srv := newTestServer(t)
	var resp wire.EvaluateResponse
	httpResp := postJSON(t, srv, "/Evaluate", wire.EvaluateRequest{Name: "forward", Input: [][]float64{{21}}}, &resp)
	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", httpResp.StatusCode)
	}
	if resp.Output[0][0] != 42 {
		t.Fatalf("Output = %v, want [[42]]", resp.Output)
	}
}

func TestHandleEvaluateModelNotFound(t *testing.T) {
	srv := newTestServer(t)
	var resp wire.ErrorResponse
	httpResp := postJSON(t, srv, "/Evaluate", wire.EvaluateRequest{Name: "nope", Input: [][]float64{{1}}}, &resp)
	if httpResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", httpResp.StatusCode)
	}
	if resp.Error.Type != string(umbridge.ErrorTypeModelNotFound) {
		t.Fatalf("error type = %q", resp.Error.Type)
	}
}

func TestHandleGradientUnsupportedFeature(t *testing.T) {
	srv := newTestServer(t)
	var resp wire.ErrorResponse
	httpResp := postJSON(t, srv, "/Gradient", wire.GradientRequest{Name: "forward", Input: [][]float64{{1}}, OutWrt: 0, InWrt: 0, Sens: []float64{1}}, &resp)
	if httpResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", httpResp.StatusCode)
	}
	if resp.Error.Type != string(umbridge.ErrorTypeUnsupportedFeature) {
		t.Fatalf("error type = %q", resp.Error.Type)
	}
}

func TestHandleEvaluateInvalidInputShape(t *testing.T) {
	srv := newTestServer(t)
	var resp wire.ErrorResponse
	httpResp := postJSON(t, srv, "/Evaluate", wire.EvaluateRequest{Name: "forward", Input: [][]float64{{1, 2}}}, &resp)
	if httpResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", httpResp.StatusCode)
	}
	if resp.Error.Type != string(umbridge.ErrorTypeInvalidInput) {
		t.Fatalf("error type = %q", resp.Error.Type)
	}
}

func TestHandleApplyHessianOutputLengthMatchesInWrt1(t *testing.T) {
	srv := newTestServer(t)
	var resp wire.VectorResponse
	httpResp := postJSON(t, srv, "/ApplyHessian", wire.ApplyHessianRequest{
		Name: "gaussian1d", Input: [][]float64{{2}}, OutWrt: 0, InWrt1: 0, InWrt2: 0,
		Sens: []float64{1}, Vec: []float64{1},
	}, &resp)
	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", httpResp.StatusCode)
	}
	if len(resp.Output) != 1 {
		t.Fatalf("Output length = %d, want 1 (InputSizes[inWrt1])", len(resp.Output))
	}
}

func TestHandleApplyHessianRejectsWrongLengthSens(t *testing.T) {
	srv := newTestServer(t)
	var resp wire.ErrorResponse
	httpResp := postJSON(t, srv, "/ApplyHessian", wire.ApplyHessianRequest{
		Name: "gaussian1d", Input: [][]float64{{2}}, OutWrt: 0, InWrt1: 0, InWrt2: 0,
		Sens: []float64{1, 2}, Vec: []float64{1},
	}, &resp)
	if httpResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", httpResp.StatusCode)
	}
	if resp.Error.Type != string(umbridge.ErrorTypeInvalidInput) {
		t.Fatalf("error type = %q", resp.Error.Type)
	}
}

func TestHandleApplyHessianRejectsWrongLengthVec(t *testing.T) {
	srv := newTestServer(t)
	var resp wire.ErrorResponse
	httpResp := postJSON(t, srv, "/ApplyHessian", wire.ApplyHessianRequest{
		Name: "gaussian1d", Input: [][]float64{{2}}, OutWrt: 0, InWrt1: 0, InWrt2: 0,
		Sens: []float64{1}, Vec: []float64{1, 2},
	}, &resp)
	if httpResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", httpResp.StatusCode)
	}
	if resp.Error.Type != string(umbridge.ErrorTypeInvalidInput) {
		t.Fatalf("error type = %q", resp.Error.Type)
	}
}

func TestHandleModelInfo(t *testing.T) {
	srv := newTestServer(t)
	var resp wire.ModelInfoResponse
	postJSON(t, srv, "/ModelInfo", wire.ModelInfoRequest{Name: "gaussian1d"}, &resp)
	if !resp.Support.Evaluate || !resp.Support.Gradient || !resp.Support.ApplyJacobian || !resp.Support.ApplyHessian {
		t.Fatalf("gaussian1d support = %+v, want all true", resp.Support)
	}
}

func TestHandleInputSizesDiagonal(t *testing.T) {
	srv := newTestServer(t)
	var in wire.InputSizesResponse
	postJSON(t, srv, "/InputSizes", wire.SizesRequest{Name: "diagonal"}, &in)
	if len(in.InputSizes) != 1 || in.InputSizes[0] != 2 {
		t.Fatalf("InputSizes = %v, want [2]", in.InputSizes)
	}
}
