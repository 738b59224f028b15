// Package wire defines the JSON request/response shapes for every UM-Bridge
// endpoint and the protocol version the client and server must agree on.
// Types here are pure data — no behavior — matching the teacher's pattern
// of one small struct pair per endpoint rather than a single do-everything
// envelope.
package wire

import "encoding/json"

// ProtocolVersion is the protocol version this package implements. Clients
// MUST reject any /Info response whose ProtocolVersion differs.
const ProtocolVersion = 1.0

// InfoResponse is the body of GET /Info.
type InfoResponse struct {
	ProtocolVersion float64  `json:"protocolVersion"`
	Models          []string `json:"models"`
}

// ModelInfoRequest is the body of POST /ModelInfo.
type ModelInfoRequest struct {
	Name string `json:"name"`
}

// Support carries the boolean capability flags returned by /ModelInfo.
// Unknown fields decode to their zero value (false) on the client, matching
// spec's "unknown boolean fields default to false client-side".
type Support struct {
	Evaluate      bool `json:"Evaluate"`
	Gradient      bool `json:"Gradient"`
	ApplyJacobian bool `json:"ApplyJacobian"`
	ApplyHessian  bool `json:"ApplyHessian"`

	EvaluateShMem      bool `json:"EvaluateShMem,omitempty"`
	GradientShMem      bool `json:"GradientShMem,omitempty"`
	ApplyJacobianShMem bool `json:"ApplyJacobianShMem,omitempty"`
	ApplyHessianShMem  bool `json:"ApplyHessianShMem,omitempty"`
}

// ModelInfoResponse is the body of POST /ModelInfo.
type ModelInfoResponse struct {
	Support Support `json:"support"`
}

// SizesRequest is the body of POST /InputSizes and POST /OutputSizes.
type SizesRequest struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config,omitempty"`
}

// InputSizesResponse is the body of POST /InputSizes.
type InputSizesResponse struct {
	InputSizes []int `json:"inputSizes"`
}

// OutputSizesResponse is the body of POST /OutputSizes.
type OutputSizesResponse struct {
	OutputSizes []int `json:"outputSizes"`
}

// EvaluateRequest is the body of POST /Evaluate.
type EvaluateRequest struct {
	Name   string          `json:"name"`
	Input  [][]float64     `json:"input"`
	Config json.RawMessage `json:"config,omitempty"`
}

// EvaluateResponse is the body of a successful POST /Evaluate.
type EvaluateResponse struct {
	Output [][]float64 `json:"output"`
}

// GradientRequest is the body of POST /Gradient.
type GradientRequest struct {
	Name   string          `json:"name"`
	Input  [][]float64     `json:"input"`
	OutWrt int             `json:"outWrt"`
	InWrt  int             `json:"inWrt"`
	Sens   []float64       `json:"sens"`
	Config json.RawMessage `json:"config,omitempty"`
}

// ApplyJacobianRequest is the body of POST /ApplyJacobian.
type ApplyJacobianRequest struct {
	Name   string          `json:"name"`
	Input  [][]float64     `json:"input"`
	OutWrt int             `json:"outWrt"`
	InWrt  int             `json:"inWrt"`
	Vec    []float64       `json:"vec"`
	Config json.RawMessage `json:"config,omitempty"`
}

// ApplyHessianRequest is the body of POST /ApplyHessian.
type ApplyHessianRequest struct {
	Name   string          `json:"name"`
	Input  [][]float64     `json:"input"`
	OutWrt int             `json:"outWrt"`
	InWrt1 int             `json:"inWrt1"`
	InWrt2 int             `json:"inWrt2"`
	Sens   []float64       `json:"sens"`
	Vec    []float64       `json:"vec"`
	Config json.RawMessage `json:"config,omitempty"`
}

// VectorResponse is the body of a successful POST /Gradient,
// POST /ApplyJacobian, or POST /ApplyHessian.
type VectorResponse struct {
	Output []float64 `json:"output"`
}

// ErrorBody is the "error" field of any non-2xx response.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody as the top-level failure envelope,
// {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// --- Shared-memory control-channel request bodies ---
// Bulk vectors never appear in these bodies; only control fields do. The
// caller is responsible for creating the named segments referenced here
// before the POST, and for reading/unlinking them after the response.

// ShMemRequest is the common control envelope for every *ShMem endpoint.
// Per-operation scalar/short fields (sens, vec, outWrt, inWrt*) are carried
// alongside it in the operation-specific request structs below.
type ShMemRequest struct {
	Name           string          `json:"name"`
	TID            string          `json:"tid"`
	Config         json.RawMessage `json:"config,omitempty"`
	ShMemName      string          `json:"shmem_name"`
	ShMemNumInputs int             `json:"shmem_num_inputs"`
	// ShMemSizes holds the "shmem_size_<i>" entries. Each concrete *ShMemRequest
	// type below implements MarshalJSON/UnmarshalJSON (see shmem.go) to flatten
	// this slice into dynamically-named fields instead of a JSON array.
	ShMemSizes []int `json:"-"`
}

// EvaluateShMemRequest is the body of POST /EvaluateShMem.
type EvaluateShMemRequest struct {
	ShMemRequest
}

// GradientShMemRequest is the body of POST /GradientShMem.
type GradientShMemRequest struct {
	ShMemRequest
	OutWrt int       `json:"outWrt"`
	InWrt  int       `json:"inWrt"`
	Sens   []float64 `json:"sens"`
}

// ApplyJacobianShMemRequest is the body of POST /ApplyJacobianShMem.
type ApplyJacobianShMemRequest struct {
	ShMemRequest
	OutWrt int       `json:"outWrt"`
	InWrt  int       `json:"inWrt"`
	Vec    []float64 `json:"vec"`
}

// ApplyHessianShMemRequest is the body of POST /ApplyHessianShMem.
type ApplyHessianShMemRequest struct {
	ShMemRequest
	OutWrt int       `json:"outWrt"`
	InWrt1 int       `json:"inWrt1"`
	InWrt2 int       `json:"inWrt2"`
	Sens   []float64 `json:"sens"`
	Vec    []float64 `json:"vec"`
}

// TestShMemRequest is the body of POST /TestShMem.
type TestShMemRequest struct {
	Name string `json:"name"`
	TID  string `json:"tid"`
}

// TestShMemResponse is the body of a successful POST /TestShMem. Value
// echoes the sentinel the server read from the input segment, letting the
// caller compare it against what it wrote without re-opening the segment.
type TestShMemResponse struct {
	Value []float64 `json:"value,omitempty"`
}
