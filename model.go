// Package umbridge implements the UM-Bridge model-evaluation RPC protocol: a
// wire contract for hosting and calling named mathematical models — each a
// map from a fixed-arity tuple of real vectors to another such tuple, plus
// optional gradient, Jacobian-action, and Hessian-action operations — over
// JSON-over-HTTP, with an optional shared-memory fast path for bulk vectors.
//
// Model implementations plug into a server (see package server) via the
// Model interface below. Callers drive a hosted model through a typed
// client (see package client). Neither side needs to know which transport
// the other is using; the protocol version and capability handshake settle
// that once, at client construction.
package umbridge

import (
	"context"
	"encoding/json"
)

// Config is an opaque JSON object passed with every operation. The runtime
// never interprets it — only models do, to select a configuration-dependent
// size or behavior. A nil Config is equivalent to an empty JSON object.
type Config json.RawMessage

// IsEmpty reports whether c carries no configuration payload.
func (c Config) IsEmpty() bool {
	return len(c) == 0
}

// Raw returns c's bytes, or "{}" if c is empty, suitable for re-marshaling
// into a request body without a model ever seeing a nil slice.
func (c Config) Raw() json.RawMessage {
	if c.IsEmpty() {
		return json.RawMessage("{}")
	}
	return json.RawMessage(c)
}

// Operation names one of the four protocol operations a Model may support.
type Operation string

// The four operations defined by the protocol.
const (
	OpEvaluate      Operation = "Evaluate"
	OpGradient      Operation = "Gradient"
	OpApplyJacobian Operation = "ApplyJacobian"
	OpApplyHessian  Operation = "ApplyHessian"
)

// Model is the capability interface a hosted model must satisfy. It is the
// server-side contract: a named, stateless map from a tuple of real vectors
// to another, plus optional derivative operations.
//
// Implementations should embed BaseModel to get sane defaults (every
// capability false, every derivative operation returning UnsupportedFeature)
// and only override what they actually support.
type Model interface {
	// Name returns the model's identifier, unique within a server.
	Name() string

	// InputSizes returns the length of each input vector slot for the given
	// configuration. Config MAY change the answer.
	InputSizes(config Config) ([]int, error)

	// OutputSizes returns the length of each output vector slot for the
	// given configuration.
	OutputSizes(config Config) ([]int, error)

	// SupportsEvaluate, SupportsGradient, SupportsApplyJacobian, and
	// SupportsApplyHessian report which operations this model implements.
	// A false here MUST cause the server to reject the corresponding
	// request with UnsupportedFeature rather than invoking the method.
	SupportsEvaluate() bool
	SupportsGradient() bool
	SupportsApplyJacobian() bool
	SupportsApplyHessian() bool

	// Evaluate computes the model's output for the given input bundle.
	// len(input) must equal len(InputSizes(config)); the server guarantees
	// this before calling Evaluate.
	Evaluate(ctx context.Context, input [][]float64, config Config) ([][]float64, error)

	// Gradient returns d(output[outWrt] . sens) / d(input[inWrt]), i.e. the
	// vector-Jacobian product of sens against the outWrt-th output with
	// respect to the inWrt-th input.
	Gradient(ctx context.Context, outWrt, inWrt int, input [][]float64, sens []float64, config Config) ([]float64, error)

	// ApplyJacobian returns d(output[outWrt]) / d(input[inWrt]) applied to
	// vec, i.e. the Jacobian-vector product.
	ApplyJacobian(ctx context.Context, outWrt, inWrt int, input [][]float64, vec []float64, config Config) ([]float64, error)

	// ApplyHessian returns the Hessian-vector product of the outWrt-th
	// output's sensitivity sens, differentiated once with respect to
	// input[inWrt1] and once with respect to input[inWrt2], applied to vec
	// along the inWrt2 direction. The result has length InputSizes[inWrt1].
	ApplyHessian(ctx context.Context, outWrt, inWrt1, inWrt2 int, input [][]float64, sens, vec []float64, config Config) ([]float64, error)
}

// ConfigSchemaModel is an optional interface a Model may implement to
// declare a JSON Schema its Config must validate against. When present, the
// server pipeline validates the incoming config before the model ever sees
// it (see validateConfig in server/configschema.go, called right after the
// capability check). Models that don't care about config shape simply don't
// implement this interface.
type ConfigSchemaModel interface {
	Model
	// ConfigSchema returns the JSON Schema document as raw bytes, or nil if
	// there is nothing to validate. The server compiles it once and caches it.
	ConfigSchema() json.RawMessage
}
