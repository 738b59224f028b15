package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/internal/evallog"
	"github.com/umbridge-go/umbridge/internal/logging"
	"github.com/umbridge-go/umbridge/internal/metrics"
	"github.com/umbridge-go/umbridge/wire"
)

// handleInfo serves GET /Info: protocol version plus the list of hosted
// model names. Unauthenticated and uncached — the model list is tiny and
// rarely queried relative to /Evaluate traffic.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, wire.InfoResponse{
		ProtocolVersion: wire.ProtocolVersion,
		Models:          s.registry.Names(),
	})
}

// handleModelInfo serves POST /ModelInfo: the support matrix for a named
// model, both HTTP and shared-memory variants. When the server has shared
// memory enabled, ShMem support mirrors the plain variant one-for-one — a
// model either implements an operation or it doesn't; otherwise every ShMem
// flag is false.
func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	var req wire.ModelInfoRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}
	model, ok := s.registry.Get(req.Name)
	if !ok {
		writeError(w, "", umbridge.NewModelNotFoundError(req.Name, s.registry.Names()))
		return
	}

	caps := umbridge.CapabilitiesOf(model)
	if s.shmem {
		caps = caps.WithShMem()
	}
	writeJSON(w, wire.ModelInfoResponse{Support: wire.Support{
		Evaluate:           caps.Has(umbridge.CapEvaluate),
		Gradient:           caps.Has(umbridge.CapGradient),
		ApplyJacobian:      caps.Has(umbridge.CapApplyJacobian),
		ApplyHessian:       caps.Has(umbridge.CapApplyHessian),
		EvaluateShMem:      caps.Has(umbridge.CapEvaluateShMem),
		GradientShMem:      caps.Has(umbridge.CapGradientShMem),
		ApplyJacobianShMem: caps.Has(umbridge.CapApplyJacobianShMem),
		ApplyHessianShMem:  caps.Has(umbridge.CapApplyHessianShMem),
	}})
}

// handleInputSizes serves POST /InputSizes.
func (s *Server) handleInputSizes(w http.ResponseWriter, r *http.Request) {
	var req wire.SizesRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}
	model, ok := s.registry.Get(req.Name)
	if !ok {
		writeError(w, "", umbridge.NewModelNotFoundError(req.Name, s.registry.Names()))
		return
	}
	sizes, err := model.InputSizes(umbridge.Config(req.Config))
	if err != nil {
		writeError(w, req.Name, asProtocolError(err))
		return
	}
	writeJSON(w, wire.InputSizesResponse{InputSizes: sizes})
}

// handleOutputSizes serves POST /OutputSizes.
func (s *Server) handleOutputSizes(w http.ResponseWriter, r *http.Request) {
	var req wire.SizesRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}
	model, ok := s.registry.Get(req.Name)
	if !ok {
		writeError(w, "", umbridge.NewModelNotFoundError(req.Name, s.registry.Names()))
		return
	}
	sizes, err := model.OutputSizes(umbridge.Config(req.Config))
	if err != nil {
		writeError(w, req.Name, asProtocolError(err))
		return
	}
	writeJSON(w, wire.OutputSizesResponse{OutputSizes: sizes})
}

// asProtocolError coerces an arbitrary model-returned error into a
// ProtocolError, defaulting to InvalidOutputError: a model's get-sizes or
// evaluate call is expected to return a umbridge.ProtocolError; anything
// else is a model bug reported as InvalidOutput rather than crashing the
// handler.
func asProtocolError(err error) umbridge.ProtocolError {
	if pe, ok := err.(umbridge.ProtocolError); ok {
		return pe
	}
	return umbridge.NewInvalidOutputError("%v", err)
}

// decodeOrError decodes the JSON body of r into v, writing an InvalidInput
// response and returning false on failure.
func (s *Server) decodeOrError(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "", umbridge.NewInvalidInputError("invalid request body: %v", err))
		return false
	}
	return true
}

// validateBundle checks that input has the right number of vectors, each
// of the right length, per the model's declared input sizes. This is
// step 4 of the request pipeline shared by Evaluate, Gradient,
// ApplyJacobian, and ApplyHessian.
func validateBundle(input [][]float64, sizes []int) umbridge.ProtocolError {
	if len(input) != len(sizes) {
		return umbridge.NewInvalidInputError("Number of input parameters does not match model number of model inputs!")
	}
	for i, v := range input {
		if len(v) != sizes[i] {
			return umbridge.NewInvalidInputError("Input parameter %d has invalid length! Expected %d but got %d.", i, sizes[i], len(v))
		}
	}
	return nil
}

// validateIndex checks 0 <= idx < n, returning an InvalidInput error naming
// field for the message.
func validateIndex(field string, idx, n int) umbridge.ProtocolError {
	if idx < 0 || idx >= n {
		return umbridge.NewInvalidInputError("Invalid %s index! Expected between 0 and number of inputs/outputs minus one, but got %d", field, idx)
	}
	return nil
}

// handleEvaluate serves POST /Evaluate: the full 7-step pipeline — decode,
// look up model, check capability, validate input shape, run under the
// model's pool, validate output shape, respond.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req wire.EvaluateRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}

	model, pool, ok := s.lookupOrError(w, req.Name)
	if !ok {
		return
	}
	if !umbridge.CapabilitiesOf(model).HasOp(umbridge.OpEvaluate) {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, false, start, umbridge.NewUnsupportedFeatureError(umbridge.OpEvaluate, req.Name))
		return
	}

	config := umbridge.Config(req.Config)
	if perr := validateConfig(s.schemas, model, config); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, false, start, perr)
		return
	}
	inSizes, err := model.InputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, false, start, asProtocolError(err))
		return
	}
	if perr := validateBundle(req.Input, inSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, false, start, perr)
		return
	}
	outSizes, err := model.OutputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, false, start, asProtocolError(err))
		return
	}

	var output [][]float64
	runErr := pool.Submit(r.Context(), func() error {
		var err error
		output, err = model.Evaluate(r.Context(), req.Input, config)
		return err
	})
	if runErr != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, false, start, asProtocolError(runErr))
		return
	}

	if perr := validateOutputBundle(output, outSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, false, start, perr)
		return
	}

	s.succeed(r, req.Name, umbridge.OpEvaluate, false, start)
	writeJSON(w, wire.EvaluateResponse{Output: output})
}

func validateOutputBundle(output [][]float64, sizes []int) umbridge.ProtocolError {
	if output == nil {
		return umbridge.NewInvalidOutputError("Model output is not a list of lists!")
	}
	if len(output) != len(sizes) {
		return umbridge.NewInvalidOutputError("Number of output vectors returned by model does not match number of model outputs declared by model!")
	}
	for i, v := range output {
		if len(v) != sizes[i] {
			return umbridge.NewInvalidOutputError("Output vector %d has invalid length! Model declared %d but returned %d.", i, sizes[i], len(v))
		}
	}
	return nil
}

// handleGradient serves POST /Gradient.
func (s *Server) handleGradient(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req wire.GradientRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}

	model, pool, ok := s.lookupOrError(w, req.Name)
	if !ok {
		return
	}
	if !umbridge.CapabilitiesOf(model).HasOp(umbridge.OpGradient) {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, umbridge.NewUnsupportedFeatureError(umbridge.OpGradient, req.Name))
		return
	}

	config := umbridge.Config(req.Config)
	if perr := validateConfig(s.schemas, model, config); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, perr)
		return
	}
	inSizes, err := model.InputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, asProtocolError(err))
		return
	}
	if perr := validateBundle(req.Input, inSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, perr)
		return
	}
	outSizes, err := model.OutputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, asProtocolError(err))
		return
	}
	if perr := validateIndex("outWrt", req.OutWrt, len(outSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, perr)
		return
	}
	if perr := validateIndex("inWrt", req.InWrt, len(inSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, perr)
		return
	}
	if len(req.Sens) != outSizes[req.OutWrt] {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, umbridge.NewInvalidInputError(
			"Sensitivity vector sens has invalid length! Expected %d but got %d.", outSizes[req.OutWrt], len(req.Sens)))
		return
	}

	var output []float64
	runErr := pool.Submit(r.Context(), func() error {
		var err error
		output, err = model.Gradient(r.Context(), req.OutWrt, req.InWrt, req.Input, req.Sens, config)
		return err
	})
	if runErr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, asProtocolError(runErr))
		return
	}
	if len(output) != inSizes[req.InWrt] {
		s.fail(w, r, req.Name, umbridge.OpGradient, false, start, umbridge.NewInvalidOutputError(
			"Output vector has invalid length! Model declared %d but returned %d.", inSizes[req.InWrt], len(output)))
		return
	}

	s.succeed(r, req.Name, umbridge.OpGradient, false, start)
	writeJSON(w, wire.VectorResponse{Output: output})
}

// handleApplyJacobian serves POST /ApplyJacobian.
func (s *Server) handleApplyJacobian(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req wire.ApplyJacobianRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}

	model, pool, ok := s.lookupOrError(w, req.Name)
	if !ok {
		return
	}
	if !umbridge.CapabilitiesOf(model).HasOp(umbridge.OpApplyJacobian) {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, umbridge.NewUnsupportedFeatureError(umbridge.OpApplyJacobian, req.Name))
		return
	}

	config := umbridge.Config(req.Config)
	if perr := validateConfig(s.schemas, model, config); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, perr)
		return
	}
	inSizes, err := model.InputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, asProtocolError(err))
		return
	}
	if perr := validateBundle(req.Input, inSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, perr)
		return
	}
	outSizes, err := model.OutputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, asProtocolError(err))
		return
	}
	if perr := validateIndex("outWrt", req.OutWrt, len(outSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, perr)
		return
	}
	if perr := validateIndex("inWrt", req.InWrt, len(inSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, perr)
		return
	}
	if len(req.Vec) != inSizes[req.InWrt] {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, umbridge.NewInvalidInputError(
			"Vector vec has invalid length! Expected %d but got %d.", inSizes[req.InWrt], len(req.Vec)))
		return
	}

	var output []float64
	runErr := pool.Submit(r.Context(), func() error {
		var err error
		output, err = model.ApplyJacobian(r.Context(), req.OutWrt, req.InWrt, req.Input, req.Vec, config)
		return err
	})
	if runErr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, asProtocolError(runErr))
		return
	}
	if len(output) != outSizes[req.OutWrt] {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, false, start, umbridge.NewInvalidOutputError(
			"Output vector has invalid length! Model declared %d but returned %d.", outSizes[req.OutWrt], len(output)))
		return
	}

	s.succeed(r, req.Name, umbridge.OpApplyJacobian, false, start)
	writeJSON(w, wire.VectorResponse{Output: output})
}

// handleApplyHessian serves POST /ApplyHessian. The output-length check
// here is against InputSizes[inWrt1] — the length of the Hessian-vector
// product along the inWrt1 direction — not OutputSizes[outWrt]; see
// DESIGN.md for why the Python reference's OutputSizes[outWrt] check is not
// reproduced here.
func (s *Server) handleApplyHessian(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req wire.ApplyHessianRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}

	model, pool, ok := s.lookupOrError(w, req.Name)
	if !ok {
		return
	}
	if !umbridge.CapabilitiesOf(model).HasOp(umbridge.OpApplyHessian) {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, umbridge.NewUnsupportedFeatureError(umbridge.OpApplyHessian, req.Name))
		return
	}

	config := umbridge.Config(req.Config)
	if perr := validateConfig(s.schemas, model, config); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, perr)
		return
	}
	inSizes, err := model.InputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, asProtocolError(err))
		return
	}
	if perr := validateBundle(req.Input, inSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, perr)
		return
	}
	outSizes, err := model.OutputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, asProtocolError(err))
		return
	}
	if perr := validateIndex("outWrt", req.OutWrt, len(outSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, perr)
		return
	}
	if perr := validateIndex("inWrt1", req.InWrt1, len(inSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, perr)
		return
	}
	if perr := validateIndex("inWrt2", req.InWrt2, len(inSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, perr)
		return
	}
	if len(req.Sens) != outSizes[req.OutWrt] {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, umbridge.NewInvalidInputError(
			"Sensitivity vector sens has invalid length! Expected %d but got %d.", outSizes[req.OutWrt], len(req.Sens)))
		return
	}
	if len(req.Vec) != inSizes[req.InWrt2] {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, umbridge.NewInvalidInputError(
			"Vector vec has invalid length! Expected %d but got %d.", inSizes[req.InWrt2], len(req.Vec)))
		return
	}

	var output []float64
	runErr := pool.Submit(r.Context(), func() error {
		var err error
		output, err = model.ApplyHessian(r.Context(), req.OutWrt, req.InWrt1, req.InWrt2, req.Input, req.Sens, req.Vec, config)
		return err
	})
	if runErr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, asProtocolError(runErr))
		return
	}
	if len(output) != inSizes[req.InWrt1] {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, false, start, umbridge.NewInvalidOutputError(
			"Output vector has invalid length! Model declared %d but returned %d.", inSizes[req.InWrt1], len(output)))
		return
	}

	s.succeed(r, req.Name, umbridge.OpApplyHessian, false, start)
	writeJSON(w, wire.VectorResponse{Output: output})
}

// lookupOrError finds the model and its pool, writing a ModelNotFound
// response and returning ok=false if name isn't registered.
func (s *Server) lookupOrError(w http.ResponseWriter, name string) (umbridge.Model, *Pool, bool) {
	model, ok := s.registry.Get(name)
	if !ok {
		writeError(w, "", umbridge.NewModelNotFoundError(name, s.registry.Names()))
		return nil, nil, false
	}
	return model, s.poolFor(name), true
}

// fail records metrics/audit log for a failed call and writes the error
// response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, model string, op umbridge.Operation, shmem bool, start time.Time, err umbridge.ProtocolError) {
	s.record(r.Context(), model, op, shmem, start, false, err)
	writeError(w, model, err)
}

// succeed records metrics/audit log for a completed call. Callers write
// the success body themselves immediately after.
func (s *Server) succeed(r *http.Request, model string, op umbridge.Operation, shmem bool, start time.Time) {
	s.record(r.Context(), model, op, shmem, start, true, nil)
}

func (s *Server) record(ctx context.Context, model string, op umbridge.Operation, shmem bool, start time.Time, success bool, err umbridge.ProtocolError) {
	duration := time.Since(start)
	status := "ok"
	errType, errMsg := "", ""
	if !success {
		status = "error"
		errType = string(err.Type())
		errMsg = err.Error()
		logging.FromContext(ctx).Error("model call failed", "model", model, "operation", string(op), "error_type", errType, "error", errMsg)
	}
	metrics.RequestsTotal.WithLabelValues(model, string(op), status).Inc()
	metrics.RequestDuration.WithLabelValues(model, string(op)).Observe(duration.Seconds())

	if s.evalLog != nil {
		go func() {
			writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if werr := s.evalLog.Write(writeCtx, evallog.Entry{
				TraceID:      logging.TraceIDFromContext(ctx),
				Model:        model,
				Operation:    string(op),
				ShMem:        shmem,
				DurationMS:   duration.Milliseconds(),
				Success:      success,
				ErrorType:    errType,
				ErrorMessage: errMsg,
			}); werr != nil {
				logging.Logger.Warn("eval log write failed", "error", werr)
			}
		}()
	}
}
