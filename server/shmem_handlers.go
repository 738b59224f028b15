package server

import (
	"net/http"
	"time"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/shmem"
	"github.com/umbridge-go/umbridge/wire"
)

// readShMemInputs opens each input segment named by req and copies its
// contents into a fresh [][]float64 bundle, closing every segment it opens
// regardless of error (the server never unlinks input segments — the
// client created them and owns their lifecycle).
func readShMemInputs(req wire.ShMemRequest) ([][]float64, error) {
	bundle := make([][]float64, req.ShMemNumInputs)
	for i := 0; i < req.ShMemNumInputs; i++ {
		seg, err := shmem.Open(req.InSegmentName(i), req.ShMemSizes[i])
		if err != nil {
			return nil, err
		}
		vec := make([]float64, req.ShMemSizes[i])
		copy(vec, seg.Doubles())
		if cerr := seg.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		bundle[i] = vec
	}
	return bundle, nil
}

// writeShMemOutput opens the i-th output segment fresh and copies output
// into it. Each output vector gets its own freshly-opened Segment — the
// Python reference implementation's bug was reusing the last input
// segment's buffer for every output write when only a single shared handle
// was kept in scope; opening a new Segment per index here makes that
// mistake structurally impossible.
func writeShMemOutput(name string, i int, output []float64) error {
	seg, err := shmem.Open(name, len(output))
	if err != nil {
		return err
	}
	copy(seg.Doubles(), output)
	return seg.Close()
}

// handleEvaluateShMem serves POST /EvaluateShMem: same validation pipeline
// as /Evaluate, but input is read from shared memory and output is written
// back to it instead of appearing in the JSON body.
func (s *Server) handleEvaluateShMem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req wire.EvaluateShMemRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}

	model, pool, ok := s.lookupOrError(w, req.Name)
	if !ok {
		return
	}
	if !umbridge.CapabilitiesOf(model).HasOp(umbridge.OpEvaluate) {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, true, start, umbridge.NewUnsupportedFeatureError(umbridge.OpEvaluate, req.Name))
		return
	}

	config := umbridge.Config(req.Config)
	if perr := validateConfig(s.schemas, model, config); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, true, start, perr)
		return
	}
	inSizes, err := model.InputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, true, start, asProtocolError(err))
		return
	}

	input, rerr := readShMemInputs(req.ShMemRequest)
	if rerr != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, true, start, umbridge.NewInvalidInputError("%v", rerr))
		return
	}
	if perr := validateBundle(input, inSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, true, start, perr)
		return
	}
	outSizes, err := model.OutputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, true, start, asProtocolError(err))
		return
	}

	var output [][]float64
	runErr := pool.Submit(r.Context(), func() error {
		var err error
		output, err = model.Evaluate(r.Context(), input, config)
		return err
	})
	if runErr != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, true, start, asProtocolError(runErr))
		return
	}
	if perr := validateOutputBundle(output, outSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpEvaluate, true, start, perr)
		return
	}

	for i, vec := range output {
		if werr := writeShMemOutput(req.OutSegmentName(i), i, vec); werr != nil {
			s.fail(w, r, req.Name, umbridge.OpEvaluate, true, start, umbridge.NewInvalidOutputError("%v", werr))
			return
		}
	}

	s.succeed(r, req.Name, umbridge.OpEvaluate, true, start)
	writeJSON(w, struct{}{})
}

// handleGradientShMem serves POST /GradientShMem.
func (s *Server) handleGradientShMem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req wire.GradientShMemRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}

	model, pool, ok := s.lookupOrError(w, req.Name)
	if !ok {
		return
	}
	if !umbridge.CapabilitiesOf(model).HasOp(umbridge.OpGradient) {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, umbridge.NewUnsupportedFeatureError(umbridge.OpGradient, req.Name))
		return
	}

	config := umbridge.Config(req.Config)
	if perr := validateConfig(s.schemas, model, config); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, perr)
		return
	}
	inSizes, err := model.InputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, asProtocolError(err))
		return
	}
	input, rerr := readShMemInputs(req.ShMemRequest)
	if rerr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, umbridge.NewInvalidInputError("%v", rerr))
		return
	}
	if perr := validateBundle(input, inSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, perr)
		return
	}
	outSizes, err := model.OutputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, asProtocolError(err))
		return
	}
	if perr := validateIndex("outWrt", req.OutWrt, len(outSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, perr)
		return
	}
	if perr := validateIndex("inWrt", req.InWrt, len(inSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, perr)
		return
	}
	if len(req.Sens) != outSizes[req.OutWrt] {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, umbridge.NewInvalidInputError(
			"Sensitivity vector sens has invalid length! Expected %d but got %d.", outSizes[req.OutWrt], len(req.Sens)))
		return
	}

	var output []float64
	runErr := pool.Submit(r.Context(), func() error {
		var err error
		output, err = model.Gradient(r.Context(), req.OutWrt, req.InWrt, input, req.Sens, config)
		return err
	})
	if runErr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, asProtocolError(runErr))
		return
	}
	if len(output) != inSizes[req.InWrt] {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, umbridge.NewInvalidOutputError(
			"Output vector has invalid length! Model declared %d but returned %d.", inSizes[req.InWrt], len(output)))
		return
	}

	if werr := writeShMemOutput(req.OutSegmentName(0), 0, output); werr != nil {
		s.fail(w, r, req.Name, umbridge.OpGradient, true, start, umbridge.NewInvalidOutputError("%v", werr))
		return
	}

	s.succeed(r, req.Name, umbridge.OpGradient, true, start)
	writeJSON(w, struct{}{})
}

// handleApplyJacobianShMem serves POST /ApplyJacobianShMem.
func (s *Server) handleApplyJacobianShMem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req wire.ApplyJacobianShMemRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}

	model, pool, ok := s.lookupOrError(w, req.Name)
	if !ok {
		return
	}
	if !umbridge.CapabilitiesOf(model).HasOp(umbridge.OpApplyJacobian) {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, umbridge.NewUnsupportedFeatureError(umbridge.OpApplyJacobian, req.Name))
		return
	}

	config := umbridge.Config(req.Config)
	if perr := validateConfig(s.schemas, model, config); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, perr)
		return
	}
	inSizes, err := model.InputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, asProtocolError(err))
		return
	}
	input, rerr := readShMemInputs(req.ShMemRequest)
	if rerr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, umbridge.NewInvalidInputError("%v", rerr))
		return
	}
	if perr := validateBundle(input, inSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, perr)
		return
	}
	outSizes, err := model.OutputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, asProtocolError(err))
		return
	}
	if perr := validateIndex("outWrt", req.OutWrt, len(outSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, perr)
		return
	}
	if perr := validateIndex("inWrt", req.InWrt, len(inSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, perr)
		return
	}
	if len(req.Vec) != inSizes[req.InWrt] {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, umbridge.NewInvalidInputError(
			"Vector vec has invalid length! Expected %d but got %d.", inSizes[req.InWrt], len(req.Vec)))
		return
	}

	var output []float64
	runErr := pool.Submit(r.Context(), func() error {
		var err error
		output, err = model.ApplyJacobian(r.Context(), req.OutWrt, req.InWrt, input, req.Vec, config)
		return err
	})
	if runErr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, asProtocolError(runErr))
		return
	}
	if len(output) != outSizes[req.OutWrt] {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, umbridge.NewInvalidOutputError(
			"Output vector has invalid length! Model declared %d but returned %d.", outSizes[req.OutWrt], len(output)))
		return
	}

	if werr := writeShMemOutput(req.OutSegmentName(0), 0, output); werr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyJacobian, true, start, umbridge.NewInvalidOutputError("%v", werr))
		return
	}

	s.succeed(r, req.Name, umbridge.OpApplyJacobian, true, start)
	writeJSON(w, struct{}{})
}

// handleApplyHessianShMem serves POST /ApplyHessianShMem. The output-length
// check is against InputSizes[inWrt1], same fix as the non-shmem variant in
// handlers.go — both must agree, since a client picks the transport at
// request time without changing which model it's validating against.
func (s *Server) handleApplyHessianShMem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req wire.ApplyHessianShMemRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}

	model, pool, ok := s.lookupOrError(w, req.Name)
	if !ok {
		return
	}
	if !umbridge.CapabilitiesOf(model).HasOp(umbridge.OpApplyHessian) {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, umbridge.NewUnsupportedFeatureError(umbridge.OpApplyHessian, req.Name))
		return
	}

	config := umbridge.Config(req.Config)
	if perr := validateConfig(s.schemas, model, config); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, perr)
		return
	}
	inSizes, err := model.InputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, asProtocolError(err))
		return
	}
	input, rerr := readShMemInputs(req.ShMemRequest)
	if rerr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, umbridge.NewInvalidInputError("%v", rerr))
		return
	}
	if perr := validateBundle(input, inSizes); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, perr)
		return
	}
	outSizes, err := model.OutputSizes(config)
	if err != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, asProtocolError(err))
		return
	}
	if perr := validateIndex("outWrt", req.OutWrt, len(outSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, perr)
		return
	}
	if perr := validateIndex("inWrt1", req.InWrt1, len(inSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, perr)
		return
	}
	if perr := validateIndex("inWrt2", req.InWrt2, len(inSizes)); perr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, perr)
		return
	}
	if len(req.Sens) != outSizes[req.OutWrt] {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, umbridge.NewInvalidInputError(
			"Sensitivity vector sens has invalid length! Expected %d but got %d.", outSizes[req.OutWrt], len(req.Sens)))
		return
	}
	if len(req.Vec) != inSizes[req.InWrt2] {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, umbridge.NewInvalidInputError(
			"Vector vec has invalid length! Expected %d but got %d.", inSizes[req.InWrt2], len(req.Vec)))
		return
	}

	var output []float64
	runErr := pool.Submit(r.Context(), func() error {
		var err error
		output, err = model.ApplyHessian(r.Context(), req.OutWrt, req.InWrt1, req.InWrt2, input, req.Sens, req.Vec, config)
		return err
	})
	if runErr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, asProtocolError(runErr))
		return
	}
	if len(output) != inSizes[req.InWrt1] {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, umbridge.NewInvalidOutputError(
			"Output vector has invalid length! Model declared %d but returned %d.", inSizes[req.InWrt1], len(output)))
		return
	}

	if werr := writeShMemOutput(req.OutSegmentName(0), 0, output); werr != nil {
		s.fail(w, r, req.Name, umbridge.OpApplyHessian, true, start, umbridge.NewInvalidOutputError("%v", werr))
		return
	}

	s.succeed(r, req.Name, umbridge.OpApplyHessian, true, start)
	writeJSON(w, struct{}{})
}

// handleTestShMem serves POST /TestShMem: the client has already created a
// single-float input segment with a sentinel value and a matching output
// segment; the server reads the sentinel, writes it back out, and echoes it
// in the JSON body so the client can verify all three paths (write, shared
// read, write-back) without a second round trip. Any failure to open either
// segment (e.g. the client didn't create them, meaning it doesn't support
// ShMem) degrades to an empty 200 response rather than an error — probing
// for a capability must never look like a protocol violation.
func (s *Server) handleTestShMem(w http.ResponseWriter, r *http.Request) {
	var req wire.TestShMemRequest
	if !s.decodeOrError(w, r, &req) {
		return
	}
	if _, ok := s.registry.Get(req.Name); !ok {
		writeError(w, "", umbridge.NewModelNotFoundError(req.Name, s.registry.Names()))
		return
	}

	inName, outName := wire.TestShMemSegmentNames(req.TID)
	value, ok := probeShMem(inName, outName)
	if !ok {
		writeJSON(w, wire.TestShMemResponse{})
		return
	}
	writeJSON(w, wire.TestShMemResponse{Value: value})
}

func probeShMem(inName, outName string) ([]float64, bool) {
	in, err := shmem.Open(inName, 1)
	if err != nil {
		return nil, false
	}
	value := append([]float64(nil), in.Doubles()...)
	if err := in.Close(); err != nil {
		return nil, false
	}

	out, err := shmem.Open(outName, 1)
	if err != nil {
		return nil, false
	}
	copy(out.Doubles(), value)
	if err := out.Close(); err != nil {
		return nil, false
	}
	return value, true
}
