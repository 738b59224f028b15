package server

import (
	"encoding/json"
	"net/http"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/internal/metrics"
	"github.com/umbridge-go/umbridge/wire"
)

// statusFor maps a ProtocolError's type to the HTTP status the wire format
// requires: caller-attributable errors are 400, model-implementation bugs
// are 500.
func statusFor(t umbridge.ErrorType) int {
	switch t {
	case umbridge.ErrorTypeInvalidOutput:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeError encodes err as the wire error envelope and records it in the
// error-type metric, labeled by model (empty if the model name isn't known
// yet, e.g. a malformed body).
func writeError(w http.ResponseWriter, model string, err umbridge.ProtocolError) {
	metrics.ErrorsTotal.WithLabelValues(model, string(err.Type())).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err.Type()))
	_ = json.NewEncoder(w).Encode(wire.ErrorResponse{
		Error: wire.ErrorBody{Type: string(err.Type()), Message: err.Error()},
	})
}

// writeJSON encodes v as a 200 OK JSON body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
