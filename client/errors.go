package client

import (
	"fmt"

	"github.com/umbridge-go/umbridge"
)

// TransportError wraps a failure to reach the server at all — DNS, dial,
// timeout, or a circuit-breaker rejection. It is distinct from
// ServerError, which means the server answered with a wire error envelope.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("umbridge client: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError wraps a umbridge.ProtocolError the server returned in its
// wire error envelope, keeping the HTTP status code around for callers
// that want to branch on it directly.
type ServerError struct {
	StatusCode int
	umbridge.ProtocolError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("umbridge server error (%s): %s", e.Type(), e.ProtocolError.Error())
}

// ValidationError signals that a client-side pre-flight check failed before
// any request reached the network: a missing capability flag, or a
// malformed parameter bundle. It is never confused with a ServerError or
// TransportError — it means the call was never sent at all.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("umbridge client: %s", e.Message)
}

// protocolErrorFromType reconstructs a concrete ProtocolError from a wire
// error envelope's type tag, defaulting to InvalidOutputError for an
// unrecognized tag (a newer server speaking a type this client doesn't
// know yet).
func protocolErrorFromType(errType, message string) umbridge.ProtocolError {
	switch umbridge.ErrorType(errType) {
	case umbridge.ErrorTypeInvalidInput:
		return &umbridge.InvalidInputError{Message: message}
	case umbridge.ErrorTypeUnsupportedFeature:
		return &umbridge.UnsupportedFeatureError{Message: message}
	case umbridge.ErrorTypeModelNotFound:
		return &umbridge.ModelNotFoundError{Message: message}
	default:
		return &umbridge.InvalidOutputError{Message: message}
	}
}
