package umbridge

import "fmt"

// ErrorType is the closed enumeration of protocol error taxonomy values
// carried in a wire error body's "type" field.
type ErrorType string

// The four protocol error types. See each error type's doc comment for the
// HTTP status it maps to server-side (server/errors.go) and the
// circumstances that produce it.
const (
	ErrorTypeInvalidInput       ErrorType = "InvalidInput"
	ErrorTypeUnsupportedFeature ErrorType = "UnsupportedFeature"
	ErrorTypeModelNotFound      ErrorType = "ModelNotFound"
	ErrorTypeInvalidOutput      ErrorType = "InvalidOutput"
)

// ProtocolError is the common shape of all four taxonomy errors: a type tag
// plus a human-readable message. Callers should use errors.As to recover
// the concrete *InvalidInputError / *UnsupportedFeatureError / etc. when
// they need to branch on ErrorType, or just call Type() on the interface.
type ProtocolError interface {
	error
	Type() ErrorType
}

// InvalidInputError is caller-attributable: malformed body, unknown field,
// wrong dimension, out-of-range index. Maps to HTTP 400.
type InvalidInputError struct{ Message string }

func (e *InvalidInputError) Error() string    { return e.Message }
func (e *InvalidInputError) Type() ErrorType  { return ErrorTypeInvalidInput }
func NewInvalidInputError(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// UnsupportedFeatureError is returned when the named model exists but does
// not support the invoked operation. Maps to HTTP 400.
type UnsupportedFeatureError struct{ Message string }

func (e *UnsupportedFeatureError) Error() string   { return e.Message }
func (e *UnsupportedFeatureError) Type() ErrorType { return ErrorTypeUnsupportedFeature }
func NewUnsupportedFeatureError(op Operation, model string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{Message: fmt.Sprintf("%s not supported by model %q!", op, model)}
}

// ModelNotFoundError means the requested name is not in the server's
// registry. Message lists available names. Maps to HTTP 400.
type ModelNotFoundError struct{ Message string }

func (e *ModelNotFoundError) Error() string   { return e.Message }
func (e *ModelNotFoundError) Type() ErrorType { return ErrorTypeModelNotFound }
func NewModelNotFoundError(name string, available []string) *ModelNotFoundError {
	return &ModelNotFoundError{
		Message: fmt.Sprintf("model %q not found! The following are available: %v.", name, available),
	}
}

// InvalidOutputError means the model's implementation returned data
// violating its own declared shapes — a model-implementation bug, not a
// caller bug. Maps to HTTP 500.
type InvalidOutputError struct{ Message string }

func (e *InvalidOutputError) Error() string   { return e.Message }
func (e *InvalidOutputError) Type() ErrorType { return ErrorTypeInvalidOutput }
func NewInvalidOutputError(format string, args ...any) *InvalidOutputError {
	return &InvalidOutputError{Message: fmt.Sprintf(format, args...)}
}
