package client

import "fmt"

// requireCapability rejects a call locally when the cached capability flag
// from the /ModelInfo handshake is false, per spec: "Evaluate may only be
// called when the cached flag Evaluate is true; analogously for the other
// three." Returning before c.do ever runs means an unsupported call never
// reaches the network.
func requireCapability(supported bool, op string) error {
	if !supported {
		return &ValidationError{Message: fmt.Sprintf("model does not support %s (cached capability flag is false)", op)}
	}
	return nil
}

// requireBundle checks that input is a non-nil sequence of non-nil vectors —
// the "sequence of sequences of numbers" shape a pre-flight check must
// reject locally before any request is sent.
func requireBundle(input [][]float64) error {
	if input == nil {
		return &ValidationError{Message: "input must be a non-nil list of vectors"}
	}
	for i, v := range input {
		if v == nil {
			return &ValidationError{Message: fmt.Sprintf("input vector %d is nil", i)}
		}
	}
	return nil
}

// requireVector checks that a named sensitivity or tangent vector is
// non-nil, the same local shape check requireBundle applies to input.
func requireVector(name string, v []float64) error {
	if v == nil {
		return &ValidationError{Message: fmt.Sprintf("%s vector is nil", name)}
	}
	return nil
}
