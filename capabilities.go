package umbridge

// Capabilities is a flat bitmask of the operations a Model supports,
// including the optional shared-memory variant of each. Per the design
// note in this protocol's spec, the capability matrix — four booleans times
// two transports — maps to a single bitmask rather than an inheritance
// hierarchy; model implementations expose a flat method table (the Model
// interface) plus this mask.
type Capabilities uint8

// Bit flags for Capabilities. The HTTP variants mirror the booleans
// returned by /ModelInfo; the ShMem variants are set (via WithShMem) only
// when the server has its shared-memory transport enabled.
const (
	CapEvaluate Capabilities = 1 << iota
	CapGradient
	CapApplyJacobian
	CapApplyHessian
	CapEvaluateShMem
	CapGradientShMem
	CapApplyJacobianShMem
	CapApplyHessianShMem
)

// Has reports whether all bits in want are set in c.
func (c Capabilities) Has(want Capabilities) bool {
	return c&want == want
}

// CapabilitiesOf derives the non-ShMem capability bits from a Model's
// support predicates.
func CapabilitiesOf(m Model) Capabilities {
	var c Capabilities
	if m.SupportsEvaluate() {
		c |= CapEvaluate
	}
	if m.SupportsGradient() {
		c |= CapGradient
	}
	if m.SupportsApplyJacobian() {
		c |= CapApplyJacobian
	}
	if m.SupportsApplyHessian() {
		c |= CapApplyHessian
	}
	return c
}

// capabilityForOp maps an Operation to its HTTP capability bit.
func capabilityForOp(op Operation) Capabilities {
	switch op {
	case OpEvaluate:
		return CapEvaluate
	case OpGradient:
		return CapGradient
	case OpApplyJacobian:
		return CapApplyJacobian
	case OpApplyHessian:
		return CapApplyHessian
	default:
		return 0
	}
}

// HasOp reports whether c includes the HTTP capability bit for op. Servers
// use this in place of calling a model's individual SupportsX predicate
// directly once the mask has been computed.
func (c Capabilities) HasOp(op Operation) bool {
	return c.Has(capabilityForOp(op))
}

// WithShMem returns c with the ShMem bit for every HTTP capability c already
// has set alongside it — used when a server has the shared-memory transport
// enabled, so /ModelInfo can advertise both transports from one mask.
func (c Capabilities) WithShMem() Capabilities {
	if c.Has(CapEvaluate) {
		c |= CapEvaluateShMem
	}
	if c.Has(CapGradient) {
		c |= CapGradientShMem
	}
	if c.Has(CapApplyJacobian) {
		c |= CapApplyJacobianShMem
	}
	if c.Has(CapApplyHessian) {
		c |= CapApplyHessianShMem
	}
	return c
}
