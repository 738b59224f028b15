package wire

import "fmt"

// CheckProtocolVersion reports an error if got does not exactly match
// ProtocolVersion. The protocol defines version equality as exact, not
// semver-compatible: a 1.0 client rejects both 0.9 and 1.1.
func CheckProtocolVersion(got float64) error {
	if got != ProtocolVersion {
		return fmt.Errorf("wire: server protocol version %v does not match client version %v", got, ProtocolVersion)
	}
	return nil
}
