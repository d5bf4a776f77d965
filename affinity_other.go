//go:build !linux

package linxcore

import "fmt"

// pinCPU is unsupported outside Linux; CPU affinity is a determinism nicety
// for the Linux deployment target, not a correctness requirement, so
// non-Linux builds simply report it unavailable (Serve logs and continues).
func pinCPU(cpu int) error {
	return fmt.Errorf("cpu affinity pinning is unsupported on this platform")
}
