//go:build linux

package linxcore

import "golang.org/x/sys/unix"

// pinCPU pins the calling OS thread to a single CPU via SchedSetaffinity,
// for the cycle-timing determinism Serve's CPUAffinity option asks for
// (§5). Callers must have already called runtime.LockOSThread.
func pinCPU(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
