// Package interfaces provides internal interface definitions shared across
// the lockstep runner's packages, kept separate from the public package to
// avoid import cycles with its subpackages.
package interfaces

// Logger is the minimal logging capability components depend on, so that
// internal packages need not import the concrete logging package directly.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Observer receives side-channel telemetry about a running session without
// being able to influence the comparison outcome. Implementations must be
// safe to call from the single cooperative driver loop; no concurrent calls
// occur in this design, but Observer may be shared across sessions.
type Observer interface {
	ObserveCommitMatched(seq uint64)
	ObserveMismatch(field string)
	ObserveCycle(cycle uint64)
	ObserveDeadlock(cycle uint64)

	// ObserveDispatch reports the per-lane fire mask and PCs sampled on a
	// cycle with at least one lane firing (§4.C Observability hooks).
	ObserveDispatch(cycle uint64, fireMask uint8, pcs [4]uint64)
	// ObserveStore reports a data-memory write-port sample for a committed
	// store, feeding the diagnostics recent-writes ring.
	ObserveStore(cycle uint64, addr uint64, size uint8, data uint64)
}

// NoOpObserver discards all events.
type NoOpObserver struct{}

func (NoOpObserver) ObserveCommitMatched(uint64)                      {}
func (NoOpObserver) ObserveMismatch(string)                           {}
func (NoOpObserver) ObserveCycle(uint64)                              {}
func (NoOpObserver) ObserveDeadlock(uint64)                           {}
func (NoOpObserver) ObserveDispatch(uint64, uint8, [4]uint64)         {}
func (NoOpObserver) ObserveStore(uint64, uint64, uint8, uint64)       {}

var _ Observer = NoOpObserver{}
