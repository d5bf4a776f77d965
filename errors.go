// Package linxcore implements a lockstep co-simulation runner that drives a
// cycle-accurate RTL model (the DUT) alongside a reference architectural
// simulator (REF) and enforces bit-exact agreement of their committed
// instruction streams.
package linxcore

import "github.com/LinxISA/LinxCore/internal/lxerr"

// Re-export the structured error taxonomy for the public API.
type (
	Error        = lxerr.Error
	Kind         = lxerr.Kind
	ExitCategory = lxerr.ExitCategory
)

const (
	KindSnapshotError      = lxerr.KindSnapshotError
	KindProtocolError      = lxerr.KindProtocolError
	KindCompareMismatch    = lxerr.KindCompareMismatch
	KindExtraDutCommits    = lxerr.KindExtraDutCommits
	KindDutDeadlock        = lxerr.KindDutDeadlock
	KindDutMaxCycles       = lxerr.KindDutMaxCycles
	KindDutTerminatedEarly = lxerr.KindDutTerminatedEarly
	KindTransportError     = lxerr.KindTransportError

	ExitSuccess  = lxerr.ExitSuccess
	ExitUsage    = lxerr.ExitUsage
	ExitProtocol = lxerr.ExitProtocol
	ExitMismatch = lxerr.ExitMismatch
	ExitOtherEnd = lxerr.ExitOtherEnd
)

var (
	NewError            = lxerr.NewError
	NewMismatchError    = lxerr.NewMismatchError
	WrapError           = lxerr.WrapError
	IsKind              = lxerr.IsKind
	ExitCategoryForKind = lxerr.ExitCategoryForKind
)
