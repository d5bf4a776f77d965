// Package rtl defines the black-box contract the DUT RTL model exposes to
// the stepper, the I$-L2 refill responder that models the external
// instruction-cache L2, and the per-cycle stepper driving both.
package rtl

import "github.com/LinxISA/LinxCore/internal/constants"

// LaneSignals is the fan-in of one commit lane's signals for one cycle —
// the fixed-size lane-descriptor the four-lane retirement design note (§9)
// calls for, answering "did lane i fire this cycle and what are its commit
// fields?" in a single value instead of four unrolled extraction blocks.
type LaneSignals struct {
	Fire    bool
	PC      uint64
	Op      uint64
	ROB     uint32
	InsnRaw uint64
	Len     uint8

	WBValid bool
	WBRd    uint8
	WBData  uint64

	MemValid   bool
	MemIsStore bool
	MemAddr    uint64
	MemWData   uint64
	MemRData   uint64
	MemSize    uint8

	TrapValid bool
	TrapCause uint64
	TrapArg0  uint64

	NextPC uint64

	// Provenance telemetry — optional, advisory, zero-valued when a Model
	// does not track it.
	UopUID    uint64
	ParentUID uint64
	BlockUID  uint64
	BlockBID  uint64
	IsBStart  bool
	IsBStop   bool
}

// ROBHead describes the debug head-of-ROB signals sampled on deadlock.
type ROBHead struct {
	Valid   bool
	Done    bool
	PC      uint64
	InsnRaw uint64
	Len     uint8
	Op      uint64
}

// Model is the required capability set of the RTL black box (§6.4). It is
// driven one cycle at a time by the stepper; all accessors reflect the
// state as of the most recent Tick (or Reset, before the first Tick).
type Model interface {
	// Reset drives boot inputs and brings the model out of reset.
	Reset(bootPC, bootSP, bootRA uint64)

	// Tick advances the model by exactly one clock cycle.
	Tick()

	// Cycles returns the monotonic cycle counter.
	Cycles() uint64

	// Lanes returns the current cycle's four commit lanes in lane order.
	Lanes() [constants.LaneCount]LaneSignals

	// Halted and MMIOExitValid/Code report global termination signals.
	Halted() bool
	MMIOExitValid() bool
	MMIOExitCode() uint64

	// I$-L2 request port, sampled by the responder each cycle.
	ICacheReqValid() bool
	ICacheReqAddr() uint64

	// I$-L2 response port, driven by the responder each cycle.
	SetICacheReqReady(ready bool)
	SetICacheRsp(valid bool, addr uint64, data [constants.ICacheLineBytes]byte, errFlag bool)

	// Debug head-of-ROB, sampled on deadlock.
	ROBCount() uint32
	ROBHead() ROBHead

	// Backing memories, for diagnostics peeks.
	PeekIMem(addr uint64, size int) []byte
	PeekDMem(addr uint64, size int) []byte
}

// ProvenanceCapable is an optional capability a Model may implement to
// report whether its lane provenance fields (UopUID, BlockUID, ...) are
// meaningful. A Model that does not implement it is assumed to leave them
// zero-valued, which is always a safe (if uninformative) answer.
type ProvenanceCapable interface {
	SupportsProvenance() bool
}

// ValidateLaneROBOrder checks the ROB bookkeeping invariant (§3, testable
// property 3): for any pair of lane fires in the same cycle, the later
// lane's ROB index must equal the former's, or be its immediate modulo-N
// successor.
func ValidateLaneROBOrder(lanes [constants.LaneCount]LaneSignals) bool {
	var prev uint32
	havePrev := false
	for _, l := range lanes {
		if !l.Fire {
			continue
		}
		if havePrev {
			next := (prev + 1) % constants.ROBDepth
			if l.ROB != prev && l.ROB != next {
				return false
			}
		}
		prev = l.ROB
		havePrev = true
	}
	return true
}
