// Package commit defines the architectural commit record shared by the REF
// and DUT streams, the metadata classifier, and the field-by-field
// comparator that enforces their equivalence.
package commit

import "github.com/LinxISA/LinxCore/internal/constants"

// Operand mirrors an optional source/destination register snapshot that
// some REF streams expose alongside the primary writeback fields.
type Operand struct {
	Valid bool
	Reg   uint8
	Data  uint64
}

// Record is the fixed-schema tuple describing one architectural retirement.
type Record struct {
	Seq  uint64
	PC   uint64
	Len  uint8
	Insn uint64

	WBValid bool
	WBRd    uint8
	WBData  uint64

	Src0, Src1, Dst Operand

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

	// Provenance fields are DUT-only and advisory: they are never compared
	// by Compare, only surfaced in diagnostics.
	Cycle     uint64
	ROBIndex  uint32
	UopUID    uint64
	ParentUID uint64
	BlockUID  uint64
	BlockBID  uint64
	IsBStart  bool
	IsBStop   bool
}

// MaskedInsn returns insn masked to the low 8*len significant bits, with len
// normalized to {2,4,6} first.
func (r *Record) MaskedInsn() uint64 {
	return r.Insn & constants.InsnMask(r.Len)
}

// NormalizedLen returns Len normalized to {2,4,6}, defaulting out-of-band
// values to 4.
func (r *Record) NormalizedLen() uint8 {
	return constants.NormalizeLen(r.Len)
}

// HasSideEffect reports whether the record carries any writeback, memory, or
// trap side-effect. Metadata commits must have none.
func (r *Record) HasSideEffect() bool {
	return r.WBValid || r.MemValid || r.TrapValid
}
