// Package diagnostics owns the three bounded ring buffers the lockstep
// runner samples during a session — recent store events, recent dispatch
// events, and recent matched commit pairs — and formats the structured
// mismatch report a failed session emits (§3, §4.H, §7).
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/LinxISA/LinxCore/internal/commit"
	"github.com/LinxISA/LinxCore/internal/constants"
	"github.com/LinxISA/LinxCore/internal/interfaces"
)

// StoreEvent is one sample of the data-memory write port.
type StoreEvent struct {
	Cycle uint64
	Addr  uint64
	Size  uint8
	Data  uint64
}

// DispatchEvent is one sample of the per-lane dispatch fire vector.
type DispatchEvent struct {
	Cycle    uint64
	FireMask uint8
	PCs      [constants.LaneCount]uint64
}

// MatchedPair is one REF/DUT commit pair the comparator accepted.
type MatchedPair struct {
	Ref *commit.Record
	Dut *commit.Record
}

// Diagnostics holds the session's ring buffers. Created at session start,
// discarded at session end; side-effect-free with respect to the
// orchestrator's state machine.
type Diagnostics struct {
	stores     *Ring[StoreEvent]
	dispatches *Ring[DispatchEvent]
	matched    *Ring[MatchedPair]

	last *MatchedPair
}

// New constructs a Diagnostics with the fixed capacities named in §3.
func New() *Diagnostics {
	return &Diagnostics{
		stores:     NewRing[StoreEvent](constants.StoreRingCap),
		dispatches: NewRing[DispatchEvent](constants.DispatchRingCap),
		matched:    NewRing[MatchedPair](constants.MatchedPairRingCap),
	}
}

// ObserveCommitMatched, ObserveMismatch, ObserveCycle, and ObserveDeadlock
// satisfy interfaces.Observer for the events Diagnostics does not itself
// need to retain (the orchestrator calls RecordMatched directly with both
// records, which is richer than the bare seq this hook receives).
func (d *Diagnostics) ObserveCommitMatched(uint64) {}
func (d *Diagnostics) ObserveMismatch(string)      {}
func (d *Diagnostics) ObserveCycle(uint64)         {}
func (d *Diagnostics) ObserveDeadlock(uint64)      {}

// ObserveDispatch records a cycle's fire mask and per-lane PCs.
func (d *Diagnostics) ObserveDispatch(cycle uint64, fireMask uint8, pcs [4]uint64) {
	var out [constants.LaneCount]uint64
	copy(out[:], pcs[:])
	d.dispatches.Push(DispatchEvent{Cycle: cycle, FireMask: fireMask, PCs: out})
}

// ObserveStore records a data-memory write-port sample.
func (d *Diagnostics) ObserveStore(cycle uint64, addr uint64, size uint8, data uint64) {
	d.stores.Push(StoreEvent{Cycle: cycle, Addr: addr, Size: size, Data: data})
}

var _ interfaces.Observer = (*Diagnostics)(nil)

// RecordMatched pushes an accepted REF/DUT commit pair and remembers it as
// the last matched pair, per the orchestrator's per-commit loop.
func (d *Diagnostics) RecordMatched(ref, dut *commit.Record) {
	pair := MatchedPair{Ref: ref, Dut: dut}
	d.matched.Push(pair)
	d.last = &pair
}

// LastMatched returns the most recently matched pair, or nil if none yet.
func (d *Diagnostics) LastMatched() *MatchedPair { return d.last }

// RecentMatched returns up to MatchedPairRingCap most recent matched pairs,
// oldest first.
func (d *Diagnostics) RecentMatched() []MatchedPair { return d.matched.Items() }

// WritesTo returns the recent store events whose address falls within
// [addr, addr+size), oldest first.
func (d *Diagnostics) WritesTo(addr uint64, size int) []StoreEvent {
	end := addr + uint64(size)
	var out []StoreEvent
	for _, ev := range d.stores.Items() {
		if ev.Addr >= addr && ev.Addr < end {
			out = append(out, ev)
		}
	}
	return out
}

// MismatchReport is the structured, user-visible failure report (§4.H, §7).
// For an insn mismatch, IMemAtPC and DMemAtPC hold the DUT's raw bytes from
// both backing memories at the commit PC (the only memory this process can
// peek; REF is an external process with no peek surface). For a load-data
// mismatch, DMemAtPC holds the DUT's D-memory bytes at the memory address.
type MismatchReport struct {
	Field      string
	RefValue   uint64
	DutValue   uint64
	Ref        *commit.Record
	Dut        *commit.Record
	IMemAtPC   []byte
	DMemAtPC   []byte
	WriteTrail []StoreEvent
	Recent     []MatchedPair
}

// BuildMismatchReport assembles a MismatchReport for a field-level
// comparator mismatch, peeking the DUT's backing memories at the relevant
// address and pulling the write-history trail, per §4.H.
func BuildMismatchReport(d *Diagnostics, field string, refVal, dutVal uint64, ref, dut *commit.Record, stepper interface {
	PeekMem(addr uint64, size int) []byte
	PeekIMem(addr uint64, size int) []byte
}) *MismatchReport {
	r := &MismatchReport{
		Field:    field,
		RefValue: refVal,
		DutValue: dutVal,
		Ref:      ref,
		Dut:      dut,
		Recent:   d.RecentMatched(),
	}

	switch field {
	case "masked_insn", "insn":
		pc := ref.PC
		l := int(ref.NormalizedLen())
		r.IMemAtPC = stepper.PeekIMem(pc, l)
		r.DMemAtPC = stepper.PeekMem(pc, l)
		r.WriteTrail = d.WritesTo(pc, l)
	case "mem_rdata", "mem_wdata":
		size := int(ref.MemSize)
		if size == 0 {
			size = 8
		}
		r.DMemAtPC = stepper.PeekMem(ref.MemAddr, size)
		r.WriteTrail = d.WritesTo(ref.MemAddr, size)
	}
	return r
}

// Format renders the report as human-readable text, suitable for stderr or
// a log line, per the disassembler-plumbing design note (§9.A): a hint to
// run the external disassembler is included but the tool is never invoked.
func (r *MismatchReport) Format(disasmTool, disasmSpec string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "lockstep mismatch: field=%s ref=%#x dut=%#x\n", r.Field, r.RefValue, r.DutValue)
	if r.Ref != nil && r.Dut != nil {
		fmt.Fprintf(&b, "  ref: seq=%d pc=%#x len=%d insn=%#x next_pc=%#x\n",
			r.Ref.Seq, r.Ref.PC, r.Ref.NormalizedLen(), r.Ref.MaskedInsn(), r.Ref.NextPC)
		fmt.Fprintf(&b, "  dut: seq=%d pc=%#x len=%d insn=%#x next_pc=%#x\n",
			r.Dut.Seq, r.Dut.PC, r.Dut.NormalizedLen(), r.Dut.MaskedInsn(), r.Dut.NextPC)
	}
	if len(r.IMemAtPC) > 0 {
		fmt.Fprintf(&b, "  imem@%#x=% x\n", r.Ref.PC, r.IMemAtPC)
	}
	if len(r.DMemAtPC) > 0 {
		fmt.Fprintf(&b, "  dmem=% x\n", r.DMemAtPC)
	}
	if len(r.WriteTrail) > 0 {
		fmt.Fprintf(&b, "  recent writes:\n")
		for _, ev := range r.WriteTrail {
			fmt.Fprintf(&b, "    cycle=%d addr=%#x size=%d data=%#x\n", ev.Cycle, ev.Addr, ev.Size, ev.Data)
		}
	}
	fmt.Fprintf(&b, "  recent matched pairs: %d\n", len(r.Recent))
	for _, p := range r.Recent {
		fmt.Fprintf(&b, "    seq=%d pc=%#x cycle=%d\n", p.Ref.Seq, p.Ref.PC, p.Dut.Cycle)
	}
	if disasmTool != "" && disasmSpec != "" && r.Ref != nil {
		fmt.Fprintf(&b, "  disassemble with: %s %s %#x\n", disasmTool, disasmSpec, r.Ref.MaskedInsn())
	}
	return b.String()
}
