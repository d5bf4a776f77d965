package framing

import (
	"fmt"

	"github.com/LinxISA/LinxCore/internal/commit"
	"github.com/LinxISA/LinxCore/internal/constants"
	"github.com/LinxISA/LinxCore/internal/lxerr"
)

// Kind classifies a decoded wire message (§4.F).
type Kind string

const (
	KindStart Kind = "start"
	KindCommit Kind = "commit"
	KindEnd    Kind = "end"
)

// StartMsg is the REF→runner start record (§6.2). TerminatePC is nil when
// the field is absent — its presence drives the end-of-window terminate-PC
// tail exception (§4.G).
type StartMsg struct {
	SnapshotPath string
	TriggerPC    uint64
	TerminatePC  *uint64
	BootPC       uint64
	BootSP       uint64
	BootRA       uint64
	SeqBase      uint64
}

// EndMsg is the REF→runner end record (§6.2).
type EndMsg struct {
	Reason string
}

// Strict end reasons under which the end-of-window reconciliation (§4.G)
// tolerates at most one same-cycle trailing non-metadata DUT commit.
const (
	ReasonTerminatePC = "terminate_pc"
	ReasonGuestExit   = "guest_exit"
)

// IsStrictEnd reports whether reason is one of the strict end-of-window
// reasons (§4.G).
func IsStrictEnd(reason string) bool {
	return reason == ReasonTerminatePC || reason == ReasonGuestExit
}

// StartDefaults supplies the boot-register defaults applied when a start
// record omits boot_sp/boot_ra, so a CLI-configured override (§6.3) reaches
// the decoder without the wire format itself needing to carry it.
type StartDefaults struct {
	BootSP uint64
	BootRA uint64
}

// DefaultStartDefaults returns the runner's literal boot-register defaults.
func DefaultStartDefaults() StartDefaults {
	return StartDefaults{BootSP: constants.DefaultBootSP, BootRA: constants.DefaultBootRA}
}

// DecodeStart decodes a start record's fields. BootPC defaults to
// TriggerPC, BootSP/BootRA to defaults, SeqBase to 0 (§6.2).
func DecodeStart(f Fields, defaults StartDefaults) (*StartMsg, error) {
	path, ok := f.String("snapshot_path")
	if !ok || path == "" {
		return nil, lxerr.NewError("framing.DecodeStart", lxerr.KindProtocolError, "start: missing snapshot_path")
	}
	triggerPC, err := f.Uint64("trigger_pc")
	if err != nil {
		return nil, lxerr.WrapError("framing.DecodeStart", lxerr.KindProtocolError, err)
	}
	terminatePC, err := f.NillableUint64("terminate_pc")
	if err != nil {
		return nil, lxerr.WrapError("framing.DecodeStart", lxerr.KindProtocolError, err)
	}
	return &StartMsg{
		SnapshotPath: path,
		TriggerPC:    triggerPC,
		TerminatePC:  terminatePC,
		BootPC:       f.OptUint64("boot_pc", triggerPC),
		BootSP:       f.OptUint64("boot_sp", defaults.BootSP),
		BootRA:       f.OptUint64("boot_ra", defaults.BootRA),
		SeqBase:      f.OptUint64("seq_base", 0),
	}, nil
}

// DecodeEnd decodes an end record's fields.
func DecodeEnd(f Fields) (*EndMsg, error) {
	reason, ok := f.String("reason")
	if !ok || reason == "" {
		return nil, lxerr.NewError("framing.DecodeEnd", lxerr.KindProtocolError, "end: missing reason")
	}
	return &EndMsg{Reason: reason}, nil
}

// DecodeCommit decodes a commit record's fields into a commit.Record (§6.2,
// §3). The wire's "traparg0" key is accepted as an alias of the documented
// "trap_arg0" field name, matching the protocol's literal required key set.
func DecodeCommit(f Fields) (*commit.Record, error) {
	const op = "framing.DecodeCommit"

	uintField := func(key string) (uint64, error) { return f.Uint64(key) }

	seq, err := uintField("seq")
	if err != nil {
		return nil, lxerr.WrapError(op, lxerr.KindProtocolError, err)
	}
	pc, err := uintField("pc")
	if err != nil {
		return nil, lxerr.WrapError(op, lxerr.KindProtocolError, err)
	}
	length, err := uintField("len")
	if err != nil {
		return nil, lxerr.WrapError(op, lxerr.KindProtocolError, err)
	}
	insn, err := uintField("insn")
	if err != nil {
		return nil, lxerr.WrapError(op, lxerr.KindProtocolError, err)
	}

	rec := &commit.Record{
		Seq:  seq,
		PC:   pc,
		Len:  uint8(length),
		Insn: insn,

		WBValid: f.Bool("wb_valid"),
		WBRd:    uint8(f.OptUint64("wb_rd", 0)),
		WBData:  f.OptUint64("wb_data", 0),

		MemValid:   f.Bool("mem_valid"),
		MemIsStore: f.Bool("mem_is_store"),
		MemAddr:    f.OptUint64("mem_addr", 0),
		MemWData:   f.OptUint64("mem_wdata", 0),
		MemRData:   f.OptUint64("mem_rdata", 0),
		MemSize:    uint8(f.OptUint64("mem_size", 0)),

		TrapValid: f.Bool("trap_valid"),
		TrapCause: f.OptUint64("trap_cause", 0),

		NextPC: f.OptUint64("next_pc", 0),
	}

	if v, ok := f["trap_arg0"]; ok {
		n, perr := f.Uint64("trap_arg0")
		if perr != nil {
			return nil, lxerr.NewError(op, lxerr.KindProtocolError, "trap_arg0: "+v)
		}
		rec.TrapArg0 = n
	} else {
		rec.TrapArg0 = f.OptUint64("traparg0", 0)
	}

	rec.Src0 = decodeOperand(f, "src0")
	rec.Src1 = decodeOperand(f, "src1")
	rec.Dst = decodeOperand(f, "dst")

	return rec, nil
}

func decodeOperand(f Fields, prefix string) commit.Operand {
	return commit.Operand{
		Valid: f.Bool(prefix + "_valid"),
		Reg:   uint8(f.OptUint64(prefix+"_reg", 0)),
		Data:  f.OptUint64(prefix+"_data", 0),
	}
}

// EncodeAckOk renders the runner→REF ack_ok line for seq (§6.2).
func EncodeAckOk(seq uint64) string {
	return fmt.Sprintf("type:ack_ok,seq:%d,status:ok", seq)
}

// EncodeAckMismatch renders the runner→REF ack_mismatch line (§6.2).
func EncodeAckMismatch(seq uint64, field string, refVal, dutVal uint64) string {
	return fmt.Sprintf("type:ack_mismatch,seq:%d,status:mismatch,field:%s,qemu:%d,dut:%d", seq, field, refVal, dutVal)
}
