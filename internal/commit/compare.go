package commit

// Mismatch describes the first divergent field between a REF and DUT commit,
// with both values normalized to uint64 (booleans as 0/1) so the report path
// has a single uniform representation.
type Mismatch struct {
	Field string
	Ref   uint64
	Dut   uint64
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Compare performs the fixed-order, short-circuiting field comparison
// described by the commit comparator: it returns nil when ref and dut are
// architecturally equivalent, or the first Mismatch encountered otherwise.
func Compare(ref, dut *Record) *Mismatch {
	if ref.PC != dut.PC {
		return &Mismatch{"pc", ref.PC, dut.PC}
	}

	rlen, dlen := ref.NormalizedLen(), dut.NormalizedLen()
	if rlen != dlen {
		return &Mismatch{"len", uint64(rlen), uint64(dlen)}
	}

	rinsn, dinsn := ref.MaskedInsn(), dut.MaskedInsn()
	if rinsn != dinsn {
		return &Mismatch{"masked_insn", rinsn, dinsn}
	}

	if ref.WBValid != dut.WBValid {
		return &Mismatch{"wb_valid", b2u(ref.WBValid), b2u(dut.WBValid)}
	}
	if ref.WBValid {
		if ref.WBRd != dut.WBRd {
			return &Mismatch{"wb_rd", uint64(ref.WBRd), uint64(dut.WBRd)}
		}
		if ref.WBData != dut.WBData {
			return &Mismatch{"wb_data", ref.WBData, dut.WBData}
		}
	}

	if ref.MemValid != dut.MemValid {
		return &Mismatch{"mem_valid", b2u(ref.MemValid), b2u(dut.MemValid)}
	}
	if ref.MemValid {
		if ref.MemIsStore != dut.MemIsStore {
			return &Mismatch{"mem_is_store", b2u(ref.MemIsStore), b2u(dut.MemIsStore)}
		}
		if ref.MemAddr != dut.MemAddr {
			return &Mismatch{"mem_addr", ref.MemAddr, dut.MemAddr}
		}
		if ref.MemSize != dut.MemSize {
			return &Mismatch{"mem_size", uint64(ref.MemSize), uint64(dut.MemSize)}
		}
		if ref.MemIsStore {
			if ref.MemWData != dut.MemWData {
				return &Mismatch{"mem_wdata", ref.MemWData, dut.MemWData}
			}
		} else {
			if ref.MemRData != dut.MemRData {
				return &Mismatch{"mem_rdata", ref.MemRData, dut.MemRData}
			}
		}
	}

	if ref.TrapValid != dut.TrapValid {
		return &Mismatch{"trap_valid", b2u(ref.TrapValid), b2u(dut.TrapValid)}
	}
	if ref.TrapValid {
		if ref.TrapCause != dut.TrapCause {
			return &Mismatch{"trap_cause", ref.TrapCause, dut.TrapCause}
		}
		if ref.TrapArg0 != dut.TrapArg0 {
			return &Mismatch{"trap_arg0", ref.TrapArg0, dut.TrapArg0}
		}
	}

	if m := compareOperand("src0", ref.Src0, dut.Src0); m != nil {
		return m
	}
	if m := compareOperand("src1", ref.Src1, dut.Src1); m != nil {
		return m
	}
	if m := compareOperand("dst", ref.Dst, dut.Dst); m != nil {
		return m
	}

	if ref.NextPC != dut.NextPC {
		return &Mismatch{"next_pc", ref.NextPC, dut.NextPC}
	}

	return nil
}

// compareOperand compares an optional src/dst mirror only when ref asserts
// validity; a ref-valid/dut-invalid pair fails on the valid field itself.
func compareOperand(name string, ref, dut Operand) *Mismatch {
	if !ref.Valid {
		return nil
	}
	if ref.Valid != dut.Valid {
		return &Mismatch{name + "_valid", b2u(ref.Valid), b2u(dut.Valid)}
	}
	if ref.Reg != dut.Reg {
		return &Mismatch{name + "_reg", uint64(ref.Reg), uint64(dut.Reg)}
	}
	if ref.Data != dut.Data {
		return &Mismatch{name + "_data", ref.Data, dut.Data}
	}
	return nil
}
