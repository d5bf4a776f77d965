package commit

// Metadata bit-pattern contracts. These tables are ISA-specific fixed
// contracts of the system, not implementation conveniences, and must be
// reproduced exactly.
const (
	// Compact (16-bit) block-start pattern.
	compactBStartMask = 0xC7FF
	compactBStartLow1 = 0x0000
	compactBStartLow2 = 0x0080

	// Branch-type field occupies bits 13..11 of the compact payload.
	compactBranchTypeMask = 0x3800
	compactBranchTypeShift = 11

	// Standard (32-bit) block-start mask: insn & 0x7FFF must land on a
	// multiple of 0x1000 offset by 0x1 in the range [0x1001, 0x7001].
	standardBStartMask = 0x7FFF

	// Macro-marker (32-bit) mask.
	macroMarkerMask = 0x707F
)

// compactExplicitMarkers lists the explicit 16-bit marker constants that are
// always metadata regardless of the generic compact pattern.
var compactExplicitMarkers = map[uint64]bool{
	0x0840: true,
	0x08C0: true,
	0x48C0: true,
	0x88C0: true,
	0xC8C0: true,
}

// standardBStartValues enumerates the standard block-start masked values:
// 0x1001, 0x2001, ..., 0x7001.
var standardBStartValues = map[uint64]bool{
	0x1001: true,
	0x2001: true,
	0x3001: true,
	0x4001: true,
	0x5001: true,
	0x6001: true,
	0x7001: true,
}

// macroMarkerValues enumerates the macro-marker masked values.
var macroMarkerValues = map[uint64]bool{
	0x0041: true,
	0x1041: true,
	0x2041: true,
	0x3041: true,
}

// IsMetadata reports whether r is a metadata-only commit: a boundary marker
// or placeholder row with no architectural side-effect. Metadata records
// must be acknowledged on whichever side emits them without being paired
// against the other side's stream.
func IsMetadata(r *Record) bool {
	if r.Len == 0 && r.PC == 0 && r.Insn == 0 {
		return true
	}

	if r.HasSideEffect() {
		// Rules 2-5 all require the absence of any side-effect; rule 1 is
		// already handled above and also requires a zero insn/pc.
		return false
	}

	switch r.NormalizedLen() {
	case 2:
		return isCompactBlockStart(r.Insn)
	case 4:
		masked := r.Insn & standardBStartMask
		if standardBStartValues[masked] {
			return true
		}
		return macroMarkerValues[r.Insn&macroMarkerMask]
	case 6:
		return isExtendedBlockStart(r.Insn)
	}
	return false
}

// isCompactBlockStart implements rule 2: the 16-bit compact block-start
// pattern set.
func isCompactBlockStart(insn uint64) bool {
	hw := insn & 0xFFFF

	generic := hw & compactBStartMask
	if generic == compactBStartLow1 || generic == compactBStartLow2 {
		branchType := (hw & compactBranchTypeMask) >> compactBranchTypeShift
		if branchType != 0 {
			return true
		}
	}

	lowNibble := hw & 0xF
	if lowNibble == 2 || lowNibble == 4 {
		return true
	}

	return compactExplicitMarkers[hw]
}

// isExtendedBlockStart implements rule 4: the 48-bit extended block-start
// pattern, a prefix nibble of 0xE with a 0x01 low byte on the main 32-bit
// word and a non-zero branch-type field.
func isExtendedBlockStart(insn uint64) bool {
	payload := insn & 0xFFFFFFFFFFFF // low 48 bits significant

	prefixNibble := (payload >> 44) & 0xF
	if prefixNibble != 0xE {
		return false
	}

	main32 := payload & 0xFFFFFFFF
	if main32&0xFF != 0x01 {
		return false
	}

	branchType := (payload & compactBranchTypeMask) >> compactBranchTypeShift
	return branchType != 0
}
