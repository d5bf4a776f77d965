package snapshot

import "github.com/LinxISA/LinxCore/internal/constants"

// Mapper folds 64-bit guest addresses into a flat backing store of depth M
// (a power of two) using the two-window (low/stack) scheme: the low window
// covers [0, M) and the stack window covers the top half [M/2, M) once the
// guest address reaches constants.StackBase.
type Mapper struct {
	depth uint64
}

// NewMapper constructs a Mapper over a backing store of the given depth.
// depth must be a power of two; NewMapper panics otherwise since this is a
// configuration error caught at construction, not a runtime condition.
func NewMapper(depth uint64) *Mapper {
	if depth == 0 || depth&(depth-1) != 0 {
		panic("snapshot: mapper depth must be a power of two")
	}
	return &Mapper{depth: depth}
}

// Depth returns the backing store depth this mapper was constructed with.
func (m *Mapper) Depth() uint64 { return m.depth }

// Map folds a guest address into a host offset within [0, depth).
func (m *Mapper) Map(addr uint64) uint64 {
	if addr >= constants.StackBase {
		half := m.depth / 2
		return (addr-constants.StackBase)%half + half
	}
	return addr % m.depth
}
