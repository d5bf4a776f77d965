package snapshot

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Memory is the DUT's flat backing store: one contiguous byte-addressable
// region, indexed through a Mapper. Unlike a general-purpose block backend,
// this store is only ever touched by the single cooperative driver loop
// (§5), so no internal locking is needed.
type Memory struct {
	data   []byte
	mapped bool
}

// NewMemory allocates a backing store of the given depth. Depths at or above
// largeAllocThreshold are obtained via an anonymous mmap rather than a Go
// slice literal, keeping multi-megabyte snapshots off the garbage-collected
// heap.
const largeAllocThreshold = 4 << 20 // 4MB

func NewMemory(depth uint64) (*Memory, error) {
	if depth >= largeAllocThreshold {
		b, err := unix.Mmap(-1, 0, int(depth), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
		if err != nil {
			return nil, fmt.Errorf("snapshot: mmap backing store: %w", err)
		}
		return &Memory{data: b, mapped: true}, nil
	}
	return &Memory{data: make([]byte, depth)}, nil
}

// Close releases the backing store. It is a no-op for heap-allocated stores.
func (m *Memory) Close() error {
	if m.mapped && m.data != nil {
		err := unix.Munmap(m.data)
		m.data = nil
		return err
	}
	m.data = nil
	return nil
}

// Size returns the backing store's depth in bytes.
func (m *Memory) Size() int64 { return int64(len(m.data)) }

// PokeAt writes p into the backing store starting at host offset off. It is
// the caller's responsibility to have already mapped a guest address to off
// via a Mapper; PokeAt never folds addresses itself.
func (m *Memory) PokeAt(p []byte, off uint64) error {
	if off+uint64(len(p)) > uint64(len(m.data)) {
		return fmt.Errorf("snapshot: poke out of bounds: off=%d len=%d depth=%d", off, len(p), len(m.data))
	}
	copy(m.data[off:], p)
	return nil
}

// PeekAt reads size bytes from host offset off.
func (m *Memory) PeekAt(off, size uint64) ([]byte, error) {
	if off+size > uint64(len(m.data)) {
		return nil, fmt.Errorf("snapshot: peek out of bounds: off=%d size=%d depth=%d", off, size, len(m.data))
	}
	out := make([]byte, size)
	copy(out, m.data[off:off+size])
	return out, nil
}
