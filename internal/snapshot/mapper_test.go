package snapshot

import (
	"testing"

	"github.com/LinxISA/LinxCore/internal/constants"
	"github.com/stretchr/testify/assert"
)

func TestMapperLowWindow(t *testing.T) {
	m := NewMapper(1 << 20)
	assert.Equal(t, uint64(0x1234), m.Map(0x1234))
}

func TestMapperStackWindow(t *testing.T) {
	depth := uint64(1 << 20)
	m := NewMapper(depth)
	addr := uint64(constants.StackBase) + 0x10
	got := m.Map(addr)
	assert.Equal(t, depth/2+0x10, got)
}

func TestMapperStackWindowWraps(t *testing.T) {
	depth := uint64(1 << 20)
	m := NewMapper(depth)
	half := depth / 2
	addr := uint64(constants.StackBase) + half + 5 // wraps modulo half
	got := m.Map(addr)
	assert.Equal(t, half+5, got)
}

func TestMapperBijectionWithinRange(t *testing.T) {
	m := NewMapper(1 << 16)
	seen := map[uint64]bool{}
	for i := uint64(0); i < 4096; i++ {
		h := m.Map(i)
		assert.False(t, seen[h], "address %d collided at host offset %d", i, h)
		seen[h] = true
	}
}

func TestMapperPanicsOnNonPowerOfTwoDepth(t *testing.T) {
	assert.Panics(t, func() { NewMapper(3) })
}
