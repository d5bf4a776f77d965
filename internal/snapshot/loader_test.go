package snapshot

import (
	"testing"

	"github.com/LinxISA/LinxCore/internal/lxerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSnapshot assembles a minimal valid snapshot image from a list of
// (guestBase, payload) ranges.
func buildSnapshot(ranges [][2]any) []byte {
	h := Header{Version: 1, RangeCount: uint32(len(ranges))}
	copy(h.Magic[:], "LXCOSIM1")

	buf := marshalHeader(h)

	payloadStart := headerSize + len(ranges)*24
	var payloads []byte
	offsets := make([]uint64, len(ranges))
	for i, r := range ranges {
		offsets[i] = uint64(payloadStart + len(payloads))
		payloads = append(payloads, r[1].([]byte)...)
	}

	for i, r := range ranges {
		entry := RangeEntry{
			GuestBase:  r[0].(uint64),
			Size:       uint64(len(r[1].([]byte))),
			FileOffset: offsets[i],
		}
		buf = append(buf, marshalRangeEntry(entry)...)
	}
	buf = append(buf, payloads...)
	return buf
}

func TestLoadBytesHappyPath(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	raw := buildSnapshot([][2]any{{uint64(0x100), payload}})

	img, err := LoadBytes(raw, 1<<16)
	require.NoError(t, err)
	require.Len(t, img.Ranges, 1)
	assert.Equal(t, uint64(0x100), img.Ranges[0].GuestBase)

	got, err := img.Mem.PeekAt(img.Mapper.Map(0x100), 4)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestLoadBytesBadMagic(t *testing.T) {
	raw := buildSnapshot([][2]any{{uint64(0x100), []byte{1}}})
	raw[0] = 'X' // corrupt magic

	_, err := LoadBytes(raw, 1<<16)
	require.Error(t, err)
	assert.True(t, lxerr.IsKind(err, lxerr.KindSnapshotError))
}

func TestLoadBytesUnsupportedVersion(t *testing.T) {
	raw := buildSnapshot([][2]any{{uint64(0x100), []byte{1}}})
	raw[8] = 2 // version LE byte 0

	_, err := LoadBytes(raw, 1<<16)
	require.Error(t, err)
}

func TestLoadBytesShortRead(t *testing.T) {
	raw := buildSnapshot([][2]any{{uint64(0x100), []byte{1, 2, 3}}})
	truncated := raw[:len(raw)-2]

	_, err := LoadBytes(truncated, 1<<16)
	require.Error(t, err)
}

func TestLoadBytesAliasing(t *testing.T) {
	// two ranges that map to overlapping host offsets within the low window
	depth := uint64(16)
	raw := buildSnapshot([][2]any{
		{uint64(0), []byte{1, 2, 3, 4}},
		{depth, []byte{5, 6, 7, 8}}, // wraps to the same host offsets (mod depth)
	})

	_, err := LoadBytes(raw, depth)
	require.Error(t, err)
	assert.True(t, lxerr.IsKind(err, lxerr.KindSnapshotError))
}

func TestLoadBytesRangeExceedsDepth(t *testing.T) {
	raw := buildSnapshot([][2]any{{uint64(0), make([]byte, 32)}})
	_, err := LoadBytes(raw, 16)
	require.Error(t, err)
}
