package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Version: 1, RangeCount: 3}
	copy(h.Magic[:], "LXCOSIM1")

	buf := marshalHeader(h)
	got, err := unmarshalHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.True(t, got.validMagic())
}

func TestUnmarshalHeaderInsufficientData(t *testing.T) {
	_, err := unmarshalHeader(make([]byte, 4))
	require.Error(t, err)
	var e *ErrInsufficientData
	assert.ErrorAs(t, err, &e)
}

func TestRangeEntryRoundTrip(t *testing.T) {
	e := RangeEntry{GuestBase: 0x10000, Size: 0x200, FileOffset: 0x40}
	buf := marshalRangeEntry(e)
	got, err := unmarshalRangeEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestInvalidMagicRejected(t *testing.T) {
	h := Header{Version: 1}
	copy(h.Magic[:], "NOTMAGIC")
	assert.False(t, h.validMagic())
}
